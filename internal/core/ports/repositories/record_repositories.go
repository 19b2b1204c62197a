package repositories

import (
	"context"

	"github.com/shauritanga/twa-system/internal/core/domain"
)

// RecordReferenceRepository links domain records to their journal entries.
// SetJournalReference updates only the reference column and never triggers lifecycle reactions.
// Both methods return ErrNotFound for records this ledger does not store.
type RecordReferenceRepository interface {
	FindRecordStateForUpdate(ctx context.Context, ref domain.RecordRef) (*domain.RecordState, error)
	SetJournalReference(ctx context.Context, ref domain.RecordRef, entryID string) error
}

// RecordRepositoryFacade stores the association's transaction records.
// FindXForUpdate variants lock the row until the surrounding transaction ends.
// UpdateX writes status and timestamps, never the reference columns.
type RecordRepositoryFacade interface {
	RecordReferenceRepository

	CreatePayment(ctx context.Context, p *domain.Payment) error
	FindPaymentByID(ctx context.Context, id int64) (*domain.Payment, error)

	CreateLoan(ctx context.Context, l *domain.Loan) error
	FindLoanByID(ctx context.Context, id int64) (*domain.Loan, error)
	FindLoanForUpdate(ctx context.Context, id int64) (*domain.Loan, error)
	UpdateLoan(ctx context.Context, l domain.Loan) error

	CreateExpense(ctx context.Context, e *domain.ExpenseRecord) error
	FindExpenseByID(ctx context.Context, id int64) (*domain.ExpenseRecord, error)
	FindExpenseForUpdate(ctx context.Context, id int64) (*domain.ExpenseRecord, error)
	UpdateExpense(ctx context.Context, e domain.ExpenseRecord) error

	CreatePenalty(ctx context.Context, p *domain.Penalty) error
	FindPenaltyByID(ctx context.Context, id int64) (*domain.Penalty, error)
	FindPenaltyForUpdate(ctx context.Context, id int64) (*domain.Penalty, error)
	UpdatePenalty(ctx context.Context, p domain.Penalty) error

	CreateDisasterPayment(ctx context.Context, d *domain.DisasterPayment) error
	FindDisasterPaymentByID(ctx context.Context, id int64) (*domain.DisasterPayment, error)
	FindDisasterPaymentForUpdate(ctx context.Context, id int64) (*domain.DisasterPayment, error)
	UpdateDisasterPayment(ctx context.Context, d domain.DisasterPayment) error

	CreateDebt(ctx context.Context, d *domain.Debt) error
	FindDebtByID(ctx context.Context, id int64) (*domain.Debt, error)
	FindDebtForUpdate(ctx context.Context, id int64) (*domain.Debt, error)
	UpdateDebt(ctx context.Context, d domain.Debt) error
}
