package memory

import (
	"context"
	"fmt"

	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
)

var _ portsrepo.RecordRepositoryFacade = (*Store)(nil)

func findRecord[T any](s *Store, table func(d *state) map[int64]T, kind domain.TransactionKind, id int64) (*T, error) {
	var (
		rec T
		ok  bool
	)
	s.read(func(d *state) { rec, ok = table(d)[id] })
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("%s %d", kind, id))
	}
	return &rec, nil
}

func updateRecord[T any](ctx context.Context, s *Store, table func(d *state) map[int64]T, kind domain.TransactionKind, id int64, fn func(existing T) T) error {
	return s.write(ctx, func(d *state) error {
		existing, ok := table(d)[id]
		if !ok {
			return apperrors.NewNotFoundError(fmt.Sprintf("%s %d", kind, id))
		}
		table(d)[id] = fn(existing)
		return nil
	})
}

func paymentsOf(d *state) map[int64]domain.Payment                 { return d.payments }
func loansOf(d *state) map[int64]domain.Loan                       { return d.loans }
func expensesOf(d *state) map[int64]domain.ExpenseRecord           { return d.expenses }
func penaltiesOf(d *state) map[int64]domain.Penalty                { return d.penalties }
func disasterPaymentsOf(d *state) map[int64]domain.DisasterPayment { return d.disasterPayments }
func debtsOf(d *state) map[int64]domain.Debt                       { return d.debts }

func (s *Store) CreatePayment(ctx context.Context, p *domain.Payment) error {
	p.ID = s.nextRecordID()
	return s.write(ctx, func(d *state) error { d.payments[p.ID] = *p; return nil })
}

func (s *Store) FindPaymentByID(ctx context.Context, id int64) (*domain.Payment, error) {
	return findRecord(s, paymentsOf, domain.KindPayment, id)
}

func (s *Store) CreateLoan(ctx context.Context, l *domain.Loan) error {
	l.ID = s.nextRecordID()
	return s.write(ctx, func(d *state) error { d.loans[l.ID] = *l; return nil })
}

func (s *Store) FindLoanByID(ctx context.Context, id int64) (*domain.Loan, error) {
	return findRecord(s, loansOf, domain.KindLoan, id)
}

func (s *Store) FindLoanForUpdate(ctx context.Context, id int64) (*domain.Loan, error) {
	return s.FindLoanByID(ctx, id)
}

func (s *Store) UpdateLoan(ctx context.Context, l domain.Loan) error {
	return updateRecord(ctx, s, loansOf, domain.KindLoan, l.ID, func(existing domain.Loan) domain.Loan {
		l.DisbursementJournalEntryID = existing.DisbursementJournalEntryID
		l.RepaymentJournalEntryID = existing.RepaymentJournalEntryID
		return l
	})
}

func (s *Store) CreateExpense(ctx context.Context, e *domain.ExpenseRecord) error {
	e.ID = s.nextRecordID()
	return s.write(ctx, func(d *state) error { d.expenses[e.ID] = *e; return nil })
}

func (s *Store) FindExpenseByID(ctx context.Context, id int64) (*domain.ExpenseRecord, error) {
	return findRecord(s, expensesOf, domain.KindExpense, id)
}

func (s *Store) FindExpenseForUpdate(ctx context.Context, id int64) (*domain.ExpenseRecord, error) {
	return s.FindExpenseByID(ctx, id)
}

func (s *Store) UpdateExpense(ctx context.Context, e domain.ExpenseRecord) error {
	return updateRecord(ctx, s, expensesOf, domain.KindExpense, e.ID, func(existing domain.ExpenseRecord) domain.ExpenseRecord {
		e.JournalEntryID = existing.JournalEntryID
		return e
	})
}

func (s *Store) CreatePenalty(ctx context.Context, p *domain.Penalty) error {
	p.ID = s.nextRecordID()
	return s.write(ctx, func(d *state) error { d.penalties[p.ID] = *p; return nil })
}

func (s *Store) FindPenaltyByID(ctx context.Context, id int64) (*domain.Penalty, error) {
	return findRecord(s, penaltiesOf, domain.KindPenalty, id)
}

func (s *Store) FindPenaltyForUpdate(ctx context.Context, id int64) (*domain.Penalty, error) {
	return s.FindPenaltyByID(ctx, id)
}

func (s *Store) UpdatePenalty(ctx context.Context, p domain.Penalty) error {
	return updateRecord(ctx, s, penaltiesOf, domain.KindPenalty, p.ID, func(existing domain.Penalty) domain.Penalty {
		p.JournalEntryID = existing.JournalEntryID
		return p
	})
}

func (s *Store) CreateDisasterPayment(ctx context.Context, dp *domain.DisasterPayment) error {
	dp.ID = s.nextRecordID()
	return s.write(ctx, func(d *state) error { d.disasterPayments[dp.ID] = *dp; return nil })
}

func (s *Store) FindDisasterPaymentByID(ctx context.Context, id int64) (*domain.DisasterPayment, error) {
	return findRecord(s, disasterPaymentsOf, domain.KindDisasterPayment, id)
}

func (s *Store) FindDisasterPaymentForUpdate(ctx context.Context, id int64) (*domain.DisasterPayment, error) {
	return s.FindDisasterPaymentByID(ctx, id)
}

func (s *Store) UpdateDisasterPayment(ctx context.Context, dp domain.DisasterPayment) error {
	return updateRecord(ctx, s, disasterPaymentsOf, domain.KindDisasterPayment, dp.ID, func(existing domain.DisasterPayment) domain.DisasterPayment {
		dp.JournalEntryID = existing.JournalEntryID
		return dp
	})
}

func (s *Store) CreateDebt(ctx context.Context, debt *domain.Debt) error {
	debt.ID = s.nextRecordID()
	return s.write(ctx, func(d *state) error { d.debts[debt.ID] = *debt; return nil })
}

func (s *Store) FindDebtByID(ctx context.Context, id int64) (*domain.Debt, error) {
	return findRecord(s, debtsOf, domain.KindDebt, id)
}

func (s *Store) FindDebtForUpdate(ctx context.Context, id int64) (*domain.Debt, error) {
	return s.FindDebtByID(ctx, id)
}

func (s *Store) UpdateDebt(ctx context.Context, debt domain.Debt) error {
	return updateRecord(ctx, s, debtsOf, domain.KindDebt, debt.ID, func(existing domain.Debt) domain.Debt {
		debt.JournalEntryID = existing.JournalEntryID
		debt.PaymentJournalEntryID = existing.PaymentJournalEntryID
		return debt
	})
}

func recordState[T interface{ State() domain.RecordState }](s *Store, table func(d *state) map[int64]T, ref domain.RecordRef) (*domain.RecordState, error) {
	rec, err := findRecord(s, table, ref.Kind, ref.RecordID)
	if err != nil {
		return nil, err
	}
	st := (*rec).State()
	return &st, nil
}

// FindRecordStateForUpdate returns what a posting for ref must match. Writers are
// already serialized by the transaction mutex.
func (s *Store) FindRecordStateForUpdate(ctx context.Context, ref domain.RecordRef) (*domain.RecordState, error) {
	switch ref.Kind {
	case domain.KindPayment:
		return recordState(s, paymentsOf, ref)
	case domain.KindLoan:
		return recordState(s, loansOf, ref)
	case domain.KindExpense:
		return recordState(s, expensesOf, ref)
	case domain.KindPenalty:
		return recordState(s, penaltiesOf, ref)
	case domain.KindDisasterPayment:
		return recordState(s, disasterPaymentsOf, ref)
	case domain.KindDebt:
		return recordState(s, debtsOf, ref)
	}
	return nil, fmt.Errorf("%w: unknown record kind %q", apperrors.ErrValidation, ref.Kind)
}

// SetJournalReference writes only the reference column matching the stage.
func (s *Store) SetJournalReference(ctx context.Context, ref domain.RecordRef, entryID string) error {
	id := entryID
	switch ref.Kind {
	case domain.KindPayment:
		return updateRecord(ctx, s, paymentsOf, ref.Kind, ref.RecordID, func(p domain.Payment) domain.Payment {
			p.JournalEntryID = &id
			return p
		})
	case domain.KindLoan:
		return updateRecord(ctx, s, loansOf, ref.Kind, ref.RecordID, func(l domain.Loan) domain.Loan {
			if ref.Stage == domain.StageRepaid {
				l.RepaymentJournalEntryID = &id
			} else {
				l.DisbursementJournalEntryID = &id
			}
			return l
		})
	case domain.KindExpense:
		return updateRecord(ctx, s, expensesOf, ref.Kind, ref.RecordID, func(e domain.ExpenseRecord) domain.ExpenseRecord {
			e.JournalEntryID = &id
			return e
		})
	case domain.KindPenalty:
		return updateRecord(ctx, s, penaltiesOf, ref.Kind, ref.RecordID, func(p domain.Penalty) domain.Penalty {
			p.JournalEntryID = &id
			return p
		})
	case domain.KindDisasterPayment:
		return updateRecord(ctx, s, disasterPaymentsOf, ref.Kind, ref.RecordID, func(dp domain.DisasterPayment) domain.DisasterPayment {
			dp.JournalEntryID = &id
			return dp
		})
	case domain.KindDebt:
		return updateRecord(ctx, s, debtsOf, ref.Kind, ref.RecordID, func(debt domain.Debt) domain.Debt {
			if ref.Stage == domain.StagePaid {
				debt.PaymentJournalEntryID = &id
			} else {
				debt.JournalEntryID = &id
			}
			return debt
		})
	}
	return fmt.Errorf("%w: unknown record kind %q", apperrors.ErrValidation, ref.Kind)
}
