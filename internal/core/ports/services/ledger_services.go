package services

import (
	"context"
	"time"

	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shauritanga/twa-system/internal/dto"
	"github.com/shopspring/decimal"
)

// BalanceProjectorSvc maintains and reports account balances.
type BalanceProjectorSvc interface {
	// ApplyLine applies one posted line; called by Post inside its transaction.
	ApplyLine(ctx context.Context, accountID string, amount decimal.Decimal, direction domain.Direction, userID string) error

	// TrialBalance compares debit-normal with credit-normal totals of active accounts.
	TrialBalance(ctx context.Context) (domain.TrialBalance, error)

	// VerifyBalances recomputes balances from the posted line log.
	VerifyBalances(ctx context.Context) (domain.BalanceVerification, error)
}

// PostingDispatcherSvc turns domain events into exactly one posted entry per (kind, record, stage).
type PostingDispatcherSvc interface {
	Dispatch(ctx context.Context, payload domain.PostingPayload) (domain.PostingResult, error)
}

// LedgerSvc is the entry point the domain layer and read clients use.
type LedgerSvc interface {
	// PostFor validates payload and dispatches it under kind.
	PostFor(ctx context.Context, kind domain.TransactionKind, payload domain.PostingPayload) (domain.PostingResult, error)

	// OpenAccount creates an account, posting any opening balance against 3000 Association Fund.
	OpenAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error)

	GetTrialBalance(ctx context.Context) (domain.TrialBalance, error)
	GetAccountBalance(ctx context.Context, code string) (*dto.AccountBalanceResponse, error)
	GetJournalEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)
	ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
	VerifyBalances(ctx context.Context) (domain.BalanceVerification, error)
}

// LifecycleSvc moves domain records through their statuses, posting where a stage requires it.
// Each transition and its posting commit or fail together.
type LifecycleSvc interface {
	CreatePayment(ctx context.Context, req dto.CreatePaymentRequest, actorID string) (*domain.Payment, error)
	PostPayment(ctx context.Context, paymentID int64, actorID string) (*domain.Payment, error)

	CreateLoan(ctx context.Context, req dto.CreateLoanRequest, actorID string) (*domain.Loan, error)
	DisburseLoan(ctx context.Context, loanID int64, at time.Time, actorID string) (*domain.Loan, error)
	RepayLoan(ctx context.Context, loanID int64, at time.Time, actorID string) (*domain.Loan, error)
	DefaultLoan(ctx context.Context, loanID int64, actorID string) (*domain.Loan, error)

	CreateExpense(ctx context.Context, req dto.CreateExpenseRequest, actorID string) (*domain.ExpenseRecord, error)
	ApproveExpense(ctx context.Context, expenseID int64, actorID string) (*domain.ExpenseRecord, error)
	RejectExpense(ctx context.Context, expenseID int64, actorID string) (*domain.ExpenseRecord, error)

	CreatePenalty(ctx context.Context, req dto.CreatePenaltyRequest, actorID string) (*domain.Penalty, error)
	PayPenalty(ctx context.Context, penaltyID int64, at time.Time, actorID string) (*domain.Penalty, error)
	WaivePenalty(ctx context.Context, penaltyID int64, actorID string) (*domain.Penalty, error)

	CreateDisasterPayment(ctx context.Context, req dto.CreateDisasterPaymentRequest, actorID string) (*domain.DisasterPayment, error)
	IssueDisasterPayment(ctx context.Context, disasterPaymentID int64, at time.Time, actorID string) (*domain.DisasterPayment, error)

	RecognizeDebt(ctx context.Context, req dto.CreateDebtRequest, actorID string) (*domain.Debt, error)
	SettleDebt(ctx context.Context, debtID int64, at time.Time, actorID string) (*domain.Debt, error)
}
