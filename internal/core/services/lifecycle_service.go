package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
	portssvc "github.com/shauritanga/twa-system/internal/core/ports/services"
	"github.com/shauritanga/twa-system/internal/dto"
	"github.com/shopspring/decimal"
)

// lifecycleService changes record status and posts the matching entry in the same transaction.
type lifecycleService struct {
	BaseService
	records   portsrepo.RecordRepositoryFacade
	ledger    portssvc.LedgerSvc
	txManager portsrepo.TransactionManager
}

// NewLifecycleService creates the service that drives record lifecycles.
func NewLifecycleService(records portsrepo.RecordRepositoryFacade, ledger portssvc.LedgerSvc, txManager portsrepo.TransactionManager, opts ...Option) portssvc.LifecycleSvc {
	return &lifecycleService{
		BaseService: newBaseService(opts),
		records:     records,
		ledger:      ledger,
		txManager:   txManager,
	}
}

var _ portssvc.LifecycleSvc = (*lifecycleService)(nil)

func positiveAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", apperrors.ErrInvalidAmount)
	}
	return nil
}

func (s *lifecycleService) effective(at time.Time) time.Time {
	if at.IsZero() {
		return s.Now()
	}
	return at.UTC()
}

func (s *lifecycleService) post(ctx context.Context, p domain.PostingPayload) (string, error) {
	res, err := s.ledger.PostFor(ctx, p.Kind, p)
	if err != nil {
		return "", err
	}
	return res.EntryID, nil
}

// Payments

func (s *lifecycleService) CreatePayment(ctx context.Context, req dto.CreatePaymentRequest, actorID string) (*domain.Payment, error) {
	if err := positiveAmount(req.Amount); err != nil {
		return nil, err
	}
	payment := &domain.Payment{
		MemberID:    req.MemberID,
		Amount:      domain.RoundMoney(req.Amount),
		PaymentType: req.PaymentType,
		PaymentDate: req.PaymentDate.UTC(),
		Status:      domain.StatusReceived,
		AuditFields: domain.NewAuditFields(actorID, s.Now()),
	}
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.records.CreatePayment(ctx, payment); err != nil {
			return err
		}
		entryID, err := s.post(ctx, payment.Payload(actorID))
		if err != nil {
			return err
		}
		payment.JournalEntryID = &entryID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Payment recorded", slog.Int64("payment_id", payment.ID), slog.String("entry_id", *payment.JournalEntryID))
	return payment, nil
}

// PostPayment posts an existing payment; repeated calls return the original entry.
func (s *lifecycleService) PostPayment(ctx context.Context, paymentID int64, actorID string) (*domain.Payment, error) {
	var payment *domain.Payment
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.records.FindPaymentByID(ctx, paymentID)
		if err != nil {
			return err
		}
		entryID, err := s.post(ctx, payment.Payload(actorID))
		if err != nil {
			return err
		}
		payment.JournalEntryID = &entryID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// Loans

func (s *lifecycleService) CreateLoan(ctx context.Context, req dto.CreateLoanRequest, actorID string) (*domain.Loan, error) {
	if err := positiveAmount(req.Amount); err != nil {
		return nil, err
	}
	if req.InterestRate.IsNegative() {
		return nil, fmt.Errorf("%w: interest rate must not be negative", apperrors.ErrInvalidAmount)
	}
	if req.TermMonths <= 0 {
		return nil, apperrors.NewValidationError("term must be at least one month")
	}
	loan := &domain.Loan{
		MemberID:     req.MemberID,
		Amount:       domain.RoundMoney(req.Amount),
		InterestRate: req.InterestRate,
		TermMonths:   req.TermMonths,
		Status:       domain.StatusPending,
		AuditFields:  domain.NewAuditFields(actorID, s.Now()),
	}
	if err := s.records.CreateLoan(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *lifecycleService) DisburseLoan(ctx context.Context, loanID int64, at time.Time, actorID string) (*domain.Loan, error) {
	var loan *domain.Loan
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		loan, err = s.records.FindLoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if err := domain.CheckTransition(domain.KindLoan, loan.Status, domain.StatusDisbursed); err != nil {
			return err
		}
		when := s.effective(at)
		interest := loan.Interest()
		loan.Status = domain.StatusDisbursed
		loan.DisclosedInterest = &interest
		loan.DisbursedAt = &when
		loan.Touch(actorID, s.Now())
		if err := s.records.UpdateLoan(ctx, *loan); err != nil {
			return err
		}
		entryID, err := s.post(ctx, loan.Payload(domain.StageDisbursed, when, actorID))
		if err != nil {
			return err
		}
		loan.DisbursementJournalEntryID = &entryID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Loan disbursed", slog.Int64("loan_id", loanID), slog.String("interest", loan.DisclosedInterest.StringFixed(2)))
	return loan, nil
}

func (s *lifecycleService) RepayLoan(ctx context.Context, loanID int64, at time.Time, actorID string) (*domain.Loan, error) {
	var loan *domain.Loan
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		loan, err = s.records.FindLoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if err := domain.CheckTransition(domain.KindLoan, loan.Status, domain.StatusRepaid); err != nil {
			return err
		}
		when := s.effective(at)
		payload := loan.Payload(domain.StageRepaid, when, actorID)
		if loan.DisclosedInterest != nil && !loan.DisclosedInterest.Equal(payload.Interest) {
			s.LogWarn(ctx, "Repayment interest differs from the amount disclosed at disbursement",
				slog.Int64("loan_id", loanID),
				slog.String("disclosed", loan.DisclosedInterest.StringFixed(2)),
				slog.String("recomputed", payload.Interest.StringFixed(2)))
		}
		loan.Status = domain.StatusRepaid
		loan.RepaidAt = &when
		loan.Touch(actorID, s.Now())
		if err := s.records.UpdateLoan(ctx, *loan); err != nil {
			return err
		}
		entryID, err := s.post(ctx, payload)
		if err != nil {
			return err
		}
		loan.RepaymentJournalEntryID = &entryID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Loan repaid", slog.Int64("loan_id", loanID))
	return loan, nil
}

func (s *lifecycleService) DefaultLoan(ctx context.Context, loanID int64, actorID string) (*domain.Loan, error) {
	var loan *domain.Loan
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		loan, err = s.records.FindLoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if err := domain.CheckTransition(domain.KindLoan, loan.Status, domain.StatusDefaulted); err != nil {
			return err
		}
		loan.Status = domain.StatusDefaulted
		loan.Touch(actorID, s.Now())
		return s.records.UpdateLoan(ctx, *loan)
	})
	if err != nil {
		return nil, err
	}
	s.LogWarn(ctx, "Loan defaulted", slog.Int64("loan_id", loanID))
	return loan, nil
}

// Expenses

func (s *lifecycleService) CreateExpense(ctx context.Context, req dto.CreateExpenseRequest, actorID string) (*domain.ExpenseRecord, error) {
	if err := positiveAmount(req.Amount); err != nil {
		return nil, err
	}
	expense := &domain.ExpenseRecord{
		Amount:      domain.RoundMoney(req.Amount),
		Category:    strings.ToLower(strings.TrimSpace(req.Category)),
		Description: req.Description,
		ExpenseDate: req.ExpenseDate.UTC(),
		Status:      domain.StatusPending,
		AuditFields: domain.NewAuditFields(actorID, s.Now()),
	}
	if err := s.records.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *lifecycleService) ApproveExpense(ctx context.Context, expenseID int64, actorID string) (*domain.ExpenseRecord, error) {
	var expense *domain.ExpenseRecord
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		expense, err = s.records.FindExpenseForUpdate(ctx, expenseID)
		if err != nil {
			return err
		}
		if err := domain.CheckTransition(domain.KindExpense, expense.Status, domain.StatusApproved); err != nil {
			return err
		}
		expense.Status = domain.StatusApproved
		expense.Touch(actorID, s.Now())
		if err := s.records.UpdateExpense(ctx, *expense); err != nil {
			return err
		}
		entryID, err := s.post(ctx, expense.Payload(actorID))
		if err != nil {
			return err
		}
		expense.JournalEntryID = &entryID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *lifecycleService) RejectExpense(ctx context.Context, expenseID int64, actorID string) (*domain.ExpenseRecord, error) {
	var expense *domain.ExpenseRecord
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		expense, err = s.records.FindExpenseForUpdate(ctx, expenseID)
		if err != nil {
			return err
		}
		if err := domain.CheckTransition(domain.KindExpense, expense.Status, domain.StatusRejected); err != nil {
			return err
		}
		expense.Status = domain.StatusRejected
		expense.Touch(actorID, s.Now())
		return s.records.UpdateExpense(ctx, *expense)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// Penalties

func (s *lifecycleService) CreatePenalty(ctx context.Context, req dto.CreatePenaltyRequest, actorID string) (*domain.Penalty, error) {
	if err := positiveAmount(req.Amount); err != nil {
		return nil, err
	}
	penalty := &domain.Penalty{
		MemberID:    req.MemberID,
		Amount:      domain.RoundMoney(req.Amount),
		Reason:      req.Reason,
		Status:      domain.StatusUnpaid,
		AuditFields: domain.NewAuditFields(actorID, s.Now()),
	}
	if err := s.records.CreatePenalty(ctx, penalty); err != nil {
		return nil, err
	}
	return penalty, nil
}

func (s *lifecycleService) PayPenalty(ctx context.Context, penaltyID int64, at time.Time, actorID string) (*domain.Penalty, error) {
	var penalty *domain.Penalty
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		penalty, err = s.records.FindPenaltyForUpdate(ctx, penaltyID)
		if err != nil {
			return err
		}
		if err := domain.CheckTransition(domain.KindPenalty, penalty.Status, domain.StatusPaid); err != nil {
			return err
		}
		when := s.effective(at)
		penalty.Status = domain.StatusPaid
		penalty.PaidAt = &when
		penalty.Touch(actorID, s.Now())
		if err := s.records.UpdatePenalty(ctx, *penalty); err != nil {
			return err
		}
		entryID, err := s.post(ctx, penalty.Payload(when, actorID))
		if err != nil {
			return err
		}
		penalty.JournalEntryID = &entryID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return penalty, nil
}

func (s *lifecycleService) WaivePenalty(ctx context.Context, penaltyID int64, actorID string) (*domain.Penalty, error) {
	var penalty *domain.Penalty
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		penalty, err = s.records.FindPenaltyForUpdate(ctx, penaltyID)
		if err != nil {
			return err
		}
		if err := domain.CheckTransition(domain.KindPenalty, penalty.Status, domain.StatusWaived); err != nil {
			return err
		}
		penalty.Status = domain.StatusWaived
		penalty.Touch(actorID, s.Now())
		return s.records.UpdatePenalty(ctx, *penalty)
	})
	if err != nil {
		return nil, err
	}
	return penalty, nil
}

// Disaster payments

func (s *lifecycleService) CreateDisasterPayment(ctx context.Context, req dto.CreateDisasterPaymentRequest, actorID string) (*domain.DisasterPayment, error) {
	if err := positiveAmount(req.Amount); err != nil {
		return nil, err
	}
	dp := &domain.DisasterPayment{
		MemberID:    req.MemberID,
		Amount:      domain.RoundMoney(req.Amount),
		Description: req.Description,
		Status:      domain.StatusPending,
		AuditFields: domain.NewAuditFields(actorID, s.Now()),
	}
	if err := s.records.CreateDisasterPayment(ctx, dp); err != nil {
		return nil, err
	}
	return dp, nil
}

func (s *lifecycleService) IssueDisasterPayment(ctx context.Context, disasterPaymentID int64, at time.Time, actorID string) (*domain.DisasterPayment, error) {
	var dp *domain.DisasterPayment
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		dp, err = s.records.FindDisasterPaymentForUpdate(ctx, disasterPaymentID)
		if err != nil {
			return err
		}
		if err := domain.CheckTransition(domain.KindDisasterPayment, dp.Status, domain.StatusIssued); err != nil {
			return err
		}
		when := s.effective(at)
		dp.Status = domain.StatusIssued
		dp.IssuedAt = &when
		dp.Touch(actorID, s.Now())
		if err := s.records.UpdateDisasterPayment(ctx, *dp); err != nil {
			return err
		}
		entryID, err := s.post(ctx, dp.Payload(when, actorID))
		if err != nil {
			return err
		}
		dp.JournalEntryID = &entryID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dp, nil
}

// Debts

func (s *lifecycleService) RecognizeDebt(ctx context.Context, req dto.CreateDebtRequest, actorID string) (*domain.Debt, error) {
	if err := positiveAmount(req.Amount); err != nil {
		return nil, err
	}
	now := s.Now()
	debt := &domain.Debt{
		MemberID:    req.MemberID,
		Amount:      domain.RoundMoney(req.Amount),
		Nature:      req.Nature,
		Description: req.Description,
		Status:      domain.StatusOutstanding,
		AuditFields: domain.NewAuditFields(actorID, now),
	}
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.records.CreateDebt(ctx, debt); err != nil {
			return err
		}
		entryID, err := s.post(ctx, debt.Payload(domain.StageCreated, now, actorID))
		if err != nil {
			return err
		}
		debt.JournalEntryID = &entryID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return debt, nil
}

func (s *lifecycleService) SettleDebt(ctx context.Context, debtID int64, at time.Time, actorID string) (*domain.Debt, error) {
	var debt *domain.Debt
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		debt, err = s.records.FindDebtForUpdate(ctx, debtID)
		if err != nil {
			return err
		}
		if err := domain.CheckTransition(domain.KindDebt, debt.Status, domain.StatusPaid); err != nil {
			return err
		}
		when := s.effective(at)
		debt.Status = domain.StatusPaid
		debt.PaidAt = &when
		debt.Touch(actorID, s.Now())
		if err := s.records.UpdateDebt(ctx, *debt); err != nil {
			return err
		}
		entryID, err := s.post(ctx, debt.Payload(domain.StagePaid, when, actorID))
		if err != nil {
			return err
		}
		debt.PaymentJournalEntryID = &entryID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return debt, nil
}
