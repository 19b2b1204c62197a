package domain_test

import (
	"testing"
	"time"

	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoan_Interest(t *testing.T) {
	loan := domain.Loan{Amount: dec("100000"), InterestRate: dec("5"), TermMonths: 6}
	assert.Equal(t, "30000.00", loan.Interest().StringFixed(2))

	zero := domain.Loan{Amount: dec("5000"), InterestRate: decimal.Zero, TermMonths: 12}
	assert.True(t, zero.Interest().IsZero())
}

func TestLoan_Payload(t *testing.T) {
	loan := domain.Loan{ID: 7, Amount: dec("1000"), InterestRate: dec("2"), TermMonths: 3}
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	disbursed := loan.Payload(domain.StageDisbursed, now, "u1")
	assert.True(t, disbursed.Interest.IsZero())
	assert.Equal(t, "LOAN-7", disbursed.DefaultReference())

	repaid := loan.Payload(domain.StageRepaid, now, "u1")
	assert.Equal(t, "60.00", repaid.Interest.StringFixed(2))
	assert.Equal(t, domain.PostingKey{Kind: domain.KindLoan, Stage: domain.StageRepaid}, repaid.Key())
}

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name    string
		kind    domain.TransactionKind
		from    domain.RecordStatus
		to      domain.RecordStatus
		allowed bool
	}{
		{"loan disburse", domain.KindLoan, domain.StatusPending, domain.StatusDisbursed, true},
		{"loan repay", domain.KindLoan, domain.StatusDisbursed, domain.StatusRepaid, true},
		{"loan default", domain.KindLoan, domain.StatusDisbursed, domain.StatusDefaulted, true},
		{"loan repay before disbursal", domain.KindLoan, domain.StatusPending, domain.StatusRepaid, false},
		{"loan default is terminal", domain.KindLoan, domain.StatusDefaulted, domain.StatusRepaid, false},
		{"penalty pay", domain.KindPenalty, domain.StatusUnpaid, domain.StatusPaid, true},
		{"penalty waive", domain.KindPenalty, domain.StatusUnpaid, domain.StatusWaived, true},
		{"penalty paid to waived", domain.KindPenalty, domain.StatusPaid, domain.StatusWaived, false},
		{"penalty waived to paid", domain.KindPenalty, domain.StatusWaived, domain.StatusPaid, false},
		{"expense approve", domain.KindExpense, domain.StatusPending, domain.StatusApproved, true},
		{"expense approve twice", domain.KindExpense, domain.StatusApproved, domain.StatusApproved, false},
		{"disaster issue", domain.KindDisasterPayment, domain.StatusPending, domain.StatusIssued, true},
		{"debt settle", domain.KindDebt, domain.StatusOutstanding, domain.StatusPaid, true},
		{"debt settle twice", domain.KindDebt, domain.StatusPaid, domain.StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.CheckTransition(tt.kind, tt.from, tt.to)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperrors.ErrInvalidState)
			}
		})
	}
}

func TestPostingPayload_DefaultReference(t *testing.T) {
	p := domain.PostingPayload{Kind: domain.KindPayment, RecordID: 123}
	assert.Equal(t, "PAY-123", p.DefaultReference())
	p.Reference = "RCPT-9"
	assert.Equal(t, "RCPT-9", p.DefaultReference())
}

func TestRecordState_Admits(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	loan := domain.Loan{ID: 3, Amount: dec("1000"), InterestRate: dec("2"), TermMonths: 3, Status: domain.StatusRepaid}
	penalty := domain.Penalty{ID: 4, Amount: dec("500"), Status: domain.StatusPaid}
	expense := domain.ExpenseRecord{ID: 5, Amount: dec("80"), Category: "events", Status: domain.StatusApproved}

	shortInterest := loan.Payload(domain.StageRepaid, now, "u1")
	shortInterest.Interest = dec("1")
	cheap := penalty.Payload(now, "u1")
	cheap.Amount = dec("1")
	rerouted := expense.Payload("u1")
	rerouted.Category = "administrative"
	unpaid := penalty
	unpaid.Status = domain.StatusUnpaid

	tests := []struct {
		name    string
		state   domain.RecordState
		payload domain.PostingPayload
		want    error
	}{
		{"repaid loan", loan.State(), loan.Payload(domain.StageRepaid, now, "u1"), nil},
		{"paid penalty", penalty.State(), penalty.Payload(now, "u1"), nil},
		{"category differs only in case", expense.State(), func() domain.PostingPayload { p := expense.Payload("u1"); p.Category = " Events"; return p }(), nil},
		{"status not reached", unpaid.State(), unpaid.Payload(now, "u1"), apperrors.ErrInvalidState},
		{"disbursal after repayment", loan.State(), loan.Payload(domain.StageDisbursed, now, "u1"), apperrors.ErrInvalidState},
		{"amount differs", penalty.State(), cheap, apperrors.ErrInvalidAmount},
		{"interest differs", loan.State(), shortInterest, apperrors.ErrInvalidAmount},
		{"category differs", expense.State(), rerouted, apperrors.ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.state.Admits(tc.payload)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
