package dto

import (
	"time"

	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest records a member payment; it is posted on creation.
type CreatePaymentRequest struct {
	MemberID    string          `json:"memberID" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PaymentType string          `json:"paymentType" binding:"required,oneof=contribution registration other"`
	PaymentDate time.Time       `json:"paymentDate" binding:"required"`
}

// CreateLoanRequest records a loan application.
type CreateLoanRequest struct {
	MemberID     string          `json:"memberID" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	InterestRate decimal.Decimal `json:"interestRate"`
	TermMonths   int             `json:"termMonths" binding:"required,min=1,max=120"`
}

// CreateExpenseRequest records an expense awaiting approval.
type CreateExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Category    string          `json:"category" binding:"required"`
	Description string          `json:"description" binding:"max=255"`
	ExpenseDate time.Time       `json:"expenseDate" binding:"required"`
}

// CreatePenaltyRequest levies a penalty on a member.
type CreatePenaltyRequest struct {
	MemberID string          `json:"memberID" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Reason   string          `json:"reason" binding:"required,max=255"`
}

// CreateDisasterPaymentRequest records relief awaiting issue.
type CreateDisasterPaymentRequest struct {
	MemberID    string          `json:"memberID" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"max=255"`
}

// CreateDebtRequest recognises an amount owed by a member; it is posted on creation.
type CreateDebtRequest struct {
	MemberID    string          `json:"memberID" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Nature      string          `json:"nature" binding:"required,oneof=contribution penalty loan_interest other"`
	Description string          `json:"description" binding:"max=255"`
}

// TransitionRequest carries the effective date of a lifecycle transition.
// A zero date means "now".
type TransitionRequest struct {
	Date time.Time `json:"date"`
}

// PostingRequest is the raw PostFor entry point exposed for integrations.
type PostingRequest struct {
	Kind        domain.TransactionKind `json:"kind" binding:"required"`
	Stage       domain.LifecycleStage  `json:"stage" binding:"required"`
	RecordID    int64                  `json:"recordID" binding:"required"`
	Amount      decimal.Decimal        `json:"amount"`
	Interest    decimal.Decimal        `json:"interest"`
	Date        time.Time              `json:"date" binding:"required"`
	MemberID    string                 `json:"memberID"`
	Reference   string                 `json:"reference"`
	Description string                 `json:"description"`
	PaymentType string                 `json:"paymentType"`
	Category    string                 `json:"category"`
	DebtNature  string                 `json:"debtNature"`
}

// ToPayload converts the request into the ledger payload for actorID.
func (r PostingRequest) ToPayload(actorID string) domain.PostingPayload {
	return domain.PostingPayload{
		Kind:        r.Kind,
		Stage:       r.Stage,
		RecordID:    r.RecordID,
		Amount:      r.Amount,
		Interest:    r.Interest,
		Date:        r.Date,
		MemberID:    r.MemberID,
		Reference:   r.Reference,
		Description: r.Description,
		PaymentType: r.PaymentType,
		Category:    r.Category,
		DebtNature:  r.DebtNature,
		ActorID:     actorID,
	}
}

// PostingResponse is returned by PostFor.
type PostingResponse struct {
	EntryID       string `json:"entryID"`
	AlreadyPosted bool   `json:"alreadyPosted"`
}
