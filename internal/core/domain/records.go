package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shopspring/decimal"
)

// RecordStatus is the lifecycle status of a domain transaction record.
type RecordStatus string

const (
	StatusPending     RecordStatus = "pending"
	StatusDisbursed   RecordStatus = "disbursed"
	StatusRepaid      RecordStatus = "repaid"
	StatusDefaulted   RecordStatus = "defaulted"
	StatusApproved    RecordStatus = "approved"
	StatusRejected    RecordStatus = "rejected"
	StatusUnpaid      RecordStatus = "unpaid"
	StatusPaid        RecordStatus = "paid"
	StatusWaived      RecordStatus = "waived"
	StatusIssued      RecordStatus = "issued"
	StatusOutstanding RecordStatus = "outstanding"
	StatusReceived    RecordStatus = "received"
)

// transitions lists the allowed status moves per record kind.
var transitions = map[TransactionKind]map[RecordStatus][]RecordStatus{
	KindLoan: {
		StatusPending:   {StatusDisbursed},
		StatusDisbursed: {StatusRepaid, StatusDefaulted},
	},
	KindExpense: {
		StatusPending: {StatusApproved, StatusRejected},
	},
	KindPenalty: {
		StatusUnpaid: {StatusPaid, StatusWaived},
	},
	KindDisasterPayment: {
		StatusPending: {StatusIssued},
	},
	KindDebt: {
		StatusOutstanding: {StatusPaid},
	},
}

// CheckTransition returns ErrInvalidState unless from → to is allowed for kind.
func CheckTransition(kind TransactionKind, from, to RecordStatus) error {
	for _, allowed := range transitions[kind][from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s cannot move from %s to %s", apperrors.ErrInvalidState, kind, from, to)
}

// RecordRef identifies a domain record for the quiet reference write.
type RecordRef struct {
	Kind     TransactionKind
	RecordID int64
	Stage    LifecycleStage
}

// stageStatus is the status a record holds when the stage's posting is due.
var stageStatus = map[PostingKey]RecordStatus{
	{Kind: KindPayment, Stage: StageCreated}:        StatusReceived,
	{Kind: KindLoan, Stage: StageDisbursed}:         StatusDisbursed,
	{Kind: KindLoan, Stage: StageRepaid}:            StatusRepaid,
	{Kind: KindExpense, Stage: StageApproved}:       StatusApproved,
	{Kind: KindPenalty, Stage: StagePaid}:           StatusPaid,
	{Kind: KindDisasterPayment, Stage: StageIssued}: StatusIssued,
	{Kind: KindDebt, Stage: StageCreated}:           StatusOutstanding,
	{Kind: KindDebt, Stage: StagePaid}:              StatusPaid,
}

// RecordState is the part of a stored record a posting must agree with.
type RecordState struct {
	Kind        TransactionKind
	RecordID    int64
	Status      RecordStatus
	Amount      decimal.Decimal
	Interest    decimal.Decimal
	PaymentType string
	Category    string
	DebtNature  string
}

// Admits returns nil when p is a posting the record is due: the record has reached
// the stage's status and the money and routing fields match.
func (r RecordState) Admits(p PostingPayload) error {
	want, ok := stageStatus[p.Key()]
	if !ok {
		return fmt.Errorf("%w: no record status for %s", apperrors.ErrValidation, p.Key())
	}
	if r.Status != want {
		return fmt.Errorf("%w: %s %d is %s, %s posting needs %s", apperrors.ErrInvalidState, r.Kind, r.RecordID, r.Status, p.Stage, want)
	}
	if !RoundMoney(p.Amount).Equal(r.Amount) {
		return fmt.Errorf("%w: %s %d records %s, posting carries %s", apperrors.ErrInvalidAmount, r.Kind, r.RecordID, r.Amount.StringFixed(2), p.Amount.StringFixed(2))
	}
	if p.Kind == KindLoan && p.Stage == StageRepaid && !RoundMoney(p.Interest).Equal(r.Interest) {
		return fmt.Errorf("%w: loan %d interest is %s, posting carries %s", apperrors.ErrInvalidAmount, r.RecordID, r.Interest.StringFixed(2), p.Interest.StringFixed(2))
	}
	for _, f := range []struct{ name, record, payload string }{
		{"payment type", r.PaymentType, p.PaymentType},
		{"category", r.Category, p.Category},
		{"debt nature", r.DebtNature, p.DebtNature},
	} {
		if !strings.EqualFold(strings.TrimSpace(f.record), strings.TrimSpace(f.payload)) {
			return apperrors.NewValidationError(fmt.Sprintf("%s %d has %s %q, posting carries %q", r.Kind, r.RecordID, f.name, f.record, f.payload))
		}
	}
	return nil
}

// Payment is a member payment (contribution, registration fee, other).
type Payment struct {
	ID             int64           `json:"id"`
	MemberID       string          `json:"memberID"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentType    string          `json:"paymentType"`
	PaymentDate    time.Time       `json:"paymentDate"`
	Status         RecordStatus    `json:"status"`
	JournalEntryID *string         `json:"journalEntryID,omitempty"`
	AuditFields
}

func (p Payment) State() RecordState {
	return RecordState{Kind: KindPayment, RecordID: p.ID, Status: p.Status, Amount: p.Amount, PaymentType: p.PaymentType}
}

// Payload builds the posting payload for the created stage.
func (p Payment) Payload(actorID string) PostingPayload {
	return PostingPayload{
		Kind:        KindPayment,
		Stage:       StageCreated,
		RecordID:    p.ID,
		Amount:      p.Amount,
		Date:        p.PaymentDate,
		MemberID:    p.MemberID,
		PaymentType: p.PaymentType,
		Description: fmt.Sprintf("%s payment from member %s", p.PaymentType, p.MemberID),
		ActorID:     actorID,
	}
}

// Loan is a member loan with flat interest over its term.
type Loan struct {
	ID                         int64            `json:"id"`
	MemberID                   string           `json:"memberID"`
	Amount                     decimal.Decimal  `json:"amount"`
	InterestRate               decimal.Decimal  `json:"interestRate"` // percent
	TermMonths                 int              `json:"termMonths"`
	Status                     RecordStatus     `json:"status"`
	DisclosedInterest          *decimal.Decimal `json:"disclosedInterest,omitempty"`
	DisbursedAt                *time.Time       `json:"disbursedAt,omitempty"`
	RepaidAt                   *time.Time       `json:"repaidAt,omitempty"`
	DisbursementJournalEntryID *string          `json:"disbursementJournalEntryID,omitempty"`
	RepaymentJournalEntryID    *string          `json:"repaymentJournalEntryID,omitempty"`
	AuditFields
}

func (l Loan) State() RecordState {
	return RecordState{Kind: KindLoan, RecordID: l.ID, Status: l.Status, Amount: l.Amount, Interest: l.Interest()}
}

// Interest computes amount × rate/100 × term months, rounded to cents.
func (l Loan) Interest() decimal.Decimal {
	return RoundMoney(l.Amount.Mul(l.InterestRate).Div(decimal.NewFromInt(100)).Mul(decimal.NewFromInt(int64(l.TermMonths))))
}

// Payload builds the posting payload for the disbursed or repaid stage.
func (l Loan) Payload(stage LifecycleStage, date time.Time, actorID string) PostingPayload {
	p := PostingPayload{
		Kind:        KindLoan,
		Stage:       stage,
		RecordID:    l.ID,
		Amount:      l.Amount,
		Interest:    decimal.Zero,
		Date:        date,
		MemberID:    l.MemberID,
		Description: fmt.Sprintf("Loan %s for member %s", stage, l.MemberID),
		ActorID:     actorID,
	}
	if stage == StageRepaid {
		p.Interest = l.Interest()
	}
	return p
}

// ExpenseRecord is an association expense awaiting approval.
type ExpenseRecord struct {
	ID             int64           `json:"id"`
	Amount         decimal.Decimal `json:"amount"`
	Category       string          `json:"category"`
	Description    string          `json:"description"`
	ExpenseDate    time.Time       `json:"expenseDate"`
	Status         RecordStatus    `json:"status"`
	JournalEntryID *string         `json:"journalEntryID,omitempty"`
	AuditFields
}

func (e ExpenseRecord) State() RecordState {
	return RecordState{Kind: KindExpense, RecordID: e.ID, Status: e.Status, Amount: e.Amount, Category: e.Category}
}

// Payload builds the posting payload for the approved stage.
func (e ExpenseRecord) Payload(actorID string) PostingPayload {
	return PostingPayload{
		Kind:        KindExpense,
		Stage:       StageApproved,
		RecordID:    e.ID,
		Amount:      e.Amount,
		Date:        e.ExpenseDate,
		Category:    e.Category,
		Description: e.Description,
		ActorID:     actorID,
	}
}

// Penalty is a fine levied on a member.
type Penalty struct {
	ID             int64           `json:"id"`
	MemberID       string          `json:"memberID"`
	Amount         decimal.Decimal `json:"amount"`
	Reason         string          `json:"reason"`
	Status         RecordStatus    `json:"status"`
	PaidAt         *time.Time      `json:"paidAt,omitempty"`
	JournalEntryID *string         `json:"journalEntryID,omitempty"`
	AuditFields
}

func (p Penalty) State() RecordState {
	return RecordState{Kind: KindPenalty, RecordID: p.ID, Status: p.Status, Amount: p.Amount}
}

// Payload builds the posting payload for the paid stage.
func (p Penalty) Payload(date time.Time, actorID string) PostingPayload {
	return PostingPayload{
		Kind:        KindPenalty,
		Stage:       StagePaid,
		RecordID:    p.ID,
		Amount:      p.Amount,
		Date:        date,
		MemberID:    p.MemberID,
		Description: fmt.Sprintf("Penalty paid by member %s: %s", p.MemberID, p.Reason),
		ActorID:     actorID,
	}
}

// DisasterPayment is relief paid out to a member.
type DisasterPayment struct {
	ID             int64           `json:"id"`
	MemberID       string          `json:"memberID"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	Status         RecordStatus    `json:"status"`
	IssuedAt       *time.Time      `json:"issuedAt,omitempty"`
	JournalEntryID *string         `json:"journalEntryID,omitempty"`
	AuditFields
}

func (d DisasterPayment) State() RecordState {
	return RecordState{Kind: KindDisasterPayment, RecordID: d.ID, Status: d.Status, Amount: d.Amount}
}

// Payload builds the posting payload for the issued stage.
func (d DisasterPayment) Payload(date time.Time, actorID string) PostingPayload {
	return PostingPayload{
		Kind:        KindDisasterPayment,
		Stage:       StageIssued,
		RecordID:    d.ID,
		Amount:      d.Amount,
		Date:        date,
		MemberID:    d.MemberID,
		Description: fmt.Sprintf("Disaster payment to member %s", d.MemberID),
		ActorID:     actorID,
	}
}

// Debt is an amount a member owes the association.
type Debt struct {
	ID                    int64           `json:"id"`
	MemberID              string          `json:"memberID"`
	Amount                decimal.Decimal `json:"amount"`
	Nature                string          `json:"nature"`
	Description           string          `json:"description"`
	Status                RecordStatus    `json:"status"`
	PaidAt                *time.Time      `json:"paidAt,omitempty"`
	JournalEntryID        *string         `json:"journalEntryID,omitempty"`
	PaymentJournalEntryID *string         `json:"paymentJournalEntryID,omitempty"`
	AuditFields
}

func (d Debt) State() RecordState {
	return RecordState{Kind: KindDebt, RecordID: d.ID, Status: d.Status, Amount: d.Amount, DebtNature: d.Nature}
}

// Payload builds the posting payload for the created or paid stage.
func (d Debt) Payload(stage LifecycleStage, date time.Time, actorID string) PostingPayload {
	return PostingPayload{
		Kind:        KindDebt,
		Stage:       stage,
		RecordID:    d.ID,
		Amount:      d.Amount,
		Date:        date,
		MemberID:    d.MemberID,
		DebtNature:  d.Nature,
		Description: fmt.Sprintf("Debt %s for member %s", stage, d.MemberID),
		ActorID:     actorID,
	}
}
