package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind names a domain record type that produces ledger postings.
type TransactionKind string

const (
	KindPayment         TransactionKind = "payment"
	KindLoan            TransactionKind = "loan"
	KindExpense         TransactionKind = "expense"
	KindPenalty         TransactionKind = "penalty"
	KindDisasterPayment TransactionKind = "disaster_payment"
	KindDebt            TransactionKind = "debt"
)

// LifecycleStage is the lifecycle step of a record that triggers a posting.
type LifecycleStage string

const (
	StageCreated   LifecycleStage = "created"
	StageApproved  LifecycleStage = "approved"
	StageDisbursed LifecycleStage = "disbursed"
	StageRepaid    LifecycleStage = "repaid"
	StagePaid      LifecycleStage = "paid"
	StageIssued    LifecycleStage = "issued"
)

// PostingKey selects a posting rule.
type PostingKey struct {
	Kind  TransactionKind
	Stage LifecycleStage
}

func (k PostingKey) String() string {
	return string(k.Kind) + ":" + string(k.Stage)
}

// PostingPayload is the primitive view of a domain record the ledger needs.
type PostingPayload struct {
	Kind        TransactionKind `json:"kind" validate:"required,oneof=payment loan expense penalty disaster_payment debt"`
	Stage       LifecycleStage  `json:"stage" validate:"required,oneof=created approved disbursed repaid paid issued"`
	RecordID    int64           `json:"recordID" validate:"required,gt=0"`
	Amount      decimal.Decimal `json:"amount"`
	Interest    decimal.Decimal `json:"interest"`
	Date        time.Time       `json:"date" validate:"required"`
	MemberID    string          `json:"memberID,omitempty"`
	Reference   string          `json:"reference,omitempty" validate:"max=100"`
	Description string          `json:"description,omitempty" validate:"max=255"`
	PaymentType string          `json:"paymentType,omitempty"`
	Category    string          `json:"category,omitempty"`
	DebtNature  string          `json:"debtNature,omitempty"`
	ActorID     string          `json:"actorID" validate:"required"`
}

// Key returns the rule key of the payload.
func (p PostingPayload) Key() PostingKey {
	return PostingKey{Kind: p.Kind, Stage: p.Stage}
}

var referencePrefixes = map[TransactionKind]string{
	KindPayment:         "PAY",
	KindLoan:            "LOAN",
	KindExpense:         "EXP",
	KindPenalty:         "PEN",
	KindDisasterPayment: "DIS",
	KindDebt:            "DEBT",
}

// DefaultReference builds the journal reference used when the payload carries none.
func (p PostingPayload) DefaultReference() string {
	if p.Reference != "" {
		return p.Reference
	}
	prefix, ok := referencePrefixes[p.Kind]
	if !ok {
		prefix = "TXN"
	}
	return fmt.Sprintf("%s-%d", prefix, p.RecordID)
}

// LedgerPosting is the idempotency token row linking a (kind, record, stage) to its entry.
type LedgerPosting struct {
	Kind      TransactionKind `json:"kind"`
	RecordID  int64           `json:"recordID"`
	Stage     LifecycleStage  `json:"stage"`
	EntryID   string          `json:"entryID"`
	CreatedAt time.Time       `json:"createdAt"`
}

// PostingResult is returned by the dispatcher.
type PostingResult struct {
	EntryID       string `json:"entryID"`
	AlreadyPosted bool   `json:"alreadyPosted"`
}
