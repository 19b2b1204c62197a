package domain

import (
	"fmt"
	"time"

	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shopspring/decimal"
)

// JournalStatus indicates the state of a journal entry.
type JournalStatus string

const (
	Draft    JournalStatus = "draft"
	Posted   JournalStatus = "posted"
	Reversed JournalStatus = "reversed"
)

// BalanceTolerance absorbs rounding when comparing debit and credit totals.
var BalanceTolerance = decimal.New(1, -2)

// JournalEntry is the header of a double-entry journal entry.
type JournalEntry struct {
	EntryID           string             `json:"entryID"`
	EntryNumber       string             `json:"entryNumber"`
	EntryDate         time.Time          `json:"entryDate"`
	Reference         string             `json:"reference"`
	Description       string             `json:"description"`
	Status            JournalStatus      `json:"status"`
	TotalDebit        decimal.Decimal    `json:"totalDebit"`
	TotalCredit       decimal.Decimal    `json:"totalCredit"`
	PostedBy          string             `json:"postedBy,omitempty"`
	PostedAt          *time.Time         `json:"postedAt,omitempty"`
	ReversedBy        string             `json:"reversedBy,omitempty"`
	ReversedAt        *time.Time         `json:"reversedAt,omitempty"`
	ReversalReason    string             `json:"reversalReason,omitempty"`
	ReversalOfEntryID *string            `json:"reversalOfEntryID,omitempty"`
	ReversalEntryID   *string            `json:"reversalEntryID,omitempty"`
	Lines             []JournalEntryLine `json:"lines,omitempty"`
	AuditFields
}

// JournalEntryLine affects one account on exactly one side.
type JournalEntryLine struct {
	LineID      string          `json:"lineID"`
	EntryID     string          `json:"entryID"`
	AccountID   string          `json:"accountID"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	LineOrder   int             `json:"lineOrder"`
}

// NewLine builds a line carrying amount on the given side.
func NewLine(accountID string, direction Direction, amount decimal.Decimal, description string) JournalEntryLine {
	l := JournalEntryLine{AccountID: accountID, Description: description, Debit: decimal.Zero, Credit: decimal.Zero}
	if direction == Debit {
		l.Debit = RoundMoney(amount)
	} else {
		l.Credit = RoundMoney(amount)
	}
	return l
}

// Validate enforces the mutually exclusive, strictly positive debit/credit pair.
func (l JournalEntryLine) Validate() error {
	if l.AccountID == "" {
		return fmt.Errorf("%w: line account is required", apperrors.ErrValidation)
	}
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return fmt.Errorf("%w: line amounts must not be negative", apperrors.ErrInvalidAmount)
	}
	hasDebit, hasCredit := l.Debit.IsPositive(), l.Credit.IsPositive()
	if hasDebit == hasCredit {
		return fmt.Errorf("%w: line must have exactly one of debit or credit set", apperrors.ErrInvalidAmount)
	}
	return nil
}

// Direction returns the side the line posts to.
func (l JournalEntryLine) Direction() Direction {
	if l.Debit.IsPositive() {
		return Debit
	}
	return Credit
}

// Amount returns the non-zero side of the line.
func (l JournalEntryLine) Amount() decimal.Decimal {
	if l.Debit.IsPositive() {
		return l.Debit
	}
	return l.Credit
}

// Mirror swaps debit and credit.
func (l JournalEntryLine) Mirror() JournalEntryLine {
	m := l
	m.Debit, m.Credit = l.Credit, l.Debit
	return m
}

// SumLines returns the debit and credit totals of lines.
func SumLines(lines []JournalEntryLine) (decimal.Decimal, decimal.Decimal) {
	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return RoundMoney(debit), RoundMoney(credit)
}

// RecalculateTotals syncs TotalDebit/TotalCredit with the lines.
func (e *JournalEntry) RecalculateTotals() {
	e.TotalDebit, e.TotalCredit = SumLines(e.Lines)
}

// IsBalanced compares the stored totals within BalanceTolerance.
func (e JournalEntry) IsBalanced() bool {
	return e.TotalDebit.Sub(e.TotalCredit).Abs().LessThanOrEqual(BalanceTolerance)
}

// CheckPostable returns the reason an entry cannot be posted, or nil.
func (e JournalEntry) CheckPostable() error {
	if e.Status != Draft {
		return fmt.Errorf("%w: entry %s is %s, only drafts can be posted", apperrors.ErrInvalidState, e.EntryNumber, e.Status)
	}
	if len(e.Lines) < 2 {
		return fmt.Errorf("%w: entry %s has %d line(s)", apperrors.ErrInsufficientLines, e.EntryNumber, len(e.Lines))
	}
	if !e.IsBalanced() {
		return fmt.Errorf("%w: debit %s, credit %s", apperrors.ErrNotBalanced, e.TotalDebit.StringFixed(2), e.TotalCredit.StringFixed(2))
	}
	return nil
}

// CheckReversible returns ErrInvalidState unless the entry is posted.
func (e JournalEntry) CheckReversible() error {
	if e.Status != Posted {
		return fmt.Errorf("%w: entry %s is %s, only posted entries can be reversed", apperrors.ErrInvalidState, e.EntryNumber, e.Status)
	}
	return nil
}

// HasReachedPosted reports whether the entry's lines have been applied to balances.
func (e JournalEntry) HasReachedPosted() bool {
	return e.Status == Posted || e.Status == Reversed
}

// FormatEntryNumber renders a sequence value as the human-readable entry number.
func FormatEntryNumber(seq int64) string {
	return fmt.Sprintf("JE-%06d", seq)
}
