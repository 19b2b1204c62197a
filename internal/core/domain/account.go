package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "asset"
	Liability AccountType = "liability"
	Equity    AccountType = "equity"
	Revenue   AccountType = "revenue"
	Expense   AccountType = "expense"
)

// AccountTypes lists every supported account type in chart order.
var AccountTypes = []AccountType{Asset, Liability, Equity, Revenue, Expense}

// Valid reports whether t is one of the supported account types.
func (t AccountType) Valid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// Direction is the side of a journal line, and the normal-balance polarity of an account.
type Direction string

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

// Opposite returns the other side.
func (d Direction) Opposite() Direction {
	if d == Debit {
		return Credit
	}
	return Debit
}

// DefaultNormalBalance returns the side on which an account of type t increases.
func DefaultNormalBalance(t AccountType) Direction {
	switch t {
	case Asset, Expense:
		return Debit
	default:
		return Credit
	}
}

// TypeForCode derives the account type from the numeric code prefix (1xxx asset ... 5xxx expense).
// ok is false when the code carries no recognised prefix.
func TypeForCode(code string) (AccountType, bool) {
	if code == "" {
		return "", false
	}
	switch code[0] {
	case '1':
		return Asset, true
	case '2':
		return Liability, true
	case '3':
		return Equity, true
	case '4':
		return Revenue, true
	case '5':
		return Expense, true
	}
	return "", false
}

// Account is a node of the chart of accounts.
type Account struct {
	AccountID       string          `json:"accountID"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	AccountType     AccountType     `json:"accountType"`
	Subtype         string          `json:"subtype"`
	ParentAccountID string          `json:"parentAccountID"` // empty when root
	NormalBalance   Direction       `json:"normalBalance"`
	IsSystemAccount bool            `json:"isSystemAccount"`
	IsActive        bool            `json:"isActive"`
	OpeningBalance  decimal.Decimal `json:"openingBalance"`
	CurrentBalance  decimal.Decimal `json:"currentBalance"`
	DeletedAt       *time.Time      `json:"deletedAt,omitempty"`
	AuditFields
}

// ValidateNormalBalance checks the polarity against the account type.
func (a Account) ValidateNormalBalance() error {
	if a.NormalBalance != DefaultNormalBalance(a.AccountType) {
		return fmt.Errorf("normal balance %q is inconsistent with account type %q", a.NormalBalance, a.AccountType)
	}
	return nil
}

// SignedAmount returns +amount when direction matches the normal balance and -amount otherwise.
func (a Account) SignedAmount(amount decimal.Decimal, direction Direction) decimal.Decimal {
	if direction == a.NormalBalance {
		return amount
	}
	return amount.Neg()
}

// ApplyDelta moves CurrentBalance by amount on the given side and returns the new balance.
func (a *Account) ApplyDelta(amount decimal.Decimal, direction Direction) decimal.Decimal {
	a.CurrentBalance = RoundMoney(a.CurrentBalance.Add(a.SignedAmount(amount, direction)))
	return a.CurrentBalance
}

// IsDeleted reports whether the account was soft-deleted.
func (a Account) IsDeleted() bool {
	return a.DeletedAt != nil
}

// RoundMoney rounds to the ledger's two-digit precision.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
