package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a row of the accounts table.
type Account struct {
	AccountID       string          `db:"account_id"`
	Code            string          `db:"code"`
	Name            string          `db:"name"`
	AccountType     string          `db:"account_type"`
	Subtype         string          `db:"subtype"`
	ParentAccountID *string         `db:"parent_account_id"` // Nullable
	NormalBalance   string          `db:"normal_balance"`
	IsSystemAccount bool            `db:"is_system_account"`
	IsActive        bool            `db:"is_active"`
	OpeningBalance  decimal.Decimal `db:"opening_balance"`
	CurrentBalance  decimal.Decimal `db:"current_balance"`
	DeletedAt       *time.Time      `db:"deleted_at"`
	AuditFields
}
