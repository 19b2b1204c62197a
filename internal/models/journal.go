package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is a row of the journal_entries table.
type JournalEntry struct {
	EntryID           string          `db:"entry_id"`
	EntryNumber       string          `db:"entry_number"`
	EntryDate         time.Time       `db:"entry_date"`
	Reference         string          `db:"reference"`
	Description       string          `db:"description"`
	Status            string          `db:"status"`
	TotalDebit        decimal.Decimal `db:"total_debit"`
	TotalCredit       decimal.Decimal `db:"total_credit"`
	PostedBy          *string         `db:"posted_by"`
	PostedAt          *time.Time      `db:"posted_at"`
	ReversedBy        *string         `db:"reversed_by"`
	ReversedAt        *time.Time      `db:"reversed_at"`
	ReversalReason    *string         `db:"reversal_reason"`
	ReversalOfEntryID *string         `db:"reversal_of_entry_id"`
	ReversalEntryID   *string         `db:"reversal_entry_id"`
	AuditFields
}

// JournalEntryLine is a row of the journal_entry_lines table.
type JournalEntryLine struct {
	LineID      string          `db:"line_id"`
	EntryID     string          `db:"entry_id"`
	AccountID   string          `db:"account_id"`
	Description string          `db:"description"`
	Debit       decimal.Decimal `db:"debit"`
	Credit      decimal.Decimal `db:"credit"`
	LineOrder   int             `db:"line_order"`
}

// LedgerPosting is a row of the ledger_postings table.
type LedgerPosting struct {
	Kind      string    `db:"kind"`
	RecordID  int64     `db:"record_id"`
	Stage     string    `db:"stage"`
	EntryID   string    `db:"entry_id"`
	CreatedAt time.Time `db:"created_at"`
}
