package repositories

import (
	"context"
	"time"

	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EntryFilter narrows ListEntries. Zero values mean "no filter".
type EntryFilter struct {
	Status    *domain.JournalStatus
	From      *time.Time
	To        *time.Time
	Reference string
	AccountID string
	Limit     int
	NextToken *string
}

// JournalReader defines read operations for journal data
type JournalReader interface {
	// FindEntryByID retrieves an entry together with its lines.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// FindEntryByIDForUpdate is FindEntryByID with the entry row locked until the transaction ends.
	FindEntryByIDForUpdate(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListEntries returns entries newest first with a token for the next page.
	ListEntries(ctx context.Context, filter EntryFilter) ([]domain.JournalEntry, *string, error)
}

// JournalWriter defines write operations for journal data
type JournalWriter interface {
	// NextEntryNumber draws the next value of the entry number sequence.
	NextEntryNumber(ctx context.Context) (int64, error)

	// SaveEntry persists the header and its lines.
	SaveEntry(ctx context.Context, entry domain.JournalEntry) error

	// AddLine appends a line to an existing entry.
	AddLine(ctx context.Context, line domain.JournalEntryLine) error

	// UpdateEntryTotals stores recalculated totals.
	UpdateEntryTotals(ctx context.Context, entryID string, totalDebit, totalCredit decimal.Decimal, userID string, now time.Time) error

	// MarkPosted moves an entry to posted.
	MarkPosted(ctx context.Context, entryID string, postedBy string, postedAt time.Time) error

	// MarkReversed moves an entry to reversed and links it to its mirror.
	MarkReversed(ctx context.Context, entryID string, reversedBy string, reversedAt time.Time, reason string, reversalEntryID string) error
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
}
