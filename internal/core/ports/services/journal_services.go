package services

import (
	"context"

	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shauritanga/twa-system/internal/dto"
)

// JournalReaderSvc defines read operations for journal data
type JournalReaderSvc interface {
	// GetEntry retrieves an entry with its lines.
	GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a filtered page of entries.
	ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// JournalWriterSvc defines write operations for journal data
type JournalWriterSvc interface {
	// CreateDraft persists a draft entry with zero or more lines.
	CreateDraft(ctx context.Context, req dto.CreateJournalEntryRequest, userID string) (*domain.JournalEntry, error)

	// AddLine appends a line to a draft.
	AddLine(ctx context.Context, entryID string, req dto.JournalLineRequest, userID string) (*domain.JournalEntry, error)

	// Post validates a draft and applies its lines to account balances.
	Post(ctx context.Context, entryID string, postedBy string) (*domain.JournalEntry, error)

	// Reverse posts a mirror entry and marks the original reversed.
	Reverse(ctx context.Context, entryID string, reversedBy string, reason string) (*domain.JournalEntry, error)

	// CreateAndPost creates an entry from header and lines and posts it in one step.
	CreateAndPost(ctx context.Context, header domain.JournalEntry, lines []domain.JournalEntryLine, userID string) (*domain.JournalEntry, error)

	// NextEntryNumber returns the next formatted entry number.
	NextEntryNumber(ctx context.Context) (string, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
}
