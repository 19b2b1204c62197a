package dto

import (
	"time"

	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalLineRequest is one line of a manual journal entry.
type JournalLineRequest struct {
	AccountID   string          `json:"accountID" binding:"required"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// CreateJournalEntryRequest creates a draft entry.
type CreateJournalEntryRequest struct {
	EntryDate   time.Time            `json:"entryDate" binding:"required"`
	Reference   string               `json:"reference" binding:"max=100"`
	Description string               `json:"description" binding:"max=255"`
	Lines       []JournalLineRequest `json:"lines" binding:"dive"`
}

// ReverseJournalEntryRequest carries the mandatory reversal reason.
type ReverseJournalEntryRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

// JournalLineResponse defines the data returned for a journal line.
type JournalLineResponse struct {
	LineID      string          `json:"lineID"`
	AccountID   string          `json:"accountID"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	LineOrder   int             `json:"lineOrder"`
}

// JournalEntryResponse defines the data returned for a journal entry.
type JournalEntryResponse struct {
	EntryID           string                `json:"entryID"`
	EntryNumber       string                `json:"entryNumber"`
	EntryDate         time.Time             `json:"entryDate"`
	Reference         string                `json:"reference"`
	Description       string                `json:"description"`
	Status            domain.JournalStatus  `json:"status"`
	TotalDebit        decimal.Decimal       `json:"totalDebit"`
	TotalCredit       decimal.Decimal       `json:"totalCredit"`
	PostedBy          string                `json:"postedBy,omitempty"`
	PostedAt          *time.Time            `json:"postedAt,omitempty"`
	ReversedBy        string                `json:"reversedBy,omitempty"`
	ReversedAt        *time.Time            `json:"reversedAt,omitempty"`
	ReversalReason    string                `json:"reversalReason,omitempty"`
	ReversalOfEntryID *string               `json:"reversalOfEntryID,omitempty"`
	ReversalEntryID   *string               `json:"reversalEntryID,omitempty"`
	CreatedAt         time.Time             `json:"createdAt"`
	CreatedBy         string                `json:"createdBy"`
	Lines             []JournalLineResponse `json:"lines,omitempty"`
}

// ToJournalEntryResponse converts a domain.JournalEntry to its DTO.
func ToJournalEntryResponse(e *domain.JournalEntry) JournalEntryResponse {
	resp := JournalEntryResponse{
		EntryID:           e.EntryID,
		EntryNumber:       e.EntryNumber,
		EntryDate:         e.EntryDate,
		Reference:         e.Reference,
		Description:       e.Description,
		Status:            e.Status,
		TotalDebit:        e.TotalDebit,
		TotalCredit:       e.TotalCredit,
		PostedBy:          e.PostedBy,
		PostedAt:          e.PostedAt,
		ReversedBy:        e.ReversedBy,
		ReversedAt:        e.ReversedAt,
		ReversalReason:    e.ReversalReason,
		ReversalOfEntryID: e.ReversalOfEntryID,
		ReversalEntryID:   e.ReversalEntryID,
		CreatedAt:         e.CreatedAt,
		CreatedBy:         e.CreatedBy,
		Lines:             make([]JournalLineResponse, len(e.Lines)),
	}
	for i, l := range e.Lines {
		resp.Lines[i] = JournalLineResponse{
			LineID:      l.LineID,
			AccountID:   l.AccountID,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
			LineOrder:   l.LineOrder,
		}
	}
	return resp
}

// ListEntriesParams defines query parameters for listing journal entries.
type ListEntriesParams struct {
	Status    string     `form:"status" binding:"omitempty,oneof=draft posted reversed"`
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
	Reference string     `form:"reference"`
	AccountID string     `form:"accountID"`
	Limit     int        `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken *string    `form:"nextToken"`
}

// ListEntriesResponse wraps a page of journal entries.
type ListEntriesResponse struct {
	Entries   []JournalEntryResponse `json:"entries"`
	NextToken *string                `json:"nextToken,omitempty"`
}
