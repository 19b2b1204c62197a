package mapping

import (
	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shauritanga/twa-system/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry header to a model JournalEntry
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:           d.EntryID,
		EntryNumber:       d.EntryNumber,
		EntryDate:         d.EntryDate,
		Reference:         d.Reference,
		Description:       d.Description,
		Status:            string(d.Status),
		TotalDebit:        d.TotalDebit,
		TotalCredit:       d.TotalCredit,
		PostedBy:          optionalString(d.PostedBy),
		PostedAt:          d.PostedAt,
		ReversedBy:        optionalString(d.ReversedBy),
		ReversedAt:        d.ReversedAt,
		ReversalReason:    optionalString(d.ReversalReason),
		ReversalOfEntryID: d.ReversalOfEntryID,
		ReversalEntryID:   d.ReversalEntryID,
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournalEntry converts a model JournalEntry to a domain JournalEntry without lines
func ToDomainJournalEntry(m models.JournalEntry) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:           m.EntryID,
		EntryNumber:       m.EntryNumber,
		EntryDate:         m.EntryDate,
		Reference:         m.Reference,
		Description:       m.Description,
		Status:            domain.JournalStatus(m.Status),
		TotalDebit:        m.TotalDebit,
		TotalCredit:       m.TotalCredit,
		PostedBy:          derefString(m.PostedBy),
		PostedAt:          m.PostedAt,
		ReversedBy:        derefString(m.ReversedBy),
		ReversedAt:        m.ReversedAt,
		ReversalReason:    derefString(m.ReversalReason),
		ReversalOfEntryID: m.ReversalOfEntryID,
		ReversalEntryID:   m.ReversalEntryID,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelJournalLine converts a domain line to a model line
func ToModelJournalLine(d domain.JournalEntryLine) models.JournalEntryLine {
	return models.JournalEntryLine{
		LineID:      d.LineID,
		EntryID:     d.EntryID,
		AccountID:   d.AccountID,
		Description: d.Description,
		Debit:       d.Debit,
		Credit:      d.Credit,
		LineOrder:   d.LineOrder,
	}
}

// ToDomainJournalLine converts a model line to a domain line
func ToDomainJournalLine(m models.JournalEntryLine) domain.JournalEntryLine {
	return domain.JournalEntryLine{
		LineID:      m.LineID,
		EntryID:     m.EntryID,
		AccountID:   m.AccountID,
		Description: m.Description,
		Debit:       m.Debit,
		Credit:      m.Credit,
		LineOrder:   m.LineOrder,
	}
}

// ToModelLedgerPosting converts a domain posting token to its row
func ToModelLedgerPosting(d domain.LedgerPosting) models.LedgerPosting {
	return models.LedgerPosting{
		Kind:      string(d.Kind),
		RecordID:  d.RecordID,
		Stage:     string(d.Stage),
		EntryID:   d.EntryID,
		CreatedAt: d.CreatedAt,
	}
}

// ToDomainLedgerPosting converts a posting row to the domain token
func ToDomainLedgerPosting(m models.LedgerPosting) domain.LedgerPosting {
	return domain.LedgerPosting{
		Kind:      domain.TransactionKind(m.Kind),
		RecordID:  m.RecordID,
		Stage:     domain.LifecycleStage(m.Stage),
		EntryID:   m.EntryID,
		CreatedAt: m.CreatedAt,
	}
}
