package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
	"github.com/shauritanga/twa-system/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

var _ portsrepo.JournalRepositoryFacade = (*Store)(nil)

const defaultEntryLimit = 20

func copyEntry(e domain.JournalEntry) domain.JournalEntry {
	lines := make([]domain.JournalEntryLine, len(e.Lines))
	copy(lines, e.Lines)
	e.Lines = lines
	return e
}

func (s *Store) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	var (
		e  domain.JournalEntry
		ok bool
	)
	s.read(func(d *state) {
		e, ok = d.entries[entryID]
		if ok {
			e = copyEntry(e)
		}
	})
	if !ok {
		return nil, apperrors.NewNotFoundError("journal entry " + entryID)
	}
	sort.SliceStable(e.Lines, func(i, j int) bool { return e.Lines[i].LineOrder < e.Lines[j].LineOrder })
	return &e, nil
}

func (s *Store) FindEntryByIDForUpdate(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	if !inTx(ctx) {
		return nil, fmt.Errorf("%w: FindEntryByIDForUpdate called outside a transaction", apperrors.ErrInternal)
	}
	return s.FindEntryByID(ctx, entryID)
}

func matchesFilter(e domain.JournalEntry, f portsrepo.EntryFilter) bool {
	if f.Status != nil && e.Status != *f.Status {
		return false
	}
	if f.From != nil && e.EntryDate.Before(*f.From) {
		return false
	}
	if f.To != nil && e.EntryDate.After(*f.To) {
		return false
	}
	if f.Reference != "" && !strings.Contains(strings.ToLower(e.Reference), strings.ToLower(f.Reference)) {
		return false
	}
	if f.AccountID != "" {
		for _, l := range e.Lines {
			if l.AccountID == f.AccountID {
				return true
			}
		}
		return false
	}
	return true
}

func (s *Store) ListEntries(ctx context.Context, filter portsrepo.EntryFilter) ([]domain.JournalEntry, *string, error) {
	var cursor *pagination.Cursor
	if filter.NextToken != nil && *filter.NextToken != "" {
		c, err := pagination.DecodeToken(*filter.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursor = &c
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultEntryLimit
	}

	var matched []domain.JournalEntry
	s.read(func(d *state) {
		for _, e := range d.entries {
			if !matchesFilter(e, filter) {
				continue
			}
			if cursor != nil && !cursor.Before(e.EntryDate, e.CreatedAt, e.EntryID) {
				continue
			}
			matched = append(matched, copyEntry(e))
		}
	})
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.After(b.EntryDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.EntryID > b.EntryID
	})

	var next *string
	if len(matched) > limit {
		matched = matched[:limit]
		last := matched[limit-1]
		token := pagination.EncodeToken(last.EntryDate, last.CreatedAt, last.EntryID)
		next = &token
	}
	return matched, next, nil
}

func (s *Store) NextEntryNumber(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entrySeq++
	return s.entrySeq, nil
}

func (s *Store) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	return s.write(ctx, func(d *state) error {
		if _, ok := d.entries[entry.EntryID]; ok {
			return fmt.Errorf("%w: journal entry %s", apperrors.ErrDuplicate, entry.EntryID)
		}
		for _, e := range d.entries {
			if e.EntryNumber == entry.EntryNumber {
				return fmt.Errorf("%w: entry number %s", apperrors.ErrDuplicate, entry.EntryNumber)
			}
		}
		for _, l := range entry.Lines {
			if _, ok := d.accounts[l.AccountID]; !ok {
				return apperrors.NewNotFoundError("account " + l.AccountID)
			}
		}
		d.entries[entry.EntryID] = copyEntry(entry)
		return nil
	})
}

func (s *Store) AddLine(ctx context.Context, line domain.JournalEntryLine) error {
	return s.write(ctx, func(d *state) error {
		e, ok := d.entries[line.EntryID]
		if !ok {
			return apperrors.NewNotFoundError("journal entry " + line.EntryID)
		}
		if _, ok := d.accounts[line.AccountID]; !ok {
			return apperrors.NewNotFoundError("account " + line.AccountID)
		}
		e = copyEntry(e)
		e.Lines = append(e.Lines, line)
		d.entries[e.EntryID] = e
		return nil
	})
}

func (s *Store) updateEntry(ctx context.Context, entryID string, fn func(e *domain.JournalEntry)) error {
	return s.write(ctx, func(d *state) error {
		e, ok := d.entries[entryID]
		if !ok {
			return apperrors.NewNotFoundError("journal entry " + entryID)
		}
		fn(&e)
		d.entries[entryID] = e
		return nil
	})
}

func (s *Store) UpdateEntryTotals(ctx context.Context, entryID string, totalDebit, totalCredit decimal.Decimal, userID string, now time.Time) error {
	return s.updateEntry(ctx, entryID, func(e *domain.JournalEntry) {
		e.TotalDebit = totalDebit
		e.TotalCredit = totalCredit
		e.Touch(userID, now)
	})
}

func (s *Store) MarkPosted(ctx context.Context, entryID, postedBy string, postedAt time.Time) error {
	return s.updateEntry(ctx, entryID, func(e *domain.JournalEntry) {
		at := postedAt
		e.Status = domain.Posted
		e.PostedBy = postedBy
		e.PostedAt = &at
		e.Touch(postedBy, postedAt)
	})
}

func (s *Store) MarkReversed(ctx context.Context, entryID, reversedBy string, reversedAt time.Time, reason, reversalEntryID string) error {
	return s.updateEntry(ctx, entryID, func(e *domain.JournalEntry) {
		at := reversedAt
		rev := reversalEntryID
		e.Status = domain.Reversed
		e.ReversedBy = reversedBy
		e.ReversedAt = &at
		e.ReversalReason = reason
		e.ReversalEntryID = &rev
		e.Touch(reversedBy, reversedAt)
	})
}
