package memory

import (
	"context"
	"fmt"

	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
)

var (
	_ portsrepo.PostingRepository   = (*Store)(nil)
	_ portsrepo.ReportingRepository = (*Store)(nil)
)

func (s *Store) FindPosting(ctx context.Context, kind domain.TransactionKind, recordID int64, stage domain.LifecycleStage) (*domain.LedgerPosting, error) {
	var (
		p  domain.LedgerPosting
		ok bool
	)
	s.read(func(d *state) { p, ok = d.postings[postingKey{kind, recordID, stage}] })
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("posting %s:%d:%s", kind, recordID, stage))
	}
	return &p, nil
}

func (s *Store) SavePosting(ctx context.Context, p domain.LedgerPosting) error {
	return s.write(ctx, func(d *state) error {
		k := postingKey{p.Kind, p.RecordID, p.Stage}
		if _, ok := d.postings[k]; ok {
			return fmt.Errorf("%w: %s:%d:%s", apperrors.ErrDuplicatePosting, p.Kind, p.RecordID, p.Stage)
		}
		if _, ok := d.entries[p.EntryID]; !ok {
			return apperrors.NewNotFoundError("journal entry " + p.EntryID)
		}
		d.postings[k] = p
		return nil
	})
}

func (s *Store) ListPostedMovements(ctx context.Context) ([]domain.LineMovement, error) {
	var out []domain.LineMovement
	s.read(func(d *state) {
		for _, e := range d.entries {
			if !e.HasReachedPosted() {
				continue
			}
			for _, l := range e.Lines {
				out = append(out, domain.LineMovement{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit})
			}
		}
	})
	return out, nil
}
