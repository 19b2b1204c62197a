package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
	"github.com/shauritanga/twa-system/internal/models"
	"github.com/shauritanga/twa-system/internal/utils/mapping"
)

type PgxPostingRepository struct {
	BaseRepository
}

func newPgxPostingRepository(pool *pgxpool.Pool) portsrepo.PostingRepository {
	return &PgxPostingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PostingRepository = (*PgxPostingRepository)(nil)

func (r *PgxPostingRepository) FindPosting(ctx context.Context, kind domain.TransactionKind, recordID int64, stage domain.LifecycleStage) (*domain.LedgerPosting, error) {
	query := `
		SELECT kind, record_id, stage, entry_id, created_at
		FROM ledger_postings
		WHERE kind = $1 AND record_id = $2 AND stage = $3;
	`
	var m models.LedgerPosting
	err := r.DB(ctx).QueryRow(ctx, query, string(kind), recordID, string(stage)).
		Scan(&m.Kind, &m.RecordID, &m.Stage, &m.EntryID, &m.CreatedAt)
	if err != nil {
		return nil, mapPgError(err, fmt.Sprintf("posting %s:%d:%s", kind, recordID, stage))
	}
	p := mapping.ToDomainLedgerPosting(m)
	return &p, nil
}

// SavePosting relies on the (kind, record_id, stage) primary key to reject a second posting.
func (r *PgxPostingRepository) SavePosting(ctx context.Context, p domain.LedgerPosting) error {
	m := mapping.ToModelLedgerPosting(p)
	query := `
		INSERT INTO ledger_postings (kind, record_id, stage, entry_id, created_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := r.DB(ctx).Exec(ctx, query, m.Kind, m.RecordID, m.Stage, m.EntryID, m.CreatedAt)
	if err == nil {
		return nil
	}
	mapped := mapPgError(err, fmt.Sprintf("posting %s:%d:%s", m.Kind, m.RecordID, m.Stage))
	if errors.Is(mapped, apperrors.ErrDuplicate) {
		return fmt.Errorf("%w: %s:%d:%s", apperrors.ErrDuplicatePosting, m.Kind, m.RecordID, m.Stage)
	}
	return mapped
}
