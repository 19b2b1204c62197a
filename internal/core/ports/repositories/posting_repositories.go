package repositories

import (
	"context"

	"github.com/shauritanga/twa-system/internal/core/domain"
)

// PostingRepository stores the (kind, record, stage) idempotency tokens.
type PostingRepository interface {
	// FindPosting returns apperrors.ErrNotFound when nothing was posted for the key.
	FindPosting(ctx context.Context, kind domain.TransactionKind, recordID int64, stage domain.LifecycleStage) (*domain.LedgerPosting, error)

	// SavePosting returns apperrors.ErrDuplicatePosting when the key is taken.
	SavePosting(ctx context.Context, p domain.LedgerPosting) error
}
