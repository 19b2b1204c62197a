package repositories

import (
	"context"

	"github.com/shauritanga/twa-system/internal/core/domain"
)

// ReportingRepository defines operations for retrieving financial report data
type ReportingRepository interface {
	// ListPostedMovements returns every line of entries that reached posted (posted or reversed).
	ListPostedMovements(ctx context.Context) ([]domain.LineMovement, error)
}
