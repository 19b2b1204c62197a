package pgsql

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shauritanga/twa-system/internal/core/domain"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
)

type reportingRepository struct {
	BaseRepository
}

func newReportingRepository(db *pgxpool.Pool) portsrepo.ReportingRepository {
	return &reportingRepository{BaseRepository: BaseRepository{Pool: db}}
}

// ListPostedMovements sums the lines of every entry that reached posted, one row per account.
func (r *reportingRepository) ListPostedMovements(ctx context.Context) ([]domain.LineMovement, error) {
	query := `
		SELECT l.account_id, COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
		FROM journal_entry_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE e.status IN ('posted', 'reversed')
		GROUP BY l.account_id
		ORDER BY l.account_id;
	`
	rows, err := r.DB(ctx).Query(ctx, query)
	if err != nil {
		return nil, mapPgError(err, "failed to query posted movements")
	}
	defer rows.Close()

	var movements []domain.LineMovement
	for rows.Next() {
		var m domain.LineMovement
		if err := rows.Scan(&m.AccountID, &m.Debit, &m.Credit); err != nil {
			return nil, mapPgError(err, "failed to scan posted movement")
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err, "error iterating posted movements")
	}
	return movements, nil
}
