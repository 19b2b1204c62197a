package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shauritanga/twa-system/internal/core/domain"
)

const seedAccountQuery = `
	INSERT INTO accounts (account_id, code, name, account_type, subtype, parent_account_id, normal_balance,
		is_system_account, is_active, opening_balance, current_balance,
		created_at, created_by, last_updated_at, last_updated_by)
	VALUES ($1, $2, $3, $4, $5, (SELECT account_id FROM accounts WHERE code = $6), $7,
		$8, TRUE, 0, 0, $9, $10, $9, $10)
	ON CONFLICT (code) DO NOTHING`

// SeedChart inserts the chart of accounts in one transaction. Existing codes are
// left untouched, so running it after every migration is safe. Root accounts are
// inserted before children so parent codes resolve. It returns the number of
// accounts created.
func SeedChart(ctx context.Context, db *sql.DB, chart []domain.ChartEntry, actorID string, now time.Time) (int, error) {
	ordered := make([]domain.ChartEntry, len(chart))
	copy(ordered, chart)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ParentCode == "" && ordered[j].ParentCode != ""
	})

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin chart seeding: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created := 0
	for _, c := range ordered {
		var parentCode sql.NullString
		if c.ParentCode != "" {
			parentCode = sql.NullString{String: c.ParentCode, Valid: true}
		}
		res, err := tx.ExecContext(ctx, seedAccountQuery,
			uuid.NewString(),
			c.Code,
			c.Name,
			string(c.Type),
			c.Subtype,
			parentCode,
			string(domain.DefaultNormalBalance(c.Type)),
			c.IsSystem,
			now,
			actorID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to seed account %s: %w", c.Code, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			created += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit chart seeding: %w", err)
	}
	return created, nil
}
