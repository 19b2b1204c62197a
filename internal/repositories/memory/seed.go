package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SeedChart inserts the chart entries whose code is not taken yet. Parents are
// resolved by code, so a parent must precede or already exist.
func (s *Store) SeedChart(ctx context.Context, chart []domain.ChartEntry, actorID string, now time.Time) (int, error) {
	created := 0
	err := s.WithTx(ctx, func(ctx context.Context) error {
		pending := make([]domain.ChartEntry, 0, len(chart))
		for _, c := range chart {
			if _, err := s.FindAccountByCode(ctx, c.Code); err == nil {
				continue
			}
			pending = append(pending, c)
		}
		// roots first so children can resolve their parent id
		for pass := 0; pass < 2; pass++ {
			for _, c := range pending {
				if (c.ParentCode == "") != (pass == 0) {
					continue
				}
				acc := domain.Account{
					AccountID:       uuid.NewString(),
					Code:            c.Code,
					Name:            c.Name,
					AccountType:     c.Type,
					Subtype:         c.Subtype,
					NormalBalance:   domain.DefaultNormalBalance(c.Type),
					IsSystemAccount: c.IsSystem,
					IsActive:        true,
					OpeningBalance:  decimal.Zero,
					CurrentBalance:  decimal.Zero,
					AuditFields:     domain.NewAuditFields(actorID, now),
				}
				if c.ParentCode != "" {
					if parent, err := s.FindAccountByCode(ctx, c.ParentCode); err == nil {
						acc.ParentAccountID = parent.AccountID
					}
				}
				if err := s.SaveAccount(ctx, acc); err != nil {
					return err
				}
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
