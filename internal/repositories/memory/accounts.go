package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

var _ portsrepo.AccountRepositoryFacade = (*Store)(nil)

func (s *Store) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	var (
		acc domain.Account
		ok  bool
	)
	s.read(func(d *state) { acc, ok = d.accounts[accountID] })
	if !ok || acc.IsDeleted() {
		return nil, apperrors.NewNotFoundError("account " + accountID)
	}
	return &acc, nil
}

func (s *Store) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	var found *domain.Account
	s.read(func(d *state) {
		for _, a := range d.accounts {
			if a.Code == code && !a.IsDeleted() {
				acc := a
				found = &acc
				return
			}
		}
	})
	if found == nil {
		return nil, apperrors.NewNotFoundError("account with code " + code)
	}
	return found, nil
}

func (s *Store) FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	wanted := make(map[string]bool, len(codes))
	for _, c := range codes {
		wanted[c] = true
	}
	out := make(map[string]domain.Account, len(codes))
	s.read(func(d *state) {
		for _, a := range d.accounts {
			if wanted[a.Code] && a.IsActive && !a.IsDeleted() {
				out[a.Code] = a
			}
		}
	})
	return out, nil
}

func (s *Store) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(accountIDs))
	s.read(func(d *state) {
		for _, id := range accountIDs {
			if a, ok := d.accounts[id]; ok {
				out[id] = a
			}
		}
	})
	return out, nil
}

// FindAccountsByIDsForUpdate needs no row locks here: the enclosing WithTx already serializes writers.
func (s *Store) FindAccountsByIDsForUpdate(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if !inTx(ctx) {
		return nil, fmt.Errorf("%w: FindAccountsByIDsForUpdate called outside a transaction", apperrors.ErrInternal)
	}
	return s.FindAccountsByIDs(ctx, accountIDs)
}

func (s *Store) ListAccounts(ctx context.Context, filter portsrepo.AccountFilter) ([]domain.Account, error) {
	var out []domain.Account
	s.read(func(d *state) {
		for _, a := range d.accounts {
			if a.IsDeleted() {
				continue
			}
			if !filter.IncludeInactive && !a.IsActive {
				continue
			}
			if filter.Type != nil && a.AccountType != *filter.Type {
				continue
			}
			out = append(out, a)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) AccountHasLines(ctx context.Context, accountID string) (bool, error) {
	found := false
	s.read(func(d *state) {
		for _, e := range d.entries {
			for _, l := range e.Lines {
				if l.AccountID == accountID {
					found = true
					return
				}
			}
		}
	})
	return found, nil
}

func (s *Store) SaveAccount(ctx context.Context, account domain.Account) error {
	return s.write(ctx, func(d *state) error {
		if _, ok := d.accounts[account.AccountID]; ok {
			return fmt.Errorf("%w: account id %s", apperrors.ErrDuplicate, account.AccountID)
		}
		for _, a := range d.accounts {
			if a.Code == account.Code {
				return fmt.Errorf("%w: account code %s is taken", apperrors.ErrDuplicate, account.Code)
			}
		}
		d.accounts[account.AccountID] = account
		return nil
	})
}

func (s *Store) UpdateAccountParent(ctx context.Context, accountID, parentID, userID string, now time.Time) error {
	return s.write(ctx, func(d *state) error {
		a, ok := d.accounts[accountID]
		if !ok || a.IsDeleted() {
			return apperrors.NewNotFoundError("account " + accountID)
		}
		a.ParentAccountID = parentID
		a.Touch(userID, now)
		d.accounts[accountID] = a
		return nil
	})
}

func (s *Store) SoftDeleteAccount(ctx context.Context, accountID, userID string, now time.Time) error {
	return s.write(ctx, func(d *state) error {
		a, ok := d.accounts[accountID]
		if !ok || a.IsDeleted() {
			return apperrors.NewNotFoundError("account " + accountID)
		}
		deletedAt := now
		a.DeletedAt = &deletedAt
		a.IsActive = false
		a.Touch(userID, now)
		d.accounts[accountID] = a
		return nil
	})
}

func (s *Store) UpdateAccountBalances(ctx context.Context, balances map[string]decimal.Decimal, userID string, now time.Time) error {
	return s.write(ctx, func(d *state) error {
		for id := range balances {
			if _, ok := d.accounts[id]; !ok {
				return apperrors.NewNotFoundError("account " + id)
			}
		}
		for id, bal := range balances {
			a := d.accounts[id]
			a.CurrentBalance = bal
			a.Touch(userID, now)
			d.accounts[id] = a
		}
		return nil
	})
}
