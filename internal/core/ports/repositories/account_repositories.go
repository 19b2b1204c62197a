package repositories

import (
	"context"
	"time"

	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountFilter narrows ListAccounts.
type AccountFilter struct {
	Type            *domain.AccountType
	IncludeInactive bool
}

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a non-deleted account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByCode retrieves a non-deleted account by its chart code.
	FindAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// FindAccountsByCodes retrieves active accounts keyed by code. Unknown codes are absent from the map.
	FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts keyed by id.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts lists non-deleted accounts ordered by code.
	ListAccounts(ctx context.Context, filter AccountFilter) ([]domain.Account, error)

	// AccountHasLines reports whether any journal line references the account.
	AccountHasLines(ctx context.Context, accountID string) (bool, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account. A taken code yields apperrors.ErrDuplicate.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccountParent changes the parent link of an account.
	UpdateAccountParent(ctx context.Context, accountID string, parentID string, userID string, now time.Time) error

	// SoftDeleteAccount stamps deleted_at and deactivates the account.
	SoftDeleteAccount(ctx context.Context, accountID string, userID string, now time.Time) error
}

// AccountTransactionSupport defines operations that must run inside WithTx.
type AccountTransactionSupport interface {
	// FindAccountsByIDsForUpdate selects accounts and locks them for update, in ascending id order.
	FindAccountsByIDsForUpdate(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// UpdateAccountBalances writes new current balances.
	UpdateAccountBalances(ctx context.Context, balances map[string]decimal.Decimal, userID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountTransactionSupport
}
