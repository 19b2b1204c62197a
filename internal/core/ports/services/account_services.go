package services

import (
	"context"

	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shauritanga/twa-system/internal/dto"
	"github.com/shopspring/decimal"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// FindOrFail retrieves an account by id or returns apperrors.ErrNotFound.
	FindOrFail(ctx context.Context, accountID string) (*domain.Account, error)

	// FindByCode retrieves an account by its chart code.
	FindByCode(ctx context.Context, code string) (*domain.Account, error)

	// ListActive lists active accounts, optionally of one type.
	ListActive(ctx context.Context, accountType *domain.AccountType) ([]domain.Account, error)

	// Tree returns the chart as an arena for hierarchy display.
	Tree(ctx context.Context) (*domain.Chart, error)
}

// AccountWriterSvc defines write operations for account data
type AccountWriterSvc interface {
	// CreateAccount persists a new account.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error)

	// SetParent re-parents an account, rejecting cycles and type mismatches.
	SetParent(ctx context.Context, accountID string, parentID *string, userID string) (*domain.Account, error)

	// DeleteAccount soft-deletes an account that is neither a system account nor referenced by lines.
	DeleteAccount(ctx context.Context, accountID string, userID string) error
}

// AccountBalanceSvc is the only mutator of current balances.
type AccountBalanceSvc interface {
	// ApplyDelta moves a balance by amount on direction. It must run inside a
	// transaction that holds the account's row lock.
	ApplyDelta(ctx context.Context, accountID string, amount decimal.Decimal, direction domain.Direction, userID string) (*domain.Account, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
	AccountBalanceSvc
}
