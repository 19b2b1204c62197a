package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
	portssvc "github.com/shauritanga/twa-system/internal/core/ports/services"
	"github.com/shauritanga/twa-system/internal/dto"
	"github.com/shopspring/decimal"
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	txManager   portsrepo.TransactionManager
}

// NewAccountService creates the account registry service.
func NewAccountService(repo portsrepo.AccountRepositoryFacade, txManager portsrepo.TransactionManager, opts ...Option) portssvc.AccountSvcFacade {
	return &accountService{
		BaseService: newBaseService(opts),
		accountRepo: repo,
		txManager:   txManager,
	}
}

// Ensure accountService implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	if !req.AccountType.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown account type %q", req.AccountType))
	}
	if prefixType, ok := domain.TypeForCode(req.Code); !ok || prefixType != req.AccountType {
		return nil, apperrors.NewValidationError(fmt.Sprintf("code %s does not match account type %s", req.Code, req.AccountType))
	}

	normal := domain.DefaultNormalBalance(req.AccountType)
	if req.NormalBalance != nil && *req.NormalBalance != normal {
		return nil, apperrors.NewValidationError(fmt.Sprintf("normal balance of a %s account must be %s", req.AccountType, normal))
	}

	parentID := ""
	if req.ParentAccountID != nil && *req.ParentAccountID != "" {
		parent, err := s.accountRepo.FindAccountByID(ctx, *req.ParentAccountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewValidationError("parent account not found")
			}
			return nil, err
		}
		if parent.AccountType != req.AccountType {
			return nil, apperrors.NewValidationError("parent account must have the same type")
		}
		parentID = parent.AccountID
	}

	if req.OpeningBalance != nil && !domain.RoundMoney(*req.OpeningBalance).IsZero() {
		return nil, apperrors.NewValidationError("opening balances are posted through the ledger")
	}

	account := domain.Account{
		AccountID:       uuid.NewString(),
		Code:            req.Code,
		Name:            req.Name,
		AccountType:     req.AccountType,
		Subtype:         req.Subtype,
		ParentAccountID: parentID,
		NormalBalance:   normal,
		IsSystemAccount: req.IsSystemAccount,
		IsActive:        true,
		OpeningBalance:  decimal.Zero,
		CurrentBalance:  decimal.Zero,
		AuditFields:     domain.NewAuditFields(userID, s.Now()),
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to save account", slog.String("code", account.Code))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Account created", slog.String("account_id", account.AccountID), slog.String("code", account.Code))
	return &account, nil
}

func (s *accountService) FindOrFail(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account", slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) FindByCode(ctx context.Context, code string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by code", slog.String("code", code))
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) ListActive(ctx context.Context, accountType *domain.AccountType) ([]domain.Account, error) {
	if accountType != nil && !accountType.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown account type %q", *accountType))
	}
	accounts, err := s.accountRepo.ListAccounts(ctx, portsrepo.AccountFilter{Type: accountType})
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts")
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}

func (s *accountService) Tree(ctx context.Context) (*domain.Chart, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, portsrepo.AccountFilter{IncludeInactive: true})
	if err != nil {
		return nil, fmt.Errorf("failed to load chart: %w", err)
	}
	return domain.NewChart(accounts), nil
}

func (s *accountService) SetParent(ctx context.Context, accountID string, parentID *string, userID string) (*domain.Account, error) {
	var updated *domain.Account
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		chart, err := s.Tree(ctx)
		if err != nil {
			return err
		}
		child, ok := chart.Get(accountID)
		if !ok {
			return apperrors.NewNotFoundError("account " + accountID)
		}

		newParent := ""
		if parentID != nil {
			newParent = *parentID
		}
		if newParent != "" {
			parent, ok := chart.Get(newParent)
			if !ok {
				return apperrors.NewValidationError("parent account not found")
			}
			if parent.AccountType != child.AccountType {
				return apperrors.NewValidationError("parent account must have the same type")
			}
			if chart.WouldCreateCycle(accountID, newParent) {
				return apperrors.NewValidationError("account hierarchy would contain a cycle")
			}
		}

		now := s.Now()
		if err := s.accountRepo.UpdateAccountParent(ctx, accountID, newParent, userID, now); err != nil {
			return err
		}
		child.ParentAccountID = newParent
		child.Touch(userID, now)
		updated = &child
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Account parent changed", slog.String("account_id", accountID), slog.String("parent_id", updated.ParentAccountID))
	return updated, nil
}

// DeleteAccount soft-deletes an unreferenced account. The row lock keeps a
// concurrent Post from adding lines between the check and the delete.
func (s *accountService) DeleteAccount(ctx context.Context, accountID string, userID string) error {
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		locked, err := s.accountRepo.FindAccountsByIDsForUpdate(ctx, []string{accountID})
		if err != nil {
			return err
		}
		account, ok := locked[accountID]
		if !ok || account.IsDeleted() {
			return apperrors.NewNotFoundError("account " + accountID)
		}
		if account.IsSystemAccount {
			return fmt.Errorf("%w: %s is a system account", apperrors.ErrAccountInUse, account.Code)
		}
		inUse, err := s.accountRepo.AccountHasLines(ctx, accountID)
		if err != nil {
			return err
		}
		if inUse {
			return fmt.Errorf("%w: %s is referenced by journal lines", apperrors.ErrAccountInUse, account.Code)
		}
		return s.accountRepo.SoftDeleteAccount(ctx, accountID, userID, s.Now())
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrAccountInUse) && !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to delete account", slog.String("account_id", accountID))
		}
		return err
	}
	s.LogInfo(ctx, "Account deleted", slog.String("account_id", accountID))
	return nil
}

func (s *accountService) ApplyDelta(ctx context.Context, accountID string, amount decimal.Decimal, direction domain.Direction, userID string) (*domain.Account, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: balance delta must be positive", apperrors.ErrInvalidAmount)
	}
	var updated domain.Account
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		locked, err := s.accountRepo.FindAccountsByIDsForUpdate(ctx, []string{accountID})
		if err != nil {
			return err
		}
		account, ok := locked[accountID]
		if !ok {
			return apperrors.NewNotFoundError("account " + accountID)
		}
		account.ApplyDelta(amount, direction)
		if err := s.accountRepo.UpdateAccountBalances(ctx, map[string]decimal.Decimal{accountID: account.CurrentBalance}, userID, s.Now()); err != nil {
			return err
		}
		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
