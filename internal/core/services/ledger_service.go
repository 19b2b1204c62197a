package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
	portssvc "github.com/shauritanga/twa-system/internal/core/ports/services"
	"github.com/shauritanga/twa-system/internal/dto"
	"github.com/shopspring/decimal"
)

// ledgerService is the facade the domain layer posts through and read clients query.
type ledgerService struct {
	BaseService
	dispatcher portssvc.PostingDispatcherSvc
	journal    portssvc.JournalSvcFacade
	accounts   portssvc.AccountSvcFacade
	projector  portssvc.BalanceProjectorSvc
	txManager  portsrepo.TransactionManager
	validate   *validator.Validate
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(
	dispatcher portssvc.PostingDispatcherSvc,
	journal portssvc.JournalSvcFacade,
	accounts portssvc.AccountSvcFacade,
	projector portssvc.BalanceProjectorSvc,
	txManager portsrepo.TransactionManager,
	opts ...Option,
) portssvc.LedgerSvc {
	return &ledgerService{
		BaseService: newBaseService(opts),
		dispatcher:  dispatcher,
		journal:     journal,
		accounts:    accounts,
		projector:   projector,
		txManager:   txManager,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

var _ portssvc.LedgerSvc = (*ledgerService)(nil)

func (s *ledgerService) PostFor(ctx context.Context, kind domain.TransactionKind, payload domain.PostingPayload) (domain.PostingResult, error) {
	if payload.Kind == "" {
		payload.Kind = kind
	}
	if payload.Kind != kind {
		return domain.PostingResult{}, apperrors.NewValidationError(fmt.Sprintf("payload kind %s does not match %s", payload.Kind, kind))
	}
	if err := s.validate.Struct(payload); err != nil {
		return domain.PostingResult{}, apperrors.NewValidationError(describeValidation(err))
	}
	return s.dispatcher.Dispatch(ctx, payload)
}

// OpenAccount creates an account and posts its opening balance against the
// Association Fund in the same transaction.
func (s *ledgerService) OpenAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	opening := decimal.Zero
	if req.OpeningBalance != nil {
		opening = domain.RoundMoney(*req.OpeningBalance)
	}
	req.OpeningBalance = nil

	var account *domain.Account
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.accounts.CreateAccount(ctx, req, userID)
		if err != nil || opening.IsZero() {
			return err
		}

		fund, err := s.accounts.FindByCode(ctx, domain.CodeAssociationFund)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: %s", apperrors.ErrMissingAccount, domain.CodeAssociationFund)
			}
			return err
		}

		side := account.NormalBalance
		if opening.IsNegative() {
			side = side.Opposite()
		}
		amount := opening.Abs()
		_, err = s.journal.CreateAndPost(ctx, domain.JournalEntry{
			EntryDate:   s.Now(),
			Reference:   "OPEN-" + account.Code,
			Description: "Opening balance of " + account.Name,
		}, []domain.JournalEntryLine{
			domain.NewLine(account.AccountID, side, amount, "Opening balance"),
			domain.NewLine(fund.AccountID, side.Opposite(), amount, "Opening balance of "+account.Code),
		}, userID)
		if err != nil {
			return err
		}

		account, err = s.accounts.FindOrFail(ctx, account.AccountID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !opening.IsZero() {
		s.LogInfo(ctx, "Opening balance posted", slog.String("code", account.Code), slog.String("amount", opening.StringFixed(2)))
	}
	return account, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return "invalid posting payload: " + strings.Join(msgs, ", ")
}

func (s *ledgerService) GetTrialBalance(ctx context.Context) (domain.TrialBalance, error) {
	return s.projector.TrialBalance(ctx)
}

func (s *ledgerService) GetAccountBalance(ctx context.Context, code string) (*dto.AccountBalanceResponse, error) {
	acct, err := s.accounts.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return &dto.AccountBalanceResponse{
		AccountID:     acct.AccountID,
		Code:          acct.Code,
		NormalBalance: acct.NormalBalance,
		Balance:       acct.CurrentBalance,
	}, nil
}

func (s *ledgerService) GetJournalEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return s.journal.GetEntry(ctx, entryID)
}

func (s *ledgerService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	return s.journal.ListEntries(ctx, params)
}

func (s *ledgerService) VerifyBalances(ctx context.Context) (domain.BalanceVerification, error) {
	return s.projector.VerifyBalances(ctx)
}
