package services

import (
	"context"
	"log/slog"

	"github.com/shauritanga/twa-system/internal/core/domain"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
	portssvc "github.com/shauritanga/twa-system/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// balanceProjector keeps account balances in step with posted lines and reports on them.
type balanceProjector struct {
	BaseService
	accounts      portssvc.AccountBalanceSvc
	accountRepo   portsrepo.AccountReader
	reportingRepo portsrepo.ReportingRepository
}

// NewBalanceProjector creates the projector.
func NewBalanceProjector(accounts portssvc.AccountBalanceSvc, accountRepo portsrepo.AccountReader, reportingRepo portsrepo.ReportingRepository, opts ...Option) portssvc.BalanceProjectorSvc {
	return &balanceProjector{
		BaseService:   newBaseService(opts),
		accounts:      accounts,
		accountRepo:   accountRepo,
		reportingRepo: reportingRepo,
	}
}

var _ portssvc.BalanceProjectorSvc = (*balanceProjector)(nil)

func (p *balanceProjector) ApplyLine(ctx context.Context, accountID string, amount decimal.Decimal, direction domain.Direction, userID string) error {
	acct, err := p.accounts.ApplyDelta(ctx, accountID, amount, direction, userID)
	if err != nil {
		return err
	}
	p.LogDebug(ctx, "Balance updated",
		slog.String("account_id", accountID),
		slog.String("direction", string(direction)),
		slog.String("amount", amount.StringFixed(2)),
		slog.String("balance", acct.CurrentBalance.StringFixed(2)))
	return nil
}

func (p *balanceProjector) TrialBalance(ctx context.Context) (domain.TrialBalance, error) {
	accounts, err := p.accountRepo.ListAccounts(ctx, portsrepo.AccountFilter{})
	if err != nil {
		p.LogError(ctx, err, "Failed to load accounts for trial balance")
		return domain.TrialBalance{}, err
	}
	tb := domain.NewTrialBalance(accounts)
	if !tb.Balanced {
		p.LogWarn(ctx, "Trial balance does not balance",
			slog.String("total_debit", tb.TotalDebit.StringFixed(2)),
			slog.String("total_credit", tb.TotalCredit.StringFixed(2)))
	}
	return tb, nil
}

func (p *balanceProjector) VerifyBalances(ctx context.Context) (domain.BalanceVerification, error) {
	accounts, err := p.accountRepo.ListAccounts(ctx, portsrepo.AccountFilter{IncludeInactive: true})
	if err != nil {
		return domain.BalanceVerification{}, err
	}
	movements, err := p.reportingRepo.ListPostedMovements(ctx)
	if err != nil {
		p.LogError(ctx, err, "Failed to load posted lines")
		return domain.BalanceVerification{}, err
	}
	v := domain.VerifyBalances(accounts, movements)
	if !v.OK() {
		p.LogWarn(ctx, "Stored balances drifted from the line log", slog.Int("accounts", len(v.Drifts)))
	}
	return v, nil
}
