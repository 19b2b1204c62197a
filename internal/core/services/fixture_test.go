package services_test

import (
	"context"
	"time"

	"github.com/shauritanga/twa-system/internal/core/domain"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
	portssvc "github.com/shauritanga/twa-system/internal/core/ports/services"
	"github.com/shauritanga/twa-system/internal/core/services"
	"github.com/shauritanga/twa-system/internal/platform/lock"
	"github.com/shauritanga/twa-system/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// ledgerSuite wires every service against a fresh in-memory store.
type ledgerSuite struct {
	suite.Suite
	ctx   context.Context
	now   time.Time
	store *memory.Store
	svc   *portssvc.ServiceContainer
	actor string
}

func (s *ledgerSuite) SetupTest() {
	s.setup(true)
}

func (s *ledgerSuite) setup(seed bool) {
	s.ctx = context.Background()
	s.now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s.actor = "treasurer-1"

	repos, store := memory.NewProvider()
	s.store = store
	if seed {
		_, err := s.store.SeedChart(s.ctx, domain.DefaultChart, "system", s.now)
		s.Require().NoError(err)
	}
	s.svc = services.NewServiceContainer(nil, repos, lock.NewLocalLocker(), services.WithClock(func() time.Time { return s.now }))
}

func (s *ledgerSuite) balance(code string) decimal.Decimal {
	acct, err := s.store.FindAccountByCode(s.ctx, code)
	s.Require().NoError(err)
	return acct.CurrentBalance
}

func (s *ledgerSuite) assertBalance(code string, want int64) {
	got := s.balance(code)
	s.Truef(decimal.NewFromInt(want).Equal(got), "balance of %s: want %d, got %s", code, want, got.StringFixed(2))
}

func (s *ledgerSuite) entryCount() int {
	entries, _, err := s.store.ListEntries(s.ctx, portsrepo.EntryFilter{Limit: 100})
	s.Require().NoError(err)
	return len(entries)
}

func (s *ledgerSuite) assertBooksBalanced() {
	tb, err := s.svc.Ledger.GetTrialBalance(s.ctx)
	s.Require().NoError(err)
	s.Truef(tb.Balanced, "trial balance off by %s", tb.Difference.StringFixed(2))

	v, err := s.svc.Ledger.VerifyBalances(s.ctx)
	s.Require().NoError(err)
	s.True(v.OK(), "stored balances drifted: %+v", v.Drifts)
}

func (s *ledgerSuite) entry(entryID string) *domain.JournalEntry {
	e, err := s.svc.Ledger.GetJournalEntry(s.ctx, entryID)
	s.Require().NoError(err)
	return e
}
