package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shauritanga/twa-system/internal/core/services"
	"github.com/shauritanga/twa-system/internal/dto"
	"github.com/shauritanga/twa-system/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type AccountServiceTestSuite struct {
	ledgerSuite
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

func (s *AccountServiceTestSuite) create(code, name string, accountType domain.AccountType, parentID *string) *domain.Account {
	acc, err := s.svc.Account.CreateAccount(s.ctx, dto.CreateAccountRequest{
		Code: code, Name: name, AccountType: accountType, ParentAccountID: parentID,
	}, s.actor)
	s.Require().NoError(err)
	return acc
}

func (s *AccountServiceTestSuite) TestCreateAccount_DefaultsNormalBalance() {
	acc := s.create("4400", "Fundraising", domain.Revenue, nil)

	s.Equal(domain.Credit, acc.NormalBalance)
	s.True(acc.IsActive)
	s.True(acc.CurrentBalance.IsZero())

	found, err := s.svc.Account.FindByCode(s.ctx, "4400")
	s.Require().NoError(err)
	s.Equal(acc.AccountID, found.AccountID)
}

func (s *AccountServiceTestSuite) TestCreateAccount_Rejections() {
	credit := domain.Credit
	cases := []struct {
		name string
		req  dto.CreateAccountRequest
		want error
	}{
		{"code outside type range", dto.CreateAccountRequest{Code: "1500", Name: "x", AccountType: domain.Expense}, apperrors.ErrValidation},
		{"normal balance against type", dto.CreateAccountRequest{Code: "1500", Name: "x", AccountType: domain.Asset, NormalBalance: &credit}, apperrors.ErrValidation},
		{"unknown type", dto.CreateAccountRequest{Code: "1500", Name: "x", AccountType: "gadget"}, apperrors.ErrValidation},
		{"duplicate code", dto.CreateAccountRequest{Code: domain.CodeCash, Name: "Cash again", AccountType: domain.Asset}, apperrors.ErrDuplicate},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.svc.Account.CreateAccount(s.ctx, tc.req, s.actor)
			s.ErrorIs(err, tc.want)
		})
	}
}

func (s *AccountServiceTestSuite) TestCreateAccount_RejectsOpeningBalance() {
	opening := decimal.NewFromInt(500)
	_, err := s.svc.Account.CreateAccount(s.ctx, dto.CreateAccountRequest{
		Code: "1010", Name: "Savings", AccountType: domain.Asset, OpeningBalance: &opening,
	}, s.actor)

	s.ErrorIs(err, apperrors.ErrValidation)
	_, err = s.svc.Account.FindByCode(s.ctx, "1010")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *AccountServiceTestSuite) TestOpenAccount_PostsAgainstFund() {
	opening := decimal.RequireFromString("250.505")
	acc, err := s.svc.Ledger.OpenAccount(s.ctx, dto.CreateAccountRequest{
		Code: "1300", Name: "Petty Cash", AccountType: domain.Asset, OpeningBalance: &opening,
	}, s.actor)
	s.Require().NoError(err)

	s.Equal("250.51", acc.CurrentBalance.StringFixed(2))
	s.Equal("250.51", s.balance(domain.CodeAssociationFund).StringFixed(2))
	s.Equal(1, s.entryCount())
	s.assertBooksBalanced()

	entries, err := s.svc.Ledger.ListEntries(s.ctx, dto.ListEntriesParams{})
	s.Require().NoError(err)
	s.Require().Len(entries.Entries, 1)
	s.Equal("OPEN-1300", entries.Entries[0].Reference)
}

func (s *AccountServiceTestSuite) TestOpenAccount_CreditNormalDebitsFund() {
	opening := decimal.NewFromInt(80)
	acc, err := s.svc.Ledger.OpenAccount(s.ctx, dto.CreateAccountRequest{
		Code: "2100", Name: "Member Deposits", AccountType: domain.Liability, OpeningBalance: &opening,
	}, s.actor)
	s.Require().NoError(err)

	s.True(decimal.NewFromInt(80).Equal(acc.CurrentBalance))
	s.assertBalance(domain.CodeAssociationFund, -80)
	s.assertBooksBalanced()
}

func (s *AccountServiceTestSuite) TestOpenAccount_ZeroOpeningPostsNothing() {
	_, err := s.svc.Ledger.OpenAccount(s.ctx, dto.CreateAccountRequest{
		Code: "1300", Name: "Petty Cash", AccountType: domain.Asset,
	}, s.actor)
	s.Require().NoError(err)

	s.Equal(0, s.entryCount())
}

func (s *AccountServiceTestSuite) TestOpenAccount_DuplicateLeavesBooksUntouched() {
	opening := decimal.NewFromInt(10)
	_, err := s.svc.Ledger.OpenAccount(s.ctx, dto.CreateAccountRequest{
		Code: domain.CodeCash, Name: "Cash again", AccountType: domain.Asset, OpeningBalance: &opening,
	}, s.actor)

	s.ErrorIs(err, apperrors.ErrDuplicate)
	s.Equal(0, s.entryCount())
	s.assertBalance(domain.CodeAssociationFund, 0)
}

func (s *AccountServiceTestSuite) TestCreateAccount_ParentMustShareType() {
	cash, err := s.svc.Account.FindByCode(s.ctx, domain.CodeCash)
	s.Require().NoError(err)

	_, err = s.svc.Account.CreateAccount(s.ctx, dto.CreateAccountRequest{
		Code: "5400", Name: "Travel", AccountType: domain.Expense, ParentAccountID: &cash.AccountID,
	}, s.actor)

	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *AccountServiceTestSuite) TestSetParent_RejectsCycle() {
	top := s.create("5500", "Programmes", domain.Expense, nil)
	mid := s.create("5510", "Youth", domain.Expense, &top.AccountID)
	leaf := s.create("5511", "Youth camp", domain.Expense, &mid.AccountID)

	_, err := s.svc.Account.SetParent(s.ctx, top.AccountID, &leaf.AccountID, s.actor)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Account.SetParent(s.ctx, top.AccountID, &top.AccountID, s.actor)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *AccountServiceTestSuite) TestSetParent_MovesAndDetaches() {
	top := s.create("5500", "Programmes", domain.Expense, nil)
	child := s.create("5510", "Youth", domain.Expense, nil)

	moved, err := s.svc.Account.SetParent(s.ctx, child.AccountID, &top.AccountID, s.actor)
	s.Require().NoError(err)
	s.Equal(top.AccountID, moved.ParentAccountID)

	chart, err := s.svc.Account.Tree(s.ctx)
	s.Require().NoError(err)
	s.Len(chart.Children(top.AccountID), 1)

	detached, err := s.svc.Account.SetParent(s.ctx, child.AccountID, nil, s.actor)
	s.Require().NoError(err)
	s.Empty(detached.ParentAccountID)
}

func (s *AccountServiceTestSuite) TestSetParent_UnknownAccount() {
	_, err := s.svc.Account.SetParent(s.ctx, "missing", nil, s.actor)

	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *AccountServiceTestSuite) TestDeleteAccount() {
	cash, err := s.svc.Account.FindByCode(s.ctx, domain.CodeCash)
	s.Require().NoError(err)
	s.ErrorIs(s.svc.Account.DeleteAccount(s.ctx, cash.AccountID, s.actor), apperrors.ErrAccountInUse)

	used := s.create("1300", "Petty Cash", domain.Asset, nil)
	fund, err := s.svc.Account.FindByCode(s.ctx, domain.CodeAssociationFund)
	s.Require().NoError(err)
	_, err = s.svc.Journal.CreateDraft(s.ctx, dto.CreateJournalEntryRequest{
		EntryDate: s.now,
		Lines: []dto.JournalLineRequest{
			{AccountID: used.AccountID, Debit: decimal.NewFromInt(5)},
			{AccountID: fund.AccountID, Credit: decimal.NewFromInt(5)},
		},
	}, s.actor)
	s.Require().NoError(err)
	s.ErrorIs(s.svc.Account.DeleteAccount(s.ctx, used.AccountID, s.actor), apperrors.ErrAccountInUse)

	unused := s.create("1400", "Deposits", domain.Asset, nil)
	s.Require().NoError(s.svc.Account.DeleteAccount(s.ctx, unused.AccountID, s.actor))

	active, err := s.svc.Account.ListActive(s.ctx, nil)
	s.Require().NoError(err)
	for _, a := range active {
		s.NotEqual(unused.AccountID, a.AccountID)
	}

	s.ErrorIs(s.svc.Account.DeleteAccount(s.ctx, unused.AccountID, s.actor), apperrors.ErrNotFound)
}

// callLog records the order of transaction boundaries and account repository calls.
type callLog struct {
	*memory.Store
	calls []string
}

func (c *callLog) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	c.calls = append(c.calls, "begin")
	err := c.Store.WithTx(ctx, fn)
	c.calls = append(c.calls, "end")
	return err
}

func (c *callLog) FindAccountsByIDsForUpdate(ctx context.Context, ids []string) (map[string]domain.Account, error) {
	c.calls = append(c.calls, "lock")
	return c.Store.FindAccountsByIDsForUpdate(ctx, ids)
}

func (c *callLog) AccountHasLines(ctx context.Context, accountID string) (bool, error) {
	c.calls = append(c.calls, "check")
	return c.Store.AccountHasLines(ctx, accountID)
}

func (c *callLog) SoftDeleteAccount(ctx context.Context, accountID, userID string, now time.Time) error {
	c.calls = append(c.calls, "delete")
	return c.Store.SoftDeleteAccount(ctx, accountID, userID, now)
}

func (s *AccountServiceTestSuite) TestDeleteAccount_ChecksUnderRowLock() {
	unused := s.create("1400", "Deposits", domain.Asset, nil)
	rec := &callLog{Store: s.store}
	svc := services.NewAccountService(rec, rec)

	s.Require().NoError(svc.DeleteAccount(s.ctx, unused.AccountID, s.actor))

	s.Equal([]string{"begin", "lock", "check", "delete", "end"}, rec.calls)
}

func (s *AccountServiceTestSuite) TestListActive_ByType() {
	expense := domain.Expense
	accounts, err := s.svc.Account.ListActive(s.ctx, &expense)
	s.Require().NoError(err)

	s.Len(accounts, 5)
	for _, a := range accounts {
		s.Equal(domain.Expense, a.AccountType)
	}

	bogus := domain.AccountType("gadget")
	_, err = s.svc.Account.ListActive(s.ctx, &bogus)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *AccountServiceTestSuite) TestApplyDelta_RejectsNonPositive() {
	cash, err := s.svc.Account.FindByCode(s.ctx, domain.CodeCash)
	s.Require().NoError(err)

	_, err = s.svc.Account.ApplyDelta(s.ctx, cash.AccountID, decimal.Zero, domain.Debit, s.actor)

	s.ErrorIs(err, apperrors.ErrInvalidAmount)
}

func (s *AccountServiceTestSuite) TestApplyDelta_FollowsNormalBalance() {
	fund, err := s.svc.Account.FindByCode(s.ctx, domain.CodeAssociationFund)
	s.Require().NoError(err)

	updated, err := s.svc.Account.ApplyDelta(s.ctx, fund.AccountID, decimal.NewFromInt(40), domain.Credit, s.actor)
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(40).Equal(updated.CurrentBalance))

	updated, err = s.svc.Account.ApplyDelta(s.ctx, fund.AccountID, decimal.NewFromInt(15), domain.Debit, s.actor)
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(25).Equal(updated.CurrentBalance))
}
