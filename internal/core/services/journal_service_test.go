package services_test

import (
	"testing"

	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shauritanga/twa-system/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type JournalServiceTestSuite struct {
	ledgerSuite
	cashID string
	fundID string
}

func TestJournalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}

func (s *JournalServiceTestSuite) SetupTest() {
	s.ledgerSuite.SetupTest()
	cash, err := s.store.FindAccountByCode(s.ctx, domain.CodeCash)
	s.Require().NoError(err)
	fund, err := s.store.FindAccountByCode(s.ctx, domain.CodeAssociationFund)
	s.Require().NoError(err)
	s.cashID, s.fundID = cash.AccountID, fund.AccountID
}

func (s *JournalServiceTestSuite) draft(debit, credit int64) *domain.JournalEntry {
	entry, err := s.svc.Journal.CreateDraft(s.ctx, dto.CreateJournalEntryRequest{
		EntryDate: s.now,
		Reference: " OPENING ",
		Lines: []dto.JournalLineRequest{
			{AccountID: s.cashID, Debit: decimal.NewFromInt(debit)},
			{AccountID: s.fundID, Credit: decimal.NewFromInt(credit)},
		},
	}, s.actor)
	s.Require().NoError(err)
	return entry
}

func (s *JournalServiceTestSuite) TestCreateDraft() {
	entry := s.draft(1000, 1000)

	s.Equal(domain.Draft, entry.Status)
	s.Equal("JE-000001", entry.EntryNumber)
	s.Equal("OPENING", entry.Reference)
	s.Require().Len(entry.Lines, 2)
	s.Equal(1, entry.Lines[0].LineOrder)
	s.Equal(2, entry.Lines[1].LineOrder)
	s.True(decimal.NewFromInt(1000).Equal(entry.TotalDebit))
	s.assertBalance(domain.CodeCash, 0)
}

func (s *JournalServiceTestSuite) TestCreateDraft_RejectsBadLines() {
	cases := []struct {
		name string
		line dto.JournalLineRequest
		want error
	}{
		{"both sides", dto.JournalLineRequest{AccountID: s.cashID, Debit: decimal.NewFromInt(1), Credit: decimal.NewFromInt(1)}, apperrors.ErrInvalidAmount},
		{"no side", dto.JournalLineRequest{AccountID: s.cashID}, apperrors.ErrInvalidAmount},
		{"negative", dto.JournalLineRequest{AccountID: s.cashID, Debit: decimal.NewFromInt(-5)}, apperrors.ErrInvalidAmount},
		{"unknown account", dto.JournalLineRequest{AccountID: "nope", Debit: decimal.NewFromInt(5)}, apperrors.ErrValidation},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.svc.Journal.CreateDraft(s.ctx, dto.CreateJournalEntryRequest{
				EntryDate: s.now,
				Lines:     []dto.JournalLineRequest{tc.line},
			}, s.actor)
			s.ErrorIs(err, tc.want)
		})
	}
	s.Equal(0, s.entryCount())
}

func (s *JournalServiceTestSuite) TestPost_AppliesBalances() {
	entry := s.draft(1000, 1000)

	posted, err := s.svc.Journal.Post(s.ctx, entry.EntryID, s.actor)
	s.Require().NoError(err)

	s.Equal(domain.Posted, posted.Status)
	s.Equal(s.actor, posted.PostedBy)
	s.Require().NotNil(posted.PostedAt)
	s.assertBalance(domain.CodeCash, 1000)
	s.assertBalance(domain.CodeAssociationFund, 1000)
	s.assertBooksBalanced()
}

func (s *JournalServiceTestSuite) TestPost_Unbalanced() {
	entry := s.draft(100, 90)

	_, err := s.svc.Journal.Post(s.ctx, entry.EntryID, s.actor)

	s.ErrorIs(err, apperrors.ErrNotBalanced)
	s.Equal(domain.Draft, s.entry(entry.EntryID).Status)
	s.assertBalance(domain.CodeCash, 0)
	s.assertBalance(domain.CodeAssociationFund, 0)
}

func (s *JournalServiceTestSuite) TestPost_WithinTolerance() {
	entry, err := s.svc.Journal.CreateDraft(s.ctx, dto.CreateJournalEntryRequest{
		EntryDate: s.now,
		Lines: []dto.JournalLineRequest{
			{AccountID: s.cashID, Debit: decimal.RequireFromString("100.01")},
			{AccountID: s.fundID, Credit: decimal.RequireFromString("100.00")},
		},
	}, s.actor)
	s.Require().NoError(err)

	_, err = s.svc.Journal.Post(s.ctx, entry.EntryID, s.actor)

	s.NoError(err)
}

func (s *JournalServiceTestSuite) TestPost_SingleLine() {
	entry, err := s.svc.Journal.CreateDraft(s.ctx, dto.CreateJournalEntryRequest{
		EntryDate: s.now,
		Lines:     []dto.JournalLineRequest{{AccountID: s.cashID, Debit: decimal.NewFromInt(10)}},
	}, s.actor)
	s.Require().NoError(err)

	_, err = s.svc.Journal.Post(s.ctx, entry.EntryID, s.actor)

	s.ErrorIs(err, apperrors.ErrInsufficientLines)
}

func (s *JournalServiceTestSuite) TestPost_Twice() {
	entry := s.draft(500, 500)
	_, err := s.svc.Journal.Post(s.ctx, entry.EntryID, s.actor)
	s.Require().NoError(err)

	_, err = s.svc.Journal.Post(s.ctx, entry.EntryID, s.actor)

	s.ErrorIs(err, apperrors.ErrInvalidState)
	s.assertBalance(domain.CodeCash, 500)
}

func (s *JournalServiceTestSuite) TestAddLine_CompletesDraft() {
	entry, err := s.svc.Journal.CreateDraft(s.ctx, dto.CreateJournalEntryRequest{
		EntryDate: s.now,
		Lines:     []dto.JournalLineRequest{{AccountID: s.cashID, Debit: decimal.NewFromInt(75)}},
	}, s.actor)
	s.Require().NoError(err)

	entry, err = s.svc.Journal.AddLine(s.ctx, entry.EntryID, dto.JournalLineRequest{AccountID: s.fundID, Credit: decimal.NewFromInt(75)}, s.actor)
	s.Require().NoError(err)
	s.Len(entry.Lines, 2)
	s.Equal(2, entry.Lines[1].LineOrder)
	s.True(decimal.NewFromInt(75).Equal(entry.TotalCredit))

	_, err = s.svc.Journal.Post(s.ctx, entry.EntryID, s.actor)
	s.Require().NoError(err)

	_, err = s.svc.Journal.AddLine(s.ctx, entry.EntryID, dto.JournalLineRequest{AccountID: s.fundID, Credit: decimal.NewFromInt(1)}, s.actor)
	s.ErrorIs(err, apperrors.ErrInvalidState)
}

func (s *JournalServiceTestSuite) TestReverse() {
	entry := s.draft(1000, 1000)
	_, err := s.svc.Journal.Post(s.ctx, entry.EntryID, s.actor)
	s.Require().NoError(err)

	reversal, err := s.svc.Journal.Reverse(s.ctx, entry.EntryID, s.actor, "entered twice")
	s.Require().NoError(err)

	s.Equal(domain.Posted, reversal.Status)
	s.Require().NotNil(reversal.ReversalOfEntryID)
	s.Equal(entry.EntryID, *reversal.ReversalOfEntryID)
	s.Equal("REV-"+entry.EntryNumber, reversal.Reference)
	s.assertBalance(domain.CodeCash, 0)
	s.assertBalance(domain.CodeAssociationFund, 0)

	original := s.entry(entry.EntryID)
	s.Equal(domain.Reversed, original.Status)
	s.Equal("entered twice", original.ReversalReason)
	s.Require().NotNil(original.ReversalEntryID)
	s.Equal(reversal.EntryID, *original.ReversalEntryID)
	s.assertBooksBalanced()

	_, err = s.svc.Journal.Reverse(s.ctx, entry.EntryID, s.actor, "again")
	s.ErrorIs(err, apperrors.ErrInvalidState)
}

func (s *JournalServiceTestSuite) TestReverse_RequiresReasonAndPostedEntry() {
	entry := s.draft(10, 10)

	_, err := s.svc.Journal.Reverse(s.ctx, entry.EntryID, s.actor, "  ")
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Journal.Reverse(s.ctx, entry.EntryID, s.actor, "draft")
	s.ErrorIs(err, apperrors.ErrInvalidState)
	s.Equal(1, s.entryCount())
}

func (s *JournalServiceTestSuite) TestListEntries_FiltersByStatus() {
	posted := s.draft(20, 20)
	_, err := s.svc.Journal.Post(s.ctx, posted.EntryID, s.actor)
	s.Require().NoError(err)
	s.draft(30, 30)

	resp, err := s.svc.Journal.ListEntries(s.ctx, dto.ListEntriesParams{Status: "posted"})
	s.Require().NoError(err)

	s.Require().Len(resp.Entries, 1)
	s.Equal(posted.EntryID, resp.Entries[0].EntryID)
	s.Nil(resp.NextToken)
}

func (s *JournalServiceTestSuite) TestGetEntry_NotFound() {
	_, err := s.svc.Journal.GetEntry(s.ctx, "missing")

	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *JournalServiceTestSuite) TestEntryNumbersAreSequential() {
	first := s.draft(1, 1)
	second := s.draft(1, 1)

	s.Equal("JE-000001", first.EntryNumber)
	s.Equal("JE-000002", second.EntryNumber)
}
