package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shauritanga/twa-system/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type JournalHandlerTestSuite struct {
	handlerSuite
}

func TestJournalHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(JournalHandlerTestSuite))
}

func draftEntry() *domain.JournalEntry {
	return &domain.JournalEntry{
		EntryID:     "je-1",
		EntryNumber: "JE-000001",
		EntryDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:      domain.Draft,
		TotalDebit:  decimal.NewFromInt(500),
		TotalCredit: decimal.NewFromInt(500),
		Lines: []domain.JournalEntryLine{
			domain.NewLine("acc-cash", domain.Debit, decimal.NewFromInt(500), ""),
			domain.NewLine("acc-fund", domain.Credit, decimal.NewFromInt(500), ""),
		},
	}
}

func (s *JournalHandlerTestSuite) TestCreateDraft_Success() {
	s.journal.On("CreateDraft", mock.Anything, mock.MatchedBy(func(req dto.CreateJournalEntryRequest) bool {
		return len(req.Lines) == 2 && req.Reference == "OPENING"
	}), s.userID).Return(draftEntry(), nil).Once()

	body := `{"entryDate":"2025-03-01T00:00:00Z","reference":"OPENING","lines":[
		{"accountID":"acc-cash","debit":"500"},
		{"accountID":"acc-fund","credit":"500"}]}`
	w := s.do(http.MethodPost, "/api/v1/journal-entries", body)

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.JournalEntryResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("JE-000001", resp.EntryNumber)
	s.Len(resp.Lines, 2)
}

func (s *JournalHandlerTestSuite) TestCreateDraft_MissingDate() {
	w := s.do(http.MethodPost, "/api/v1/journal-entries", `{"reference":"x"}`)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *JournalHandlerTestSuite) TestAddLine_InvalidAmount() {
	s.journal.On("AddLine", mock.Anything, "je-1", mock.Anything, s.userID).
		Return(nil, fmt.Errorf("%w: line must have exactly one of debit or credit set", apperrors.ErrInvalidAmount)).Once()

	w := s.do(http.MethodPost, "/api/v1/journal-entries/je-1/lines", `{"accountID":"acc-cash","debit":"10","credit":"10"}`)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *JournalHandlerTestSuite) TestPost_Success() {
	posted := draftEntry()
	posted.Status = domain.Posted
	posted.PostedBy = s.userID
	s.journal.On("Post", mock.Anything, "je-1", s.userID).Return(posted, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/journal-entries/je-1/post", "")

	s.Equal(http.StatusOK, w.Code)
	var resp dto.JournalEntryResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(domain.Posted, resp.Status)
}

func (s *JournalHandlerTestSuite) TestPost_ErrorStatuses() {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unbalanced", fmt.Errorf("%w: debit 100.00, credit 90.00", apperrors.ErrNotBalanced), http.StatusBadRequest},
		{"single line", fmt.Errorf("%w: entry has 1 line(s)", apperrors.ErrInsufficientLines), http.StatusBadRequest},
		{"already posted", fmt.Errorf("%w: entry is posted", apperrors.ErrInvalidState), http.StatusConflict},
		{"missing account", fmt.Errorf("%w: account acc-x", apperrors.ErrMissingAccount), http.StatusUnprocessableEntity},
		{"lock timeout", fmt.Errorf("%w: balance rows locked", apperrors.ErrConcurrencyConflict), http.StatusConflict},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.journal.On("Post", mock.Anything, "je-err", s.userID).Return(nil, tc.err).Once()

			w := s.do(http.MethodPost, "/api/v1/journal-entries/je-err/post", "")

			s.Equal(tc.status, w.Code)
		})
	}
}

func (s *JournalHandlerTestSuite) TestReverse_RequiresReason() {
	w := s.do(http.MethodPost, "/api/v1/journal-entries/je-1/reverse", `{}`)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *JournalHandlerTestSuite) TestReverse_ReturnsReversingEntry() {
	origID := "je-1"
	reversal := draftEntry()
	reversal.EntryID = "je-2"
	reversal.Status = domain.Posted
	reversal.ReversalOfEntryID = &origID
	s.journal.On("Reverse", mock.Anything, origID, s.userID, "duplicate receipt").Return(reversal, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/journal-entries/je-1/reverse", `{"reason":"duplicate receipt"}`)

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.JournalEntryResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("je-2", resp.EntryID)
	s.Require().NotNil(resp.ReversalOfEntryID)
	s.Equal(origID, *resp.ReversalOfEntryID)
}

func (s *JournalHandlerTestSuite) TestListEntries_PassesFilters() {
	next := "token-2"
	s.journal.On("ListEntries", mock.Anything, mock.MatchedBy(func(p dto.ListEntriesParams) bool {
		return p.Status == "posted" && p.Limit == 5 && p.Reference == "LOAN" && p.From != nil
	})).Return(&dto.ListEntriesResponse{Entries: []dto.JournalEntryResponse{}, NextToken: &next}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/journal-entries?status=posted&limit=5&reference=LOAN&from=2025-01-01", "")

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ListEntriesResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().NotNil(resp.NextToken)
	s.Equal(next, *resp.NextToken)
}

func (s *JournalHandlerTestSuite) TestListEntries_DefaultLimit() {
	s.journal.On("ListEntries", mock.Anything, mock.MatchedBy(func(p dto.ListEntriesParams) bool {
		return p.Limit == 20
	})).Return(&dto.ListEntriesResponse{Entries: []dto.JournalEntryResponse{}}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/journal-entries", "")

	s.Equal(http.StatusOK, w.Code)
}

func (s *JournalHandlerTestSuite) TestListEntries_InvalidStatus() {
	w := s.do(http.MethodGet, "/api/v1/journal-entries?status=archived", "")

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *JournalHandlerTestSuite) TestGetEntry_NotFound() {
	s.journal.On("GetEntry", mock.Anything, "nope").Return(nil, apperrors.NewNotFoundError("journal entry nope not found")).Once()

	w := s.do(http.MethodGet, "/api/v1/journal-entries/nope", "")

	s.Equal(http.StatusNotFound, w.Code)
}
