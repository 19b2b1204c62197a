package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shauritanga/twa-system/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AccountHandlerTestSuite struct {
	handlerSuite
}

func TestAccountHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AccountHandlerTestSuite))
}

func cashAccount() *domain.Account {
	return &domain.Account{
		AccountID:       "acc-cash",
		Code:            domain.CodeCash,
		Name:            "Cash and Bank",
		AccountType:     domain.Asset,
		NormalBalance:   domain.Debit,
		IsSystemAccount: true,
		IsActive:        true,
		CurrentBalance:  decimal.NewFromInt(1500),
	}
}

func (s *AccountHandlerTestSuite) TestCreateAccount_Success() {
	created := &domain.Account{AccountID: "acc-new", Code: "4400", Name: "Fundraising", AccountType: domain.Revenue, NormalBalance: domain.Credit, IsActive: true}
	s.accounts.On("CreateAccount", mock.Anything, mock.MatchedBy(func(req dto.CreateAccountRequest) bool {
		return req.Code == "4400" && req.AccountType == domain.Revenue
	}), s.userID).Return(created, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/accounts", `{"code":"4400","name":"Fundraising","accountType":"revenue"}`)

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.AccountResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("acc-new", resp.AccountID)
	s.Equal(domain.Credit, resp.NormalBalance)
}

func (s *AccountHandlerTestSuite) TestCreateAccount_OpeningBalanceGoesThroughLedger() {
	opened := &domain.Account{AccountID: "acc-petty", Code: "1300", Name: "Petty Cash", AccountType: domain.Asset, NormalBalance: domain.Debit, IsActive: true, CurrentBalance: decimal.NewFromInt(250)}
	s.ledger.On("OpenAccount", mock.Anything, mock.MatchedBy(func(req dto.CreateAccountRequest) bool {
		return req.Code == "1300" && req.OpeningBalance != nil && req.OpeningBalance.Equal(decimal.NewFromInt(250))
	}), s.userID).Return(opened, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/accounts", `{"code":"1300","name":"Petty Cash","accountType":"asset","openingBalance":"250"}`)

	s.Equal(http.StatusCreated, w.Code)
	s.accounts.AssertNotCalled(s.T(), "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (s *AccountHandlerTestSuite) TestCreateAccount_InvalidBody() {
	w := s.do(http.MethodPost, "/api/v1/accounts", `{"code":"12","name":"x","accountType":"gadget"}`)

	s.Equal(http.StatusBadRequest, w.Code)
	s.accounts.AssertNotCalled(s.T(), "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (s *AccountHandlerTestSuite) TestCreateAccount_DuplicateCode() {
	s.accounts.On("CreateAccount", mock.Anything, mock.Anything, s.userID).
		Return(nil, fmt.Errorf("%w: account code 1000 already exists", apperrors.ErrDuplicate)).Once()

	w := s.do(http.MethodPost, "/api/v1/accounts", `{"code":"1000","name":"Cash","accountType":"asset"}`)

	s.Equal(http.StatusConflict, w.Code)
}

func (s *AccountHandlerTestSuite) TestCreateAccount_Unauthorized() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AccountHandlerTestSuite) TestGetAccount_NotFound() {
	s.accounts.On("FindOrFail", mock.Anything, "missing").Return(nil, apperrors.NewNotFoundError("account missing not found")).Once()

	w := s.do(http.MethodGet, "/api/v1/accounts/missing", "")

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *AccountHandlerTestSuite) TestListAccounts_FilterByType() {
	s.accounts.On("ListActive", mock.Anything, mock.MatchedBy(func(t *domain.AccountType) bool {
		return t != nil && *t == domain.Asset
	})).Return([]domain.Account{*cashAccount()}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/accounts?type=asset", "")

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ListAccountsResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Len(resp.Accounts, 1)
	s.Equal(domain.CodeCash, resp.Accounts[0].Code)
}

func (s *AccountHandlerTestSuite) TestListAccounts_InvalidType() {
	w := s.do(http.MethodGet, "/api/v1/accounts?type=gadget", "")

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AccountHandlerTestSuite) TestGetAccountTree() {
	parent := domain.Account{AccountID: "p", Code: domain.CodeGeneralExpenses, AccountType: domain.Expense}
	child := domain.Account{AccountID: "c", Code: domain.CodeEventExpenses, AccountType: domain.Expense, ParentAccountID: "p"}
	s.accounts.On("Tree", mock.Anything).Return(domain.NewChart([]domain.Account{parent, child}), nil).Once()

	w := s.do(http.MethodGet, "/api/v1/accounts/tree", "")

	s.Equal(http.StatusOK, w.Code)
	var nodes []dto.AccountNode
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &nodes))
	s.Require().Len(nodes, 1)
	s.Require().Len(nodes[0].Children, 1)
	s.Equal(domain.CodeEventExpenses, nodes[0].Children[0].Code)
}

func (s *AccountHandlerTestSuite) TestGetAccountBalance() {
	s.ledger.On("GetAccountBalance", mock.Anything, domain.CodeCash).Return(&dto.AccountBalanceResponse{
		AccountID: "acc-cash", Code: domain.CodeCash, NormalBalance: domain.Debit, Balance: decimal.NewFromInt(1500),
	}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/accounts/code/1000/balance", "")

	s.Equal(http.StatusOK, w.Code)
	var resp dto.AccountBalanceResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(decimal.NewFromInt(1500).Equal(resp.Balance))
}

func (s *AccountHandlerTestSuite) TestSetParent_CycleRejected() {
	s.accounts.On("SetParent", mock.Anything, "p", mock.MatchedBy(func(id *string) bool { return id != nil && *id == "c" }), s.userID).
		Return(nil, apperrors.NewValidationError("account hierarchy would contain a cycle")).Once()

	w := s.do(http.MethodPut, "/api/v1/accounts/p/parent", `{"parentAccountID":"c"}`)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "cycle")
}

func (s *AccountHandlerTestSuite) TestSetParent_ToRoot() {
	acc := cashAccount()
	s.accounts.On("SetParent", mock.Anything, acc.AccountID, (*string)(nil), s.userID).Return(acc, nil).Once()

	w := s.do(http.MethodPut, "/api/v1/accounts/acc-cash/parent", `{"parentAccountID":null}`)

	s.Equal(http.StatusOK, w.Code)
}

func (s *AccountHandlerTestSuite) TestDeleteAccount() {
	s.accounts.On("DeleteAccount", mock.Anything, "acc-old", s.userID).Return(nil).Once()

	w := s.do(http.MethodDelete, "/api/v1/accounts/acc-old", "")

	s.Equal(http.StatusNoContent, w.Code)
}

func (s *AccountHandlerTestSuite) TestDeleteAccount_InUse() {
	s.accounts.On("DeleteAccount", mock.Anything, "acc-cash", s.userID).
		Return(fmt.Errorf("%w: account 1000 is referenced by journal lines", apperrors.ErrAccountInUse)).Once()

	w := s.do(http.MethodDelete, "/api/v1/accounts/acc-cash", "")

	s.Equal(http.StatusConflict, w.Code)
}

func (s *AccountHandlerTestSuite) TestInternalErrorHidesDetail() {
	s.accounts.On("FindOrFail", mock.Anything, "acc-cash").Return(nil, fmt.Errorf("pool exhausted")).Once()

	w := s.do(http.MethodGet, "/api/v1/accounts/acc-cash", "")

	s.Equal(http.StatusInternalServerError, w.Code)
	s.NotContains(w.Body.String(), "pool exhausted")
}
