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

type LifecycleHandlerTestSuite struct {
	handlerSuite
}

func TestLifecycleHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(LifecycleHandlerTestSuite))
}

func (s *LifecycleHandlerTestSuite) TestCreatePayment() {
	entryID := "je-pay"
	payment := &domain.Payment{ID: 7, MemberID: "m-1", Amount: decimal.NewFromInt(500), PaymentType: "contribution", Status: domain.StatusReceived, JournalEntryID: &entryID}
	s.lifecycle.On("CreatePayment", mock.Anything, mock.MatchedBy(func(req dto.CreatePaymentRequest) bool {
		return req.MemberID == "m-1" && req.Amount.Equal(decimal.NewFromInt(500))
	}), s.userID).Return(payment, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/payments",
		`{"memberID":"m-1","amount":"500","paymentType":"contribution","paymentDate":"2025-02-01T00:00:00Z"}`)

	s.Equal(http.StatusCreated, w.Code)
	var resp domain.Payment
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().NotNil(resp.JournalEntryID)
	s.Equal(entryID, *resp.JournalEntryID)
}

func (s *LifecycleHandlerTestSuite) TestCreatePayment_UnknownType() {
	w := s.do(http.MethodPost, "/api/v1/payments",
		`{"memberID":"m-1","amount":"500","paymentType":"donation","paymentDate":"2025-02-01T00:00:00Z"}`)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *LifecycleHandlerTestSuite) TestDisburseLoan_UsesBodyDate() {
	at := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	loan := &domain.Loan{ID: 3, Status: domain.StatusDisbursed}
	s.lifecycle.On("DisburseLoan", mock.Anything, int64(3), mock.MatchedBy(func(t time.Time) bool { return t.Equal(at) }), s.userID).
		Return(loan, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/loans/3/disburse", `{"date":"2025-04-01T00:00:00Z"}`)

	s.Equal(http.StatusOK, w.Code)
}

func (s *LifecycleHandlerTestSuite) TestRepayLoan_EmptyBodyMeansNow() {
	loan := &domain.Loan{ID: 3, Status: domain.StatusRepaid}
	s.lifecycle.On("RepayLoan", mock.Anything, int64(3), mock.MatchedBy(func(t time.Time) bool { return t.IsZero() }), s.userID).
		Return(loan, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/loans/3/repay", "")

	s.Equal(http.StatusOK, w.Code)
}

func (s *LifecycleHandlerTestSuite) TestRepayLoan_InvalidState() {
	s.lifecycle.On("RepayLoan", mock.Anything, int64(4), mock.Anything, s.userID).
		Return(nil, fmt.Errorf("%w: loan cannot move from pending to repaid", apperrors.ErrInvalidState)).Once()

	w := s.do(http.MethodPost, "/api/v1/loans/4/repay", "")

	s.Equal(http.StatusConflict, w.Code)
}

func (s *LifecycleHandlerTestSuite) TestInvalidRecordID() {
	w := s.do(http.MethodPost, "/api/v1/loans/abc/default", "")

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *LifecycleHandlerTestSuite) TestExpenseTransitions() {
	s.lifecycle.On("ApproveExpense", mock.Anything, int64(9), s.userID).Return(&domain.ExpenseRecord{ID: 9, Status: domain.StatusApproved}, nil).Once()
	s.lifecycle.On("RejectExpense", mock.Anything, int64(10), s.userID).Return(&domain.ExpenseRecord{ID: 10, Status: domain.StatusRejected}, nil).Once()

	s.Equal(http.StatusOK, s.do(http.MethodPost, "/api/v1/expenses/9/approve", "").Code)
	s.Equal(http.StatusOK, s.do(http.MethodPost, "/api/v1/expenses/10/reject", "").Code)
}

func (s *LifecycleHandlerTestSuite) TestPenaltyTransitions() {
	s.lifecycle.On("PayPenalty", mock.Anything, int64(2), mock.Anything, s.userID).Return(&domain.Penalty{ID: 2, Status: domain.StatusPaid}, nil).Once()
	s.lifecycle.On("WaivePenalty", mock.Anything, int64(5), s.userID).
		Return(nil, fmt.Errorf("%w: penalty cannot move from paid to waived", apperrors.ErrInvalidState)).Once()

	s.Equal(http.StatusOK, s.do(http.MethodPost, "/api/v1/penalties/2/pay", "").Code)
	s.Equal(http.StatusConflict, s.do(http.MethodPost, "/api/v1/penalties/5/waive", "").Code)
}

func (s *LifecycleHandlerTestSuite) TestDebtLifecycle() {
	s.lifecycle.On("RecognizeDebt", mock.Anything, mock.Anything, s.userID).Return(&domain.Debt{ID: 1, Status: domain.StatusOutstanding}, nil).Once()
	s.lifecycle.On("SettleDebt", mock.Anything, int64(1), mock.Anything, s.userID).Return(&domain.Debt{ID: 1, Status: domain.StatusPaid}, nil).Once()

	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/api/v1/debts", `{"memberID":"m-1","amount":"40","nature":"penalty"}`).Code)
	s.Equal(http.StatusOK, s.do(http.MethodPost, "/api/v1/debts/1/settle", `{}`).Code)
}

func (s *LifecycleHandlerTestSuite) TestIssueDisasterPayment_MissingAccount() {
	s.lifecycle.On("IssueDisasterPayment", mock.Anything, int64(6), mock.Anything, s.userID).
		Return(nil, fmt.Errorf("%w: code 5000", apperrors.ErrMissingAccount)).Once()

	w := s.do(http.MethodPost, "/api/v1/disaster-payments/6/issue", "")

	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *LifecycleHandlerTestSuite) TestPostFor_FirstAndRepeat() {
	match := mock.MatchedBy(func(p domain.PostingPayload) bool {
		return p.RecordID == 11 && p.ActorID == s.userID && p.Stage == domain.StageCreated
	})
	s.ledger.On("PostFor", mock.Anything, domain.KindPayment, match).Return(domain.PostingResult{EntryID: "je-11"}, nil).Once()
	s.ledger.On("PostFor", mock.Anything, domain.KindPayment, match).Return(domain.PostingResult{EntryID: "je-11", AlreadyPosted: true}, nil).Once()

	body := `{"kind":"payment","stage":"created","recordID":11,"amount":"250","date":"2025-02-01T00:00:00Z","paymentType":"contribution"}`
	first := s.do(http.MethodPost, "/api/v1/ledger/postings", body)
	second := s.do(http.MethodPost, "/api/v1/ledger/postings", body)

	s.Equal(http.StatusCreated, first.Code)
	s.Equal(http.StatusOK, second.Code)
	var resp dto.PostingResponse
	s.Require().NoError(json.Unmarshal(second.Body.Bytes(), &resp))
	s.True(resp.AlreadyPosted)
	s.Equal("je-11", resp.EntryID)
}

func (s *LifecycleHandlerTestSuite) TestTrialBalance() {
	tb := domain.TrialBalance{TotalDebit: decimal.NewFromInt(100), TotalCredit: decimal.NewFromInt(100), Difference: decimal.Zero, Balanced: true}
	s.ledger.On("GetTrialBalance", mock.Anything).Return(tb, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/reports/trial-balance", "")

	s.Equal(http.StatusOK, w.Code)
	var resp dto.TrialBalanceResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Balanced)
	s.True(resp.Totals.Debit.Equal(decimal.NewFromInt(100)))
}

func (s *LifecycleHandlerTestSuite) TestVerifyBalances_ReportsDrift() {
	v := domain.BalanceVerification{AccountsChecked: 3, Drifts: []domain.BalanceDrift{{AccountID: "acc-cash"}}}
	s.ledger.On("VerifyBalances", mock.Anything).Return(v, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/reports/balance-verification", "")

	s.Equal(http.StatusOK, w.Code)
	var resp dto.BalanceVerificationResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.False(resp.OK)
	s.Len(resp.Drifts, 1)
}
