package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shauritanga/twa-system/internal/core/domain"
	portssvc "github.com/shauritanga/twa-system/internal/core/ports/services"
	"github.com/shauritanga/twa-system/internal/dto"
	"github.com/shauritanga/twa-system/internal/handlers"
	"github.com/shauritanga/twa-system/internal/platform/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) FindOrFail(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) FindByCode(ctx context.Context, code string) (*domain.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) ListActive(ctx context.Context, accountType *domain.AccountType) ([]domain.Account, error) {
	args := m.Called(ctx, accountType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}
func (m *MockAccountService) Tree(ctx context.Context) (*domain.Chart, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chart), args.Error(1)
}
func (m *MockAccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) SetParent(ctx context.Context, accountID string, parentID *string, userID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID, parentID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) DeleteAccount(ctx context.Context, accountID string, userID string) error {
	args := m.Called(ctx, accountID, userID)
	return args.Error(0)
}
func (m *MockAccountService) ApplyDelta(ctx context.Context, accountID string, amount decimal.Decimal, direction domain.Direction, userID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID, amount, direction, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

// --- Mock JournalService ---
type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockJournalService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEntriesResponse), args.Error(1)
}
func (m *MockJournalService) CreateDraft(ctx context.Context, req dto.CreateJournalEntryRequest, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockJournalService) AddLine(ctx context.Context, entryID string, req dto.JournalLineRequest, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockJournalService) Post(ctx context.Context, entryID string, postedBy string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, postedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockJournalService) Reverse(ctx context.Context, entryID string, reversedBy string, reason string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, reversedBy, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockJournalService) CreateAndPost(ctx context.Context, header domain.JournalEntry, lines []domain.JournalEntryLine, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, header, lines, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockJournalService) NextEntryNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

var _ portssvc.JournalSvcFacade = (*MockJournalService)(nil)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) PostFor(ctx context.Context, kind domain.TransactionKind, payload domain.PostingPayload) (domain.PostingResult, error) {
	args := m.Called(ctx, kind, payload)
	return args.Get(0).(domain.PostingResult), args.Error(1)
}
func (m *MockLedgerService) OpenAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockLedgerService) GetTrialBalance(ctx context.Context) (domain.TrialBalance, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.TrialBalance), args.Error(1)
}
func (m *MockLedgerService) GetAccountBalance(ctx context.Context, code string) (*dto.AccountBalanceResponse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AccountBalanceResponse), args.Error(1)
}
func (m *MockLedgerService) GetJournalEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockLedgerService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEntriesResponse), args.Error(1)
}
func (m *MockLedgerService) VerifyBalances(ctx context.Context) (domain.BalanceVerification, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.BalanceVerification), args.Error(1)
}

var _ portssvc.LedgerSvc = (*MockLedgerService)(nil)

// --- Mock LifecycleService ---
type MockLifecycleService struct {
	mock.Mock
}

func lifecycleResult[T any](args mock.Arguments) (*T, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockLifecycleService) CreatePayment(ctx context.Context, req dto.CreatePaymentRequest, actorID string) (*domain.Payment, error) {
	return lifecycleResult[domain.Payment](m.Called(ctx, req, actorID))
}
func (m *MockLifecycleService) PostPayment(ctx context.Context, paymentID int64, actorID string) (*domain.Payment, error) {
	return lifecycleResult[domain.Payment](m.Called(ctx, paymentID, actorID))
}
func (m *MockLifecycleService) CreateLoan(ctx context.Context, req dto.CreateLoanRequest, actorID string) (*domain.Loan, error) {
	return lifecycleResult[domain.Loan](m.Called(ctx, req, actorID))
}
func (m *MockLifecycleService) DisburseLoan(ctx context.Context, loanID int64, at time.Time, actorID string) (*domain.Loan, error) {
	return lifecycleResult[domain.Loan](m.Called(ctx, loanID, at, actorID))
}
func (m *MockLifecycleService) RepayLoan(ctx context.Context, loanID int64, at time.Time, actorID string) (*domain.Loan, error) {
	return lifecycleResult[domain.Loan](m.Called(ctx, loanID, at, actorID))
}
func (m *MockLifecycleService) DefaultLoan(ctx context.Context, loanID int64, actorID string) (*domain.Loan, error) {
	return lifecycleResult[domain.Loan](m.Called(ctx, loanID, actorID))
}
func (m *MockLifecycleService) CreateExpense(ctx context.Context, req dto.CreateExpenseRequest, actorID string) (*domain.ExpenseRecord, error) {
	return lifecycleResult[domain.ExpenseRecord](m.Called(ctx, req, actorID))
}
func (m *MockLifecycleService) ApproveExpense(ctx context.Context, expenseID int64, actorID string) (*domain.ExpenseRecord, error) {
	return lifecycleResult[domain.ExpenseRecord](m.Called(ctx, expenseID, actorID))
}
func (m *MockLifecycleService) RejectExpense(ctx context.Context, expenseID int64, actorID string) (*domain.ExpenseRecord, error) {
	return lifecycleResult[domain.ExpenseRecord](m.Called(ctx, expenseID, actorID))
}
func (m *MockLifecycleService) CreatePenalty(ctx context.Context, req dto.CreatePenaltyRequest, actorID string) (*domain.Penalty, error) {
	return lifecycleResult[domain.Penalty](m.Called(ctx, req, actorID))
}
func (m *MockLifecycleService) PayPenalty(ctx context.Context, penaltyID int64, at time.Time, actorID string) (*domain.Penalty, error) {
	return lifecycleResult[domain.Penalty](m.Called(ctx, penaltyID, at, actorID))
}
func (m *MockLifecycleService) WaivePenalty(ctx context.Context, penaltyID int64, actorID string) (*domain.Penalty, error) {
	return lifecycleResult[domain.Penalty](m.Called(ctx, penaltyID, actorID))
}
func (m *MockLifecycleService) CreateDisasterPayment(ctx context.Context, req dto.CreateDisasterPaymentRequest, actorID string) (*domain.DisasterPayment, error) {
	return lifecycleResult[domain.DisasterPayment](m.Called(ctx, req, actorID))
}
func (m *MockLifecycleService) IssueDisasterPayment(ctx context.Context, disasterPaymentID int64, at time.Time, actorID string) (*domain.DisasterPayment, error) {
	return lifecycleResult[domain.DisasterPayment](m.Called(ctx, disasterPaymentID, at, actorID))
}
func (m *MockLifecycleService) RecognizeDebt(ctx context.Context, req dto.CreateDebtRequest, actorID string) (*domain.Debt, error) {
	return lifecycleResult[domain.Debt](m.Called(ctx, req, actorID))
}
func (m *MockLifecycleService) SettleDebt(ctx context.Context, debtID int64, at time.Time, actorID string) (*domain.Debt, error) {
	return lifecycleResult[domain.Debt](m.Called(ctx, debtID, at, actorID))
}

var _ portssvc.LifecycleSvc = (*MockLifecycleService)(nil)

// handlerSuite wires the real routes and auth middleware over mocked services.
type handlerSuite struct {
	suite.Suite
	router    *gin.Engine
	cfg       *config.Config
	accounts  *MockAccountService
	journal   *MockJournalService
	ledger    *MockLedgerService
	lifecycle *MockLifecycleService
	userID    string
}

func (s *handlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.cfg = &config.Config{
		JWTSecret:    "test-secret-key-that-is-long-enough",
		JWTIssuer:    "twa-test",
		IsProduction: true,
	}
	s.userID = "treasurer-1"
	s.accounts = new(MockAccountService)
	s.journal = new(MockJournalService)
	s.ledger = new(MockLedgerService)
	s.lifecycle = new(MockLifecycleService)
	s.buildRouter()
}

// buildRouter rebuilds the router from the current cfg.
func (s *handlerSuite) buildRouter() {
	s.router = gin.New()
	handlers.RegisterRoutes(s.router, s.cfg, &portssvc.ServiceContainer{
		Account:   s.accounts,
		Journal:   s.journal,
		Ledger:    s.ledger,
		Lifecycle: s.lifecycle,
	}, nil)
}

func (s *handlerSuite) TearDownTest() {
	s.accounts.AssertExpectations(s.T())
	s.journal.AssertExpectations(s.T())
	s.ledger.AssertExpectations(s.T())
	s.lifecycle.AssertExpectations(s.T())
}

// generateTestToken creates a signed JWT for userID.
func (s *handlerSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.JWTIssuer,
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		s.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

// do sends an authenticated request and returns the recorder.
func (s *handlerSuite) do(method, url, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+s.generateTestToken(s.userID))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}
