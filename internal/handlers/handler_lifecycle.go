package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shauritanga/twa-system/internal/core/domain"
	portssvc "github.com/shauritanga/twa-system/internal/core/ports/services"
	"github.com/shauritanga/twa-system/internal/dto"
	"github.com/shauritanga/twa-system/internal/middleware"
)

// lifecycleHandler handles the association's domain records. Every
// transition that reaches a posting stage posts its journal entry in the
// same transaction.
type lifecycleHandler struct {
	lifecycleService portssvc.LifecycleSvc
}

func newLifecycleHandler(ls portssvc.LifecycleSvc) *lifecycleHandler {
	return &lifecycleHandler{lifecycleService: ls}
}

func registerLifecycleRoutes(rg *gin.RouterGroup, lifecycleService portssvc.LifecycleSvc) {
	h := newLifecycleHandler(lifecycleService)

	payments := rg.Group("/payments")
	{
		payments.POST("", h.createPayment)
		payments.POST("/:id/post", h.postPayment)
	}

	loans := rg.Group("/loans")
	{
		loans.POST("", h.createLoan)
		loans.POST("/:id/disburse", h.disburseLoan)
		loans.POST("/:id/repay", h.repayLoan)
		loans.POST("/:id/default", h.defaultLoan)
	}

	expenses := rg.Group("/expenses")
	{
		expenses.POST("", h.createExpense)
		expenses.POST("/:id/approve", h.approveExpense)
		expenses.POST("/:id/reject", h.rejectExpense)
	}

	penalties := rg.Group("/penalties")
	{
		penalties.POST("", h.createPenalty)
		penalties.POST("/:id/pay", h.payPenalty)
		penalties.POST("/:id/waive", h.waivePenalty)
	}

	disasterPayments := rg.Group("/disaster-payments")
	{
		disasterPayments.POST("", h.createDisasterPayment)
		disasterPayments.POST("/:id/issue", h.issueDisasterPayment)
	}

	debts := rg.Group("/debts")
	{
		debts.POST("", h.recognizeDebt)
		debts.POST("/:id/settle", h.settleDebt)
	}
}

type createFunc[Req, Rec any] func(ctx context.Context, req Req, actorID string) (*Rec, error)
type datedTransitionFunc[Rec any] func(ctx context.Context, id int64, at time.Time, actorID string) (*Rec, error)
type transitionFunc[Rec any] func(ctx context.Context, id int64, actorID string) (*Rec, error)

func handleCreate[Req, Rec any](c *gin.Context, action string, create createFunc[Req, Rec]) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req Req
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON to "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	rec, err := create(c.Request.Context(), req, actorID)
	if err != nil {
		respondError(c, logger, err, action)
		return
	}
	logger.Info("Handled request to " + action)
	c.JSON(http.StatusCreated, rec)
}

func handleDatedTransition[Rec any](c *gin.Context, action string, transition datedTransitionFunc[Rec]) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	id, ok := recordIDParam(c, logger)
	if !ok {
		return
	}
	at, ok := bindTransition(c, logger)
	if !ok {
		return
	}
	actorID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.Int64("record_id", id))
	rec, err := transition(c.Request.Context(), id, at, actorID)
	if err != nil {
		respondError(c, logger, err, action)
		return
	}
	logger.Info("Handled request to " + action)
	c.JSON(http.StatusOK, rec)
}

func handleTransition[Rec any](c *gin.Context, action string, transition transitionFunc[Rec]) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	id, ok := recordIDParam(c, logger)
	if !ok {
		return
	}
	actorID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.Int64("record_id", id))
	rec, err := transition(c.Request.Context(), id, actorID)
	if err != nil {
		respondError(c, logger, err, action)
		return
	}
	logger.Info("Handled request to " + action)
	c.JSON(http.StatusOK, rec)
}

// createPayment godoc
// @Summary Record a member payment
// @Description Creates the payment and posts Dr Cash / Cr the revenue account for its type
// @Tags payments
// @Accept json
// @Produce json
// @Param payment body dto.CreatePaymentRequest true "Payment"
// @Success 201 {object} domain.Payment
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 422 {object} map[string]string "Posting account missing"
// @Failure 500 {object} map[string]string "Failed to create payment"
// @Security BearerAuth
// @Router /payments [post]
func (h *lifecycleHandler) createPayment(c *gin.Context) {
	handleCreate[dto.CreatePaymentRequest, domain.Payment](c, "create payment", h.lifecycleService.CreatePayment)
}

// postPayment godoc
// @Summary Post a payment that has no journal entry yet
// @Tags payments
// @Produce json
// @Param id path int true "Payment ID"
// @Success 200 {object} domain.Payment
// @Failure 400 {object} map[string]string "Invalid payment ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Payment not found"
// @Failure 500 {object} map[string]string "Failed to post payment"
// @Security BearerAuth
// @Router /payments/{id}/post [post]
func (h *lifecycleHandler) postPayment(c *gin.Context) {
	handleTransition[domain.Payment](c, "post payment", h.lifecycleService.PostPayment)
}

// createLoan godoc
// @Summary Record a loan application
// @Tags loans
// @Accept json
// @Produce json
// @Param loan body dto.CreateLoanRequest true "Loan"
// @Success 201 {object} domain.Loan
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create loan"
// @Security BearerAuth
// @Router /loans [post]
func (h *lifecycleHandler) createLoan(c *gin.Context) {
	handleCreate[dto.CreateLoanRequest, domain.Loan](c, "create loan", h.lifecycleService.CreateLoan)
}

// disburseLoan godoc
// @Summary Disburse a pending loan
// @Description Moves the loan to disbursed and posts Dr Loans Receivable / Cr Cash
// @Tags loans
// @Accept json
// @Produce json
// @Param id path int true "Loan ID"
// @Param transition body dto.TransitionRequest false "Effective date"
// @Success 200 {object} domain.Loan
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Loan not found"
// @Failure 409 {object} map[string]string "Loan is not pending"
// @Failure 500 {object} map[string]string "Failed to disburse loan"
// @Security BearerAuth
// @Router /loans/{id}/disburse [post]
func (h *lifecycleHandler) disburseLoan(c *gin.Context) {
	handleDatedTransition[domain.Loan](c, "disburse loan", h.lifecycleService.DisburseLoan)
}

// repayLoan godoc
// @Summary Record full repayment of a disbursed loan
// @Description Posts Dr Cash for principal plus interest, Cr Loans Receivable and Cr Interest Income
// @Tags loans
// @Accept json
// @Produce json
// @Param id path int true "Loan ID"
// @Param transition body dto.TransitionRequest false "Effective date"
// @Success 200 {object} domain.Loan
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Loan not found"
// @Failure 409 {object} map[string]string "Loan is not disbursed"
// @Failure 500 {object} map[string]string "Failed to repay loan"
// @Security BearerAuth
// @Router /loans/{id}/repay [post]
func (h *lifecycleHandler) repayLoan(c *gin.Context) {
	handleDatedTransition[domain.Loan](c, "repay loan", h.lifecycleService.RepayLoan)
}

// defaultLoan godoc
// @Summary Mark a disbursed loan as defaulted
// @Tags loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} domain.Loan
// @Failure 400 {object} map[string]string "Invalid loan ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Loan not found"
// @Failure 409 {object} map[string]string "Loan is not disbursed"
// @Failure 500 {object} map[string]string "Failed to default loan"
// @Security BearerAuth
// @Router /loans/{id}/default [post]
func (h *lifecycleHandler) defaultLoan(c *gin.Context) {
	handleTransition[domain.Loan](c, "default loan", h.lifecycleService.DefaultLoan)
}

// createExpense godoc
// @Summary Record an expense awaiting approval
// @Tags expenses
// @Accept json
// @Produce json
// @Param expense body dto.CreateExpenseRequest true "Expense"
// @Success 201 {object} domain.ExpenseRecord
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create expense"
// @Security BearerAuth
// @Router /expenses [post]
func (h *lifecycleHandler) createExpense(c *gin.Context) {
	handleCreate[dto.CreateExpenseRequest, domain.ExpenseRecord](c, "create expense", h.lifecycleService.CreateExpense)
}

// approveExpense godoc
// @Summary Approve a pending expense
// @Description Posts Dr the expense account for the category / Cr Cash
// @Tags expenses
// @Produce json
// @Param id path int true "Expense ID"
// @Success 200 {object} domain.ExpenseRecord
// @Failure 400 {object} map[string]string "Invalid expense ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Expense not found"
// @Failure 409 {object} map[string]string "Expense is not pending"
// @Failure 500 {object} map[string]string "Failed to approve expense"
// @Security BearerAuth
// @Router /expenses/{id}/approve [post]
func (h *lifecycleHandler) approveExpense(c *gin.Context) {
	handleTransition[domain.ExpenseRecord](c, "approve expense", h.lifecycleService.ApproveExpense)
}

// rejectExpense godoc
// @Summary Reject a pending expense
// @Tags expenses
// @Produce json
// @Param id path int true "Expense ID"
// @Success 200 {object} domain.ExpenseRecord
// @Failure 400 {object} map[string]string "Invalid expense ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Expense not found"
// @Failure 409 {object} map[string]string "Expense is not pending"
// @Failure 500 {object} map[string]string "Failed to reject expense"
// @Security BearerAuth
// @Router /expenses/{id}/reject [post]
func (h *lifecycleHandler) rejectExpense(c *gin.Context) {
	handleTransition[domain.ExpenseRecord](c, "reject expense", h.lifecycleService.RejectExpense)
}

// createPenalty godoc
// @Summary Levy a penalty on a member
// @Tags penalties
// @Accept json
// @Produce json
// @Param penalty body dto.CreatePenaltyRequest true "Penalty"
// @Success 201 {object} domain.Penalty
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create penalty"
// @Security BearerAuth
// @Router /penalties [post]
func (h *lifecycleHandler) createPenalty(c *gin.Context) {
	handleCreate[dto.CreatePenaltyRequest, domain.Penalty](c, "create penalty", h.lifecycleService.CreatePenalty)
}

// payPenalty godoc
// @Summary Record payment of an unpaid penalty
// @Description Posts Dr Cash / Cr Penalty Revenue
// @Tags penalties
// @Accept json
// @Produce json
// @Param id path int true "Penalty ID"
// @Param transition body dto.TransitionRequest false "Effective date"
// @Success 200 {object} domain.Penalty
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Penalty not found"
// @Failure 409 {object} map[string]string "Penalty is not unpaid"
// @Failure 500 {object} map[string]string "Failed to pay penalty"
// @Security BearerAuth
// @Router /penalties/{id}/pay [post]
func (h *lifecycleHandler) payPenalty(c *gin.Context) {
	handleDatedTransition[domain.Penalty](c, "pay penalty", h.lifecycleService.PayPenalty)
}

// waivePenalty godoc
// @Summary Waive an unpaid penalty
// @Tags penalties
// @Produce json
// @Param id path int true "Penalty ID"
// @Success 200 {object} domain.Penalty
// @Failure 400 {object} map[string]string "Invalid penalty ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Penalty not found"
// @Failure 409 {object} map[string]string "Penalty is not unpaid"
// @Failure 500 {object} map[string]string "Failed to waive penalty"
// @Security BearerAuth
// @Router /penalties/{id}/waive [post]
func (h *lifecycleHandler) waivePenalty(c *gin.Context) {
	handleTransition[domain.Penalty](c, "waive penalty", h.lifecycleService.WaivePenalty)
}

// createDisasterPayment godoc
// @Summary Record disaster relief awaiting issue
// @Tags disaster-payments
// @Accept json
// @Produce json
// @Param disasterPayment body dto.CreateDisasterPaymentRequest true "Disaster payment"
// @Success 201 {object} domain.DisasterPayment
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create disaster payment"
// @Security BearerAuth
// @Router /disaster-payments [post]
func (h *lifecycleHandler) createDisasterPayment(c *gin.Context) {
	handleCreate[dto.CreateDisasterPaymentRequest, domain.DisasterPayment](c, "create disaster payment", h.lifecycleService.CreateDisasterPayment)
}

// issueDisasterPayment godoc
// @Summary Issue a pending disaster payment
// @Description Posts Dr Disaster Relief / Cr Cash
// @Tags disaster-payments
// @Accept json
// @Produce json
// @Param id path int true "Disaster payment ID"
// @Param transition body dto.TransitionRequest false "Effective date"
// @Success 200 {object} domain.DisasterPayment
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Disaster payment not found"
// @Failure 409 {object} map[string]string "Disaster payment is not pending"
// @Failure 500 {object} map[string]string "Failed to issue disaster payment"
// @Security BearerAuth
// @Router /disaster-payments/{id}/issue [post]
func (h *lifecycleHandler) issueDisasterPayment(c *gin.Context) {
	handleDatedTransition[domain.DisasterPayment](c, "issue disaster payment", h.lifecycleService.IssueDisasterPayment)
}

// recognizeDebt godoc
// @Summary Recognise an amount owed by a member
// @Description Creates the debt and posts Dr Member Debts Receivable / Cr the revenue account for its nature
// @Tags debts
// @Accept json
// @Produce json
// @Param debt body dto.CreateDebtRequest true "Debt"
// @Success 201 {object} domain.Debt
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 422 {object} map[string]string "Posting account missing"
// @Failure 500 {object} map[string]string "Failed to recognise debt"
// @Security BearerAuth
// @Router /debts [post]
func (h *lifecycleHandler) recognizeDebt(c *gin.Context) {
	handleCreate[dto.CreateDebtRequest, domain.Debt](c, "recognise debt", h.lifecycleService.RecognizeDebt)
}

// settleDebt godoc
// @Summary Settle an outstanding debt
// @Description Posts Dr Cash / Cr Member Debts Receivable
// @Tags debts
// @Accept json
// @Produce json
// @Param id path int true "Debt ID"
// @Param transition body dto.TransitionRequest false "Effective date"
// @Success 200 {object} domain.Debt
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Debt not found"
// @Failure 409 {object} map[string]string "Debt is not outstanding"
// @Failure 500 {object} map[string]string "Failed to settle debt"
// @Security BearerAuth
// @Router /debts/{id}/settle [post]
func (h *lifecycleHandler) settleDebt(c *gin.Context) {
	handleDatedTransition[domain.Debt](c, "settle debt", h.lifecycleService.SettleDebt)
}
