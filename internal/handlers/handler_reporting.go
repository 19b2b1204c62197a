package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/shauritanga/twa-system/internal/core/ports/services"
	"github.com/shauritanga/twa-system/internal/dto"
	"github.com/shauritanga/twa-system/internal/middleware"
)

// reportingHandler handles HTTP requests for ledger reports.
type reportingHandler struct {
	ledgerService portssvc.LedgerSvc
}

func newReportingHandler(ls portssvc.LedgerSvc) *reportingHandler {
	return &reportingHandler{ledgerService: ls}
}

func registerReportingRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvc) {
	h := newReportingHandler(ledgerService)

	reports := rg.Group("/reports")
	{
		reports.GET("/trial-balance", h.getTrialBalance)
		reports.GET("/balance-verification", h.verifyBalances)
	}
}

// getTrialBalance godoc
// @Summary Get the trial balance
// @Description Compares the total of debit-normal balances with the total of credit-normal balances over active accounts
// @Tags reports
// @Produce json
// @Success 200 {object} dto.TrialBalanceResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to generate trial balance"
// @Security BearerAuth
// @Router /reports/trial-balance [get]
func (h *reportingHandler) getTrialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	if _, ok := requireActor(c, logger); !ok {
		return
	}

	tb, err := h.ledgerService.GetTrialBalance(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "generate trial balance")
		return
	}
	if !tb.Balanced {
		logger.Warn("Trial balance is out of balance", slog.String("difference", tb.Difference.String()))
	}
	c.JSON(http.StatusOK, dto.ToTrialBalanceResponse(tb))
}

// verifyBalances godoc
// @Summary Verify stored balances against posted lines
// @Description Recomputes every account balance from the posted line log and lists drifts
// @Tags reports
// @Produce json
// @Success 200 {object} dto.BalanceVerificationResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to verify balances"
// @Security BearerAuth
// @Router /reports/balance-verification [get]
func (h *reportingHandler) verifyBalances(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	if _, ok := requireActor(c, logger); !ok {
		return
	}

	v, err := h.ledgerService.VerifyBalances(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "verify balances")
		return
	}
	if !v.OK() {
		logger.Warn("Balance drift detected", slog.Int("drifts", len(v.Drifts)))
	}
	c.JSON(http.StatusOK, dto.ToBalanceVerificationResponse(v))
}
