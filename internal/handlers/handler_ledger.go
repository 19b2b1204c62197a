package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/shauritanga/twa-system/internal/core/ports/services"
	"github.com/shauritanga/twa-system/internal/dto"
	"github.com/shauritanga/twa-system/internal/middleware"
)

// ledgerHandler exposes the automatic posting entry point for integrations.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvc
}

func newLedgerHandler(ledgerService portssvc.LedgerSvc) *ledgerHandler {
	return &ledgerHandler{ledgerService: ledgerService}
}

func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvc) {
	h := newLedgerHandler(ledgerService)

	ledger := rg.Group("/ledger")
	{
		ledger.POST("/postings", h.postFor)
	}
}

// postFor godoc
// @Summary Post a domain event to the ledger
// @Description Builds and posts the balanced entry for (kind, recordID, stage). Repeating the call returns the first entry with alreadyPosted=true.
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   posting body dto.PostingRequest true "Posting payload"
// @Success 201 {object} dto.PostingResponse "Entry posted"
// @Success 200 {object} dto.PostingResponse "Entry already posted"
// @Failure 400 {object} map[string]string "Invalid payload or unknown rule"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Concurrent posting in progress"
// @Failure 422 {object} map[string]string "Rule account missing from the chart"
// @Failure 500 {object} map[string]string "Failed to post to ledger"
// @Security BearerAuth
// @Router /ledger/postings [post]
func (h *ledgerHandler) postFor(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.PostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PostFor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	payload := req.ToPayload(actorID)
	logger = logger.With(slog.String("posting_key", payload.Key().String()))

	result, err := h.ledgerService.PostFor(c.Request.Context(), req.Kind, payload)
	if err != nil {
		respondError(c, logger, err, "post to ledger")
		return
	}

	status := http.StatusCreated
	if result.AlreadyPosted {
		status = http.StatusOK
	}
	logger.Info("Ledger posting handled", slog.String("entry_id", result.EntryID), slog.Bool("already_posted", result.AlreadyPosted))
	c.JSON(status, dto.PostingResponse{EntryID: result.EntryID, AlreadyPosted: result.AlreadyPosted})
}
