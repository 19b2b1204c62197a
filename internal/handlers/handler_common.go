package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/dto"
	"github.com/shauritanga/twa-system/internal/middleware"
)

// respondError writes err with the status its sentinel maps to.
// Internal failures are logged at error level and their detail is not exposed.
func respondError(c *gin.Context, logger *slog.Logger, err error, action string) {
	status := apperrors.StatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Failed to "+action, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": "Failed to " + action})
		return
	}
	logger.Warn("Request to "+action+" rejected", slog.String("error", err.Error()), slog.Int("status", status))
	c.JSON(status, gin.H{"error": err.Error()})
}

// requireActor returns the authenticated user id or writes a 401.
func requireActor(c *gin.Context, logger *slog.Logger) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}

// recordIDParam parses the numeric :id path parameter of a domain record.
func recordIDParam(c *gin.Context, logger *slog.Logger) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		logger.Warn("Invalid record id in path", slog.String("id", raw))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID: " + raw})
		return 0, false
	}
	return id, true
}

// bindTransition reads the optional transition body. An empty body means "now".
func bindTransition(c *gin.Context, logger *slog.Logger) (time.Time, bool) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("Failed to bind transition request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return time.Time{}, false
	}
	return req.Date, true
}
