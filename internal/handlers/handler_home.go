package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shauritanga/twa-system/internal/platform/config"
)

// getHome godoc
// @Summary Service status
// @Description Reports that the ledger API is up and which storage driver backs it.
// @Tags root
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func getHome(storageDriver string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "twa-ledger",
			"api":     "/api/v1",
			"storage": storageDriver,
			"status":  "ok",
		})
	}
}

func registerHomeRoutes(r gin.IRoutes, cfg *config.Config) {
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
	r.GET("/", getHome(cfg.StorageDriver))
}
