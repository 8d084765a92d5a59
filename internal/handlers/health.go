package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/catalog-service/internal/database"
)

// Health godoc
// @Summary Liveness and database readiness
// @Tags health
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func Health(c *gin.Context) {
	if err := database.Status(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
