package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"order-board/internal/models"
)

// NewHealthHandler godoc
// @Summary     Health check
// @Description Returns the health status of the server and the storage backend in use
// @Tags        health
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Router      /health [get]
func NewHealthHandler(backend string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "ok",
			Backend: backend,
		})
	}
}
