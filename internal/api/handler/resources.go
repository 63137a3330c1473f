package handler

import (
	"net/http"

	"wellnesschat/backend/internal/wellness"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Resources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"resources": wellness.Resources()})
}
