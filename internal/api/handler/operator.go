package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"wellnesschat/backend/internal/chathub"

	"github.com/gin-gonic/gin"
)

// RequireAdmin lets through requests carrying the operator token as a bearer token.
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if h.AdminToken == "" || subtle.ConstantTimeCompare([]byte(tok), []byte(h.AdminToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "operator token required"})
			return
		}
		c.Next()
	}
}

// HubStats returns live hub counters.
func (h *Handler) HubStats(c *gin.Context) {
	stats, err := h.Hub.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// EndRoom closes a live room. Both members are told their peer left.
func (h *Handler) EndRoom(c *gin.Context) {
	roomID := c.Param("id")
	err := h.Hub.EndRoom(c.Request.Context(), roomID)
	if errors.Is(err, chathub.ErrNoActiveRoom) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "detail": "no live room " + roomID})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.log.Infof("Operator ended room %s", roomID)
	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "ended": true})
}
