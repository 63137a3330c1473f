package handler

import (
	"net/http"

	"wellnesschat/backend/internal/localization"

	"github.com/gin-gonic/gin"
)

type bookingRequest struct {
	Datetime string `json:"datetime"`
}

// CreateBooking requests a counseling session.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid", "detail": err.Error()})
		return
	}
	b, err := h.Bookings.Book(c.Request.Context(), participantID(c), req.Datetime)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b, "message": h.text(c, localization.KeyBookingSaved)})
}

// MyBookings lists the caller's bookings.
func (h *Handler) MyBookings(c *gin.Context) {
	list, err := h.Bookings.List(c.Request.Context(), participantID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}
