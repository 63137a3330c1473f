package handler

import (
	"context"
	"errors"
	"net/http"

	"wellnesschat/backend/internal/booking"
	"wellnesschat/backend/internal/chathub"
	"wellnesschat/backend/internal/localization"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors to HTTP responses.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, code, key := http.StatusInternalServerError, "internal", localization.KeyInternalError

	switch {
	case errors.Is(err, chathub.ErrInvalidParticipant),
		errors.Is(err, chathub.ErrEmptyMessage),
		errors.Is(err, chathub.ErrMessageTooLong):
		status, code, key = http.StatusBadRequest, "invalid", localization.KeyMessageInvalid
	case errors.Is(err, booking.ErrEmptyDatetime),
		errors.Is(err, booking.ErrDatetimeTooLong),
		errors.Is(err, booking.ErrInvalidParticipant):
		status, code, key = http.StatusBadRequest, "invalid", ""
	case errors.Is(err, chathub.ErrNoActiveRoom):
		status, code, key = http.StatusConflict, "rejoin", localization.KeyNotInRoom
	case errors.Is(err, chathub.ErrAlreadyInRoom):
		status, code, key = http.StatusConflict, "already_in_room", localization.KeyAlreadyInRoom
	case errors.Is(err, chathub.ErrHubStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusServiceUnavailable, "unavailable"
	default:
		h.log.Errorf("Request %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}

	msg := err.Error()
	if key != "" {
		msg = h.text(c, key)
	}
	c.JSON(status, gin.H{"error": code, "message": msg, "detail": err.Error()})
}
