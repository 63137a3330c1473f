package handler

import (
	"net/http"
	"strconv"

	"wellnesschat/backend/internal/localization"
	"wellnesschat/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type joinRequest struct {
	Topic string `json:"topic"`
}

type messageRequest struct {
	Text string `json:"text" binding:"required"`
	// RoomID pins the message to a room; empty means the caller's current room.
	RoomID string `json:"room_id"`
}

// JoinPeer asks to be paired with another participant.
func (h *Handler) JoinPeer(c *gin.Context) {
	var req joinRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid", "detail": err.Error()})
			return
		}
	}

	res, err := h.Hub.RequestJoin(c.Request.Context(), participantID(c), req.Topic)
	if err != nil {
		h.respondError(c, err)
		return
	}

	key := localization.KeyWaiting
	if res.Matched {
		key = localization.KeyConnected
	}
	c.JSON(http.StatusOK, gin.H{"result": res, "message": h.text(c, key)})
}

// LeavePeer leaves the waiting pool or the current room.
func (h *Handler) LeavePeer(c *gin.Context) {
	res, err := h.Hub.Leave(c.Request.Context(), participantID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res, "message": h.text(c, localization.KeyLeft)})
}

// PostPeerMessage relays a message into the caller's room. A client that names a room
// it no longer belongs to gets 409 rejoin instead of landing in a newer room.
func (h *Handler) PostPeerMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid", "detail": err.Error()})
		return
	}

	var (
		msg models.Message
		err error
	)
	if req.RoomID != "" {
		msg, err = h.Hub.PostMessage(c.Request.Context(), req.RoomID, participantID(c), req.Text)
	} else {
		msg, err = h.Hub.Send(c.Request.Context(), participantID(c), req.Text)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// GetPeerMessages returns transcript messages after ?since=N. Pull clients poll it.
func (h *Handler) GetPeerMessages(c *gin.Context) {
	since := 0
	if s := c.Query("since"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid", "detail": "since must be a non-negative integer"})
			return
		}
		since = n
	}

	roomID, msgs, err := h.Hub.Transcript(c.Request.Context(), participantID(c), since)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "messages": msgs})
}

// GetPeerStatus reports idle, waiting or paired, plus whether the partner just left.
func (h *Handler) GetPeerStatus(c *gin.Context) {
	st, err := h.Hub.Status(c.Request.Context(), participantID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	var key string
	switch {
	case st.PartnerLeft:
		key = localization.KeyPartnerLeft
	case st.State == models.StateWaiting:
		key = localization.KeyWaiting
	case st.State == models.StatePaired:
		key = localization.KeyConnected
	}
	body := gin.H{"status": st}
	if key != "" {
		body["message"] = h.text(c, key)
	}
	c.JSON(http.StatusOK, body)
}
