package handler

import (
	"net/http"
	"strings"
	"time"

	"wellnesschat/backend/internal/config"
	"wellnesschat/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type chatbotRequest struct {
	Message string `json:"message"`
}

// Chatbot answers a message from the wellness assistant and logs both lines.
func (h *Handler) Chatbot(c *gin.Context) {
	var req chatbotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid", "detail": err.Error()})
		return
	}
	msg := strings.TrimSpace(req.Message)
	if len([]rune(msg)) > config.MaxMessageLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid", "detail": "message too long"})
		return
	}

	reply := h.Bot.Reply(msg)

	anonID := participantID(c)
	if msg != "" {
		h.logChat(anonID, "user", msg)
	}
	h.logChat(anonID, "bot", reply.Message)

	c.JSON(http.StatusOK, reply)
}

func (h *Handler) logChat(anonID, sender, message string) {
	if h.ChatLogs == nil {
		return
	}
	entry := &models.ChatLog{ParticipantID: anonID, Sender: sender, Message: message, CreatedAt: time.Now()}
	if err := h.ChatLogs.SaveChatLog(entry); err != nil {
		h.log.Warnf("Failed to log chatbot line for %s: %v", anonID, err)
	}
}
