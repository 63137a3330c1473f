package handler

import (
	"net/http"
	"strings"
	"time"

	"wellnesschat/backend/internal/booking"
	"wellnesschat/backend/internal/chathub"
	"wellnesschat/backend/internal/localization"
	"wellnesschat/backend/internal/models"
	"wellnesschat/backend/internal/wellness"
	"wellnesschat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ChatLogStore records chatbot conversations.
type ChatLogStore interface {
	SaveChatLog(entry *models.ChatLog) error
}

// Handler holds everything the HTTP routes need.
type Handler struct {
	Hub        *chathub.ManagerService
	ChatLogs   ChatLogStore
	Bot        *wellness.Bot
	Bookings   *booking.Service
	Localizer  *localization.Localizer
	Auth       *TokenIssuer
	Locale     string
	AdminToken string // enables the /admin routes when set
	log        logger.Logger
}

func NewHandler(
	hub *chathub.ManagerService,
	chatLogs ChatLogStore,
	bot *wellness.Bot,
	bookings *booking.Service,
	loc *localization.Localizer,
	auth *TokenIssuer,
	locale string,
	log logger.Logger,
) *Handler {
	return &Handler{
		Hub:       hub,
		ChatLogs:  chatLogs,
		Bot:       bot,
		Bookings:  bookings,
		Localizer: loc,
		Auth:      auth,
		Locale:    locale,
		log:       log,
	}
}

// lang picks the response language from Accept-Language, falling back to the configured locale.
func (h *Handler) lang(c *gin.Context) string {
	if al := c.GetHeader("Accept-Language"); len(al) >= 2 {
		return strings.ToLower(al[:2])
	}
	if h.Locale != "" {
		return h.Locale
	}
	return localization.DefaultLang
}

func (h *Handler) text(c *gin.Context, key string) string {
	if h.Localizer == nil {
		return key
	}
	return h.Localizer.GetString(h.lang(c), key)
}

// Health reports liveness and hub counters.
func (h *Handler) Health(c *gin.Context) {
	stats, err := h.Hub.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC(), "hub": stats})
}
