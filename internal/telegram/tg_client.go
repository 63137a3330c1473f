package telegram

import (
	"strconv"
	"sync"

	"wellnesschat/backend/internal/config"
	"wellnesschat/backend/internal/localization"
	"wellnesschat/backend/internal/models"
	"wellnesschat/backend/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender delivers plain text to a Telegram chat.
type Sender interface {
	SendText(chatID int64, text string) error
}

// apiSender sends through the Bot API.
type apiSender struct {
	api *tgbotapi.BotAPI
}

func (s apiSender) SendText(chatID int64, text string) error {
	_, err := s.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// participantID is the hub identity of a Telegram chat.
func participantID(chatID int64) string {
	return "tg-" + strconv.FormatInt(chatID, 10)
}

// Client implements chathub.Client for one Telegram chat.
type Client struct {
	UserID string
	ChatID int64
	Lang   string
	Send   chan models.ChatEvent

	sender    Sender
	localizer *localization.Localizer
	log       logger.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

func NewClient(chatID int64, lang string, sender Sender, loc *localization.Localizer, log logger.Logger) *Client {
	return &Client{
		UserID:    participantID(chatID),
		ChatID:    chatID,
		Lang:      lang,
		Send:      make(chan models.ChatEvent, config.ClientSendSize),
		sender:    sender,
		localizer: loc,
		log:       log,
		closed:    make(chan struct{}),
	}
}

func (c *Client) GetUserID() string                       { return c.UserID }
func (c *Client) GetSendChannel() chan<- models.ChatEvent { return c.Send }

// Run starts the write pump. Updates are read centrally by BotService.
func (c *Client) Run() {
	go c.writePump()
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.Send)
		close(c.closed)
	})
}

// Closed reports whether the hub has let go of this client.
func (c *Client) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *Client) writePump() {
	for evt := range c.Send {
		text := c.format(evt)
		if text == "" {
			continue
		}
		if err := c.sender.SendText(c.ChatID, text); err != nil {
			c.log.Errorf("Failed to send Telegram message to %d: %v", c.ChatID, err)
		}
	}
}

func (c *Client) format(evt models.ChatEvent) string {
	switch evt.Type {
	case models.EventStatus:
		return c.localizer.GetString(c.Lang, localization.KeyWaiting)
	case models.EventMatchFound:
		return c.localizer.GetString(c.Lang, localization.KeyConnected)
	case models.EventPeerMessage:
		if evt.SenderID == c.UserID {
			return ""
		}
		return evt.Text
	case models.EventPeerLeft:
		return c.localizer.GetString(c.Lang, localization.KeyPartnerLeft)
	case models.EventWaitExpired:
		return c.localizer.GetString(c.Lang, localization.KeyWaitExpired)
	case models.EventError:
		return c.localizer.GetString(c.Lang, localization.KeyMessageInvalid)
	default:
		c.log.Warnf("Unhandled event type for Telegram client %s: %s", c.UserID, evt.Type)
		return ""
	}
}
