// Package telegram lets Telegram users reach the peer chat and the wellness assistant.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"wellnesschat/backend/internal/chathub"
	"wellnesschat/backend/internal/localization"
	"wellnesschat/backend/internal/models"
	"wellnesschat/backend/internal/wellness"
	"wellnesschat/backend/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChatLogStore records chatbot conversations.
type ChatLogStore interface {
	SaveChatLog(entry *models.ChatLog) error
}

// BotService receives Telegram updates and routes them to the hub or the chatbot.
type BotService struct {
	BotAPI    *tgbotapi.BotAPI
	Hub       *chathub.ManagerService
	Bot       *wellness.Bot
	Localizer *localization.Localizer
	ChatLogs  ChatLogStore

	sender  Sender
	log     logger.Logger
	mu      sync.Mutex
	clients map[int64]*Client
}

// NewBotService authorizes against the Bot API.
func NewBotService(token string, hub *chathub.ManagerService, bot *wellness.Bot, loc *localization.Localizer, chatLogs ChatLogStore, log logger.Logger) (*BotService, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = false
	log.Infof("Authorized on Telegram account %s", api.Self.UserName)

	s := NewBotServiceWithSender(apiSender{api: api}, hub, bot, loc, chatLogs, log)
	s.BotAPI = api
	return s, nil
}

// NewBotServiceWithSender builds a service that sends through sender. Run needs BotAPI.
func NewBotServiceWithSender(sender Sender, hub *chathub.ManagerService, bot *wellness.Bot, loc *localization.Localizer, chatLogs ChatLogStore, log logger.Logger) *BotService {
	return &BotService{
		Hub:       hub,
		Bot:       bot,
		Localizer: loc,
		ChatLogs:  chatLogs,
		sender:    sender,
		log:       log,
		clients:   make(map[int64]*Client),
	}
}

// Run long-polls updates until ctx is cancelled.
func (s *BotService) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			s.BotAPI.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg := update.Message
			if msg == nil {
				continue
			}
			lang := ""
			if msg.From != nil {
				lang = msg.From.LanguageCode
			}
			s.HandleText(ctx, msg.Chat.ID, lang, extractMessageContent(msg))
		}
	}
}

// extractMessageContent uniformly extracts text or a caption from a message.
func extractMessageContent(msg *tgbotapi.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// HandleText processes one incoming message from chatID.
func (s *BotService) HandleText(ctx context.Context, chatID int64, lang, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if strings.HasPrefix(text, "/") {
		s.handleCommand(ctx, chatID, lang, text)
		return
	}

	c := s.getOrCreateClient(chatID, lang)
	_, err := s.Hub.Send(ctx, c.UserID, text)
	switch {
	case err == nil:
	case errors.Is(err, chathub.ErrNoActiveRoom):
		s.replyFromBot(c, text)
	default:
		s.log.Warnf("Failed to relay Telegram message from %d: %v", chatID, err)
		s.reply(chatID, lang, localization.KeyMessageInvalid)
	}
}

func (s *BotService) handleCommand(ctx context.Context, chatID int64, lang, text string) {
	command := strings.TrimPrefix(strings.Fields(text)[0], "/")
	if at := strings.IndexByte(command, '@'); at >= 0 {
		command = command[:at]
	}

	switch command {
	case "peer":
		c := s.getOrCreateClient(chatID, lang)
		if _, err := s.Hub.RequestJoin(ctx, c.UserID, ""); err != nil {
			if errors.Is(err, chathub.ErrAlreadyInRoom) {
				s.reply(chatID, lang, localization.KeyAlreadyInRoom)
				return
			}
			s.log.Errorf("Join failed for Telegram chat %d: %v", chatID, err)
			s.reply(chatID, lang, localization.KeyInternalError)
		}
		// Status and match notices arrive through the client.

	case "stop":
		res, err := s.Hub.Leave(ctx, participantID(chatID))
		if err != nil {
			s.log.Errorf("Leave failed for Telegram chat %d: %v", chatID, err)
			s.reply(chatID, lang, localization.KeyInternalError)
			return
		}
		if !res.WasWaiting && res.RoomID == "" {
			s.reply(chatID, lang, localization.KeyNotInRoom)
			return
		}
		s.reply(chatID, lang, localization.KeyLeft)

	default:
		s.reply(chatID, lang, localization.KeyHelp)
	}
}

// getOrCreateClient returns the live client for chatID, registering a new one when the
// hub has dropped the previous client.
func (s *BotService) getOrCreateClient(chatID int64, lang string) *Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.clients[chatID]; ok && !c.Closed() {
		return c
	}
	c := NewClient(chatID, lang, s.sender, s.Localizer, s.log)
	s.clients[chatID] = c
	s.Hub.Register(c)
	c.Run()
	return c
}

func (s *BotService) reply(chatID int64, lang, key string) {
	if err := s.sender.SendText(chatID, s.Localizer.GetString(lang, key)); err != nil {
		s.log.Errorf("Failed to send Telegram reply to %d: %v", chatID, err)
	}
}

func (s *BotService) replyFromBot(c *Client, text string) {
	r := s.Bot.Reply(text)
	body := formatReply(r)
	if err := s.sender.SendText(c.ChatID, body); err != nil {
		s.log.Errorf("Failed to send chatbot reply to %d: %v", c.ChatID, err)
	}
	s.logChat(c.UserID, "user", text)
	s.logChat(c.UserID, "bot", r.Message)
}

func (s *BotService) logChat(id, sender, message string) {
	if s.ChatLogs == nil {
		return
	}
	if err := s.ChatLogs.SaveChatLog(&models.ChatLog{ParticipantID: id, Sender: sender, Message: message, CreatedAt: time.Now()}); err != nil {
		s.log.Warnf("Failed to log chatbot line for %s: %v", id, err)
	}
}

// formatReply renders a chatbot reply as plain text.
func formatReply(r wellness.Reply) string {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, h := range r.Helplines {
		fmt.Fprintf(&b, "\n%s: %s", h.Name, h.Phone)
	}
	for _, o := range r.Options {
		fmt.Fprintf(&b, "\n- %s (%s)", o.Label, o.Path)
	}
	switch r.Type {
	case wellness.IntentPeer:
		b.WriteString("\nSend /peer to start.")
	case wellness.IntentResources:
		for _, res := range wellness.Resources() {
			fmt.Fprintf(&b, "\n%s: %s", res.Title, res.URL)
		}
	}
	return b.String()
}
