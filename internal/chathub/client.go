package chathub

import "wellnesschat/backend/internal/models"

// Client is the interface for any push connection (e.g., WebSocket, Telegram).
// It abstracts the underlying communication mechanism, allowing the hub to deliver
// events to different client types uniformly.
type Client interface {
	// GetUserID returns the participant id the client speaks for.
	GetUserID() string

	// GetSendChannel returns the channel the hub writes events to. The hub never
	// blocks on it.
	GetSendChannel() chan<- models.ChatEvent

	// Run starts the client's pumps.
	Run()
	// Close stops the client. Only the hub calls it, exactly once per registration.
	Close()
}
