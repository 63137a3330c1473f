package models

import "time"

// ChatLog is one line of a chatbot conversation.
type ChatLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ParticipantID string    `gorm:"index;not null" json:"participant_id"`
	Sender        string    `gorm:"not null" json:"sender"` // "user" or "bot"
	Message       string    `gorm:"type:text" json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}
