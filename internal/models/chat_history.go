package models

import "time"

// Message is a single chat utterance inside a room.
type Message struct {
	ID       string    `json:"id" msgpack:"id"`
	RoomID   string    `json:"room_id" msgpack:"room_id"`
	SenderID string    `json:"sender_id" msgpack:"sender_id"`
	Text     string    `json:"text" msgpack:"text"`
	SentAt   time.Time `json:"sent_at" msgpack:"sent_at"`
	// Seq is the 1-based position of the message in the room transcript.
	Seq int `json:"seq" msgpack:"seq"`
}

// ChatHistory represents an archived chat message in the database.
type ChatHistory struct {
	// MessageID is the ulid assigned when the message was relayed.
	MessageID string `gorm:"primaryKey"`
	// RoomID is the identifier of the chat room where the message was sent.
	RoomID string `gorm:"not null;index:idx_room_seq"`
	Seq    int    `gorm:"not null;index:idx_room_seq"`
	// SenderID is the anonymous ID of the participant who sent the message.
	SenderID string `gorm:"not null"`
	Content  string `gorm:"type:text;not null"`
	SentAt   time.Time
}
