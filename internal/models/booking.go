package models

import "time"

// Booking is a requested counseling session.
type Booking struct {
	ID            string `gorm:"primaryKey" json:"id"`
	ParticipantID string `gorm:"index;not null" json:"participant_id"`
	// RequestedFor is the datetime exactly as the participant entered it.
	RequestedFor string    `gorm:"not null" json:"requested_for"`
	CreatedAt    time.Time `json:"created_at"`
}
