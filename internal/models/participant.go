package models

import "time"

// ParticipantState is the position of a participant in the peer chat lifecycle.
type ParticipantState string

const (
	StateIdle    ParticipantState = "idle"
	StateWaiting ParticipantState = "waiting"
	StatePaired  ParticipantState = "paired"
)

// WaitingEntry is a participant waiting in the pool for a peer.
type WaitingEntry struct {
	ParticipantID string    `json:"participant_id" msgpack:"participant_id"`
	Topic         string    `json:"topic,omitempty" msgpack:"topic"`
	JoinedAt      time.Time `json:"joined_at" msgpack:"joined_at"`
}

// ParticipantStatus is a read-only snapshot of where a participant stands.
type ParticipantStatus struct {
	State     ParticipantState `json:"state"`
	RoomID    string           `json:"room_id,omitempty"`
	PartnerID string           `json:"partner_id,omitempty"`
	QueueSize int              `json:"queue_size"`
	// PartnerLeft is set once after the partner left and cleared when read.
	PartnerLeft bool `json:"partner_left"`
}

// MatchResult is returned from a join request.
type MatchResult struct {
	Matched   bool   `json:"matched"`
	RoomID    string `json:"room_id,omitempty"`
	PartnerID string `json:"partner_id,omitempty"`
	QueueSize int    `json:"queue_size"`
}

// LeaveResult describes what a leave request tore down.
type LeaveResult struct {
	WasWaiting bool   `json:"was_waiting"`
	RoomID     string `json:"room_id,omitempty"`
	PartnerID  string `json:"partner_id,omitempty"`
}
