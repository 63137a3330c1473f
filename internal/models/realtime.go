package models

import "time"

// EventType names a server-to-participant event.
type EventType string

const (
	EventStatus      EventType = "status"
	EventMatchFound  EventType = "match_found"
	EventPeerMessage EventType = "peer_message"
	EventPeerLeft    EventType = "peer_left"
	EventWaitExpired EventType = "wait_expired"
	EventError       EventType = "error"
)

// ChatEvent is the envelope pushed to participants over any transport.
type ChatEvent struct {
	Type      EventType `json:"type"`
	RoomID    string    `json:"room_id,omitempty"`
	SenderID  string    `json:"sender_id,omitempty"`
	Text      string    `json:"text,omitempty"`
	Seq       int       `json:"seq,omitempty"`
	QueueSize int       `json:"queue_size,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// InboundFrame is what a push client sends to the server.
type InboundFrame struct {
	Type  string `json:"type"` // "join", "message", "leave"
	Topic string `json:"topic,omitempty"`
	Text  string `json:"text,omitempty"`
}

// State is the whole peer chat state as stored by a state repository.
type State struct {
	Waiting []WaitingEntry `json:"waiting" msgpack:"waiting"`
	Rooms   []Room         `json:"rooms" msgpack:"rooms"`
}
