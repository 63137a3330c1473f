package models

import "time"

// Member is one side of a paired room.
type Member struct {
	ParticipantID string `json:"participant_id" msgpack:"participant_id"`
	Topic         string `json:"topic,omitempty" msgpack:"topic"`
}

// Room is an active 1-on-1 chat between exactly two participants.
type Room struct {
	ID         string    `json:"id" msgpack:"id"`
	Members    [2]Member `json:"members" msgpack:"members"`
	Topic      string    `json:"topic,omitempty" msgpack:"topic"`
	Transcript []Message `json:"transcript" msgpack:"transcript"`
	CreatedAt  time.Time `json:"created_at" msgpack:"created_at"`
	NextSeq    int       `json:"next_seq" msgpack:"next_seq"`
}

// Partner returns the other member of the room, or "" if participantID is not a member.
func (r *Room) Partner(participantID string) string {
	switch participantID {
	case r.Members[0].ParticipantID:
		return r.Members[1].ParticipantID
	case r.Members[1].ParticipantID:
		return r.Members[0].ParticipantID
	}
	return ""
}

// Has reports whether participantID is one of the two members.
func (r *Room) Has(participantID string) bool {
	return r.Members[0].ParticipantID == participantID || r.Members[1].ParticipantID == participantID
}

// Clone returns a copy that shares nothing with r.
func (r *Room) Clone() *Room {
	c := *r
	c.Transcript = append([]Message(nil), r.Transcript...)
	return &c
}

// ChatRoom is the archived record of a room in the database.
type ChatRoom struct {
	// RoomID is the unique identifier for the chat room.
	RoomID string `gorm:"primaryKey"`
	// User1ID and User2ID are the anonymous ids of both members.
	User1ID string
	User2ID string
	Topic   string
	// IsActive is false once the room has been ended.
	IsActive  bool
	StartedAt time.Time
	EndedAt   *time.Time
}
