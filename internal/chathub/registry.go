package chathub

import (
	"sort"
	"time"

	"wellnesschat/backend/internal/models"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// RoomRegistry maps room ids to paired rooms and participants to their room.
// It is not safe for concurrent use; the hub loop owns it.
type RoomRegistry struct {
	rooms         map[string]*models.Room
	byParticipant map[string]string

	newRoomID    func() string
	newMessageID func() string
	now          func() time.Time
}

// NewRoomRegistry creates an empty registry with uuid room ids and ulid message ids.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:         make(map[string]*models.Room),
		byParticipant: make(map[string]string),
		newRoomID:     func() string { return "room-" + uuid.NewString() },
		newMessageID:  func() string { return ulid.Make().String() },
		now:           time.Now,
	}
}

// Create pairs a and b in a fresh room. Ids are random uuids; a generated id that
// clashes with a live room is drawn again.
func (r *RoomRegistry) Create(a, b models.Member, topic string) (*models.Room, error) {
	if a.ParticipantID == "" || b.ParticipantID == "" || a.ParticipantID == b.ParticipantID {
		return nil, ErrInvalidParticipant
	}
	if r.RoomOf(a.ParticipantID) != nil || r.RoomOf(b.ParticipantID) != nil {
		return nil, ErrAlreadyInRoom
	}

	id := r.newRoomID()
	for r.rooms[id] != nil {
		id = r.newRoomID()
	}

	room := &models.Room{
		ID:         id,
		Members:    [2]models.Member{a, b},
		Topic:      topic,
		Transcript: []models.Message{},
		CreatedAt:  r.now(),
		NextSeq:    1,
	}
	r.rooms[id] = room
	r.byParticipant[a.ParticipantID] = id
	r.byParticipant[b.ParticipantID] = id
	return room, nil
}

// End removes the room and both participant mappings and returns the removed room.
func (r *RoomRegistry) End(roomID string) (*models.Room, bool) {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, false
	}
	delete(r.rooms, roomID)
	for _, m := range room.Members {
		if r.byParticipant[m.ParticipantID] == roomID {
			delete(r.byParticipant, m.ParticipantID)
		}
	}
	return room, true
}

// Get returns the active room with the given id.
func (r *RoomRegistry) Get(roomID string) *models.Room {
	return r.rooms[roomID]
}

// RoomOf returns the active room of a participant, or nil.
func (r *RoomRegistry) RoomOf(participantID string) *models.Room {
	id, ok := r.byParticipant[participantID]
	if !ok {
		return nil
	}
	return r.rooms[id]
}

// Len returns the number of active rooms.
func (r *RoomRegistry) Len() int { return len(r.rooms) }

// Append records a message from senderID in the room transcript and returns it
// together with the participants it must be delivered to.
func (r *RoomRegistry) Append(roomID, senderID, text string) (models.Message, []string, error) {
	room, ok := r.rooms[roomID]
	if !ok || !room.Has(senderID) {
		return models.Message{}, nil, ErrNoActiveRoom
	}

	msg := models.Message{
		ID:       r.newMessageID(),
		RoomID:   roomID,
		SenderID: senderID,
		Text:     text,
		SentAt:   r.now(),
		Seq:      room.NextSeq,
	}
	room.NextSeq++
	room.Transcript = append(room.Transcript, msg)

	var recipients []string
	for _, m := range room.Members {
		if m.ParticipantID != senderID {
			recipients = append(recipients, m.ParticipantID)
		}
	}
	return msg, recipients, nil
}

// Since returns transcript messages with a sequence number greater than seq.
func (r *RoomRegistry) Since(roomID string, seq int) ([]models.Message, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, ErrNoActiveRoom
	}
	out := []models.Message{}
	for _, m := range room.Transcript {
		if m.Seq > seq {
			out = append(out, m)
		}
	}
	return out, nil
}

// Snapshot returns copies of all active rooms ordered by creation.
func (r *RoomRegistry) Snapshot() []models.Room {
	rooms := make([]models.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, *room.Clone())
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })
	return rooms
}

// Load replaces the registry contents with a previously saved snapshot.
// Rooms that would break the two-distinct-members rule are skipped and returned.
func (r *RoomRegistry) Load(rooms []models.Room) (skipped []string) {
	r.rooms = make(map[string]*models.Room)
	r.byParticipant = make(map[string]string)

	for i := range rooms {
		room := rooms[i].Clone()
		a, b := room.Members[0].ParticipantID, room.Members[1].ParticipantID
		if room.ID == "" || r.rooms[room.ID] != nil || a == "" || b == "" || a == b || r.RoomOf(a) != nil || r.RoomOf(b) != nil {
			skipped = append(skipped, room.ID)
			continue
		}
		if room.NextSeq < len(room.Transcript)+1 {
			room.NextSeq = len(room.Transcript) + 1
		}
		r.rooms[room.ID] = room
		r.byParticipant[a] = room.ID
		r.byParticipant[b] = room.ID
	}
	return skipped
}
