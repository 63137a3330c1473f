package chathub

import (
	"context"
	"strings"
	"unicode/utf8"

	"wellnesschat/backend/internal/config"
	"wellnesschat/backend/internal/models"
)

// PostMessage appends text to the transcript of roomID and pushes it to the other member.
// It fails with ErrNoActiveRoom unless senderID is a member of that live room.
// Pull transports read it back through Transcript.
func (m *ManagerService) PostMessage(ctx context.Context, roomID, senderID, text string) (models.Message, error) {
	if err := validParticipantID(senderID); err != nil {
		return models.Message{}, err
	}
	text, err := normalizeText(text)
	if err != nil {
		return models.Message{}, err
	}

	var (
		msg    models.Message
		cmdErr error
	)
	err = m.exec(ctx, func() { msg, cmdErr = m.relay(roomID, senderID, text) })
	if err != nil {
		return models.Message{}, err
	}
	return msg, cmdErr
}

// Send posts text into the sender's current room.
func (m *ManagerService) Send(ctx context.Context, senderID, text string) (models.Message, error) {
	if err := validParticipantID(senderID); err != nil {
		return models.Message{}, err
	}
	text, err := normalizeText(text)
	if err != nil {
		return models.Message{}, err
	}

	var (
		msg    models.Message
		cmdErr error
	)
	err = m.exec(ctx, func() {
		room := m.rooms.RoomOf(senderID)
		if room == nil {
			cmdErr = ErrNoActiveRoom
			return
		}
		msg, cmdErr = m.relay(room.ID, senderID, text)
	})
	if err != nil {
		return models.Message{}, err
	}
	return msg, cmdErr
}

func (m *ManagerService) relay(roomID, senderID, text string) (models.Message, error) {
	msg, recipients, err := m.rooms.Append(roomID, senderID, text)
	if err != nil {
		return models.Message{}, err
	}
	evt := models.ChatEvent{
		Type:      models.EventPeerMessage,
		RoomID:    roomID,
		SenderID:  senderID,
		Text:      msg.Text,
		Seq:       msg.Seq,
		Timestamp: msg.SentAt,
	}
	for _, r := range recipients {
		m.deliver(r, evt)
	}
	m.publish(roomID, evt)
	m.persist()
	return msg, nil
}

// ActiveRoom returns a copy of the participant's current room, or ErrNoActiveRoom.
func (m *ManagerService) ActiveRoom(ctx context.Context, participantID string) (*models.Room, error) {
	if err := validParticipantID(participantID); err != nil {
		return nil, err
	}
	var room *models.Room
	if err := m.exec(ctx, func() {
		if r := m.rooms.RoomOf(participantID); r != nil {
			room = r.Clone()
		}
	}); err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrNoActiveRoom
	}
	return room, nil
}

// Status reports the participant's state. Reading it clears the partner-left flag.
func (m *ManagerService) Status(ctx context.Context, participantID string) (models.ParticipantStatus, error) {
	if err := validParticipantID(participantID); err != nil {
		return models.ParticipantStatus{}, err
	}
	var st models.ParticipantStatus
	err := m.exec(ctx, func() {
		st.QueueSize = m.pool.Len()
		st.PartnerLeft = m.partnerLeft[participantID]
		delete(m.partnerLeft, participantID)

		switch room := m.rooms.RoomOf(participantID); {
		case room != nil:
			st.State = models.StatePaired
			st.RoomID = room.ID
			st.PartnerID = room.Partner(participantID)
		case m.pool.Contains(participantID):
			st.State = models.StateWaiting
		default:
			st.State = models.StateIdle
		}
	})
	return st, err
}

// QueueSize returns the number of waiting participants.
func (m *ManagerService) QueueSize(ctx context.Context) (int, error) {
	var n int
	err := m.exec(ctx, func() { n = m.pool.Len() })
	return n, err
}

// Transcript returns messages in the participant's room after sequence number since.
func (m *ManagerService) Transcript(ctx context.Context, participantID string, since int) (string, []models.Message, error) {
	if err := validParticipantID(participantID); err != nil {
		return "", nil, err
	}
	var (
		roomID string
		msgs   []models.Message
		cmdErr error
	)
	err := m.exec(ctx, func() {
		room := m.rooms.RoomOf(participantID)
		if room == nil {
			cmdErr = ErrNoActiveRoom
			return
		}
		roomID = room.ID
		msgs, cmdErr = m.rooms.Since(room.ID, since)
	})
	if err != nil {
		return "", nil, err
	}
	return roomID, msgs, cmdErr
}

// Stats is an operator view of the hub.
type Stats struct {
	Waiting  int  `json:"waiting"`
	Rooms    int  `json:"rooms"`
	Clients  int  `json:"clients"`
	Degraded bool `json:"degraded"`
}

// Stats returns the pool, room and push client counts and whether state saves are failing.
func (m *ManagerService) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := m.exec(ctx, func() {
		s = Stats{Waiting: m.pool.Len(), Rooms: m.rooms.Len(), Clients: len(m.clients)}
	})
	s.Degraded = m.Degraded()
	return s, err
}

func normalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > config.MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return text, nil
}
