package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"wellnesschat/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(subject string, data []byte) error {
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return p.err
}

func TestPublishRoomEvent_UsesRoomSubject(t *testing.T) {
	rec := &recordingPublisher{}
	c := &NATSClient{pub: rec}

	evt := models.ChatEvent{Type: models.EventPeerMessage, RoomID: "room-1", SenderID: "a", Text: "hi", Seq: 1, Timestamp: time.Now()}
	require.NoError(t, c.PublishRoomEvent("room-1", evt))

	require.Len(t, rec.subjects, 1)
	assert.Equal(t, "wellness.room.room-1", rec.subjects[0])

	var got models.ChatEvent
	require.NoError(t, json.Unmarshal(rec.payloads[0], &got))
	assert.Equal(t, models.EventPeerMessage, got.Type)
	assert.Equal(t, "hi", got.Text)
}

func TestPublishRoomEvent_ReturnsTransportError(t *testing.T) {
	c := &NATSClient{pub: &recordingPublisher{err: errors.New("no responders")}}
	assert.Error(t, c.PublishRoomEvent("room-1", models.ChatEvent{Type: models.EventPeerLeft}))
}
