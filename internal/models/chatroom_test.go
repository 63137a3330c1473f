package models_test

import (
	"testing"

	"wellnesschat/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRoom_PartnerAndHas(t *testing.T) {
	room := &models.Room{Members: [2]models.Member{{ParticipantID: "a"}, {ParticipantID: "b"}}}

	assert.Equal(t, "b", room.Partner("a"))
	assert.Equal(t, "a", room.Partner("b"))
	assert.Equal(t, "", room.Partner("c"))
	assert.True(t, room.Has("a"))
	assert.False(t, room.Has("c"))
}

func TestRoom_CloneIsIndependent(t *testing.T) {
	room := &models.Room{
		ID:         "room-1",
		Members:    [2]models.Member{{ParticipantID: "a"}, {ParticipantID: "b"}},
		Transcript: []models.Message{{Text: "hi", Seq: 1}},
	}

	clone := room.Clone()
	clone.Transcript[0].Text = "changed"
	clone.Transcript = append(clone.Transcript, models.Message{Text: "more"})
	clone.Members[0].ParticipantID = "z"

	assert.Equal(t, "hi", room.Transcript[0].Text)
	assert.Len(t, room.Transcript, 1)
	assert.Equal(t, "a", room.Members[0].ParticipantID)
}
