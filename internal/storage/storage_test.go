package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wellnesschat/backend/internal/models"
	"wellnesschat/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArchive(t *testing.T) *storage.Service {
	t.Helper()
	db, err := storage.OpenDB("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	svc := storage.NewStorageService(db)
	require.NoError(t, svc.Migrate())
	return svc
}

func sampleState() models.State {
	now := time.Now().UTC().Truncate(time.Second)
	return models.State{
		Waiting: []models.WaitingEntry{{ParticipantID: "c", Topic: "exams", JoinedAt: now}},
		Rooms: []models.Room{{
			ID:      "room-1",
			Members: [2]models.Member{{ParticipantID: "a"}, {ParticipantID: "b"}},
			Transcript: []models.Message{
				{ID: "m1", RoomID: "room-1", SenderID: "a", Text: "hi", SentAt: now, Seq: 1},
			},
			CreatedAt: now,
			NextSeq:   2,
		}},
	}
}

func TestOpenDB_UnknownDriver(t *testing.T) {
	_, err := storage.OpenDB("mysql", "dsn")
	assert.Error(t, err)
}

func TestArchive_RoomLifecycle(t *testing.T) {
	svc := newArchive(t)
	started := time.Now().Add(-time.Minute)

	require.NoError(t, svc.SaveRoom(&models.ChatRoom{RoomID: "room-1", User1ID: "a", User2ID: "b", IsActive: true, StartedAt: started}))

	active, err := svc.ListRooms(true)
	require.NoError(t, err)
	require.Len(t, active, 1)

	require.NoError(t, svc.CloseRoom("room-1"))
	room, err := svc.GetRoomByID("room-1")
	require.NoError(t, err)
	assert.False(t, room.IsActive)
	require.NotNil(t, room.EndedAt)

	active, err = svc.ListRooms(true)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = svc.GetRoomByID("room-missing")
	assert.ErrorIs(t, err, storage.ErrRoomNotFound)
}

func TestArchive_SaveTranscriptIsIdempotent(t *testing.T) {
	svc := newArchive(t)
	msgs := sampleState().Rooms[0].Transcript
	msgs = append(msgs, models.Message{ID: "m2", RoomID: "room-1", SenderID: "b", Text: "hey", SentAt: time.Now(), Seq: 2})

	require.NoError(t, svc.SaveTranscript("room-1", msgs))
	require.NoError(t, svc.SaveTranscript("room-1", msgs))
	require.NoError(t, svc.SaveTranscript("room-1", nil))

	history, err := svc.GetChatHistory("room-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hi", history[0].Content)
	assert.Equal(t, 2, history[1].Seq)
}

func TestBookingsAndChatLogs(t *testing.T) {
	svc := newArchive(t)

	require.NoError(t, svc.SaveBooking(&models.Booking{ID: "b1", ParticipantID: "a", RequestedFor: "monday", CreatedAt: time.Now()}))
	require.NoError(t, svc.SaveBooking(&models.Booking{ID: "b2", ParticipantID: "b", RequestedFor: "tuesday", CreatedAt: time.Now()}))

	mine, err := svc.ListBookings("a")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "monday", mine[0].RequestedFor)

	all, err := svc.ListBookings("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.SaveChatLog(&models.ChatLog{ParticipantID: "a", Sender: "user", Message: "hello"}))
	require.NoError(t, svc.SaveChatLog(&models.ChatLog{ParticipantID: "a", Sender: "bot", Message: "hi there"}))
	logs, err := svc.ListChatLogs("a")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "user", logs[0].Sender)
}

func TestFileStateRepository_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	repo := storage.NewFileStateRepository(path)
	ctx := context.Background()

	empty, err := repo.Load(ctx)
	require.NoError(t, err, "a missing file is an empty state")
	assert.Empty(t, empty.Rooms)

	want := sampleState()
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Rooms, 1)
	assert.Equal(t, want.Rooms[0].ID, got.Rooms[0].ID)
	assert.True(t, want.Rooms[0].CreatedAt.Equal(got.Rooms[0].CreatedAt))
	assert.Equal(t, want.Rooms[0].Transcript[0].Text, got.Rooms[0].Transcript[0].Text)
	assert.Equal(t, "c", got.Waiting[0].ParticipantID)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestFileStateRepository_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := storage.NewFileStateRepository(path).Load(context.Background())
	assert.Error(t, err)
}

func TestMemoryStateRepository_CopiesState(t *testing.T) {
	repo := storage.NewMemoryStateRepository()
	ctx := context.Background()

	state := sampleState()
	require.NoError(t, repo.Save(ctx, state))
	state.Rooms[0].Transcript[0].Text = "mutated"

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Rooms[0].Transcript[0].Text)
	assert.Equal(t, 1, repo.Saves())
}
