package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wellnesschat/backend/internal/api/handler"
	"wellnesschat/backend/internal/booking"
	"wellnesschat/backend/internal/chathub"
	"wellnesschat/backend/internal/config"
	"wellnesschat/backend/internal/localization"
	"wellnesschat/backend/internal/models"
	"wellnesschat/backend/internal/storage"
	"wellnesschat/backend/internal/wellness"
	"wellnesschat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	testSecret     = "test-secret"
	testAdminToken = "test-admin"
)

type testEnv struct {
	router *gin.Engine
	store  *storage.Service
	hub    *chathub.ManagerService
	auth   *handler.TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewLogger("off")

	db, err := storage.OpenDB("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	store := storage.NewStorageService(db)
	require.NoError(t, store.Migrate())

	hub := chathub.NewManagerService(log, chathub.Options{})
	hub.SetArchive(store)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	loc, err := localization.NewDefaultLocalizer()
	require.NoError(t, err)

	auth := handler.NewTokenIssuer(testSecret, time.Hour)
	h := handler.NewHandler(hub, store, wellness.NewBot(nil), booking.NewService(store, nil, log), loc, auth, "en", log)
	h.AdminToken = testAdminToken

	return &testEnv{router: handler.NewRouter(h, []string{"*"}), store: store, hub: hub, auth: auth}
}

func (e *testEnv) token(t *testing.T, anonID string) string {
	t.Helper()
	tok, err := e.auth.Issue(anonID)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func TestGetAnonID_IssuesTokenAndCookie(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodGet, "/anonid", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	anonID, _ := body["anon_id"].(string)
	assert.True(t, strings.HasPrefix(anonID, "a-"))
	assert.Contains(t, w.Header().Get("Set-Cookie"), config.TokenCookieName+"=")

	// A valid token keeps the same id.
	w, again := env.do(t, http.MethodGet, "/anonid", body["token"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, anonID, again["anon_id"])
}

func TestRequireParticipant(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodGet, "/api/peer/status", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := env.do(t, http.MethodGet, "/api/peer/status", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "session expired", body["error"])

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"anon_id": "a-old",
		"exp":     time.Now().Add(-time.Minute).Unix(),
		"iss":     config.TokenIssuer,
	})
	tok, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	w, _ = env.do(t, http.MethodGet, "/api/peer/status", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/peer/status", nil)
	req.AddCookie(&http.Cookie{Name: config.TokenCookieName, Value: env.token(t, "a-cookie")})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPeerPullFlow(t *testing.T) {
	env := newTestEnv(t)
	tokA, tokB := env.token(t, "a-alice"), env.token(t, "a-bob")

	w, body := env.do(t, http.MethodPost, "/api/peer/join", tokA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Waiting for peer...", body["message"])

	w, body = env.do(t, http.MethodPost, "/api/peer/join", tokB, map[string]string{"topic": "exams"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Connected! Start chatting.", body["message"])
	result := body["result"].(map[string]any)
	assert.Equal(t, true, result["matched"])
	roomID := result["room_id"].(string)

	w, _ = env.do(t, http.MethodPost, "/api/peer/messages", tokA, map[string]string{"text": "hello bob"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, body = env.do(t, http.MethodGet, "/api/peer/messages?since=0", tokB, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, roomID, body["room_id"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello bob", msgs[0].(map[string]any)["text"])

	w, body = env.do(t, http.MethodGet, "/api/peer/messages?since=1", tokB, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["messages"])

	w, _ = env.do(t, http.MethodPost, "/api/peer/leave", tokA, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body = env.do(t, http.MethodGet, "/api/peer/status", tokB, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Your peer disconnected.", body["message"])
	status := body["status"].(map[string]any)
	assert.Equal(t, string(models.StateIdle), status["state"])
	assert.Equal(t, true, status["partner_left"])

	w, body = env.do(t, http.MethodPost, "/api/peer/messages", tokB, map[string]string{"text": "still there?"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "rejoin", body["error"])

	room, err := env.store.GetRoomByID(roomID)
	require.NoError(t, err)
	assert.False(t, room.IsActive)
	history, err := env.store.GetChatHistory(roomID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPeerErrors(t *testing.T) {
	env := newTestEnv(t)
	tokA, tokB := env.token(t, "a-alice"), env.token(t, "a-bob")

	env.do(t, http.MethodPost, "/api/peer/join", tokA, nil)
	env.do(t, http.MethodPost, "/api/peer/join", tokB, nil)

	w, body := env.do(t, http.MethodPost, "/api/peer/join", tokA, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_in_room", body["error"])

	w, _ = env.do(t, http.MethodPost, "/api/peer/messages", tokA, map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/peer/messages?since=-1", tokA, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/peer/messages", env.token(t, "a-nobody"), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPostPeerMessage_ToNamedRoom(t *testing.T) {
	env := newTestEnv(t)
	tokA, tokB, tokC := env.token(t, "a-alice"), env.token(t, "a-bob"), env.token(t, "a-carol")

	env.do(t, http.MethodPost, "/api/peer/join", tokA, nil)
	_, body := env.do(t, http.MethodPost, "/api/peer/join", tokB, nil)
	oldRoom := body["result"].(map[string]any)["room_id"].(string)

	w, body := env.do(t, http.MethodPost, "/api/peer/messages", tokA, map[string]string{"text": "hi", "room_id": oldRoom})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, oldRoom, body["room_id"])

	// Alice moves on to a new room; a message still pinned to the old one is refused.
	env.do(t, http.MethodPost, "/api/peer/leave", tokB, nil)
	env.do(t, http.MethodPost, "/api/peer/join", tokA, nil)
	env.do(t, http.MethodPost, "/api/peer/join", tokC, nil)

	w, body = env.do(t, http.MethodPost, "/api/peer/messages", tokA, map[string]string{"text": "late", "room_id": oldRoom})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "rejoin", body["error"])

	_, body = env.do(t, http.MethodGet, "/api/peer/messages", tokC, nil)
	assert.Empty(t, body["messages"])
}

func TestOperatorRoutes(t *testing.T) {
	env := newTestEnv(t)
	tokA, tokB := env.token(t, "a-alice"), env.token(t, "a-bob")

	w, _ := env.do(t, http.MethodGet, "/admin/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = env.do(t, http.MethodGet, "/admin/stats", tokA, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "participant tokens are not operator tokens")

	env.do(t, http.MethodPost, "/api/peer/join", tokA, nil)
	_, body := env.do(t, http.MethodPost, "/api/peer/join", tokB, nil)
	roomID := body["result"].(map[string]any)["room_id"].(string)

	w, body = env.do(t, http.MethodGet, "/admin/stats", testAdminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["rooms"])
	assert.Equal(t, float64(0), body["waiting"])

	w, body = env.do(t, http.MethodPost, "/admin/rooms/"+roomID+"/end", testAdminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["ended"])

	for _, tok := range []string{tokA, tokB} {
		_, body = env.do(t, http.MethodGet, "/api/peer/status", tok, nil)
		status := body["status"].(map[string]any)
		assert.Equal(t, string(models.StateIdle), status["state"])
		assert.Equal(t, true, status["partner_left"])
	}

	w, _ = env.do(t, http.MethodPost, "/admin/rooms/"+roomID+"/end", testAdminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatbot_RepliesAndLogs(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "a-alice")

	w, body := env.do(t, http.MethodPost, "/api/chatbot", tok, map[string]string{"message": "I want to end my life"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(wellness.IntentCrisis), body["type"])
	assert.Len(t, body["helplines"], 2)

	logs, err := env.store.ListChatLogs("a-alice")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "user", logs[0].Sender)
	assert.Equal(t, "bot", logs[1].Sender)
}

func TestBookings(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "a-alice")

	w, _ := env.do(t, http.MethodPost, "/api/bookings", tok, map[string]string{"datetime": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := env.do(t, http.MethodPost, "/api/bookings", tok, map[string]string{"datetime": "2025-03-01 10:00"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Session booked.", body["message"])

	w, body = env.do(t, http.MethodGet, "/api/bookings/mine", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["bookings"], 1)

	w, body = env.do(t, http.MethodGet, "/api/bookings/mine", env.token(t, "a-bob"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["bookings"])
}

func TestResourcesAndHealth(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodGet, "/api/resources", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["resources"], 3)

	w, body = env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func dialPeer(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/peer?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, typ models.EventType) models.ChatEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var evt models.ChatEvent
		require.NoError(t, conn.ReadJSON(&evt))
		if evt.Type == typ {
			return evt
		}
	}
}

func TestWebSocketPushFlow(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	connA := dialPeer(t, srv, env.token(t, "a-alice"))
	connB := dialPeer(t, srv, env.token(t, "a-bob"))

	require.NoError(t, connA.WriteJSON(models.InboundFrame{Type: "join"}))
	readUntil(t, connA, models.EventStatus)

	require.NoError(t, connB.WriteJSON(models.InboundFrame{Type: "join"}))
	matchA := readUntil(t, connA, models.EventMatchFound)
	matchB := readUntil(t, connB, models.EventMatchFound)
	assert.Equal(t, matchA.RoomID, matchB.RoomID)

	require.NoError(t, connA.WriteJSON(models.InboundFrame{Type: "message", Text: "hi over ws"}))
	evt := readUntil(t, connB, models.EventPeerMessage)
	assert.Equal(t, "hi over ws", evt.Text)
	assert.Equal(t, "a-alice", evt.SenderID)

	require.NoError(t, connB.WriteJSON(models.InboundFrame{Type: "message", Text: ""}))
	readUntil(t, connB, models.EventError)

	// Dropping the connection counts as leaving.
	connA.Close()
	left := readUntil(t, connB, models.EventPeerLeft)
	assert.Equal(t, matchA.RoomID, left.RoomID)
}

func TestWebSocketFullLengthMultibyteMessage(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	connA := dialPeer(t, srv, env.token(t, "a-alice"))
	connB := dialPeer(t, srv, env.token(t, "a-bob"))

	require.NoError(t, connA.WriteJSON(models.InboundFrame{Type: "join"}))
	readUntil(t, connA, models.EventStatus)
	require.NoError(t, connB.WriteJSON(models.InboundFrame{Type: "join"}))
	readUntil(t, connA, models.EventMatchFound)
	readUntil(t, connB, models.EventMatchFound)

	// Four bytes per rune as raw UTF-8.
	text := strings.Repeat("😊", config.MaxMessageLength)
	require.NoError(t, connA.WriteJSON(models.InboundFrame{Type: "message", Text: text}))
	evt := readUntil(t, connB, models.EventPeerMessage)
	assert.Equal(t, text, evt.Text)

	// Twelve bytes per rune when a client escapes everything.
	escaped := `{"type":"message","text":"` + strings.Repeat(`\ud83d\ude0a`, config.MaxMessageLength) + `"}`
	require.NoError(t, connA.WriteMessage(websocket.TextMessage, []byte(escaped)))
	evt = readUntil(t, connB, models.EventPeerMessage)
	assert.Equal(t, text, evt.Text)

	st, err := env.hub.Status(context.Background(), "a-bob")
	require.NoError(t, err)
	assert.Equal(t, models.StatePaired, st.State)
}

func TestWebSocketRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/peer"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
