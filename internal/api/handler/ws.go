package handler

import (
	"net/http"

	"wellnesschat/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// NewUpgrader allows browser origins listed in allowed; "*" allows any.
func NewUpgrader(allowed []string) *websocket.Upgrader {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || set["*"] || set[origin]
		},
	}
}

// ServeWebSocket upgrades an authenticated request and attaches it to the hub as a push client.
func (h *Handler) ServeWebSocket(upgrader *websocket.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		anonID := participantID(c)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.Warnf("WebSocket upgrade failed for %s: %v", anonID, err)
			return
		}

		client := chathub.NewWebSocketClient(h.Hub, conn, anonID)
		h.Hub.Register(client)
		client.Run()
	}
}
