package chathub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"wellnesschat/backend/internal/config"
	"wellnesschat/backend/internal/models"

	"github.com/gorilla/websocket"
)

// WebSocketClient implements Client over a gorilla/websocket connection.
type WebSocketClient struct {
	UserID string
	Conn   *websocket.Conn
	Hub    *ManagerService
	Send   chan models.ChatEvent

	closeOnce sync.Once
}

// NewWebSocketClient wraps an upgraded connection for participantID.
func NewWebSocketClient(hub *ManagerService, conn *websocket.Conn, participantID string) *WebSocketClient {
	return &WebSocketClient{
		UserID: participantID,
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan models.ChatEvent, config.ClientSendSize),
	}
}

func (c *WebSocketClient) GetUserID() string                       { return c.UserID }
func (c *WebSocketClient) GetSendChannel() chan<- models.ChatEvent { return c.Send }

// Run starts the pumps
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes Send, which stops writePump and then the connection.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(config.MaxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warnf("error reading message from %s: %v", c.UserID, err)
			}
			return
		}

		var frame models.InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.Hub.log.Warnf("Error decoding JSON from client %s: %v", c.UserID, err)
			c.reportError(errors.New("malformed frame"))
			continue
		}
		c.dispatch(frame)
	}
}

func (c *WebSocketClient) dispatch(frame models.InboundFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), config.WriteWait)
	defer cancel()

	var err error
	switch frame.Type {
	case "join":
		_, err = c.Hub.RequestJoin(ctx, c.UserID, frame.Topic)
	case "message":
		_, err = c.Hub.Send(ctx, c.UserID, frame.Text)
	case "leave":
		_, err = c.Hub.Leave(ctx, c.UserID)
	default:
		err = errors.New("unknown frame type " + frame.Type)
	}
	if err != nil {
		c.reportError(err)
	}
}

// reportError routes the error back through the hub, which owns Send.
func (c *WebSocketClient) reportError(err error) {
	ctx, cancel := context.WithTimeout(context.Background(), config.WriteWait)
	defer cancel()
	_ = c.Hub.Notify(ctx, c.UserID, models.ChatEvent{
		Type:      models.EventError,
		Text:      err.Error(),
		Timestamp: time.Now(),
	})
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(config.PingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(evt); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
