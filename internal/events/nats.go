package events

import (
	"encoding/json"
	"fmt"
	"sync"

	"wellnesschat/backend/internal/models"

	"github.com/nats-io/nats.go"
)

// SubjectPrefix is prepended to the room id to form the subject of room events.
const SubjectPrefix = "wellness.room."

// RoomSubject returns the subject events for roomID are published on.
func RoomSubject(roomID string) string {
	return SubjectPrefix + roomID
}

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSClient publishes room events to NATS and lets operators follow them.
type NATSClient struct {
	Conn *nats.Conn
	pub  publisher

	subs map[string]*nats.Subscription
	mu   sync.Mutex
}

func NewNATSClient(url string) (*NATSClient, error) {
	nc, err := nats.Connect(url, nats.Name("wellnesschat"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSClient{Conn: nc, pub: nc, subs: make(map[string]*nats.Subscription)}, nil
}

// PublishRoomEvent sends evt as JSON on the room subject.
func (c *NATSClient) PublishRoomEvent(roomID string, evt models.ChatEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}
	return c.pub.Publish(RoomSubject(roomID), data)
}

// SubscribeRoom calls handle for every event of the room. Use "*" to follow all rooms.
func (c *NATSClient) SubscribeRoom(roomID string, handle func(roomID string, evt models.ChatEvent)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.subs[roomID]; exists {
		return nil
	}
	sub, err := c.Conn.Subscribe(RoomSubject(roomID), func(msg *nats.Msg) {
		var evt models.ChatEvent
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			return
		}
		handle(msg.Subject[len(SubjectPrefix):], evt)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to room %s: %w", roomID, err)
	}
	c.subs[roomID] = sub
	return nil
}

// Close drops all subscriptions and the connection.
func (c *NATSClient) Close() {
	c.mu.Lock()
	for id, sub := range c.subs {
		_ = sub.Unsubscribe()
		delete(c.subs, id)
	}
	c.mu.Unlock()
	if c.Conn != nil {
		c.Conn.Close()
	}
}
