package chathub_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"wellnesschat/backend/internal/chathub"
	"wellnesschat/backend/internal/config"
	"wellnesschat/backend/internal/models"
	"wellnesschat/backend/pkg/logger"

	"github.com/stretchr/testify/mock"
)

// MockClient is a test double for the chathub.Client interface.
type MockClient struct {
	userID string
	send   chan models.ChatEvent

	mu     sync.Mutex
	closed bool
}

func newMockClient(id string) *MockClient {
	return &MockClient{
		userID: id,
		send:   make(chan models.ChatEvent, 32), // Buffered to prevent drops in tests
	}
}

// newSlowMockClient returns a client whose buffer holds only size events and is never drained.
func newSlowMockClient(id string, size int) *MockClient {
	return &MockClient{userID: id, send: make(chan models.ChatEvent, size)}
}

func (c *MockClient) GetUserID() string                       { return c.userID }
func (c *MockClient) GetSendChannel() chan<- models.ChatEvent { return c.send }
func (c *MockClient) Run()                                    {}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// DrainEvents returns everything currently buffered.
func (c *MockClient) DrainEvents() []models.ChatEvent {
	var events []models.ChatEvent
	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				return events
			}
			events = append(events, evt)
		default:
			return events
		}
	}
}

// WaitFor reads events until one of type typ arrives or the timeout elapses.
func (c *MockClient) WaitFor(t *testing.T, typ models.EventType) models.ChatEvent {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				t.Fatalf("client %s closed while waiting for %s", c.userID, typ)
			}
			if evt.Type == typ {
				return evt
			}
		case <-timeout:
			t.Fatalf("client %s did not receive %s", c.userID, typ)
		}
	}
}

// MockArchive is a testify mock of storage.Archive.
type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) SaveRoom(room *models.ChatRoom) error {
	args := m.Called(room)
	return args.Error(0)
}

func (m *MockArchive) CloseRoom(roomID string) error {
	args := m.Called(roomID)
	return args.Error(0)
}

func (m *MockArchive) SaveTranscript(roomID string, msgs []models.Message) error {
	args := m.Called(roomID, msgs)
	return args.Error(0)
}

// MockStateRepository is a testify mock of storage.StateRepository.
type MockStateRepository struct {
	mock.Mock
}

func (m *MockStateRepository) Load(ctx context.Context) (models.State, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.State), args.Error(1)
}

func (m *MockStateRepository) Save(ctx context.Context, state models.State) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

// MockPublisher records published room events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishRoomEvent(roomID string, evt models.ChatEvent) error {
	args := m.Called(roomID, evt)
	return args.Error(0)
}

// createTestHub builds a hub with quiet logging and runs it until the test ends.
func createTestHub(t *testing.T, opts chathub.Options, setup ...func(*chathub.ManagerService)) *chathub.ManagerService {
	t.Helper()
	if opts.Retention == "" {
		opts.Retention = config.RetentionArchive
	}
	hub := chathub.NewManagerService(logger.NewLogger("off"), opts)
	for _, fn := range setup {
		fn(hub)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}
