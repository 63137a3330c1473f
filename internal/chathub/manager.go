package chathub

import (
	"context"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"wellnesschat/backend/internal/config"
	"wellnesschat/backend/internal/models"
	"wellnesschat/backend/internal/storage"
	"wellnesschat/backend/pkg/logger"
)

// EventPublisher fans room events out to external subscribers (audit, analytics).
type EventPublisher interface {
	PublishRoomEvent(roomID string, evt models.ChatEvent) error
}

// Options tune the hub.
type Options struct {
	// WaitTTL bounds how long a participant may sit in the waiting pool. 0 disables expiry.
	WaitTTL time.Duration
	// SweepInterval is how often expired waiting entries are collected.
	SweepInterval time.Duration
	Retention     config.RetentionPolicy
}

// ManagerService owns the waiting pool, the room registry and the push clients.
// Every mutation runs on the goroutine started by Run, one at a time.
type ManagerService struct {
	pool  *WaitingPool
	rooms *RoomRegistry

	// clients maps a participant id to its push connection.
	clients map[string]Client
	// partnerLeft holds participants whose partner left since their last status read.
	partnerLeft map[string]bool
	// dropped holds participants whose client was dropped mid-command; they leave
	// once the command finishes.
	dropped []string

	commands     chan func()
	registerCh   chan Client
	unregisterCh chan Client
	stopped      chan struct{}

	repo      storage.StateRepository
	archive   storage.Archive
	publisher EventPublisher

	opts     Options
	log      logger.Logger
	now      func() time.Time
	degraded atomic.Bool
}

// NewManagerService creates a hub with no persistence. Call the setters before Run.
func NewManagerService(log logger.Logger, opts Options) *ManagerService {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = config.DefaultSweepPeriod
	}
	if opts.Retention == "" {
		opts.Retention = config.RetentionArchive
	}
	return &ManagerService{
		pool:         NewWaitingPool(),
		rooms:        NewRoomRegistry(),
		clients:      make(map[string]Client),
		partnerLeft:  make(map[string]bool),
		commands:     make(chan func()),
		registerCh:   make(chan Client),
		unregisterCh: make(chan Client),
		stopped:      make(chan struct{}),
		opts:         opts,
		log:          log,
		now:          time.Now,
	}
}

// SetStateRepository sets where the waiting pool and active rooms are saved after every change.
func (m *ManagerService) SetStateRepository(repo storage.StateRepository) { m.repo = repo }

// SetArchive sets the audit store for rooms and, under the archive policy, their transcripts.
func (m *ManagerService) SetArchive(a storage.Archive) { m.archive = a }

// SetEventPublisher sets the sink for room events. Nil disables publishing.
func (m *ManagerService) SetEventPublisher(p EventPublisher) { m.publisher = p }

// Degraded reports whether the last state save failed and the hub runs in memory only.
func (m *ManagerService) Degraded() bool { return m.degraded.Load() }

// Run is the hub loop. It returns when ctx is cancelled.
func (m *ManagerService) Run(ctx context.Context) {
	defer close(m.stopped)
	m.log.Infof("Chat hub started (wait ttl %s, retention %s)", m.opts.WaitTTL, m.opts.Retention)

	var sweep <-chan time.Time
	if m.opts.WaitTTL > 0 {
		ticker := time.NewTicker(m.opts.SweepInterval)
		defer ticker.Stop()
		sweep = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			for id, c := range m.clients {
				c.Close()
				delete(m.clients, id)
			}
			m.log.Infof("Chat hub stopped")
			return

		case cmd := <-m.commands:
			cmd()

		case c := <-m.registerCh:
			m.register(c)

		case c := <-m.unregisterCh:
			m.unregister(c)

		case now := <-sweep:
			m.expireWaiting(now)
		}
		m.leaveDropped()
	}
}

// leaveDropped treats every dropped client as a disconnect. A leave may drop the
// partner's client in turn, so the queue is drained until empty.
func (m *ManagerService) leaveDropped() {
	for len(m.dropped) > 0 {
		id := m.dropped[0]
		m.dropped = m.dropped[1:]
		if _, ok := m.clients[id]; ok {
			continue
		}
		if _, changed := m.leave(id); changed {
			m.persist()
		}
	}
	m.dropped = nil
}

// exec runs fn on the hub goroutine and waits for it to finish.
func (m *ManagerService) exec(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case m.commands <- func() { defer close(done); fn() }:
	case <-ctx.Done():
		return ctx.Err()
	case <-m.stopped:
		return ErrHubStopped
	}
	<-done
	return nil
}

// Register attaches a push client to its participant id. A previous client for the
// same participant is closed.
func (m *ManagerService) Register(c Client) {
	select {
	case m.registerCh <- c:
	case <-m.stopped:
		c.Close()
	}
}

// Unregister detaches a push client. Losing the connection counts as leaving.
func (m *ManagerService) Unregister(c Client) {
	select {
	case m.unregisterCh <- c:
	case <-m.stopped:
	}
}

func (m *ManagerService) register(c Client) {
	id := c.GetUserID()
	if old, ok := m.clients[id]; ok && old != c {
		old.Close()
	}
	m.clients[id] = c
	m.log.Infof("Client registered: %s", id)
}

func (m *ManagerService) unregister(c Client) {
	id := c.GetUserID()
	current, ok := m.clients[id]
	if !ok || current != c {
		return
	}
	delete(m.clients, id)
	c.Close()
	m.log.Infof("Client unregistered: %s", id)
	if _, changed := m.leave(id); changed {
		m.persist()
	}
}

// Restore loads the saved state. A failing repository leaves the hub empty and degraded.
func (m *ManagerService) Restore(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}
	state, err := m.repo.Load(ctx)
	if err != nil {
		m.degraded.Store(true)
		m.log.Warnf("Failed to load peer chat state, starting empty in memory-only mode: %v", err)
		return err
	}
	return m.exec(ctx, func() { m.load(state) })
}

func (m *ManagerService) load(state models.State) {
	skipped := m.rooms.Load(state.Rooms)
	for _, id := range skipped {
		m.log.Warnf("Skipping invalid saved room %q", id)
	}
	m.pool = NewWaitingPool()
	for _, e := range state.Waiting {
		if validParticipantID(e.ParticipantID) != nil || m.rooms.RoomOf(e.ParticipantID) != nil {
			continue
		}
		m.pool.Add(e)
	}
	m.log.Infof("Restored %d rooms and %d waiting participants", m.rooms.Len(), m.pool.Len())
}

// RequestJoin pairs the participant with the oldest other waiting participant, or
// queues them. Repeated joins while waiting do not grow the pool.
func (m *ManagerService) RequestJoin(ctx context.Context, participantID, topic string) (models.MatchResult, error) {
	if err := validParticipantID(participantID); err != nil {
		return models.MatchResult{}, err
	}
	topic = normalizeTopic(topic)

	var (
		res    models.MatchResult
		cmdErr error
	)
	err := m.exec(ctx, func() { res, cmdErr = m.join(participantID, topic) })
	if err != nil {
		return models.MatchResult{}, err
	}
	return res, cmdErr
}

func (m *ManagerService) join(id, topic string) (models.MatchResult, error) {
	if m.rooms.RoomOf(id) != nil {
		return models.MatchResult{}, ErrAlreadyInRoom
	}
	delete(m.partnerLeft, id)

	if partner, ok := m.pool.PopPartner(id); ok {
		m.pool.Remove(id)
		roomTopic := partner.Topic
		if roomTopic == "" {
			roomTopic = topic
		}
		room, err := m.rooms.Create(
			models.Member{ParticipantID: partner.ParticipantID, Topic: partner.Topic},
			models.Member{ParticipantID: id, Topic: topic},
			roomTopic,
		)
		if err != nil {
			// Create only fails on broken invariants; put the partner back.
			m.pool.Add(partner)
			m.log.Errorf("Failed to create room for %s and %s: %v", partner.ParticipantID, id, err)
			return models.MatchResult{}, err
		}

		m.archiveRoom(room)
		evt := models.ChatEvent{Type: models.EventMatchFound, RoomID: room.ID, Timestamp: m.now()}
		m.deliver(partner.ParticipantID, evt)
		m.deliver(id, evt)
		m.publish(room.ID, evt)
		m.persist()

		m.log.Infof("Match found: %s and %s in room %s", partner.ParticipantID, id, room.ID)
		return models.MatchResult{
			Matched:   true,
			RoomID:    room.ID,
			PartnerID: partner.ParticipantID,
			QueueSize: m.pool.Len(),
		}, nil
	}

	if m.pool.Add(models.WaitingEntry{ParticipantID: id, Topic: topic, JoinedAt: m.now()}) {
		m.persist()
		m.log.Infof("Participant %s added to waiting pool (size %d)", id, m.pool.Len())
	}
	m.deliver(id, models.ChatEvent{Type: models.EventStatus, QueueSize: m.pool.Len(), Timestamp: m.now()})
	return models.MatchResult{Matched: false, QueueSize: m.pool.Len()}, nil
}

// Leave removes the participant from the pool and tears down their room, telling the
// remaining peer. Leaving while idle is a no-op.
func (m *ManagerService) Leave(ctx context.Context, participantID string) (models.LeaveResult, error) {
	if err := validParticipantID(participantID); err != nil {
		return models.LeaveResult{}, err
	}
	var res models.LeaveResult
	err := m.exec(ctx, func() {
		var changed bool
		res, changed = m.leave(participantID)
		if changed {
			m.persist()
		}
	})
	return res, err
}

func (m *ManagerService) leave(id string) (models.LeaveResult, bool) {
	var res models.LeaveResult
	delete(m.partnerLeft, id)

	if m.pool.Remove(id) {
		res.WasWaiting = true
		m.log.Infof("Participant %s left the waiting pool", id)
	}

	if room := m.rooms.RoomOf(id); room != nil {
		partner := room.Partner(id)
		res.RoomID = room.ID
		res.PartnerID = partner

		m.endRoom(room.ID)
		m.partnerLeft[partner] = true
		evt := models.ChatEvent{Type: models.EventPeerLeft, RoomID: room.ID, SenderID: id, Timestamp: m.now()}
		m.deliver(partner, evt)
		m.publish(room.ID, evt)
		m.log.Infof("Participant %s left room %s", id, room.ID)
	}

	return res, res.WasWaiting || res.RoomID != ""
}

// EndRoom tears down a room on behalf of an operator. Both members are told their peer left.
func (m *ManagerService) EndRoom(ctx context.Context, roomID string) error {
	var cmdErr error
	err := m.exec(ctx, func() {
		room := m.rooms.Get(roomID)
		if room == nil {
			cmdErr = ErrNoActiveRoom
			return
		}
		members := room.Members
		m.endRoom(roomID)
		evt := models.ChatEvent{Type: models.EventPeerLeft, RoomID: roomID, Timestamp: m.now()}
		for _, mem := range members {
			m.partnerLeft[mem.ParticipantID] = true
			m.deliver(mem.ParticipantID, evt)
		}
		m.publish(roomID, evt)
		m.persist()
	})
	if err != nil {
		return err
	}
	return cmdErr
}

// endRoom removes the room and applies the retention policy to its transcript.
func (m *ManagerService) endRoom(roomID string) {
	room, ok := m.rooms.End(roomID)
	if !ok || m.archive == nil {
		return
	}
	if m.opts.Retention == config.RetentionArchive {
		if err := m.archive.SaveTranscript(room.ID, room.Transcript); err != nil {
			m.log.Warnf("Failed to archive transcript of room %s: %v", room.ID, err)
		}
	}
	if err := m.archive.CloseRoom(room.ID); err != nil {
		m.log.Warnf("Failed to close archived room %s: %v", room.ID, err)
	}
}

func (m *ManagerService) archiveRoom(room *models.Room) {
	if m.archive == nil {
		return
	}
	rec := &models.ChatRoom{
		RoomID:    room.ID,
		User1ID:   room.Members[0].ParticipantID,
		User2ID:   room.Members[1].ParticipantID,
		Topic:     room.Topic,
		IsActive:  true,
		StartedAt: room.CreatedAt,
	}
	if err := m.archive.SaveRoom(rec); err != nil {
		m.log.Warnf("Error saving new room %s: %v", room.ID, err)
	}
}

// Notify pushes an event to a participant's push client, if one is registered.
func (m *ManagerService) Notify(ctx context.Context, participantID string, evt models.ChatEvent) error {
	return m.exec(ctx, func() { m.deliver(participantID, evt) })
}

// deliver never blocks: a client whose buffer is full is dropped and its participant
// leaves after the current command.
func (m *ManagerService) deliver(participantID string, evt models.ChatEvent) {
	c, ok := m.clients[participantID]
	if !ok {
		return
	}
	select {
	case c.GetSendChannel() <- evt:
	default:
		m.log.Warnf("Send buffer full for %s, dropping client", participantID)
		delete(m.clients, participantID)
		c.Close()
		m.dropped = append(m.dropped, participantID)
	}
}

func (m *ManagerService) publish(roomID string, evt models.ChatEvent) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.PublishRoomEvent(roomID, evt); err != nil {
		m.log.Warnf("Failed to publish %s event for room %s: %v", evt.Type, roomID, err)
	}
}

func (m *ManagerService) expireWaiting(now time.Time) {
	expired := m.pool.Expire(now, m.opts.WaitTTL)
	if len(expired) == 0 {
		return
	}
	for _, e := range expired {
		m.deliver(e.ParticipantID, models.ChatEvent{Type: models.EventWaitExpired, Timestamp: now})
		m.log.Infof("Waiting entry for %s expired after %s", e.ParticipantID, now.Sub(e.JoinedAt).Round(time.Second))
	}
	m.persist()
}

// persist saves the whole state. It runs on the hub goroutine so saves never interleave
// with another mutation.
func (m *ManagerService) persist() {
	if m.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), config.PersistTimeout)
	defer cancel()

	if err := m.repo.Save(ctx, m.snapshot()); err != nil {
		if !m.degraded.Swap(true) {
			m.log.Warnf("Failed to save peer chat state, continuing in memory only: %v", err)
		}
		return
	}
	if m.degraded.Swap(false) {
		m.log.Infof("Peer chat state saved again, leaving memory-only mode")
	}
}

func (m *ManagerService) snapshot() models.State {
	return models.State{
		Waiting: m.pool.Entries(),
		Rooms:   m.rooms.Snapshot(),
	}
}

func validParticipantID(id string) error {
	if strings.TrimSpace(id) == "" || len(id) > config.MaxParticipantIDLen {
		return ErrInvalidParticipant
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return ErrInvalidParticipant
		}
	}
	return nil
}

func normalizeTopic(topic string) string {
	topic = strings.TrimSpace(topic)
	if r := []rune(topic); len(r) > config.MaxTopicLength {
		topic = string(r[:config.MaxTopicLength])
	}
	return topic
}
