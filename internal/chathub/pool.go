package chathub

import (
	"time"

	"wellnesschat/backend/internal/models"
)

// WaitingPool is the FIFO list of participants waiting for a peer.
// It is not safe for concurrent use; the hub loop owns it.
type WaitingPool struct {
	entries []models.WaitingEntry
}

// NewWaitingPool creates an empty pool.
func NewWaitingPool() *WaitingPool {
	return &WaitingPool{}
}

// Len returns the number of waiting participants.
func (p *WaitingPool) Len() int { return len(p.entries) }

// Contains reports whether id is waiting.
func (p *WaitingPool) Contains(id string) bool {
	return p.Position(id) > 0
}

// Position returns the 1-based queue position of id, or 0 when absent.
func (p *WaitingPool) Position(id string) int {
	for i, e := range p.entries {
		if e.ParticipantID == id {
			return i + 1
		}
	}
	return 0
}

// Add appends the entry unless the participant is already waiting.
// It reports whether the pool grew.
func (p *WaitingPool) Add(entry models.WaitingEntry) bool {
	if p.Contains(entry.ParticipantID) {
		return false
	}
	p.entries = append(p.entries, entry)
	return true
}

// Remove drops id from the pool and reports whether it was there.
func (p *WaitingPool) Remove(id string) bool {
	for i, e := range p.entries {
		if e.ParticipantID == id {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			return true
		}
	}
	return false
}

// PopPartner removes and returns the oldest entry whose id differs from requester.
func (p *WaitingPool) PopPartner(requester string) (models.WaitingEntry, bool) {
	for i, e := range p.entries {
		if e.ParticipantID == requester {
			continue
		}
		p.entries = append(p.entries[:i], p.entries[i+1:]...)
		return e, true
	}
	return models.WaitingEntry{}, false
}

// Expire removes entries that have waited longer than ttl and returns them.
// A non-positive ttl disables expiry.
func (p *WaitingPool) Expire(now time.Time, ttl time.Duration) []models.WaitingEntry {
	if ttl <= 0 {
		return nil
	}
	var expired []models.WaitingEntry
	kept := p.entries[:0]
	for _, e := range p.entries {
		if now.Sub(e.JoinedAt) >= ttl {
			expired = append(expired, e)
			continue
		}
		kept = append(kept, e)
	}
	p.entries = kept
	return expired
}

// Entries returns a copy of the waiting list in queue order.
func (p *WaitingPool) Entries() []models.WaitingEntry {
	return append([]models.WaitingEntry(nil), p.entries...)
}
