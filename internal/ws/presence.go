package ws

import (
	"sync"
	"time"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/google/uuid"
)

// PresenceTracker keeps the last announced presence per user, fed from
// presence_changed events. Reads apply the staleness rule: a user whose
// last_seen is too old reads as offline no matter what was stored.
type PresenceTracker struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]presenceEntry
}

type presenceEntry struct {
	status   model.PresenceStatus
	lastSeen *time.Time
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{entries: make(map[uuid.UUID]presenceEntry)}
}

func (p *PresenceTracker) Update(userID uuid.UUID, status model.PresenceStatus, lastSeen *time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[userID] = presenceEntry{status: status, lastSeen: lastSeen}
}

// EffectiveStatus resolves a user's presence for display.
func (p *PresenceTracker) EffectiveStatus(userID uuid.UUID, now time.Time) model.PresenceStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.entries[userID]
	if !ok {
		return model.PresenceOffline
	}
	return model.EffectivePresence(entry.status, entry.lastSeen, now)
}

func (p *PresenceTracker) Forget(userID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, userID)
}
