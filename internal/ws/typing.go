package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TypingTTL bounds how long a typing indicator survives without a stop
// event. Clients auto-stop after a few seconds of inactivity; the TTL is
// the backstop for stop events lost in transit.
const TypingTTL = 30 * time.Second

// TypingTracker records who is typing in which conversation. Stop events
// are best-effort, so readers must treat entries older than TypingTTL as
// expired and Prune must run periodically.
type TypingTracker struct {
	mu sync.Mutex
	// conversationID -> userID -> time of last typing_start
	typing map[uuid.UUID]map[uuid.UUID]time.Time
}

func NewTypingTracker() *TypingTracker {
	return &TypingTracker{typing: make(map[uuid.UUID]map[uuid.UUID]time.Time)}
}

func (t *TypingTracker) Start(conversationID, userID uuid.UUID, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.typing[conversationID]; !ok {
		t.typing[conversationID] = make(map[uuid.UUID]time.Time)
	}
	t.typing[conversationID][userID] = at
}

func (t *TypingTracker) Stop(conversationID, userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if users, ok := t.typing[conversationID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(t.typing, conversationID)
		}
	}
}

// ActiveTypers returns who is typing in the conversation, skipping entries
// past the TTL even before Prune catches them.
func (t *TypingTracker) ActiveTypers(conversationID uuid.UUID, now time.Time) []uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()

	users, ok := t.typing[conversationID]
	if !ok {
		return nil
	}
	var active []uuid.UUID
	for userID, started := range users {
		if now.Sub(started) < TypingTTL {
			active = append(active, userID)
		}
	}
	return active
}

// Prune drops expired entries. Run it on a ticker.
func (t *TypingTracker) Prune(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for convID, users := range t.typing {
		for userID, started := range users {
			if now.Sub(started) >= TypingTTL {
				delete(users, userID)
			}
		}
		if len(users) == 0 {
			delete(t.typing, convID)
		}
	}
}
