package ws

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(h *Hub, userID uuid.UUID) *Client {
	c := NewClient(h, nil, userID, "tester")
	h.clients[userID] = map[*Client]bool{c: true}
	return c
}

func drain(c *Client) []Event {
	var events []Event
	for {
		select {
		case data := <-c.send:
			var e Event
			if err := json.Unmarshal(data, &e); err == nil {
				events = append(events, e)
			}
		default:
			return events
		}
	}
}

func TestHubLocalUserDelivery(t *testing.T) {
	h := NewHub(nil, nil)
	userA := uuid.New()
	userB := uuid.New()
	clientA := newTestClient(h, userA)
	clientB := newTestClient(h, userB)

	event := TypingEvent(EventTypingStart, uuid.New(), userB)
	h.sendToLocalUser(userA, event)

	require.Len(t, drain(clientA), 1)
	assert.Empty(t, drain(clientB))
}

func TestHubSubscriptionExclusivity(t *testing.T) {
	h := NewHub(nil, nil)
	user := uuid.New()
	client := newTestClient(h, user)

	convA := uuid.New()
	convB := uuid.New()

	h.Subscribe(client, convA)
	h.sendToLocalConversation(convA, TypingEvent(EventTypingStart, convA, uuid.New()))
	require.Len(t, drain(client), 1)

	// subscribing elsewhere releases the first thread
	h.Subscribe(client, convB)
	h.sendToLocalConversation(convA, TypingEvent(EventTypingStart, convA, uuid.New()))
	assert.Empty(t, drain(client))

	h.sendToLocalConversation(convB, TypingEvent(EventTypingStart, convB, uuid.New()))
	assert.Len(t, drain(client), 1)

	h.Unsubscribe(client)
	h.sendToLocalConversation(convB, TypingEvent(EventTypingStart, convB, uuid.New()))
	assert.Empty(t, drain(client))
}

func TestHubConversationDeliveryMultipleViewers(t *testing.T) {
	h := NewHub(nil, nil)
	conv := uuid.New()

	clientA := newTestClient(h, uuid.New())
	clientB := newTestClient(h, uuid.New())
	h.Subscribe(clientA, conv)
	h.Subscribe(clientB, conv)

	h.sendToLocalConversation(conv, TypingEvent(EventTypingStart, conv, uuid.New()))

	assert.Len(t, drain(clientA), 1)
	assert.Len(t, drain(clientB), 1)
}

func TestHubIsUserOnline(t *testing.T) {
	h := NewHub(nil, nil)
	user := uuid.New()
	assert.False(t, h.IsUserOnline(user))

	newTestClient(h, user)
	assert.True(t, h.IsUserOnline(user))
}
