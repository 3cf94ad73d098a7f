package ws

import (
	"encoding/json"
	"time"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/google/uuid"
)

// EventKind tags the realtime event union. Consumers switch on the kind and
// decode the matching payload; unknown kinds are ignored so old clients
// survive new event types.
type EventKind string

const (
	EventNewMessage      EventKind = "new_message"
	EventStatusUpdate    EventKind = "status_update"
	EventTypingStart     EventKind = "typing_start"
	EventTypingStop      EventKind = "typing_stop"
	EventPresenceChanged EventKind = "presence_changed"
)

// Control kinds sent client-to-server only; never fanned out.
const (
	ControlSubscribe   EventKind = "subscribe"
	ControlUnsubscribe EventKind = "unsubscribe"
)

// SubscribePayload is the body of a subscribe control frame.
type SubscribePayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

func (e *Event) DecodeSubscribe() (*SubscribePayload, error) {
	var p SubscribePayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Event is the wire form of a realtime event.
type Event struct {
	Kind    EventKind       `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// NewMessagePayload carries the full message entity so consumers can order
// by created_at rather than arrival.
type NewMessagePayload struct {
	Message *model.Message `json:"message"`
}

// StatusUpdatePayload announces a delivery-state transition.
type StatusUpdatePayload struct {
	MessageID      uuid.UUID           `json:"message_id"`
	ConversationID uuid.UUID           `json:"conversation_id"`
	Status         model.MessageStatus `json:"status"`
}

// TypingPayload is shared by typing_start and typing_stop.
type TypingPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	At             time.Time `json:"at"`
}

// PresencePayload announces a user's effective presence.
type PresencePayload struct {
	UserID   uuid.UUID            `json:"user_id"`
	Presence model.PresenceStatus `json:"presence"`
	LastSeen *time.Time           `json:"last_seen,omitempty"`
}

func newEvent(kind EventKind, payload interface{}) *Event {
	data, err := json.Marshal(payload)
	if err != nil {
		return &Event{Kind: kind}
	}
	return &Event{Kind: kind, Payload: data}
}

func NewMessageEvent(msg *model.Message) *Event {
	return newEvent(EventNewMessage, NewMessagePayload{Message: msg})
}

func StatusUpdateEvent(messageID, conversationID uuid.UUID, status model.MessageStatus) *Event {
	return newEvent(EventStatusUpdate, StatusUpdatePayload{
		MessageID:      messageID,
		ConversationID: conversationID,
		Status:         status,
	})
}

func TypingEvent(kind EventKind, conversationID, userID uuid.UUID) *Event {
	return newEvent(kind, TypingPayload{
		ConversationID: conversationID,
		UserID:         userID,
		At:             time.Now(),
	})
}

func PresenceEvent(userID uuid.UUID, presence model.PresenceStatus, lastSeen *time.Time) *Event {
	return newEvent(EventPresenceChanged, PresencePayload{
		UserID:   userID,
		Presence: presence,
		LastSeen: lastSeen,
	})
}

// DecodeNewMessage decodes the payload of a new_message event.
func (e *Event) DecodeNewMessage() (*NewMessagePayload, error) {
	var p NewMessagePayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (e *Event) DecodeStatusUpdate() (*StatusUpdatePayload, error) {
	var p StatusUpdatePayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (e *Event) DecodeTyping() (*TypingPayload, error) {
	var p TypingPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (e *Event) DecodePresence() (*PresencePayload, error) {
	var p PresencePayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
