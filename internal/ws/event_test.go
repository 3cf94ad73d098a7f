package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRoundTrip(t *testing.T) {
	conv := uuid.New()
	user := uuid.New()

	t.Run("new_message", func(t *testing.T) {
		msg := &model.Message{
			ID:             uuid.New(),
			ConversationID: conv,
			SenderID:       user,
			Content:        "hi there",
			CreatedAt:      time.Now().UTC(),
		}
		event := NewMessageEvent(msg)
		assert.Equal(t, EventNewMessage, event.Kind)

		data, err := json.Marshal(event)
		require.NoError(t, err)

		var decoded Event
		require.NoError(t, json.Unmarshal(data, &decoded))
		payload, err := decoded.DecodeNewMessage()
		require.NoError(t, err)
		assert.Equal(t, msg.ID, payload.Message.ID)
		assert.Equal(t, "hi there", payload.Message.Content)
	})

	t.Run("status_update", func(t *testing.T) {
		msgID := uuid.New()
		event := StatusUpdateEvent(msgID, conv, model.MessageStatusDelivered)

		data, err := json.Marshal(event)
		require.NoError(t, err)

		var decoded Event
		require.NoError(t, json.Unmarshal(data, &decoded))
		payload, err := decoded.DecodeStatusUpdate()
		require.NoError(t, err)
		assert.Equal(t, msgID, payload.MessageID)
		assert.Equal(t, model.MessageStatusDelivered, payload.Status)
	})

	t.Run("typing", func(t *testing.T) {
		event := TypingEvent(EventTypingStart, conv, user)
		payload, err := event.DecodeTyping()
		require.NoError(t, err)
		assert.Equal(t, conv, payload.ConversationID)
		assert.Equal(t, user, payload.UserID)
		assert.False(t, payload.At.IsZero())
	})

	t.Run("presence", func(t *testing.T) {
		seen := time.Now().UTC()
		event := PresenceEvent(user, model.PresenceAway, &seen)
		payload, err := event.DecodePresence()
		require.NoError(t, err)
		assert.Equal(t, model.PresenceAway, payload.Presence)
		require.NotNil(t, payload.LastSeen)
	})

	t.Run("unknown kind passes through decode", func(t *testing.T) {
		raw := []byte(`{"kind":"something_new","payload":{}}`)
		var decoded Event
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, EventKind("something_new"), decoded.Kind)
	})
}
