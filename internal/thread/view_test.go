package thread

import (
	"sort"
	"testing"
	"time"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/carecollective/careconnect/internal/ws"
	"github.com/carecollective/careconnect/pkg/apperr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves pages from an in-memory message list, newest trimmed
// the same way the gateway does.
type fakeSource struct {
	messages []model.Message
	sendErr  error
	sent     []string
}

func (f *fakeSource) GetMessages(conversationID, userID uuid.UUID, before *time.Time, limit int) (*model.MessagePage, error) {
	var pool []model.Message
	for _, m := range f.messages {
		if m.ConversationID != conversationID {
			continue
		}
		if before != nil && !m.CreatedAt.Before(*before) {
			continue
		}
		pool = append(pool, m)
	}
	sort.Slice(pool, func(i, j int) bool { return pool[j].Before(&pool[i]) })

	hasMore := len(pool) > limit
	if hasMore {
		pool = pool[:limit]
	}
	for i, j := 0, len(pool)-1; i < j; i, j = i+1, j-1 {
		pool[i], pool[j] = pool[j], pool[i]
	}
	return &model.MessagePage{Items: pool, Limit: limit, HasMore: hasMore}, nil
}

func (f *fakeSource) SendMessage(senderID, conversationID uuid.UUID, req model.SendMessageRequest) (*model.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, req.Content)
	msg := model.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        req.Content,
		MessageType:    model.MessageTypeText,
		Status:         model.MessageStatusSent,
		CreatedAt:      time.Now(),
	}
	f.messages = append(f.messages, msg)
	return &msg, nil
}

type fakeSubscriber struct {
	current    *uuid.UUID
	subscribes int
}

func (f *fakeSubscriber) Subscribe(conversationID uuid.UUID) {
	f.current = &conversationID
	f.subscribes++
}

func (f *fakeSubscriber) Unsubscribe() { f.current = nil }

func seedThread(convID uuid.UUID, n int) []model.Message {
	base := time.Date(2026, 1, 13, 8, 0, 0, 0, time.UTC)
	msgs := make([]model.Message, 0, n)
	for i := 0; i < n; i++ {
		msgs = append(msgs, model.Message{
			ID:             uuid.New(),
			ConversationID: convID,
			SenderID:       alice,
			RecipientID:    bob,
			Content:        "hello",
			MessageType:    model.MessageTypeText,
			Status:         model.MessageStatusSent,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		})
	}
	return msgs
}

func TestThreadViewOpen(t *testing.T) {
	convID := uuid.New()

	t.Run("long thread loads newest page with has_more", func(t *testing.T) {
		source := &fakeSource{messages: seedThread(convID, 51)}
		sub := &fakeSubscriber{}
		view := NewThreadView(source, sub, nil, bob)

		require.NoError(t, view.Open(convID))

		assert.Len(t, view.Messages, 50)
		assert.True(t, view.HasMore)
		// chronological, oldest first
		for i := 1; i < len(view.Messages); i++ {
			assert.True(t, view.Messages[i-1].Before(&view.Messages[i]))
		}
		require.NotNil(t, sub.current)
		assert.Equal(t, convID, *sub.current)
	})

	t.Run("exactly one page means no more", func(t *testing.T) {
		source := &fakeSource{messages: seedThread(convID, 50)}
		view := NewThreadView(source, &fakeSubscriber{}, nil, bob)

		require.NoError(t, view.Open(convID))
		assert.Len(t, view.Messages, 50)
		assert.False(t, view.HasMore)
	})

	t.Run("empty thread", func(t *testing.T) {
		view := NewThreadView(&fakeSource{}, &fakeSubscriber{}, nil, bob)
		require.NoError(t, view.Open(convID))
		assert.Empty(t, view.Messages)
		assert.False(t, view.HasMore)
	})
}

func TestThreadViewLoadOlder(t *testing.T) {
	convID := uuid.New()
	source := &fakeSource{messages: seedThread(convID, 80)}
	view := NewThreadView(source, &fakeSubscriber{}, nil, bob)

	require.NoError(t, view.Open(convID))
	require.Len(t, view.Messages, 50)
	oldestBefore := view.Messages[0].CreatedAt

	require.NoError(t, view.LoadOlder())

	assert.Len(t, view.Messages, 75)
	assert.True(t, view.Messages[0].CreatedAt.Before(oldestBefore))
	assert.True(t, view.HasMore)

	require.NoError(t, view.LoadOlder())
	assert.Len(t, view.Messages, 80)
	assert.False(t, view.HasMore)

	// nothing left; call is a no-op
	require.NoError(t, view.LoadOlder())
	assert.Len(t, view.Messages, 80)
}

func TestThreadViewSend(t *testing.T) {
	convID := uuid.New()

	t.Run("success reloads the thread", func(t *testing.T) {
		source := &fakeSource{messages: seedThread(convID, 3)}
		view := NewThreadView(source, &fakeSubscriber{}, nil, bob)
		require.NoError(t, view.Open(convID))

		require.NoError(t, view.Send("thanks, see you then"))

		assert.Len(t, view.Messages, 4)
		assert.Empty(t, view.FailedSends)
	})

	t.Run("failure keeps the message for retry", func(t *testing.T) {
		source := &fakeSource{
			messages: seedThread(convID, 3),
			sendErr:  apperr.TransientInfra("db down", nil),
		}
		view := NewThreadView(source, &fakeSubscriber{}, nil, bob)
		require.NoError(t, view.Open(convID))

		err := view.Send("thanks, see you then")
		require.Error(t, err)
		require.Len(t, view.FailedSends, 1)
		assert.Equal(t, "thanks, see you then", view.FailedSends[0].Content)

		// retry succeeds once the backend recovers
		source.sendErr = nil
		require.NoError(t, view.Retry(0))
		assert.Empty(t, view.FailedSends)
		assert.Len(t, view.Messages, 4)
	})
}

func TestThreadViewApplyEvent(t *testing.T) {
	convID := uuid.New()
	otherConv := uuid.New()

	t.Run("new message for another conversation is dropped", func(t *testing.T) {
		view := NewThreadView(&fakeSource{}, &fakeSubscriber{}, nil, bob)
		require.NoError(t, view.Open(convID))

		stray := model.Message{ID: uuid.New(), ConversationID: otherConv, SenderID: alice, CreatedAt: time.Now()}
		view.ApplyEvent(ws.NewMessageEvent(&stray))

		assert.Empty(t, view.Messages)
	})

	t.Run("messages order by created_at not arrival", func(t *testing.T) {
		view := NewThreadView(&fakeSource{}, &fakeSubscriber{}, nil, bob)
		require.NoError(t, view.Open(convID))

		base := time.Date(2026, 1, 13, 12, 0, 0, 0, time.UTC)
		later := model.Message{ID: uuid.New(), ConversationID: convID, SenderID: alice, CreatedAt: base.Add(time.Minute)}
		earlier := model.Message{ID: uuid.New(), ConversationID: convID, SenderID: bob, CreatedAt: base}

		view.ApplyEvent(ws.NewMessageEvent(&later))
		view.ApplyEvent(ws.NewMessageEvent(&earlier))

		require.Len(t, view.Messages, 2)
		assert.Equal(t, earlier.ID, view.Messages[0].ID)
		assert.Equal(t, later.ID, view.Messages[1].ID)
	})

	t.Run("duplicate events apply once", func(t *testing.T) {
		view := NewThreadView(&fakeSource{}, &fakeSubscriber{}, nil, bob)
		require.NoError(t, view.Open(convID))

		msg := model.Message{ID: uuid.New(), ConversationID: convID, SenderID: alice, CreatedAt: time.Now()}
		view.ApplyEvent(ws.NewMessageEvent(&msg))
		view.ApplyEvent(ws.NewMessageEvent(&msg))

		assert.Len(t, view.Messages, 1)
	})

	t.Run("status never regresses", func(t *testing.T) {
		source := &fakeSource{messages: seedThread(convID, 1)}
		view := NewThreadView(source, &fakeSubscriber{}, nil, bob)
		require.NoError(t, view.Open(convID))
		msgID := view.Messages[0].ID

		view.ApplyEvent(ws.StatusUpdateEvent(msgID, convID, model.MessageStatusRead))
		assert.Equal(t, model.MessageStatusRead, view.Messages[0].Status)

		// a late delivered update must not undo read
		view.ApplyEvent(ws.StatusUpdateEvent(msgID, convID, model.MessageStatusDelivered))
		assert.Equal(t, model.MessageStatusRead, view.Messages[0].Status)
	})

	t.Run("typing indicators expire", func(t *testing.T) {
		view := NewThreadView(&fakeSource{}, &fakeSubscriber{}, nil, bob)
		require.NoError(t, view.Open(convID))

		view.ApplyEvent(ws.TypingEvent(ws.EventTypingStart, convID, alice))
		assert.Len(t, view.TypingUsers(time.Now()), 1)

		// expired entries disappear even without a stop event
		assert.Empty(t, view.TypingUsers(time.Now().Add(ws.TypingTTL)))

		view.ApplyEvent(ws.TypingEvent(ws.EventTypingStart, convID, alice))
		view.ApplyEvent(ws.TypingEvent(ws.EventTypingStop, convID, alice))
		assert.Empty(t, view.TypingUsers(time.Now()))
	})
}

func TestThreadViewSwitchDiscardsStale(t *testing.T) {
	convA := uuid.New()
	convB := uuid.New()
	source := &fakeSource{messages: append(seedThread(convA, 5), seedThread(convB, 2)...)}
	sub := &fakeSubscriber{}
	view := NewThreadView(source, sub, nil, bob)

	require.NoError(t, view.Open(convA))
	require.Len(t, view.Messages, 5)

	require.NoError(t, view.Open(convB))
	assert.Len(t, view.Messages, 2)
	require.NotNil(t, sub.current)
	assert.Equal(t, convB, *sub.current)

	// events for the old conversation no longer land
	stale := model.Message{ID: uuid.New(), ConversationID: convA, SenderID: alice, CreatedAt: time.Now()}
	view.ApplyEvent(ws.NewMessageEvent(&stale))
	assert.Len(t, view.Messages, 2)
}

type typingEmission struct {
	conversationID uuid.UUID
	typing         bool
}

type fakeEmitter struct {
	emitted []typingEmission
}

func (f *fakeEmitter) EmitTyping(conversationID uuid.UUID, typing bool) {
	f.emitted = append(f.emitted, typingEmission{conversationID, typing})
}

func TestNotifyTyping(t *testing.T) {
	base := time.Date(2026, 1, 13, 8, 0, 0, 0, time.UTC)

	openView := func(t *testing.T) (*ThreadView, *fakeEmitter, uuid.UUID) {
		convID := uuid.New()
		emitter := &fakeEmitter{}
		view := NewThreadView(&fakeSource{}, &fakeSubscriber{}, emitter, bob)
		require.NoError(t, view.Open(convID))
		return view, emitter, convID
	}

	t.Run("burst emits one start and a trailing stop", func(t *testing.T) {
		view, emitter, convID := openView(t)

		view.NotifyTyping(base)
		view.NotifyTyping(base.Add(time.Second))
		view.NotifyTyping(base.Add(2 * time.Second))
		require.Equal(t, []typingEmission{{convID, true}}, emitter.emitted)

		view.PruneTyping(base.Add(2*time.Second + TypingAutoStop))
		assert.Equal(t, []typingEmission{{convID, true}, {convID, false}}, emitter.emitted)
	})

	t.Run("each keystroke pushes the auto-stop out", func(t *testing.T) {
		view, emitter, convID := openView(t)

		view.NotifyTyping(base)
		view.PruneTyping(base.Add(2 * time.Second))
		view.NotifyTyping(base.Add(2 * time.Second))
		view.PruneTyping(base.Add(4 * time.Second))
		assert.Equal(t, []typingEmission{{convID, true}}, emitter.emitted, "quiet for less than the delay")

		view.PruneTyping(base.Add(2*time.Second + TypingAutoStop))
		assert.Equal(t, []typingEmission{{convID, true}, {convID, false}}, emitter.emitted)
	})

	t.Run("a new burst after the stop emits start again", func(t *testing.T) {
		view, emitter, convID := openView(t)

		view.NotifyTyping(base)
		view.PruneTyping(base.Add(TypingAutoStop))
		view.NotifyTyping(base.Add(10 * time.Second))
		assert.Equal(t, []typingEmission{{convID, true}, {convID, false}, {convID, true}}, emitter.emitted)
	})

	t.Run("sending stops the indicator immediately", func(t *testing.T) {
		view, emitter, convID := openView(t)

		view.NotifyTyping(base)
		require.NoError(t, view.Send("on my way over now"))
		assert.Equal(t, []typingEmission{{convID, true}, {convID, false}}, emitter.emitted)
	})

	t.Run("closing the view stops the indicator", func(t *testing.T) {
		view, emitter, convID := openView(t)

		view.NotifyTyping(base)
		view.Close()
		assert.Equal(t, []typingEmission{{convID, true}, {convID, false}}, emitter.emitted)

		view.NotifyTyping(base.Add(time.Second))
		assert.Len(t, emitter.emitted, 2, "no conversation open, nothing to emit")
	})
}
