package thread

import (
	"time"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/carecollective/careconnect/internal/ws"
	"github.com/google/uuid"
)

// Page sizes for the thread view: a bigger first fetch, smaller batches
// when scrolling back through history.
const (
	InitialPageSize = 50
	OlderBatchSize  = 25
)

// MessageSource is what the view needs from the gateway.
type MessageSource interface {
	GetMessages(conversationID, userID uuid.UUID, before *time.Time, limit int) (*model.MessagePage, error)
	SendMessage(senderID, conversationID uuid.UUID, req model.SendMessageRequest) (*model.Message, error)
}

// Subscriber manages the view's exclusive realtime subscription.
type Subscriber interface {
	Subscribe(conversationID uuid.UUID)
	Unsubscribe()
}

// TypingAutoStop is how long after the last keystroke the outgoing typing
// indicator clears itself when no explicit stop fires.
const TypingAutoStop = 3 * time.Second

// TypingEmitter pushes the viewer's own typing state to the realtime bus.
type TypingEmitter interface {
	EmitTyping(conversationID uuid.UUID, typing bool)
}

// FailedSend is a message that never reached the server, kept locally so
// the user can retry. The failed state exists only here; it is never
// persisted.
type FailedSend struct {
	Content string
	At      time.Time
}

// ThreadView is the state of one open conversation. All methods run on the
// client's single event loop, so no locking.
type ThreadView struct {
	source     MessageSource
	subscriber Subscriber
	emitter    TypingEmitter
	typing     *ws.TypingTracker

	UserID         uuid.UUID
	ConversationID uuid.UUID

	Messages    []model.Message
	HasMore     bool
	FailedSends []FailedSend

	sendInFlight  bool
	loadGen       int
	typingSent    bool
	lastKeystroke time.Time
}

func NewThreadView(source MessageSource, subscriber Subscriber, emitter TypingEmitter, userID uuid.UUID) *ThreadView {
	return &ThreadView{
		source:     source,
		subscriber: subscriber,
		emitter:    emitter,
		typing:     ws.NewTypingTracker(),
		UserID:     userID,
	}
}

// Open switches the view to a conversation: the old subscription is
// released, the new one taken, and the newest page loaded. A response that
// lands after the view has moved on is discarded.
func (v *ThreadView) Open(conversationID uuid.UUID) error {
	v.stopTyping()
	v.subscriber.Unsubscribe()
	v.ConversationID = conversationID
	v.Messages = nil
	v.HasMore = false
	v.FailedSends = nil
	v.loadGen++
	gen := v.loadGen

	v.subscriber.Subscribe(conversationID)

	page, err := v.source.GetMessages(conversationID, v.UserID, nil, InitialPageSize)
	if err != nil {
		return err
	}
	if gen != v.loadGen || conversationID != v.ConversationID {
		// View switched while the fetch was in flight
		return nil
	}
	v.Messages = page.Items
	v.HasMore = page.HasMore
	return nil
}

// Close releases the subscription and clears the view.
func (v *ThreadView) Close() {
	v.stopTyping()
	v.subscriber.Unsubscribe()
	v.ConversationID = uuid.Nil
	v.Messages = nil
	v.HasMore = false
	v.FailedSends = nil
	v.loadGen++
}

// LoadOlder prepends the next batch of history, strictly before the oldest
// loaded message.
func (v *ThreadView) LoadOlder() error {
	if !v.HasMore || len(v.Messages) == 0 {
		return nil
	}
	conversationID := v.ConversationID
	gen := v.loadGen
	before := v.Messages[0].CreatedAt

	page, err := v.source.GetMessages(conversationID, v.UserID, &before, OlderBatchSize)
	if err != nil {
		return err
	}
	if gen != v.loadGen || conversationID != v.ConversationID {
		return nil
	}
	v.Messages = append(page.Items, v.Messages...)
	v.HasMore = page.HasMore
	return nil
}

// Send submits a message. Only one send runs at a time; a failure keeps the
// content locally in failed state for retry, and a success reloads the
// thread so ordering and server-assigned fields are authoritative.
func (v *ThreadView) Send(content string) error {
	if v.sendInFlight {
		return nil
	}
	v.sendInFlight = true
	defer func() { v.sendInFlight = false }()

	v.stopTyping()
	conversationID := v.ConversationID
	_, err := v.source.SendMessage(v.UserID, conversationID, model.SendMessageRequest{
		Content:     content,
		MessageType: model.MessageTypeText,
	})
	if conversationID != v.ConversationID {
		return nil
	}
	if err != nil {
		v.FailedSends = append(v.FailedSends, FailedSend{Content: content, At: time.Now()})
		return err
	}
	return v.reload()
}

// Retry resends the i-th failed message.
func (v *ThreadView) Retry(i int) error {
	if i < 0 || i >= len(v.FailedSends) {
		return nil
	}
	content := v.FailedSends[i].Content
	v.FailedSends = append(v.FailedSends[:i], v.FailedSends[i+1:]...)
	return v.Send(content)
}

// ApplyEvent folds a realtime event into the view. Events for other
// conversations are dropped; order comes from the entity timestamps, not
// arrival, and delivery status never regresses.
func (v *ThreadView) ApplyEvent(event *ws.Event) {
	switch event.Kind {
	case ws.EventNewMessage:
		p, err := event.DecodeNewMessage()
		if err != nil || p.Message == nil {
			return
		}
		if p.Message.ConversationID != v.ConversationID {
			return
		}
		v.insertMessage(*p.Message)
		v.typing.Stop(p.Message.ConversationID, p.Message.SenderID)

	case ws.EventStatusUpdate:
		p, err := event.DecodeStatusUpdate()
		if err != nil || p.ConversationID != v.ConversationID {
			return
		}
		for i := range v.Messages {
			if v.Messages[i].ID == p.MessageID {
				if v.Messages[i].Status.Advances(p.Status) {
					v.Messages[i].Status = p.Status
				}
				return
			}
		}

	case ws.EventTypingStart:
		p, err := event.DecodeTyping()
		if err != nil || p.ConversationID != v.ConversationID || p.UserID == v.UserID {
			return
		}
		v.typing.Start(p.ConversationID, p.UserID, p.At)

	case ws.EventTypingStop:
		p, err := event.DecodeTyping()
		if err != nil || p.ConversationID != v.ConversationID {
			return
		}
		v.typing.Stop(p.ConversationID, p.UserID)
	}
}

// TypingUsers returns who is typing right now, stale entries excluded.
func (v *ThreadView) TypingUsers(now time.Time) []uuid.UUID {
	return v.typing.ActiveTypers(v.ConversationID, now)
}

// NotifyTyping records a keystroke. The first keystroke of a burst emits
// typing-start; every later one pushes the trailing auto-stop out.
func (v *ThreadView) NotifyTyping(now time.Time) {
	if v.emitter == nil || v.ConversationID == uuid.Nil {
		return
	}
	v.lastKeystroke = now
	if !v.typingSent {
		v.typingSent = true
		v.emitter.EmitTyping(v.ConversationID, true)
	}
}

// PruneTyping drops expired peer entries and auto-stops the viewer's own
// indicator once the keyboard has been quiet for TypingAutoStop; call it
// on a ticker.
func (v *ThreadView) PruneTyping(now time.Time) {
	v.typing.Prune(now)
	if v.typingSent && now.Sub(v.lastKeystroke) >= TypingAutoStop {
		v.stopTyping()
	}
}

func (v *ThreadView) stopTyping() {
	if !v.typingSent {
		return
	}
	v.typingSent = false
	if v.emitter != nil {
		v.emitter.EmitTyping(v.ConversationID, false)
	}
}

// Rows builds the current render list.
func (v *ThreadView) Rows(viewerIsModerator bool) []Row {
	return BuildRows(v.Messages, viewerIsModerator)
}

func (v *ThreadView) reload() error {
	conversationID := v.ConversationID
	gen := v.loadGen

	page, err := v.source.GetMessages(conversationID, v.UserID, nil, InitialPageSize)
	if err != nil {
		return err
	}
	if gen != v.loadGen || conversationID != v.ConversationID {
		return nil
	}
	v.Messages = page.Items
	v.HasMore = page.HasMore
	return nil
}

// insertMessage places a message by timestamp order, ignoring duplicates.
func (v *ThreadView) insertMessage(msg model.Message) {
	for i := range v.Messages {
		if v.Messages[i].ID == msg.ID {
			return
		}
	}
	pos := len(v.Messages)
	for i := len(v.Messages) - 1; i >= 0; i-- {
		if v.Messages[i].Before(&msg) {
			break
		}
		pos = i
	}
	v.Messages = append(v.Messages, model.Message{})
	copy(v.Messages[pos+1:], v.Messages[pos:])
	v.Messages[pos] = msg
}
