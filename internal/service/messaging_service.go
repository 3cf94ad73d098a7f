package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/carecollective/careconnect/pkg/apperr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message content limits. Opening messages carry a higher minimum so a help
// offer says something; follow-ups only need to be non-empty after trimming.
const (
	MinInitialMessageLen = 10
	MaxMessageLen        = 1000
)

// Pagination sizes. The thread page is over-fetched by one row to detect
// whether older history exists.
const (
	DefaultConversationPageSize = 20
	DefaultThreadPageSize       = 50
	OlderBatchSize              = 25
	MaxPageSize                 = 100
)

// ConversationStore is the persistence surface the gateway needs for
// conversations and participants.
type ConversationStore interface {
	Create(conv *model.Conversation) error
	Delete(id uuid.UUID) error
	AddParticipants(participants []model.Participant) error
	FindByID(id uuid.UUID) (*model.Conversation, error)
	ListForUser(userID uuid.UUID, offset, limit int) ([]model.Conversation, int64, error)
	ActiveParticipants(conversationID uuid.UUID) ([]model.Participant, error)
	IsActiveParticipant(conversationID, userID uuid.UUID) (bool, error)
	SharedHelpConversationExists(userA, userB uuid.UUID) (bool, error)
	TouchLastMessageAt(conversationID uuid.UUID, at time.Time) error
}

// MessageStore is the persistence surface the gateway needs for messages.
type MessageStore interface {
	Create(msg *model.Message) error
	FindByID(id uuid.UUID) (*model.Message, error)
	ThreadPage(conversationID uuid.UUID, before *time.Time, limit int) ([]model.Message, error)
	GetLastMessage(conversationID uuid.UUID) (*model.Message, error)
	CountUnread(conversationID, userID uuid.UUID) (int64, error)
	MarkRead(messageID, recipientID uuid.UUID, at time.Time) (bool, error)
	MarkDelivered(messageID uuid.UUID) (bool, error)
	Flag(messageID uuid.UUID, reason model.ReportReason) error
	SoftDelete(messageID uuid.UUID, at time.Time) error
}

// PreferenceStore reads and writes messaging privacy preferences.
type PreferenceStore interface {
	Find(userID uuid.UUID) (*model.MessagingPreferences, error)
	Upsert(prefs *model.MessagingPreferences) error
}

// HelpRequestStore resolves help requests for the bypass rule.
type HelpRequestStore interface {
	FindByID(id uuid.UUID) (*model.HelpRequest, error)
}

// ReportStore records message reports.
type ReportStore interface {
	Create(report *model.MessageReport) error
}

// StartLimiter bounds how often a user may initiate conversations. It must
// fail closed: an error other than RateLimited still denies the start.
type StartLimiter interface {
	AllowConversationStart(userID uuid.UUID) error
}

// MessagingService is the access-control gateway in front of the
// conversation/message store. Every mutation validates the live permission
// state at call time; nothing about permissions is cached.
type MessagingService struct {
	convStore ConversationStore
	msgStore  MessageStore
	prefStore PreferenceStore
	helpStore HelpRequestStore
	reports   ReportStore
	limiter   StartLimiter
}

func NewMessagingService(
	convStore ConversationStore,
	msgStore MessageStore,
	prefStore PreferenceStore,
	helpStore HelpRequestStore,
	reports ReportStore,
	limiter StartLimiter,
) *MessagingService {
	return &MessagingService{
		convStore: convStore,
		msgStore:  msgStore,
		prefStore: prefStore,
		helpStore: helpStore,
		reports:   reports,
		limiter:   limiter,
	}
}

// CreateConversation opens a conversation between creator and recipient and
// writes the conversation, both participants, and the initial message as one
// unit. When the conversation is tied to a help request the recipient's
// privacy setting is bypassed: anyone may offer help on an open request.
// Direct messages enforce the recipient's can_receive_from policy.
func (s *MessagingService) CreateConversation(creatorID uuid.UUID, req model.CreateConversationRequest) (*model.Conversation, error) {
	content, err := validateContent(req.InitialMessage, MinInitialMessageLen)
	if err != nil {
		return nil, err
	}
	if creatorID == req.RecipientID {
		return nil, apperr.Validation("cannot start a conversation with yourself")
	}

	if req.HelpRequestID == nil {
		allowed, err := s.canUserMessage(creatorID, req.RecipientID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, apperr.PermissionDenied("this user is not accepting messages from you")
		}
	}

	conv := &model.Conversation{
		HelpRequestID: req.HelpRequestID,
		CreatedBy:     creatorID,
		Status:        model.ConversationStatusActive,
		LastMessageAt: time.Now(),
	}
	if err := s.convStore.Create(conv); err != nil {
		return nil, apperr.Internal("failed to create conversation", err)
	}

	now := time.Now()
	participants := []model.Participant{
		{ConversationID: conv.ID, UserID: creatorID, Role: model.ParticipantRoleMember, JoinedAt: now},
		{ConversationID: conv.ID, UserID: req.RecipientID, Role: model.ParticipantRoleMember, JoinedAt: now},
	}
	if err := s.convStore.AddParticipants(participants); err != nil {
		// Compensating delete: a conversation with no participants must not
		// survive the failed step.
		if delErr := s.convStore.Delete(conv.ID); delErr != nil {
			return nil, apperr.Internal("failed to roll back conversation", delErr)
		}
		return nil, apperr.PartialFailure("failed to add participants, conversation rolled back", err)
	}

	msg := &model.Message{
		ConversationID: conv.ID,
		SenderID:       creatorID,
		RecipientID:    req.RecipientID,
		HelpRequestID:  req.HelpRequestID,
		Content:        content,
		MessageType:    model.MessageTypeText,
		Status:         model.MessageStatusSent,
	}
	if err := s.msgStore.Create(msg); err != nil {
		if delErr := s.convStore.Delete(conv.ID); delErr != nil {
			return nil, apperr.Internal("failed to roll back conversation", delErr)
		}
		return nil, apperr.PartialFailure("failed to send initial message, conversation rolled back", err)
	}

	_ = s.convStore.TouchLastMessageAt(conv.ID, msg.CreatedAt)

	created, err := s.getConversation(conv.ID)
	if err != nil {
		return nil, err
	}
	if full, err := s.msgStore.FindByID(msg.ID); err == nil {
		created.LastMessage = full
	} else {
		created.LastMessage = msg
	}
	return created, nil
}

// StartHelpConversation opens a conversation to offer help on a request.
// The request owner becomes the recipient and the privacy bypass applies.
// Offer initiation is throttled per user over a rolling window.
func (s *MessagingService) StartHelpConversation(senderID uuid.UUID, req model.StartHelpConversationRequest) (*model.Conversation, error) {
	if err := s.limiter.AllowConversationStart(senderID); err != nil {
		return nil, err
	}

	helpReq, err := s.helpStore.FindByID(req.HelpRequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("help request not found")
		}
		return nil, apperr.Internal("failed to load help request", err)
	}
	if !helpReq.Open() {
		return nil, apperr.PermissionDenied("this help request is no longer open")
	}
	if helpReq.UserID == senderID {
		return nil, apperr.Validation("cannot offer help on your own request")
	}

	return s.CreateConversation(senderID, model.CreateConversationRequest{
		RecipientID:    helpReq.UserID,
		HelpRequestID:  &req.HelpRequestID,
		InitialMessage: req.InitialMessage,
	})
}

// SendMessage appends a message to a conversation. The sender must be an
// active participant; the recipient is derived as the other active
// participant, never supplied by the caller.
func (s *MessagingService) SendMessage(senderID, conversationID uuid.UUID, req model.SendMessageRequest) (*model.Message, error) {
	content, err := validateContent(req.Content, 1)
	if err != nil {
		return nil, err
	}

	msgType := req.MessageType
	if msgType == "" {
		msgType = model.MessageTypeText
	}

	conv, err := s.getConversation(conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Status != model.ConversationStatusActive {
		return nil, apperr.PermissionDenied(fmt.Sprintf("conversation is %s", conv.Status))
	}

	recipientID, err := s.resolveRecipient(conversationID, senderID)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		RecipientID:    recipientID,
		HelpRequestID:  conv.HelpRequestID,
		Content:        content,
		MessageType:    msgType,
		Status:         model.MessageStatusSent,
	}
	if err := s.msgStore.Create(msg); err != nil {
		return nil, apperr.Internal("failed to send message", err)
	}

	_ = s.convStore.TouchLastMessageAt(conversationID, msg.CreatedAt)

	full, err := s.msgStore.FindByID(msg.ID)
	if err != nil {
		return msg, nil
	}
	return full, nil
}

// MarkMessageAsRead records a read receipt. The update is conditional on
// read_at being null, so calling it twice is a no-op, not an error.
func (s *MessagingService) MarkMessageAsRead(messageID, userID uuid.UUID) error {
	msg, err := s.msgStore.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("message not found")
		}
		return apperr.Internal("failed to load message", err)
	}
	if msg.RecipientID != userID {
		return apperr.PermissionDenied("only the recipient can mark a message as read")
	}

	if _, err := s.msgStore.MarkRead(messageID, userID, time.Now()); err != nil {
		return apperr.Internal("failed to mark message as read", err)
	}
	return nil
}

// MarkMessageDelivered advances sent -> delivered when the recipient's
// client acknowledges the push. Regressive transitions never happen: the
// store predicate only matches status = sent.
func (s *MessagingService) MarkMessageDelivered(messageID uuid.UUID) (bool, error) {
	changed, err := s.msgStore.MarkDelivered(messageID)
	if err != nil {
		return false, apperr.Internal("failed to mark message as delivered", err)
	}
	return changed, nil
}

// GetConversations returns one page of the user's conversations ordered by
// latest activity, with unread counts and last messages for the list view.
func (s *MessagingService) GetConversations(userID uuid.UUID, page, limit int) (*model.ConversationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultConversationPageSize
	}
	offset := (page - 1) * limit

	conversations, total, err := s.convStore.ListForUser(userID, offset, limit)
	if err != nil {
		return nil, apperr.Internal("failed to list conversations", err)
	}

	items := make([]model.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		conv := conversations[i]
		if lastMsg, err := s.msgStore.GetLastMessage(conv.ID); err == nil {
			conv.LastMessage = lastMsg
		}
		unread, _ := s.msgStore.CountUnread(conv.ID, userID)
		items = append(items, model.ConversationResponse{
			Conversation: conv,
			UnreadCount:  int(unread),
		})
	}

	return &model.ConversationPage{
		Items:   items,
		Page:    page,
		Limit:   limit,
		Total:   total,
		HasMore: total > int64(offset+len(items)),
	}, nil
}

// GetConversation returns a conversation the user participates in.
func (s *MessagingService) GetConversation(conversationID, userID uuid.UUID) (*model.Conversation, error) {
	isMember, err := s.convStore.IsActiveParticipant(conversationID, userID)
	if err != nil {
		return nil, apperr.Internal("failed to check membership", err)
	}
	if !isMember {
		return nil, apperr.PermissionDenied("you are not a participant of this conversation")
	}
	return s.getConversation(conversationID)
}

// GetMessages returns one page of a conversation's messages. The store is
// asked for limit+1 rows newest-first, strictly before the cursor; the extra
// row only signals has_more and is trimmed. Items come back oldest-first,
// ready for display.
func (s *MessagingService) GetMessages(conversationID, userID uuid.UUID, before *time.Time, limit int) (*model.MessagePage, error) {
	isMember, err := s.convStore.IsActiveParticipant(conversationID, userID)
	if err != nil {
		return nil, apperr.Internal("failed to check membership", err)
	}
	if !isMember {
		return nil, apperr.PermissionDenied("you are not a participant of this conversation")
	}

	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultThreadPageSize
	}

	rows, err := s.msgStore.ThreadPage(conversationID, before, limit+1)
	if err != nil {
		return nil, apperr.Internal("failed to load messages", err)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	// Reverse newest-first into chronological order.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	var cursor *time.Time
	if len(rows) > 0 {
		t := rows[0].CreatedAt
		cursor = &t
	}

	return &model.MessagePage{
		Items:   rows,
		Cursor:  cursor,
		Limit:   limit,
		HasMore: hasMore,
	}, nil
}

// ReportMessage flags a message for moderator review. Only participants of
// the conversation may report messages in it.
func (s *MessagingService) ReportMessage(reporterID, messageID uuid.UUID, req model.ReportMessageRequest) (*model.MessageReport, error) {
	if !model.ValidReportReason(req.Reason) {
		return nil, apperr.Validation("invalid report reason")
	}

	msg, err := s.msgStore.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, apperr.Internal("failed to load message", err)
	}

	isMember, err := s.convStore.IsActiveParticipant(msg.ConversationID, reporterID)
	if err != nil {
		return nil, apperr.Internal("failed to check membership", err)
	}
	if !isMember {
		return nil, apperr.PermissionDenied("you cannot report this message")
	}

	report := &model.MessageReport{
		MessageID:   messageID,
		ReportedBy:  reporterID,
		Reason:      req.Reason,
		Description: req.Description,
		Status:      model.ReportStatusPending,
	}
	if err := s.reports.Create(report); err != nil {
		return nil, apperr.Internal("failed to record report", err)
	}

	if err := s.msgStore.Flag(messageID, req.Reason); err != nil {
		return nil, apperr.Internal("failed to flag message", err)
	}

	return report, nil
}

// DeleteMessage soft-deletes a message. Only the sender may delete, and the
// row is retained for audit; it just stops rendering in the thread.
func (s *MessagingService) DeleteMessage(messageID, userID uuid.UUID) error {
	msg, err := s.msgStore.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("message not found")
		}
		return apperr.Internal("failed to load message", err)
	}
	if msg.SenderID != userID {
		return apperr.PermissionDenied("only the sender can delete a message")
	}
	if err := s.msgStore.SoftDelete(messageID, time.Now()); err != nil {
		return apperr.Internal("failed to delete message", err)
	}
	return nil
}

// FindMessage loads a message with its sender and recipient.
func (s *MessagingService) FindMessage(messageID uuid.UUID) (*model.Message, error) {
	msg, err := s.msgStore.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, apperr.Internal("failed to load message", err)
	}
	return msg, nil
}

// FlagForReview marks a message for the moderation queue without a user
// report, used when automated screening trips on its content.
func (s *MessagingService) FlagForReview(messageID uuid.UUID, reason model.ReportReason) error {
	if err := s.msgStore.Flag(messageID, reason); err != nil {
		return apperr.Internal("failed to flag message", err)
	}
	return nil
}

// GetMessagingPreferences returns a user's preferences, defaults applied
// when none were ever saved.
func (s *MessagingService) GetMessagingPreferences(userID uuid.UUID) (*model.MessagingPreferences, error) {
	prefs, err := s.prefStore.Find(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.DefaultMessagingPreferences(userID), nil
		}
		return nil, apperr.Internal("failed to load preferences", err)
	}
	return prefs, nil
}

// PushEnabled reports whether the user accepts push notifications.
func (s *MessagingService) PushEnabled(userID uuid.UUID) bool {
	prefs, err := s.GetMessagingPreferences(userID)
	return err == nil && prefs.PushNotifications
}

// UpdateMessagingPreferences saves a user's preferences.
func (s *MessagingService) UpdateMessagingPreferences(userID uuid.UUID, req model.UpdatePreferencesRequest) (*model.MessagingPreferences, error) {
	if !model.ValidReceivePolicy(req.CanReceiveFrom) {
		return nil, apperr.Validation("invalid can_receive_from value")
	}

	prefs, err := s.GetMessagingPreferences(userID)
	if err != nil {
		return nil, err
	}
	prefs.CanReceiveFrom = req.CanReceiveFrom
	if req.AutoAcceptHelpRequests != nil {
		prefs.AutoAcceptHelpRequests = *req.AutoAcceptHelpRequests
	}
	if req.EmailNotifications != nil {
		prefs.EmailNotifications = *req.EmailNotifications
	}
	if req.PushNotifications != nil {
		prefs.PushNotifications = *req.PushNotifications
	}
	prefs.UpdatedAt = time.Now()

	if err := s.prefStore.Upsert(prefs); err != nil {
		return nil, apperr.Internal("failed to save preferences", err)
	}
	return prefs, nil
}

// ActiveParticipantIDs returns the user ids of everyone still in the
// conversation; handlers use it to fan out events.
func (s *MessagingService) ActiveParticipantIDs(conversationID uuid.UUID) ([]uuid.UUID, error) {
	participants, err := s.convStore.ActiveParticipants(conversationID)
	if err != nil {
		return nil, apperr.Internal("failed to load participants", err)
	}
	ids := make([]uuid.UUID, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}
	return ids, nil
}

// ==================== internal helpers ====================

func (s *MessagingService) getConversation(id uuid.UUID) (*model.Conversation, error) {
	conv, err := s.convStore.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("conversation not found")
		}
		return nil, apperr.Internal("failed to load conversation", err)
	}
	return conv, nil
}

// resolveRecipient picks the other active participant. The schema would
// permit more participants, but recipient resolution is defined for direct
// conversations only.
func (s *MessagingService) resolveRecipient(conversationID, senderID uuid.UUID) (uuid.UUID, error) {
	participants, err := s.convStore.ActiveParticipants(conversationID)
	if err != nil {
		return uuid.Nil, apperr.Internal("failed to load participants", err)
	}

	isParticipant := false
	var recipient uuid.UUID
	for _, p := range participants {
		if p.UserID == senderID {
			isParticipant = true
		} else if recipient == uuid.Nil {
			recipient = p.UserID
		}
	}
	if !isParticipant {
		return uuid.Nil, apperr.PermissionDenied("you are not a participant of this conversation")
	}
	if recipient == uuid.Nil {
		return uuid.Nil, apperr.NotFound("could not determine message recipient")
	}
	return recipient, nil
}

// canUserMessage evaluates the recipient's receive policy against the live
// conversation state. help_connections passes only when the two users
// already share a help-request-linked conversation.
func (s *MessagingService) canUserMessage(senderID, recipientID uuid.UUID) (bool, error) {
	prefs, err := s.GetMessagingPreferences(recipientID)
	if err != nil {
		return false, err
	}

	switch prefs.CanReceiveFrom {
	case model.ReceiveFromNobody:
		return false, nil
	case model.ReceiveFromAnyone:
		return true, nil
	case model.ReceiveFromHelpConnections:
		shared, err := s.convStore.SharedHelpConversationExists(senderID, recipientID)
		if err != nil {
			return false, apperr.Internal("failed to check help connections", err)
		}
		return shared, nil
	default:
		return false, nil
	}
}

// validateContent trims and bounds message content.
func validateContent(content string, min int) (string, error) {
	trimmed := strings.TrimSpace(content)
	n := utf8.RuneCountInString(trimmed)
	if n == 0 {
		return "", apperr.Validation("message cannot be empty")
	}
	if n < min {
		return "", apperr.Validation(fmt.Sprintf("message must be at least %d characters", min))
	}
	if n > MaxMessageLen {
		return "", apperr.Validation(fmt.Sprintf("message too long (max %d characters)", MaxMessageLen))
	}
	return trimmed, nil
}
