package repository

import (
	"time"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageRepository handles database operations for Message
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message
func (r *MessageRepository) Create(msg *model.Message) error {
	return r.db.Create(msg).Error
}

// FindByID finds a message by ID with sender info
func (r *MessageRepository) FindByID(id uuid.UUID) (*model.Message, error) {
	var msg model.Message
	err := r.db.
		Preload("Sender").
		Preload("Recipient").
		Where("id = ?", id).
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ThreadPage returns up to limit messages of a conversation, newest first,
// strictly older than the cursor when one is given. Soft-deleted messages
// are excluded; hidden ones are returned and redacted at render time so
// moderators still see them. Callers over-fetch by one to detect has_more.
func (r *MessageRepository) ThreadPage(conversationID uuid.UUID, before *time.Time, limit int) ([]model.Message, error) {
	messages := []model.Message{}
	query := r.db.
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Where("deleted_at IS NULL").
		Order("created_at DESC, id DESC").
		Limit(limit)

	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	err := query.Find(&messages).Error
	return messages, err
}

// GetLastMessage returns the most recent non-deleted message in a conversation
func (r *MessageRepository) GetLastMessage(conversationID uuid.UUID) (*model.Message, error) {
	var msg model.Message
	err := r.db.
		Preload("Sender").
		Where("conversation_id = ? AND deleted_at IS NULL", conversationID).
		Order("created_at DESC, id DESC").
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// CountUnread counts a recipient's unread messages in a conversation.
func (r *MessageRepository) CountUnread(conversationID, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.Message{}).
		Where("conversation_id = ? AND recipient_id = ?", conversationID, userID).
		Where("read_at IS NULL AND deleted_at IS NULL").
		Count(&count).Error
	return count, err
}

// MarkRead performs the conditional read-receipt update: it succeeds only
// when the caller is the recipient and read_at is still null, so concurrent
// duplicate calls are safe. Returns whether a row actually changed.
func (r *MessageRepository) MarkRead(messageID, recipientID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.Model(&model.Message{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", messageID, recipientID).
		Updates(map[string]interface{}{
			"read_at": at,
			"status":  model.MessageStatusRead,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkDelivered advances a message from sent to delivered. The status
// predicate keeps the transition monotonic under races with MarkRead.
func (r *MessageRepository) MarkDelivered(messageID uuid.UUID) (bool, error) {
	res := r.db.Model(&model.Message{}).
		Where("id = ? AND status = ?", messageID, model.MessageStatusSent).
		Update("status", model.MessageStatusDelivered)
	return res.RowsAffected > 0, res.Error
}

// Flag marks a message as reported and pending review.
func (r *MessageRepository) Flag(messageID uuid.UUID, reason model.ReportReason) error {
	return r.db.Model(&model.Message{}).
		Where("id = ?", messageID).
		Updates(map[string]interface{}{
			"is_flagged":        true,
			"flagged_reason":    string(reason),
			"moderation_status": model.ModerationStatusPending,
		}).Error
}

// UpdateModerationStatus sets the review outcome for a message.
func (r *MessageRepository) UpdateModerationStatus(messageID uuid.UUID, status model.ModerationStatus) error {
	return r.db.Model(&model.Message{}).
		Where("id = ?", messageID).
		Update("moderation_status", status).Error
}

// SoftDelete excludes a message from thread rendering while retaining the
// row for audit. Messages are never hard-deleted.
func (r *MessageRepository) SoftDelete(messageID uuid.UUID, at time.Time) error {
	return r.db.Model(&model.Message{}).
		Where("id = ? AND deleted_at IS NULL", messageID).
		Update("deleted_at", at).Error
}
