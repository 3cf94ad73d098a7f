package repository

import (
	"time"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversationRepository handles database operations for Conversation
type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts a bare conversation row. Participants and the initial
// message are written separately so a later failure can compensate by
// deleting this row.
func (r *ConversationRepository) Create(conv *model.Conversation) error {
	return r.db.Create(conv).Error
}

// Delete hard-deletes a conversation row. Only used as the compensating
// step when participant or initial-message insertion fails; normal flow
// never removes conversations.
func (r *ConversationRepository) Delete(id uuid.UUID) error {
	return r.db.Unscoped().Where("id = ?", id).Delete(&model.Conversation{}).Error
}

// AddParticipants inserts participant rows for a conversation.
func (r *ConversationRepository) AddParticipants(participants []model.Participant) error {
	return r.db.Create(&participants).Error
}

// FindByID finds a conversation by ID with participants and help request
func (r *ConversationRepository) FindByID(id uuid.UUID) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.
		Preload("Participants.User").
		Preload("HelpRequest").
		Where("id = ?", id).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListForUser returns one page of a user's conversations ordered by latest
// message activity, plus the total count for the pagination envelope.
func (r *ConversationRepository) ListForUser(userID uuid.UUID, offset, limit int) ([]model.Conversation, int64, error) {
	base := r.db.Model(&model.Conversation{}).
		Joins("JOIN participants ON participants.conversation_id = conversations.id").
		Where("participants.user_id = ? AND participants.left_at IS NULL", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var conversations []model.Conversation
	err := base.
		Preload("Participants.User").
		Preload("HelpRequest").
		Order("conversations.last_message_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&conversations).Error
	return conversations, total, err
}

// ActiveParticipants returns the participants that have not left.
func (r *ConversationRepository) ActiveParticipants(conversationID uuid.UUID) ([]model.Participant, error) {
	var participants []model.Participant
	err := r.db.
		Preload("User").
		Where("conversation_id = ? AND left_at IS NULL", conversationID).
		Order("joined_at ASC").
		Find(&participants).Error
	return participants, err
}

// IsActiveParticipant checks membership with left_at null.
func (r *ConversationRepository) IsActiveParticipant(conversationID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&model.Participant{}).
		Where("conversation_id = ? AND user_id = ? AND left_at IS NULL", conversationID, userID).
		Count(&count).Error
	return count > 0, err
}

// SharedHelpConversationExists reports whether two users already share at
// least one conversation tied to a help request. This backs the
// help_connections receive policy.
func (r *ConversationRepository) SharedHelpConversationExists(userA, userB uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&model.Conversation{}).
		Joins("JOIN participants pa ON pa.conversation_id = conversations.id").
		Joins("JOIN participants pb ON pb.conversation_id = conversations.id").
		Where("pa.user_id = ? AND pa.left_at IS NULL", userA).
		Where("pb.user_id = ? AND pb.left_at IS NULL", userB).
		Where("conversations.help_request_id IS NOT NULL").
		Count(&count).Error
	return count > 0, err
}

// TouchLastMessageAt bumps last_message_at so the invariant against the
// newest non-deleted message holds after every send.
func (r *ConversationRepository) TouchLastMessageAt(conversationID uuid.UUID, at time.Time) error {
	return r.db.Model(&model.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]interface{}{
			"last_message_at": at,
			"updated_at":      at,
		}).Error
}

// UpdateStatus moves a conversation to closed or blocked. Normal message
// flow never calls this; it is a moderation action.
func (r *ConversationRepository) UpdateStatus(conversationID uuid.UUID, status model.ConversationStatus) error {
	return r.db.Model(&model.Conversation{}).
		Where("id = ?", conversationID).
		Update("status", status).Error
}
