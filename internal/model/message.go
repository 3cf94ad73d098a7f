package model

import (
	"time"

	"github.com/google/uuid"
)

// MessageType defines the kind of message content.
type MessageType string

const (
	MessageTypeText              MessageType = "text"
	MessageTypeSystem            MessageType = "system"
	MessageTypeHelpRequestUpdate MessageType = "help_request_update"
)

// MessageStatus defines the delivery status of a message. The persisted
// statuses are monotonic: sent -> delivered -> read, never backwards.
// Failed is a client-local terminal state and is never written to storage;
// a failed send is retried by sending again, not resumed.
type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusFailed    MessageStatus = "failed"
)

// statusRank orders message statuses for the monotonicity check.
var statusRank = map[MessageStatus]int{
	MessageStatusSent:      0,
	MessageStatusDelivered: 1,
	MessageStatusRead:      2,
}

// Advances reports whether moving from the current status to next is a
// forward transition. Consumers use it to drop stale status updates, e.g.
// a late "delivered" arriving after "read" was already applied.
func (s MessageStatus) Advances(next MessageStatus) bool {
	cur, ok := statusRank[s]
	if !ok {
		return false
	}
	nxt, ok := statusRank[next]
	if !ok {
		return false
	}
	return nxt > cur
}

// ModerationStatus is the review state of a flagged message.
type ModerationStatus string

const (
	ModerationStatusPending  ModerationStatus = "pending"
	ModerationStatusApproved ModerationStatus = "approved"
	ModerationStatusHidden   ModerationStatus = "hidden"
	ModerationStatusRemoved  ModerationStatus = "removed"
)

// Message is a single message in a conversation. Messages are never hard
// deleted; deleted_at excludes them from thread rendering but keeps them for
// audit. The recipient is derived from the participant set, never supplied by
// the caller.
type Message struct {
	ID               uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationID   uuid.UUID         `json:"conversation_id" gorm:"type:uuid;index;not null"`
	SenderID         uuid.UUID         `json:"sender_id" gorm:"type:uuid;index;not null"`
	RecipientID      uuid.UUID         `json:"recipient_id" gorm:"type:uuid;index;not null"`
	HelpRequestID    *uuid.UUID        `json:"help_request_id,omitempty" gorm:"type:uuid"`
	Content          string            `json:"content" gorm:"type:text;not null"`
	MessageType      MessageType       `json:"message_type" gorm:"type:varchar(30);default:'text'"`
	Status           MessageStatus     `json:"status" gorm:"type:varchar(20);default:'sent'"`
	ReadAt           *time.Time        `json:"read_at,omitempty"`
	IsFlagged        bool              `json:"is_flagged" gorm:"default:false"`
	FlaggedReason    string            `json:"flagged_reason,omitempty" gorm:"size:100"`
	ModerationStatus *ModerationStatus `json:"moderation_status,omitempty" gorm:"type:varchar(20)"`
	CreatedAt        time.Time         `json:"created_at" gorm:"index"`
	UpdatedAt        time.Time         `json:"updated_at"`
	DeletedAt        *time.Time        `json:"deleted_at,omitempty" gorm:"index"`

	// Relations
	Sender    User `json:"sender" gorm:"foreignKey:SenderID"`
	Recipient User `json:"recipient" gorm:"foreignKey:RecipientID"`
}

// Hidden reports whether the message was hidden by moderation. Hidden
// messages render as a redacted placeholder to everyone but moderators.
func (m *Message) Hidden() bool {
	return m.ModerationStatus != nil && *m.ModerationStatus == ModerationStatusHidden
}

// Deleted reports whether the message was soft-deleted.
func (m *Message) Deleted() bool {
	return m.DeletedAt != nil
}

// Before orders messages by created_at with the insertion id as tiebreak,
// since sub-second timestamp collisions happen under concurrent senders.
func (m *Message) Before(other *Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID.String() < other.ID.String()
	}
	return m.CreatedAt.Before(other.CreatedAt)
}

// ReportReason enumerates why a message was reported.
type ReportReason string

const (
	ReportReasonSpam          ReportReason = "spam"
	ReportReasonHarassment    ReportReason = "harassment"
	ReportReasonInappropriate ReportReason = "inappropriate"
	ReportReasonScam          ReportReason = "scam"
	ReportReasonOther         ReportReason = "other"
)

// ValidReportReason checks a reason against the enum.
func ValidReportReason(r ReportReason) bool {
	switch r {
	case ReportReasonSpam, ReportReasonHarassment, ReportReasonInappropriate, ReportReasonScam, ReportReasonOther:
		return true
	}
	return false
}

// ReportStatus is the review state of a message report.
type ReportStatus string

const (
	ReportStatusPending     ReportStatus = "pending"
	ReportStatusReviewed    ReportStatus = "reviewed"
	ReportStatusDismissed   ReportStatus = "dismissed"
	ReportStatusActionTaken ReportStatus = "action_taken"
)

// MessageReport is a participant's report of a message, reviewed
// asynchronously by moderators.
type MessageReport struct {
	ID          uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MessageID   uuid.UUID    `json:"message_id" gorm:"type:uuid;index;not null"`
	ReportedBy  uuid.UUID    `json:"reported_by" gorm:"type:uuid;not null"`
	Reason      ReportReason `json:"reason" gorm:"type:varchar(30);not null"`
	Description string       `json:"description,omitempty" gorm:"size:500"`
	Status      ReportStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
	CreatedAt   time.Time    `json:"created_at"`
	ReviewedAt  *time.Time   `json:"reviewed_at,omitempty"`
	ReviewedBy  *uuid.UUID   `json:"reviewed_by,omitempty" gorm:"type:uuid"`

	// Relations
	Message  Message `json:"message" gorm:"foreignKey:MessageID"`
	Reporter User    `json:"reporter" gorm:"foreignKey:ReportedBy"`
}
