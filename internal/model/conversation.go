package model

import (
	"time"

	"github.com/google/uuid"
)

// ConversationStatus is the lifecycle state of a conversation.
// Transitions out of active are moderation actions and are terminal:
// there is no path back to active.
type ConversationStatus string

const (
	ConversationStatusActive  ConversationStatus = "active"
	ConversationStatusClosed  ConversationStatus = "closed"
	ConversationStatusBlocked ConversationStatus = "blocked"
)

// Conversation is a container for messages between exactly two active
// participants. A conversation cannot exist without participants and a first
// message; CreateConversation writes all three as one unit.
type Conversation struct {
	ID            uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	HelpRequestID *uuid.UUID         `json:"help_request_id,omitempty" gorm:"type:uuid;index"`
	CreatedBy     uuid.UUID          `json:"created_by" gorm:"type:uuid;not null"`
	Title         string             `json:"title,omitempty" gorm:"size:200"`
	Status        ConversationStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	// LastMessageAt always equals the max created_at of the conversation's
	// non-deleted messages; the list endpoint sorts by it.
	LastMessageAt time.Time `json:"last_message_at" gorm:"index"`

	// Relations
	Participants []Participant `json:"participants,omitempty" gorm:"foreignKey:ConversationID"`
	HelpRequest  *HelpRequest  `json:"help_request,omitempty" gorm:"foreignKey:HelpRequestID"`
	LastMessage  *Message      `json:"last_message,omitempty" gorm:"-"` // populated manually
}

// ParticipantRole defines a participant's role in a conversation.
type ParticipantRole string

const (
	ParticipantRoleMember    ParticipantRole = "member"
	ParticipantRoleModerator ParticipantRole = "moderator"
)

// Participant is a user's membership record in a conversation. A direct
// conversation always has exactly two rows with left_at null; a user appears
// at most once per conversation while active.
type Participant struct {
	ID             uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationID uuid.UUID       `json:"conversation_id" gorm:"type:uuid;uniqueIndex:idx_conv_user;not null"`
	UserID         uuid.UUID       `json:"user_id" gorm:"type:uuid;uniqueIndex:idx_conv_user;not null"`
	Role           ParticipantRole `json:"role" gorm:"type:varchar(20);default:'member'"`
	JoinedAt       time.Time       `json:"joined_at"`
	LeftAt         *time.Time      `json:"left_at,omitempty"`

	// Relations
	User         User         `json:"user" gorm:"foreignKey:UserID"`
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID"`
}

// Active reports whether the participant has not left the conversation.
func (p Participant) Active() bool {
	return p.LeftAt == nil
}
