package model

import (
	"time"

	"github.com/google/uuid"
)

// ReceivePolicy controls who may open a direct conversation with a user.
// Help-request conversations bypass this policy entirely: anyone may offer
// help on an open request regardless of the owner's setting.
type ReceivePolicy string

const (
	ReceiveFromAnyone          ReceivePolicy = "anyone"
	ReceiveFromHelpConnections ReceivePolicy = "help_connections"
	ReceiveFromNobody          ReceivePolicy = "nobody"
)

// DefaultReceivePolicy applies when a user has no preferences row.
const DefaultReceivePolicy = ReceiveFromHelpConnections

// MessagingPreferences is a user's messaging privacy configuration.
type MessagingPreferences struct {
	UserID                 uuid.UUID     `json:"user_id" gorm:"type:uuid;primaryKey"`
	CanReceiveFrom         ReceivePolicy `json:"can_receive_from" gorm:"type:varchar(30);default:'help_connections'"`
	AutoAcceptHelpRequests bool          `json:"auto_accept_help_requests" gorm:"default:true"`
	EmailNotifications     bool          `json:"email_notifications" gorm:"default:true"`
	PushNotifications      bool          `json:"push_notifications" gorm:"default:true"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

// DefaultMessagingPreferences returns the preferences applied when a user
// has never saved any.
func DefaultMessagingPreferences(userID uuid.UUID) *MessagingPreferences {
	return &MessagingPreferences{
		UserID:                 userID,
		CanReceiveFrom:         DefaultReceivePolicy,
		AutoAcceptHelpRequests: true,
		EmailNotifications:     true,
		PushNotifications:      true,
	}
}

// ValidReceivePolicy checks a policy value against the enum.
func ValidReceivePolicy(p ReceivePolicy) bool {
	switch p {
	case ReceiveFromAnyone, ReceiveFromHelpConnections, ReceiveFromNobody:
		return true
	}
	return false
}
