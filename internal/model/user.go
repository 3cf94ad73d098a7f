package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PresenceStatus is a user's live availability state.
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceAway    PresenceStatus = "away"
	PresenceBusy    PresenceStatus = "busy"
	PresenceOffline PresenceStatus = "offline"
)

// PresenceStaleAfter is how long a presence record stays trustworthy. A
// stored "online" with a last_seen older than this reports offline, since
// clients routinely disconnect without clean teardown.
const PresenceStaleAfter = 5 * time.Minute

// EffectivePresence derives the reportable status from the stored flag and
// last_seen. The stored value is never returned raw.
func EffectivePresence(stored PresenceStatus, lastSeen *time.Time, now time.Time) PresenceStatus {
	if stored == PresenceOffline {
		return PresenceOffline
	}
	if lastSeen == nil || now.Sub(*lastSeen) > PresenceStaleAfter {
		return PresenceOffline
	}
	return stored
}

// User is a registered community member. The messaging core stores only ids
// and the display fields it fans out with events; the full profile lives in
// the directory service.
type User struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string         `json:"name" gorm:"size:100;not null"`
	Email     string         `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password  string         `json:"-" gorm:"size:255"`
	Location  string         `json:"location,omitempty" gorm:"size:100"`
	IsAdmin   bool           `json:"is_admin" gorm:"default:false"`
	Presence  PresenceStatus `json:"presence" gorm:"type:varchar(20);default:'offline'"`
	LastSeen  *time.Time     `json:"last_seen"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// EffectivePresence applies the staleness guard to the stored presence.
func (u *User) EffectivePresence(now time.Time) PresenceStatus {
	return EffectivePresence(u.Presence, u.LastSeen, now)
}

// UserResponse is the safe version of User for API responses.
type UserResponse struct {
	ID       uuid.UUID      `json:"id"`
	Name     string         `json:"name"`
	Location string         `json:"location,omitempty"`
	Presence PresenceStatus `json:"presence"`
	LastSeen *time.Time     `json:"last_seen"`
}

// ToResponse converts User to UserResponse with the effective presence.
func (u *User) ToResponse(now time.Time) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		Location: u.Location,
		Presence: u.EffectivePresence(now),
		LastSeen: u.LastSeen,
	}
}
