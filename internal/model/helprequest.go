package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HelpRequestStatus is the lifecycle state of a help request.
type HelpRequestStatus string

const (
	HelpRequestOpen       HelpRequestStatus = "open"
	HelpRequestInProgress HelpRequestStatus = "in_progress"
	HelpRequestClosed     HelpRequestStatus = "closed"
)

// HelpRequest is the collaborator entity the gateway reads to seed a help
// conversation: the owner becomes the recipient and an open status permits
// the privacy-setting bypass. The rest of the request lifecycle is managed
// elsewhere.
type HelpRequest struct {
	ID        uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID         `json:"user_id" gorm:"type:uuid;index;not null"`
	Title     string            `json:"title" gorm:"size:200;not null"`
	Category  string            `json:"category" gorm:"size:50"`
	Urgency   string            `json:"urgency" gorm:"size:20"`
	Status    HelpRequestStatus `json:"status" gorm:"type:varchar(20);default:'open'"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	DeletedAt gorm.DeletedAt    `json:"-" gorm:"index"`

	// Relations
	Owner User `json:"owner" gorm:"foreignKey:UserID"`
}

// Open reports whether the request still accepts offers.
func (h *HelpRequest) Open() bool {
	return h.Status == HelpRequestOpen
}
