package model

import (
	"time"

	"github.com/google/uuid"
)

// ========== Auth DTOs ==========

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Location string `json:"location" binding:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ========== Conversation DTOs ==========

type CreateConversationRequest struct {
	RecipientID    uuid.UUID  `json:"recipient_id" binding:"required"`
	HelpRequestID  *uuid.UUID `json:"help_request_id"`
	InitialMessage string     `json:"initial_message" binding:"required"`
}

type StartHelpConversationRequest struct {
	HelpRequestID  uuid.UUID `json:"help_request_id" binding:"required"`
	InitialMessage string    `json:"initial_message" binding:"required"`
}

// ConversationResponse decorates a conversation with the fields the list
// view renders.
type ConversationResponse struct {
	Conversation
	UnreadCount int `json:"unread_count"`
}

// ConversationPage is the offset/limit envelope for the conversation list.
type ConversationPage struct {
	Items   []ConversationResponse `json:"items"`
	Page    int                    `json:"page"`
	Limit   int                    `json:"limit"`
	Total   int64                  `json:"total"`
	HasMore bool                   `json:"has_more"`
}

type ConversationListRequest struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=20"`
}

// ========== Message DTOs ==========

type SendMessageRequest struct {
	Content     string      `json:"content" binding:"required"`
	MessageType MessageType `json:"message_type"`
}

type MessageListRequest struct {
	Before string `form:"before"` // RFC3339Nano cursor; fetch strictly older
	Limit  int    `form:"limit,default=50"`
}

// MessagePage is the cursor envelope for a message thread. Items are in
// chronological order, oldest first; Cursor is the created_at of the oldest
// item and feeds the next "load older" request.
type MessagePage struct {
	Items   []Message  `json:"items"`
	Cursor  *time.Time `json:"cursor,omitempty"`
	Limit   int        `json:"limit"`
	HasMore bool       `json:"has_more"`
}

type ReportMessageRequest struct {
	Reason      ReportReason `json:"reason" binding:"required"`
	Description string       `json:"description" binding:"max=500"`
}

type UpdatePreferencesRequest struct {
	CanReceiveFrom         ReceivePolicy `json:"can_receive_from" binding:"required"`
	AutoAcceptHelpRequests *bool         `json:"auto_accept_help_requests"`
	EmailNotifications     *bool         `json:"email_notifications"`
	PushNotifications      *bool         `json:"push_notifications"`
}

// ========== Device DTOs ==========

type RegisterDeviceRequest struct {
	Token string `json:"token" binding:"required"`
}

// ========== Moderation DTOs ==========

// ModerationDecision is what a moderator does with a pending report.
type ModerationDecision string

const (
	DecisionDismiss      ModerationDecision = "dismiss"
	DecisionHideMessage  ModerationDecision = "hide_message"
	DecisionWarnUser     ModerationDecision = "warn_user"
	DecisionRestrictUser ModerationDecision = "restrict_user"
)

type ProcessReportRequest struct {
	Decision ModerationDecision `json:"decision" binding:"required"`
	Notes    string             `json:"notes" binding:"max=500"`
}

// ========== Common ==========

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
