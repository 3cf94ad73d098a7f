package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/carecollective/careconnect/internal/service"
	"github.com/carecollective/careconnect/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PushNotifier delivers push notifications for messages received while the
// recipient has no open connection.
type PushNotifier interface {
	NotifyNewMessage(recipientID uuid.UUID, senderName, preview string)
}

// MessageHandler handles the message endpoints of a conversation.
type MessageHandler struct {
	messaging  *service.MessagingService
	moderation *service.ModerationService
	hub        *ws.Hub
	notifier   PushNotifier
}

func NewMessageHandler(messaging *service.MessagingService, moderation *service.ModerationService, hub *ws.Hub, notifier PushNotifier) *MessageHandler {
	return &MessageHandler{messaging: messaging, moderation: moderation, hub: hub, notifier: notifier}
}

// List godoc
// @Summary Get a page of a conversation's messages
// @Description Returns messages oldest-first. Pass the cursor timestamp to page back through history.
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param before query string false "Only messages strictly before this RFC3339 timestamp"
// @Param limit query int false "Page size" default(50)
// @Success 200 {object} model.MessagePage
// @Router /conversations/{id}/messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid conversation ID"})
		return
	}

	var req model.MessageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	var before *time.Time
	if req.Before != "" {
		t, err := time.Parse(time.RFC3339Nano, req.Before)
		if err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid before cursor"})
			return
		}
		before = &t
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	page, err := h.messaging.GetMessages(convID, userID, before, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Send godoc
// @Summary Send a message
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param body body model.SendMessageRequest true "Message content"
// @Success 201 {object} model.Message
// @Failure 403 {object} model.ErrorResponse
// @Router /conversations/{id}/messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid conversation ID"})
		return
	}

	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)

	if err := h.moderation.CheckSendRestrictions(userID); err != nil {
		respondError(c, err)
		return
	}

	screening := service.ScreenContent(req.Content)
	if screening.Action == service.ScreeningBlock {
		c.JSON(http.StatusForbidden, model.ErrorResponse{
			Error: "Message blocked by content screening",
			Code:  "PERMISSION_DENIED",
		})
		return
	}

	msg, err := h.messaging.SendMessage(userID, convID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	if screening.Action == service.ScreeningReview {
		_ = h.messaging.FlagForReview(msg.ID, model.ReportReasonInappropriate)
	}

	h.fanOutNewMessage(msg)
	c.JSON(http.StatusCreated, msg)
}

// MarkRead godoc
// @Summary Mark a message as read
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 200 {object} model.SuccessResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /messages/{id}/read [post]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	msgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid message ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.messaging.MarkMessageAsRead(msgID, userID); err != nil {
		respondError(c, err)
		return
	}

	// Tell the sender their message was read
	if msg, err := h.messaging.FindMessage(msgID); err == nil {
		h.hub.SendToUser(msg.SenderID, ws.StatusUpdateEvent(msg.ID, msg.ConversationID, model.MessageStatusRead))
		h.hub.SendToConversation(msg.ConversationID, ws.StatusUpdateEvent(msg.ID, msg.ConversationID, model.MessageStatusRead))
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "marked as read"})
}

// Delete godoc
// @Summary Delete a message you sent
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 200 {object} model.SuccessResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /messages/{id} [delete]
func (h *MessageHandler) Delete(c *gin.Context) {
	msgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid message ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.messaging.DeleteMessage(msgID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "message deleted"})
}

// Report godoc
// @Summary Report a message for moderation
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Param body body model.ReportMessageRequest true "Report reason"
// @Success 201 {object} model.MessageReport
// @Router /messages/{id}/report [post]
func (h *MessageHandler) Report(c *gin.Context) {
	msgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid message ID"})
		return
	}

	var req model.ReportMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	report, err := h.messaging.ReportMessage(userID, msgID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

// fanOutNewMessage delivers a sent message over every channel: the open
// thread view, the recipient's other connections, and push when the
// recipient is offline.
func (h *MessageHandler) fanOutNewMessage(msg *model.Message) {
	event := ws.NewMessageEvent(msg)
	h.hub.SendToConversation(msg.ConversationID, event)
	h.hub.SendToUser(msg.RecipientID, event)

	if h.hub.IsUserOnline(msg.RecipientID) {
		if changed, err := h.messaging.MarkMessageDelivered(msg.ID); err == nil && changed {
			update := ws.StatusUpdateEvent(msg.ID, msg.ConversationID, model.MessageStatusDelivered)
			h.hub.SendToUser(msg.SenderID, update)
			h.hub.SendToConversation(msg.ConversationID, update)
		}
		return
	}

	if h.notifier != nil {
		senderName := msg.Sender.Name
		preview := msg.Content
		if len(preview) > 80 {
			preview = fmt.Sprintf("%.77s...", preview)
		}
		go h.notifier.NotifyNewMessage(msg.RecipientID, senderName, preview)
	}
}
