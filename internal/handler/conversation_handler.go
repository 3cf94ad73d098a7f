package handler

import (
	"net/http"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/carecollective/careconnect/internal/service"
	"github.com/carecollective/careconnect/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ConversationHandler handles conversation and preference endpoints.
type ConversationHandler struct {
	messaging  *service.MessagingService
	moderation *service.ModerationService
	hub        *ws.Hub
}

func NewConversationHandler(messaging *service.MessagingService, moderation *service.ModerationService, hub *ws.Hub) *ConversationHandler {
	return &ConversationHandler{messaging: messaging, moderation: moderation, hub: hub}
}

// List godoc
// @Summary List the current user's conversations
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} model.ConversationPage
// @Router /conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	var req model.ConversationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	page, err := h.messaging.GetConversations(userID, req.Page, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Create godoc
// @Summary Start a conversation with another user
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.CreateConversationRequest true "Recipient and opening message"
// @Success 201 {object} model.Conversation
// @Failure 403 {object} model.ErrorResponse
// @Router /conversations [post]
func (h *ConversationHandler) Create(c *gin.Context) {
	var req model.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.moderation.CheckSendRestrictions(userID); err != nil {
		respondError(c, err)
		return
	}

	conv, err := h.messaging.CreateConversation(userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.notifyNewConversation(conv, userID)
	c.JSON(http.StatusCreated, conv)
}

// StartHelp godoc
// @Summary Offer help on an open help request
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.StartHelpConversationRequest true "Help request and opening message"
// @Success 201 {object} model.Conversation
// @Failure 429 {object} model.ErrorResponse
// @Router /conversations/help [post]
func (h *ConversationHandler) StartHelp(c *gin.Context) {
	var req model.StartHelpConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.moderation.CheckSendRestrictions(userID); err != nil {
		respondError(c, err)
		return
	}

	conv, err := h.messaging.StartHelpConversation(userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.notifyNewConversation(conv, userID)
	c.JSON(http.StatusCreated, conv)
}

// Get godoc
// @Summary Get a conversation
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} model.Conversation
// @Failure 404 {object} model.ErrorResponse
// @Router /conversations/{id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid conversation ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	conv, err := h.messaging.GetConversation(convID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv)
}

// GetPreferences godoc
// @Summary Get messaging preferences
// @Tags Preferences
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.MessagingPreferences
// @Router /preferences [get]
func (h *ConversationHandler) GetPreferences(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	prefs, err := h.messaging.GetMessagingPreferences(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, prefs)
}

// UpdatePreferences godoc
// @Summary Update messaging preferences
// @Tags Preferences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.UpdatePreferencesRequest true "New preferences"
// @Success 200 {object} model.MessagingPreferences
// @Router /preferences [put]
func (h *ConversationHandler) UpdatePreferences(c *gin.Context) {
	var req model.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	prefs, err := h.messaging.UpdateMessagingPreferences(userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, prefs)
}

// notifyNewConversation pushes the opening message to the recipient.
func (h *ConversationHandler) notifyNewConversation(conv *model.Conversation, creatorID uuid.UUID) {
	if conv.LastMessage == nil {
		return
	}
	ids, err := h.messaging.ActiveParticipantIDs(conv.ID)
	if err != nil {
		return
	}
	for _, id := range ids {
		if id != creatorID {
			h.hub.SendToUser(id, ws.NewMessageEvent(conv.LastMessage))
		}
	}
}
