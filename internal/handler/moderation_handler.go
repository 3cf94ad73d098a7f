package handler

import (
	"net/http"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/carecollective/careconnect/internal/service"
	"github.com/carecollective/careconnect/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ModerationHandler handles the moderator-only endpoints. Routes mounted
// under it must already be behind the admin middleware.
type ModerationHandler struct {
	moderation *service.ModerationService
	hub        *ws.Hub
}

func NewModerationHandler(moderation *service.ModerationService, hub *ws.Hub) *ModerationHandler {
	return &ModerationHandler{moderation: moderation, hub: hub}
}

// Queue godoc
// @Summary Get the pending report queue
// @Tags Moderation
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max reports" default(20)
// @Success 200 {array} model.MessageReport
// @Router /moderation/queue [get]
func (h *ModerationHandler) Queue(c *gin.Context) {
	var req struct {
		Limit int `form:"limit,default=20"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	queue, err := h.moderation.PendingQueue(req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, queue)
}

// ProcessReport godoc
// @Summary Decide a pending report
// @Tags Moderation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param body body model.ProcessReportRequest true "Decision"
// @Success 200 {object} model.SuccessResponse
// @Router /moderation/reports/{id} [post]
func (h *ModerationHandler) ProcessReport(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid report ID"})
		return
	}

	var req model.ProcessReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	reviewerID := c.MustGet("user_id").(uuid.UUID)
	if err := h.moderation.ProcessReport(reviewerID, reportID, req.Decision); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "report processed"})
}

// CloseConversation godoc
// @Summary Close a conversation
// @Tags Moderation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} model.SuccessResponse
// @Router /moderation/conversations/{id}/close [post]
func (h *ModerationHandler) CloseConversation(c *gin.Context) {
	h.transition(c, h.moderation.CloseConversation)
}

// BlockConversation godoc
// @Summary Block a conversation
// @Tags Moderation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} model.SuccessResponse
// @Router /moderation/conversations/{id}/block [post]
func (h *ModerationHandler) BlockConversation(c *gin.Context) {
	h.transition(c, h.moderation.BlockConversation)
}

func (h *ModerationHandler) transition(c *gin.Context, fn func(uuid.UUID) error) {
	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid conversation ID"})
		return
	}

	if err := fn(convID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "conversation updated"})
}
