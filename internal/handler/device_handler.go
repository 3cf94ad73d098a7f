package handler

import (
	"net/http"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/carecollective/careconnect/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DeviceHandler registers and removes FCM device tokens.
type DeviceHandler struct {
	devices *repository.DeviceRepository
}

func NewDeviceHandler(devices *repository.DeviceRepository) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

// Register godoc
// @Summary Register a device token for push notifications
// @Tags Devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.RegisterDeviceRequest true "FCM token"
// @Success 201 {object} model.SuccessResponse
// @Router /devices [post]
func (h *DeviceHandler) Register(c *gin.Context) {
	var req model.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.devices.Register(userID, req.Token); err != nil {
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{Error: "Failed to register device"})
		return
	}

	c.JSON(http.StatusCreated, model.SuccessResponse{Message: "device registered"})
}

// Unregister godoc
// @Summary Remove a device token
// @Tags Devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.RegisterDeviceRequest true "FCM token"
// @Success 200 {object} model.SuccessResponse
// @Router /devices [delete]
func (h *DeviceHandler) Unregister(c *gin.Context) {
	var req model.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.devices.Remove(userID, req.Token); err != nil {
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{Error: "Failed to remove device"})
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "device removed"})
}
