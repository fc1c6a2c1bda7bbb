package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/reduce-go/internal/domain"
)

// DeviceHandler reports the machine the server runs on
type DeviceHandler struct {
	info domain.DeviceInfo
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(info domain.DeviceInfo) *DeviceHandler {
	return &DeviceHandler{info: info.WithDefaults()}
}

// DeviceInfo handles GET /device_info
func (h *DeviceHandler) DeviceInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.info)
}
