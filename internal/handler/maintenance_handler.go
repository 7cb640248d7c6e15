package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/lesson-booking-api/pkg/errors"
	"github.com/noah-isme/lesson-booking-api/pkg/response"
)

type maintenanceRunner interface {
	Trigger(reason string) error
	LastRun(ctx context.Context) (time.Time, bool)
}

// MaintenanceHandler exposes the staff cache-maintenance surface.
type MaintenanceHandler struct {
	service maintenanceRunner
}

// NewMaintenanceHandler constructs the handler.
func NewMaintenanceHandler(service maintenanceRunner) *MaintenanceHandler {
	return &MaintenanceHandler{service: service}
}

// Rebuild godoc
// @Summary Trigger a full snapshot rebuild
// @Tags Maintenance
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /maintenance/rebuild [post]
func (h *MaintenanceHandler) Rebuild(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	if err := h.service.Trigger("manual"); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue rebuild"))
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"queued": true}, nil)
}

// Status godoc
// @Summary Report the last completed full rebuild
// @Tags Maintenance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /maintenance/status [get]
func (h *MaintenanceHandler) Status(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	last, ok := h.service.LastRun(c.Request.Context())
	payload := gin.H{"last_full_rebuild": nil}
	if ok {
		payload["last_full_rebuild"] = last.UTC()
	}
	response.JSON(c, http.StatusOK, payload, nil)
}
