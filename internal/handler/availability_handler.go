package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lesson-booking-api/internal/dto"
	"github.com/noah-isme/lesson-booking-api/internal/middleware"
	"github.com/noah-isme/lesson-booking-api/internal/models"
	appErrors "github.com/noah-isme/lesson-booking-api/pkg/errors"
	"github.com/noah-isme/lesson-booking-api/pkg/response"
)

type availabilityReader interface {
	Offered(ctx context.Context, from, to string) ([]models.LessonAvailability, error)
	ForLesson(ctx context.Context, lessonID, excludeReservationID string) (models.Lesson, models.LessonAvailability, error)
}

// AvailabilityHandler serves seat-count queries.
type AvailabilityHandler struct {
	service availabilityReader
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(service availabilityReader) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// List godoc
// @Summary List offered lessons with seat availability
// @Tags Availability
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param classroom query string false "Classroom filter"
// @Success 200 {object} response.Envelope
// @Router /lessons/availability [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var query dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query"))
		return
	}
	offered, err := h.service.Offered(c.Request.Context(), query.From, query.To)
	if err != nil {
		response.Error(c, err)
		return
	}
	if query.Classroom != "" {
		filtered := offered[:0]
		for _, a := range offered {
			if a.Classroom == query.Classroom {
				filtered = append(filtered, a)
			}
		}
		offered = filtered
	}
	middleware.SetMeta(c, "lessons", len(offered))
	response.JSON(c, http.StatusOK, offered, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Seat availability for one lesson
// @Tags Availability
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id}/availability [get]
func (h *AvailabilityHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	_, availability, err := h.service.ForLesson(c.Request.Context(), c.Param("id"), "")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, availability, nil)
}
