package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lesson-booking-api/internal/models"
	"github.com/noah-isme/lesson-booking-api/pkg/response"
)

type lessonCloser interface {
	Close(ctx context.Context, lessonID string, claims *models.JWTClaims) (models.Lesson, error)
}

// LessonHandler serves staff-side lesson transitions.
type LessonHandler struct {
	service lessonCloser
}

// NewLessonHandler constructs the handler.
func NewLessonHandler(service lessonCloser) *LessonHandler {
	return &LessonHandler{service: service}
}

// Close godoc
// @Summary Close a lesson for further bookings
// @Tags Availability
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /lessons/{id}/close [post]
func (h *LessonHandler) Close(c *gin.Context) {
	lesson, err := h.service.Close(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}
