package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lesson-booking-api/internal/dto"
	"github.com/noah-isme/lesson-booking-api/internal/models"
	appErrors "github.com/noah-isme/lesson-booking-api/pkg/errors"
	"github.com/noah-isme/lesson-booking-api/pkg/response"
)

type reservationLifecycle interface {
	List(ctx context.Context, filter dto.ReservationFilter, claims *models.JWTClaims) ([]models.Reservation, error)
	Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.Reservation, error)
	Create(ctx context.Context, req dto.CreateReservationRequest, claims *models.JWTClaims) (*models.Reservation, error)
	Cancel(ctx context.Context, id string, req dto.CancelReservationRequest, claims *models.JWTClaims) (*models.Reservation, error)
	Amend(ctx context.Context, id string, req dto.AmendReservationRequest, claims *models.JWTClaims) (*models.Reservation, error)
	ConfirmWaitlisted(ctx context.Context, id string, claims *models.JWTClaims) (*models.Reservation, error)
	Complete(ctx context.Context, id string, claims *models.JWTClaims) (*models.Reservation, error)
}

// ReservationHandler wires the reservation lifecycle to HTTP endpoints.
type ReservationHandler struct {
	service reservationLifecycle
}

// NewReservationHandler constructs the handler.
func NewReservationHandler(service reservationLifecycle) *ReservationHandler {
	return &ReservationHandler{service: service}
}

// List godoc
// @Summary List reservations visible to the caller
// @Tags Reservations
// @Produce json
// @Param classroom query string false "Classroom filter"
// @Param date query string false "Date filter (YYYY-MM-DD)"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /reservations [get]
func (h *ReservationHandler) List(c *gin.Context) {
	filter := dto.ReservationFilter{
		StudentID: c.Query("student_id"),
		Classroom: c.Query("classroom"),
		Date:      c.Query("date"),
		Status:    c.Query("status"),
	}
	reservations, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reservations, nil)
}

// Get godoc
// @Summary Fetch one reservation
// @Tags Reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.Envelope
// @Router /reservations/{id} [get]
func (h *ReservationHandler) Get(c *gin.Context) {
	reservation, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reservation, nil)
}

// Create godoc
// @Summary Book a lesson
// @Tags Reservations
// @Accept json
// @Produce json
// @Param payload body dto.CreateReservationRequest true "Reservation payload"
// @Success 201 {object} response.Envelope
// @Router /reservations [post]
func (h *ReservationHandler) Create(c *gin.Context) {
	var req dto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reservation payload"))
		return
	}
	reservation, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reservation)
}

// Cancel godoc
// @Summary Cancel a reservation
// @Tags Reservations
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param payload body dto.CancelReservationRequest false "Cancellation note"
// @Success 200 {object} response.Envelope
// @Router /reservations/{id}/cancel [post]
func (h *ReservationHandler) Cancel(c *gin.Context) {
	var req dto.CancelReservationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancel payload"))
			return
		}
	}
	reservation, err := h.service.Cancel(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reservation, nil)
}

// Amend godoc
// @Summary Move a reservation to a new time window
// @Tags Reservations
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param payload body dto.AmendReservationRequest true "New window"
// @Success 200 {object} response.Envelope
// @Router /reservations/{id} [put]
func (h *ReservationHandler) Amend(c *gin.Context) {
	var req dto.AmendReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid amend payload"))
		return
	}
	reservation, err := h.service.Amend(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reservation, nil)
}

// Confirm godoc
// @Summary Confirm a waitlisted reservation
// @Tags Reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.Envelope
// @Router /reservations/{id}/confirm [post]
func (h *ReservationHandler) Confirm(c *gin.Context) {
	reservation, err := h.service.ConfirmWaitlisted(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reservation, nil)
}

// Complete godoc
// @Summary Close out a confirmed reservation
// @Tags Reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.Envelope
// @Router /reservations/{id}/complete [post]
func (h *ReservationHandler) Complete(c *gin.Context) {
	reservation, err := h.service.Complete(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reservation, nil)
}
