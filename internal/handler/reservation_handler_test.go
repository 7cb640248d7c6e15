package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-booking-api/internal/dto"
	"github.com/noah-isme/lesson-booking-api/internal/middleware"
	"github.com/noah-isme/lesson-booking-api/internal/models"
	appErrors "github.com/noah-isme/lesson-booking-api/pkg/errors"
)

type fakeReservationSrv struct {
	reservation *models.Reservation
	list        []models.Reservation
	err         error

	lastCreate dto.CreateReservationRequest
	lastCancel dto.CancelReservationRequest
	lastID     string
	lastClaims *models.JWTClaims
}

func (f *fakeReservationSrv) List(_ context.Context, filter dto.ReservationFilter, claims *models.JWTClaims) ([]models.Reservation, error) {
	f.lastClaims = claims
	return f.list, f.err
}

func (f *fakeReservationSrv) Get(_ context.Context, id string, claims *models.JWTClaims) (*models.Reservation, error) {
	f.lastID = id
	f.lastClaims = claims
	return f.reservation, f.err
}

func (f *fakeReservationSrv) Create(_ context.Context, req dto.CreateReservationRequest, claims *models.JWTClaims) (*models.Reservation, error) {
	f.lastCreate = req
	f.lastClaims = claims
	return f.reservation, f.err
}

func (f *fakeReservationSrv) Cancel(_ context.Context, id string, req dto.CancelReservationRequest, claims *models.JWTClaims) (*models.Reservation, error) {
	f.lastID = id
	f.lastCancel = req
	f.lastClaims = claims
	return f.reservation, f.err
}

func (f *fakeReservationSrv) Amend(_ context.Context, id string, req dto.AmendReservationRequest, claims *models.JWTClaims) (*models.Reservation, error) {
	f.lastID = id
	f.lastClaims = claims
	return f.reservation, f.err
}

func (f *fakeReservationSrv) ConfirmWaitlisted(_ context.Context, id string, claims *models.JWTClaims) (*models.Reservation, error) {
	f.lastID = id
	f.lastClaims = claims
	return f.reservation, f.err
}

func (f *fakeReservationSrv) Complete(_ context.Context, id string, claims *models.JWTClaims) (*models.Reservation, error) {
	f.lastID = id
	f.lastClaims = claims
	return f.reservation, f.err
}

func reservationTestContext(t *testing.T, method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
	return c, rec
}

func TestReservationHandlerCreate(t *testing.T) {
	srv := &fakeReservationSrv{reservation: &models.Reservation{ID: "r-1", Status: models.ReservationConfirmed}}
	handler := NewReservationHandler(srv)

	c, rec := reservationTestContext(t, http.MethodPost, "/reservations",
		`{"classroom":"daikanyama","date":"2025-10-15","is_beginner":true}`)
	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "daikanyama", srv.lastCreate.Classroom)
	assert.True(t, srv.lastCreate.IsBeginner)
	require.NotNil(t, srv.lastClaims)
	assert.Equal(t, "stu-1", srv.lastClaims.UserID)
}

func TestReservationHandlerCreateRejectsBadJSON(t *testing.T) {
	handler := NewReservationHandler(&fakeReservationSrv{})

	c, rec := reservationTestContext(t, http.MethodPost, "/reservations", `{"classroom":`)
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReservationHandlerBusinessRejectionStatus(t *testing.T) {
	srv := &fakeReservationSrv{err: appErrors.ErrDuplicateDay}
	handler := NewReservationHandler(srv)

	c, rec := reservationTestContext(t, http.MethodPost, "/reservations",
		`{"classroom":"daikanyama","date":"2025-10-15"}`)
	handler.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, appErrors.ErrDuplicateDay.Code, envelope.Error.Code)
}

func TestReservationHandlerCancelWithoutBody(t *testing.T) {
	srv := &fakeReservationSrv{reservation: &models.Reservation{ID: "r-1", Status: models.ReservationCanceled}}
	handler := NewReservationHandler(srv)

	c, rec := reservationTestContext(t, http.MethodPost, "/reservations/r-1/cancel", "")
	c.Params = gin.Params{{Key: "id", Value: "r-1"}}
	handler.Cancel(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r-1", srv.lastID)
	assert.Empty(t, srv.lastCancel.Message)
}

func TestReservationHandlerCancelWithMessage(t *testing.T) {
	srv := &fakeReservationSrv{reservation: &models.Reservation{ID: "r-1", Status: models.ReservationCanceled}}
	handler := NewReservationHandler(srv)

	c, rec := reservationTestContext(t, http.MethodPost, "/reservations/r-1/cancel", `{"message":"sick"}`)
	c.Params = gin.Params{{Key: "id", Value: "r-1"}}
	handler.Cancel(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sick", srv.lastCancel.Message)
}

func TestReservationHandlerConfirm(t *testing.T) {
	srv := &fakeReservationSrv{reservation: &models.Reservation{ID: "r-1", Status: models.ReservationConfirmed}}
	handler := NewReservationHandler(srv)

	c, rec := reservationTestContext(t, http.MethodPost, "/reservations/r-1/confirm", "")
	c.Params = gin.Params{{Key: "id", Value: "r-1"}}
	handler.Confirm(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r-1", srv.lastID)
}
