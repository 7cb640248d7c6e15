package handler

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lesson-booking-api/internal/dto"
	"github.com/noah-isme/lesson-booking-api/internal/service"
	appErrors "github.com/noah-isme/lesson-booking-api/pkg/errors"
	"github.com/noah-isme/lesson-booking-api/pkg/response"
)

type sheetExporter interface {
	GenerateDailySheet(ctx context.Context, date, format string) (*service.ExportResult, error)
	ParseToken(token string, allowExpired bool) (date, relPath string, expiresAt time.Time, err error)
	Open(relPath string) (*os.File, error)
}

// ExportHandler serves the daily reservation sheet.
type ExportHandler struct {
	service sheetExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(service sheetExporter) *ExportHandler {
	return &ExportHandler{service: service}
}

// Generate godoc
// @Summary Render the reservation sheet for one date
// @Tags Exports
// @Produce json
// @Param date query string true "Sheet date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 201 {object} response.Envelope
// @Router /exports/daily [post]
func (h *ExportHandler) Generate(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export query"))
		return
	}
	result, err := h.service.GenerateDailySheet(c.Request.Context(), query.Date, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{
		"url":        result.URL,
		"format":     result.Format,
		"expires_at": result.ExpiresAt.UTC(),
	})
}

// Download godoc
// @Summary Download a previously generated sheet
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	_, relPath, _, err := h.service.ParseToken(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token"))
		return
	}
	file, err := h.service.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "sheet no longer available"))
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	contentType := "text/csv"
	if strings.HasSuffix(relPath, ".pdf") {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", "attachment; filename="+relPath)
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
