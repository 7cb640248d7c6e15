package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lesson-booking-api/internal/models"
	appErrors "github.com/noah-isme/lesson-booking-api/pkg/errors"
	"github.com/noah-isme/lesson-booking-api/pkg/export"
	"github.com/noah-isme/lesson-booking-api/pkg/storage"
)

type exportDatasets interface {
	Reservations(ctx context.Context) ([]models.Reservation, error)
	Roster(ctx context.Context) ([]models.RosterEntry, error)
	Prices(ctx context.Context) ([]models.PriceRule, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       string
	ExpiresAt    time.Time
}

var sheetHeaders = []string{
	"student_id", "student_name", "classroom", "status",
	"start_time", "end_time", "beginner", "fee", "notes",
}

// ExportService renders the daily reservation sheet handed to classroom
// staff: one row per reservation on the date, joined with roster names and
// the price master.
type ExportService struct {
	data    exportDatasets
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(data exportDatasets, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		data:    data,
		storage: files,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// GenerateDailySheet renders and stores the sheet for one date and returns a
// signed download reference.
func (s *ExportService) GenerateDailySheet(ctx context.Context, date, format string) (*ExportResult, error) {
	normDate, err := models.NormalizeDate(date)
	if err != nil || normDate == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid sheet date")
	}
	if format == "" {
		format = "csv"
	}

	dataset, err := s.buildDailyDataset(ctx, normDate)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch format {
	case "csv":
		payload, err = s.csv.Render(dataset)
	case "pdf":
		payload, err = s.pdf.Render(dataset, "Reservations "+normDate)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported sheet format")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render sheet")
	}

	filename := fmt.Sprintf("reservations_%s_%s.%s", normDate, time.Now().UTC().Format("20060102_150405"), format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store sheet")
	}

	// Each generate sweeps sheets whose download window has passed.
	if removed, err := s.Cleanup(0); err != nil {
		s.logger.Warn("expired sheet cleanup failed", zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Info("expired sheets removed", zap.Int("count", len(removed)))
	}

	token, expiresAt, err := s.signer.Generate(normDate, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign sheet url")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (date, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildDailyDataset(ctx context.Context, date string) (export.Dataset, error) {
	reservations, err := s.data.Reservations(ctx)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservations")
	}
	names := map[string]string{}
	if roster, err := s.data.Roster(ctx); err != nil {
		s.logger.Warn("roster unavailable for sheet, ids only", zap.Error(err))
	} else {
		for _, entry := range roster {
			names[entry.StudentID] = entry.Name
		}
	}
	prices := map[string]models.PriceRule{}
	if rules, err := s.data.Prices(ctx); err != nil {
		s.logger.Warn("price master unavailable for sheet, fees omitted", zap.Error(err))
	} else {
		for _, rule := range rules {
			prices[rule.Classroom] = rule
		}
	}

	var day []models.Reservation
	for _, r := range reservations {
		if r.Date == date {
			day = append(day, r)
		}
	}
	sort.SliceStable(day, func(i, j int) bool {
		if day[i].Classroom != day[j].Classroom {
			return day[i].Classroom < day[j].Classroom
		}
		if day[i].StartTime != day[j].StartTime {
			return day[i].StartTime < day[j].StartTime
		}
		return day[i].StudentID < day[j].StudentID
	})

	dataset := export.Dataset{Headers: sheetHeaders}
	for _, r := range day {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"student_id":   r.StudentID,
			"student_name": names[r.StudentID],
			"classroom":    r.Classroom,
			"status":       string(r.Status),
			"start_time":   r.StartTime,
			"end_time":     r.EndTime,
			"beginner":     strconv.FormatBool(r.IsBeginner),
			"fee":          feeFor(r, prices),
			"notes":        r.Notes,
		})
	}
	return dataset, nil
}

// feeFor prices one reservation: flat rooms charge per session, timed rooms
// per hour of the booked window. Unpriceable rows export an empty fee.
func feeFor(r models.Reservation, prices map[string]models.PriceRule) string {
	rule, ok := prices[r.Classroom]
	if !ok {
		return ""
	}
	switch rule.Mode {
	case models.PricingFlat:
		return strconv.Itoa(rule.SessionFee)
	case models.PricingTimed:
		start, okStart := models.ClockMinutes(r.StartTime)
		end, okEnd := models.ClockMinutes(r.EndTime)
		if !okStart || !okEnd || end <= start {
			return ""
		}
		return strconv.Itoa(rule.HourlyFee * (end - start) / 60)
	}
	return ""
}
