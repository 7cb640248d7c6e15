package cache

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/lesson-booking-api/internal/models"
	"github.com/noah-isme/lesson-booking-api/internal/store"
)

// Required columns per dataset. A rebuild fails hard when one is missing;
// mutators report Stale when the recorded column map lacks one.
var (
	lessonRequiredColumns      = []string{"id", "date", "classroom", "type", "status"}
	reservationRequiredColumns = []string{"id", "student_id", "classroom", "date", "status"}
	rosterRequiredColumns      = []string{"student_id"}
	priceRequiredColumns       = []string{"classroom", "mode"}
)

// ReservationHeaders is the column set the lifecycle manager writes back to
// the store. The store adapter binds by name, so physical order is free.
var ReservationHeaders = []string{
	"id", "student_id", "classroom", "date", "status",
	"start_time", "end_time", "is_beginner", "notes",
	"accounting", "cancel_message", "created_at", "updated_at",
}

// EncodeReservationRow flattens a reservation into store cells matching
// ReservationHeaders.
func EncodeReservationRow(r models.Reservation) []string {
	return []string{
		r.ID,
		r.StudentID,
		r.Classroom,
		r.Date,
		string(r.Status),
		r.StartTime,
		r.EndTime,
		strconv.FormatBool(r.IsBeginner),
		r.Notes,
		string(r.Accounting),
		r.CancelMessage,
		r.CreatedAt.UTC().Format(time.RFC3339),
		r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func requireColumns(t *store.Table, required []string) error {
	for _, name := range required {
		if _, ok := t.Column(name); !ok {
			return fmt.Errorf("table %s is missing column %q", t.Name, name)
		}
	}
	return nil
}

func decodeLessonRow(t *store.Table, row []string) (models.Lesson, error) {
	date, err := models.NormalizeDate(t.Cell(row, "date"))
	if err != nil {
		return models.Lesson{}, fmt.Errorf("lesson %s: %w", t.Cell(row, "id"), err)
	}

	lesson := models.Lesson{
		ID:        t.Cell(row, "id"),
		Date:      date,
		Classroom: t.Cell(row, "classroom"),
		Venue:     t.Cell(row, "venue"),
		Type:      models.ClassroomType(t.Cell(row, "type")),
		Status:    models.LessonStatus(t.Cell(row, "status")),
	}

	clocks := []struct {
		column string
		target *string
	}{
		{"start_time", &lesson.StartTime},
		{"end_time", &lesson.EndTime},
		{"morning_start", &lesson.MorningStart},
		{"morning_end", &lesson.MorningEnd},
		{"afternoon_start", &lesson.AfternoonStart},
		{"afternoon_end", &lesson.AfternoonEnd},
		{"break_start", &lesson.BreakStart},
		{"break_end", &lesson.BreakEnd},
		{"beginner_window_start", &lesson.BeginnerWindowStart},
	}
	for _, c := range clocks {
		normalized, err := models.NormalizeClock(t.Cell(row, c.column))
		if err != nil {
			return models.Lesson{}, fmt.Errorf("lesson %s %s: %w", lesson.ID, c.column, err)
		}
		*c.target = normalized
	}

	lesson.TotalCapacity = parseOptionalInt(t.Cell(row, "total_capacity"))
	lesson.BeginnerCapacity = parseOptionalInt(t.Cell(row, "beginner_capacity"))
	return lesson, nil
}

func decodeReservationRow(t *store.Table, row []string) (models.Reservation, error) {
	date, err := models.NormalizeDate(t.Cell(row, "date"))
	if err != nil {
		return models.Reservation{}, fmt.Errorf("reservation %s: %w", t.Cell(row, "id"), err)
	}
	start, err := models.NormalizeClock(t.Cell(row, "start_time"))
	if err != nil {
		return models.Reservation{}, fmt.Errorf("reservation %s start: %w", t.Cell(row, "id"), err)
	}
	end, err := models.NormalizeClock(t.Cell(row, "end_time"))
	if err != nil {
		return models.Reservation{}, fmt.Errorf("reservation %s end: %w", t.Cell(row, "id"), err)
	}

	r := models.Reservation{
		ID:            t.Cell(row, "id"),
		StudentID:     t.Cell(row, "student_id"),
		Classroom:     t.Cell(row, "classroom"),
		Date:          date,
		Status:        models.ReservationStatus(t.Cell(row, "status")),
		StartTime:     start,
		EndTime:       end,
		IsBeginner:    parseBool(t.Cell(row, "is_beginner")),
		Notes:         t.Cell(row, "notes"),
		CancelMessage: t.Cell(row, "cancel_message"),
		CreatedAt:     parseTimestamp(t.Cell(row, "created_at")),
		UpdatedAt:     parseTimestamp(t.Cell(row, "updated_at")),
	}
	if raw := strings.TrimSpace(t.Cell(row, "accounting")); raw != "" && json.Valid([]byte(raw)) {
		r.Accounting = json.RawMessage(raw)
	}
	return r, nil
}

func decodeRosterRow(t *store.Table, row []string) (models.RosterEntry, error) {
	return models.RosterEntry{
		StudentID:     t.Cell(row, "student_id"),
		Name:          t.Cell(row, "name"),
		NotifyAddress: t.Cell(row, "notify_address"),
		IsBeginner:    parseBool(t.Cell(row, "is_beginner")),
		Active:        parseBool(t.Cell(row, "active")),
	}, nil
}

func decodePriceRow(t *store.Table, row []string) (models.PriceRule, error) {
	rule := models.PriceRule{
		Classroom: t.Cell(row, "classroom"),
		Mode:      models.PricingMode(strings.ToUpper(t.Cell(row, "mode"))),
	}
	if v := parseOptionalInt(t.Cell(row, "session_fee")); v != nil {
		rule.SessionFee = *v
	}
	if v := parseOptionalInt(t.Cell(row, "hourly_fee")); v != nil {
		rule.HourlyFee = *v
	}
	return rule, nil
}

func parseOptionalInt(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	models.DateLayout,
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
