package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lesson-booking-api/internal/models"
	"github.com/noah-isme/lesson-booking-api/pkg/config"
	appErrors "github.com/noah-isme/lesson-booking-api/pkg/errors"
)

// CapacityDefaults carries the quota fallback chain: a lesson's own value
// wins, then its classroom default, then the system default. The ordering is
// a business rule, not an implementation detail.
type CapacityDefaults struct {
	Total             int
	Beginner          int
	ClassroomTotal    map[string]int
	ClassroomBeginner map[string]int
}

// ResolveCapacity applies the three-tier fallback for one quota value.
func ResolveCapacity(explicit *int, classroomDefault, systemDefault int) int {
	if explicit != nil {
		return *explicit
	}
	if classroomDefault > 0 {
		return classroomDefault
	}
	return systemDefault
}

// Compute turns a lesson and its reservations into per-pool seat counts.
// Pure: no clock, no I/O. Only CONFIRMED reservations occupy seats;
// waitlisted and terminal rows are ignored.
func Compute(lesson models.Lesson, reservations []models.Reservation, defaults CapacityDefaults) models.LessonAvailability {
	total := ResolveCapacity(lesson.TotalCapacity, defaults.ClassroomTotal[lesson.Classroom], defaults.Total)
	beginnerCap := ResolveCapacity(lesson.BeginnerCapacity, defaults.ClassroomBeginner[lesson.Classroom], defaults.Beginner)
	if beginnerCap > total {
		// The beginner quota is carved out of the general pool, never added.
		beginnerCap = total
	}

	out := models.LessonAvailability{
		LessonID:         lesson.ID,
		Date:             lesson.Date,
		Classroom:        lesson.Classroom,
		Type:             lesson.Type,
		BeginnerCapacity: beginnerCap,
	}

	confirmed := make([]models.Reservation, 0, len(reservations))
	for _, r := range reservations {
		if r.Status == models.ReservationConfirmed {
			confirmed = append(confirmed, r)
		}
	}

	switch lesson.Type {
	case models.ClassroomTimeDual:
		morningEnd, okMorning := models.ClockMinutes(lesson.MorningEnd)
		afternoonStart, okAfternoon := models.ClockMinutes(lesson.AfternoonStart)

		var morningCount, afternoonCount, beginnerAfternoon int
		for _, r := range confirmed {
			start, okStart := models.ClockMinutes(r.StartTime)
			end, okEnd := models.ClockMinutes(r.EndTime)
			if !okStart || !okEnd {
				// Unplaceable rows are left out of both pools: capacity
				// checks fail open on missing inputs.
				continue
			}
			// A reservation spanning the break occupies a seat in both
			// halves.
			if okMorning && start <= morningEnd {
				morningCount++
			}
			if okAfternoon && end >= afternoonStart {
				afternoonCount++
				if r.IsBeginner {
					beginnerAfternoon++
				}
			}
		}

		morning := poolAvailability(models.PoolMorning, total, morningCount)
		afternoon := poolAvailability(models.PoolAfternoon, total, afternoonCount)
		out.Pools = []models.PoolAvailability{morning, afternoon}
		out.BeginnerConfirmed = beginnerAfternoon
		out.BeginnerAvailable = clampBeginner(afternoon.Available, beginnerCap, beginnerAfternoon)

	default: // SESSION_BASED and ALL_DAY_TIMED share the single-pool model.
		var beginnerConfirmed int
		for _, r := range confirmed {
			if r.IsBeginner {
				beginnerConfirmed++
			}
		}
		pool := poolAvailability(models.PoolSession, total, len(confirmed))
		out.Pools = []models.PoolAvailability{pool}
		out.BeginnerConfirmed = beginnerConfirmed
		out.BeginnerAvailable = clampBeginner(pool.Available, beginnerCap, beginnerConfirmed)
	}

	return out
}

func poolAvailability(pool models.Pool, capacity, confirmed int) models.PoolAvailability {
	available := capacity - confirmed
	if available < 0 {
		available = 0
	}
	return models.PoolAvailability{
		Pool:      pool,
		Capacity:  capacity,
		Confirmed: confirmed,
		Available: available,
		// Zero-capacity pools are not offered, so they are never "full".
		Full: available == 0 && capacity > 0,
	}
}

func clampBeginner(generalAvailable, beginnerCap, beginnerConfirmed int) int {
	remaining := beginnerCap - beginnerConfirmed
	if remaining < 0 {
		remaining = 0
	}
	if remaining > generalAvailable {
		remaining = generalAvailable
	}
	return remaining
}

type availabilityDatasets interface {
	Lessons(ctx context.Context) ([]models.Lesson, error)
	Reservations(ctx context.Context) ([]models.Reservation, error)
}

// AvailabilityService answers seat-count queries from the snapshot cache.
// Reads are side-effect-free and lock-free.
type AvailabilityService struct {
	data     availabilityDatasets
	defaults CapacityDefaults
	leadTime time.Duration
	logger   *zap.Logger
	now      func() time.Time
	loc      *time.Location
}

// NewAvailabilityService builds the service from booking config.
func NewAvailabilityService(data availabilityDatasets, booking config.BookingConfig, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		data: data,
		defaults: CapacityDefaults{
			Total:             booking.DefaultCapacity,
			Beginner:          booking.DefaultBeginnerCapacity,
			ClassroomTotal:    booking.ClassroomCapacities,
			ClassroomBeginner: booking.ClassroomBeginnerCapacities,
		},
		leadTime: booking.LeadTime,
		logger:   logger,
		now:      time.Now,
		loc:      time.Local,
	}
}

// Offered lists bookable lessons in [from, to] with their seat counts.
// Same-day lessons whose session end falls within the lead time are left
// out; existing reservations on them remain valid.
func (s *AvailabilityService) Offered(ctx context.Context, from, to string) ([]models.LessonAvailability, error) {
	lessons, err := s.data.Lessons(ctx)
	if err != nil {
		return nil, err
	}
	reservations, err := s.data.Reservations(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.LessonAvailability, 0, len(lessons))
	for _, lesson := range lessons {
		if !lesson.Bookable() {
			continue
		}
		if from != "" && lesson.Date < from {
			continue
		}
		if to != "" && lesson.Date > to {
			continue
		}
		if s.pastCutoff(lesson) {
			continue
		}
		result = append(result, Compute(lesson, reservationsForLesson(lesson, reservations, ""), s.defaults))
	}
	return result, nil
}

// ForLesson computes seat counts for one lesson, optionally excluding a
// reservation's own occupancy (used when re-validating an amendment).
func (s *AvailabilityService) ForLesson(ctx context.Context, lessonID, excludeReservationID string) (models.Lesson, models.LessonAvailability, error) {
	lessons, err := s.data.Lessons(ctx)
	if err != nil {
		return models.Lesson{}, models.LessonAvailability{}, err
	}
	var lesson *models.Lesson
	for i := range lessons {
		if lessons[i].ID == lessonID {
			lesson = &lessons[i]
			break
		}
	}
	if lesson == nil {
		return models.Lesson{}, models.LessonAvailability{}, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}

	reservations, err := s.data.Reservations(ctx)
	if err != nil {
		return models.Lesson{}, models.LessonAvailability{}, err
	}
	availability := Compute(*lesson, reservationsForLesson(*lesson, reservations, excludeReservationID), s.defaults)
	return *lesson, availability, nil
}

// pastCutoff reports whether the lesson is already unbookable by clock:
// past dates, or today with the session end inside the lead-time window.
func (s *AvailabilityService) pastCutoff(lesson models.Lesson) bool {
	now := s.now().In(s.loc)
	today := now.Format(models.DateLayout)
	if lesson.Date < today {
		return true
	}
	if lesson.Date > today {
		return false
	}
	end, err := models.CombineDateClock(lesson.Date, lesson.SessionEnd(), s.loc)
	if err != nil {
		// Undetermined session end fails open: the lesson stays offered.
		return false
	}
	return !now.Add(s.leadTime).Before(end)
}

// reservationsForLesson picks the non-canceled reservations belonging to the
// lesson's classroom and date.
func reservationsForLesson(lesson models.Lesson, all []models.Reservation, excludeID string) []models.Reservation {
	matched := make([]models.Reservation, 0, 16)
	for _, r := range all {
		if r.Classroom != lesson.Classroom || r.Date != lesson.Date {
			continue
		}
		if r.Status == models.ReservationCanceled {
			continue
		}
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		matched = append(matched, r)
	}
	return matched
}
