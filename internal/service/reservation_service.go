package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lesson-booking-api/internal/cache"
	"github.com/noah-isme/lesson-booking-api/internal/dto"
	"github.com/noah-isme/lesson-booking-api/internal/models"
	"github.com/noah-isme/lesson-booking-api/internal/store"
	"github.com/noah-isme/lesson-booking-api/pkg/config"
	appErrors "github.com/noah-isme/lesson-booking-api/pkg/errors"
	"github.com/noah-isme/lesson-booking-api/pkg/lock"
)

type reservationDatasets interface {
	Lessons(ctx context.Context) ([]models.Lesson, error)
	Reservations(ctx context.Context) ([]models.Reservation, error)
	Roster(ctx context.Context) ([]models.RosterEntry, error)
	Prices(ctx context.Context) ([]models.PriceRule, error)
}

type reservationMutator interface {
	AppendReservation(ctx context.Context, r models.Reservation) cache.MutationResult
	PatchReservationStatus(ctx context.Context, id string, status models.ReservationStatus, cancelMessage string) cache.MutationResult
	ReplaceReservation(ctx context.Context, r models.Reservation) cache.MutationResult
	RebuildReservations(ctx context.Context) ([]models.Reservation, error)
}

type availabilityChecker interface {
	ForLesson(ctx context.Context, lessonID, excludeReservationID string) (models.Lesson, models.LessonAvailability, error)
}

type rowWriter interface {
	AppendRow(ctx context.Context, table string, headers, values []string) error
	WriteRow(ctx context.Context, table, idColumn, id string, headers, values []string) error
}

type outcomeRecorder interface {
	RecordReservationOutcome(status models.ReservationStatus)
}

// Notification is the payload handed to the external notifier when a seat
// opens up for a waitlisted student.
type Notification struct {
	Recipient     string `json:"recipient"`
	Event         string `json:"event"`
	ReservationID string `json:"reservation_id"`
	StudentID     string `json:"student_id"`
	Classroom     string `json:"classroom"`
	Date          string `json:"date"`
}

// EventSeatAvailable flags a freed seat matching a waitlisted reservation.
const EventSeatAvailable = "reservation.seat_available"

// Notifier delivers notifications out of process. Delivery is best effort:
// failures are logged and never roll back the booking write.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// ReservationService drives the reservation lifecycle. Every mutation runs
// under a per-date lock and writes the slow store first, then the snapshot
// cache, then notifications.
type ReservationService struct {
	data         reservationDatasets
	mutator      reservationMutator
	availability availabilityChecker
	rows         rowWriter
	locker       lock.Locker
	notifier     Notifier
	metrics      outcomeRecorder
	validator    *validator.Validate
	logger       *zap.Logger

	lockTimeout time.Duration
	minDuration time.Duration
	now         func() time.Time
}

// NewReservationService constructs ReservationService from booking config.
func NewReservationService(data reservationDatasets, mutator reservationMutator, availability availabilityChecker, rows rowWriter, locker lock.Locker, notifier Notifier, metrics outcomeRecorder, booking config.BookingConfig, validate *validator.Validate, logger *zap.Logger) *ReservationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	lockTimeout := booking.LockTimeout
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &ReservationService{
		data:         data,
		mutator:      mutator,
		availability: availability,
		rows:         rows,
		locker:       locker,
		notifier:     notifier,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		lockTimeout:  lockTimeout,
		minDuration:  booking.MinTimedDuration,
		now:          time.Now,
	}
}

// List returns reservations visible to the caller. Students only see their
// own rows regardless of the requested filter.
func (s *ReservationService) List(ctx context.Context, filter dto.ReservationFilter, claims *models.JWTClaims) ([]models.Reservation, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing identity")
	}
	if !claims.CanOverride() {
		filter.StudentID = claims.UserID
	}
	all, err := s.data.Reservations(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reservations")
	}
	out := make([]models.Reservation, 0, len(all))
	for _, r := range all {
		if filter.StudentID != "" && r.StudentID != filter.StudentID {
			continue
		}
		if filter.Classroom != "" && r.Classroom != filter.Classroom {
			continue
		}
		if filter.Date != "" && r.Date != filter.Date {
			continue
		}
		if filter.Status != "" && string(r.Status) != filter.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Get returns one reservation, guarded by ownership.
func (s *ReservationService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.Reservation, error) {
	r, err := s.findReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(r, claims); err != nil {
		return nil, err
	}
	return r, nil
}

// Create books a student into the lesson identified by classroom + date. A
// full session waitlists the reservation instead of rejecting it.
func (s *ReservationService) Create(ctx context.Context, req dto.CreateReservationRequest, claims *models.JWTClaims) (*models.Reservation, error) {
	if claims == nil || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing identity")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reservation payload")
	}
	date, start, end, err := normalizeWindow(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reservation payload")
	}

	handle, err := s.lockDate(ctx, date)
	if err != nil {
		return nil, err
	}
	defer s.release(handle)

	lesson, err := s.findLesson(ctx, req.Classroom, date)
	if err != nil {
		return nil, err
	}
	if !lesson.Bookable() {
		return nil, appErrors.ErrLessonClosed
	}

	// One active reservation per student per date, across classrooms. This
	// check rejects on read failure: booking twice is worse than retrying.
	dup, err := s.hasActiveOnDate(ctx, claims.UserID, date, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing reservations")
	}
	if dup {
		return nil, appErrors.ErrDuplicateDay
	}

	if err := s.windowGuards(ctx, lesson, start, end); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	reservation := models.Reservation{
		ID:         uuid.NewString(),
		StudentID:  claims.UserID,
		Classroom:  lesson.Classroom,
		Date:       date,
		Status:     s.decideStatus(ctx, lesson, start, end, req.IsBeginner),
		StartTime:  start,
		EndTime:    end,
		IsBeginner: req.IsBeginner,
		Notes:      req.Notes,
		Accounting: req.Accounting,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.rows.AppendRow(ctx, store.TableReservations, cache.ReservationHeaders, cache.EncodeReservationRow(reservation)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist reservation")
	}
	s.applyMutation(ctx, "append", s.mutator.AppendReservation(ctx, reservation))
	s.recordOutcome(reservation.Status)

	s.logger.Info("reservation created",
		zap.String("reservation_id", reservation.ID),
		zap.String("classroom", reservation.Classroom),
		zap.String("date", reservation.Date),
		zap.String("status", string(reservation.Status)))
	return &reservation, nil
}

// Cancel releases a reservation and notifies waitlisted students whose
// category matches the freed seat.
func (s *ReservationService) Cancel(ctx context.Context, id string, req dto.CancelReservationRequest, claims *models.JWTClaims) (*models.Reservation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancel payload")
	}
	current, err := s.findReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(current, claims); err != nil {
		return nil, err
	}
	if current.Terminal() {
		return nil, appErrors.ErrTerminalState
	}

	handle, err := s.lockDate(ctx, current.Date)
	if err != nil {
		return nil, err
	}
	defer s.release(handle)

	wasConfirmed := current.Status == models.ReservationConfirmed
	updated := *current
	updated.Status = models.ReservationCanceled
	updated.CancelMessage = req.Message
	updated.UpdatedAt = s.now().UTC()

	if err := s.persistStatus(ctx, &updated); err != nil {
		return nil, err
	}
	s.applyMutation(ctx, "cancel", s.mutator.PatchReservationStatus(ctx, id, updated.Status, updated.CancelMessage))
	s.recordOutcome(updated.Status)

	// Only a confirmed cancellation frees a seat worth announcing.
	if wasConfirmed {
		s.notifyWaitlisted(ctx, &updated)
	}
	return &updated, nil
}

// Amend moves an active reservation to a new window within the same lesson,
// re-validating the window rules and seat counts without counting the
// reservation against itself.
func (s *ReservationService) Amend(ctx context.Context, id string, req dto.AmendReservationRequest, claims *models.JWTClaims) (*models.Reservation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid amend payload")
	}
	current, err := s.findReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(current, claims); err != nil {
		return nil, err
	}
	if current.Terminal() {
		return nil, appErrors.ErrTerminalState
	}
	_, start, end, err := normalizeWindow(current.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid amend payload")
	}

	handle, err := s.lockDate(ctx, current.Date)
	if err != nil {
		return nil, err
	}
	defer s.release(handle)

	lesson, err := s.findLesson(ctx, current.Classroom, current.Date)
	if err != nil {
		return nil, err
	}
	if !lesson.Bookable() {
		return nil, appErrors.ErrLessonClosed
	}
	if err := s.windowGuards(ctx, lesson, start, end); err != nil {
		return nil, err
	}
	if current.Status == models.ReservationConfirmed {
		if !s.seatOpen(ctx, lesson, start, end, current.IsBeginner, current.ID) {
			return nil, appErrors.ErrCapacityFull
		}
	}

	updated := *current
	updated.StartTime = start
	updated.EndTime = end
	if req.Notes != "" {
		updated.Notes = req.Notes
	}
	updated.UpdatedAt = s.now().UTC()

	if err := s.rows.WriteRow(ctx, store.TableReservations, "id", id, cache.ReservationHeaders, cache.EncodeReservationRow(updated)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist reservation")
	}
	s.applyMutation(ctx, "amend", s.mutator.ReplaceReservation(ctx, updated))
	return &updated, nil
}

// ConfirmWaitlisted promotes a waitlisted reservation once a seat is open.
func (s *ReservationService) ConfirmWaitlisted(ctx context.Context, id string, claims *models.JWTClaims) (*models.Reservation, error) {
	current, err := s.findReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(current, claims); err != nil {
		return nil, err
	}
	if current.Status != models.ReservationWaitlisted {
		return nil, appErrors.ErrNotWaitlisted
	}

	handle, err := s.lockDate(ctx, current.Date)
	if err != nil {
		return nil, err
	}
	defer s.release(handle)

	lesson, err := s.findLesson(ctx, current.Classroom, current.Date)
	if err != nil {
		return nil, err
	}
	if !lesson.Bookable() {
		return nil, appErrors.ErrLessonClosed
	}
	if !s.seatOpen(ctx, lesson, current.StartTime, current.EndTime, current.IsBeginner, current.ID) {
		return nil, appErrors.ErrCapacityFull
	}

	updated := *current
	updated.Status = models.ReservationConfirmed
	updated.UpdatedAt = s.now().UTC()
	if err := s.persistStatus(ctx, &updated); err != nil {
		return nil, err
	}
	s.applyMutation(ctx, "confirm", s.mutator.PatchReservationStatus(ctx, id, updated.Status, ""))
	s.recordOutcome(updated.Status)
	return &updated, nil
}

// Complete closes out a confirmed reservation after the lesson ran. Staff
// only; typically driven by the accounting close.
func (s *ReservationService) Complete(ctx context.Context, id string, claims *models.JWTClaims) (*models.Reservation, error) {
	if claims == nil || !claims.CanOverride() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "staff role required")
	}
	current, err := s.findReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Terminal() {
		return nil, appErrors.ErrTerminalState
	}
	if current.Status != models.ReservationConfirmed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only confirmed reservations can be completed")
	}

	handle, err := s.lockDate(ctx, current.Date)
	if err != nil {
		return nil, err
	}
	defer s.release(handle)

	updated := *current
	updated.Status = models.ReservationCompleted
	updated.UpdatedAt = s.now().UTC()
	if err := s.persistStatus(ctx, &updated); err != nil {
		return nil, err
	}
	s.applyMutation(ctx, "complete", s.mutator.PatchReservationStatus(ctx, id, updated.Status, ""))
	s.recordOutcome(updated.Status)
	return &updated, nil
}

func (s *ReservationService) findReservation(ctx context.Context, id string) (*models.Reservation, error) {
	all, err := s.data.Reservations(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservations")
	}
	for i := range all {
		if all[i].ID == id {
			r := all[i]
			return &r, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
}

func (s *ReservationService) findLesson(ctx context.Context, classroom, date string) (models.Lesson, error) {
	lessons, err := s.data.Lessons(ctx)
	if err != nil {
		return models.Lesson{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}
	for _, l := range lessons {
		if l.Classroom == classroom && l.Date == date {
			return l, nil
		}
	}
	return models.Lesson{}, appErrors.Clone(appErrors.ErrNotFound, "no lesson scheduled for classroom and date")
}

func (s *ReservationService) requireOwnership(r *models.Reservation, claims *models.JWTClaims) error {
	if claims == nil || claims.UserID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing identity")
	}
	if r.StudentID != claims.UserID && !claims.CanOverride() {
		return appErrors.ErrOwnership
	}
	return nil
}

func (s *ReservationService) hasActiveOnDate(ctx context.Context, studentID, date, excludeID string) (bool, error) {
	all, err := s.data.Reservations(ctx)
	if err != nil {
		return false, err
	}
	for _, r := range all {
		if r.StudentID == studentID && r.Date == date && r.ID != excludeID && r.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (s *ReservationService) lockDate(ctx context.Context, date string) (lock.Handle, error) {
	if s.locker == nil {
		return nil, nil
	}
	handle, ok, err := s.locker.TryAcquire(ctx, "reservation:"+date, s.lockTimeout)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire booking lock")
	}
	if !ok {
		return nil, appErrors.ErrLockBusy
	}
	return handle, nil
}

func (s *ReservationService) release(handle lock.Handle) {
	if handle == nil {
		return
	}
	if err := handle.Release(context.Background()); err != nil {
		s.logger.Warn("failed to release booking lock", zap.Error(err))
	}
}

// windowGuards applies the per-window booking rules: no window may begin or
// end inside a TIME_DUAL lunch break (spanning the whole break is allowed
// and occupies both halves), and time-priced classrooms enforce a minimum
// duration.
func (s *ReservationService) windowGuards(ctx context.Context, lesson models.Lesson, start, end string) error {
	startMin, okStart := models.ClockMinutes(start)
	endMin, okEnd := models.ClockMinutes(end)
	if !okStart || !okEnd {
		// Session-based rooms book without a window.
		return nil
	}
	if endMin <= startMin {
		return appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}

	if lesson.Type == models.ClassroomTimeDual {
		breakStart, okBS := models.ClockMinutes(lesson.BreakStart)
		breakEnd, okBE := models.ClockMinutes(lesson.BreakEnd)
		if okBS && okBE {
			startsInside := startMin > breakStart && startMin < breakEnd
			endsInside := endMin > breakStart && endMin < breakEnd
			if startsInside || endsInside {
				return appErrors.ErrBreakOverlap
			}
		}
	}

	if s.minDuration > 0 && s.timePriced(ctx, lesson.Classroom) {
		if time.Duration(endMin-startMin)*time.Minute < s.minDuration {
			return appErrors.ErrMinDuration
		}
	}
	return nil
}

// timePriced reports whether the classroom bills by the hour. An unreadable
// price master skips the rule rather than blocking the booking.
func (s *ReservationService) timePriced(ctx context.Context, classroom string) bool {
	rules, err := s.data.Prices(ctx)
	if err != nil {
		s.logger.Warn("price master unavailable, skipping duration rule", zap.Error(err))
		return false
	}
	for _, rule := range rules {
		if rule.Classroom == classroom {
			return rule.Mode == models.PricingTimed
		}
	}
	return false
}

// decideStatus picks CONFIRMED or WAITLISTED from the live seat counts. A
// failed availability read confirms the booking: capacity checks fail open.
func (s *ReservationService) decideStatus(ctx context.Context, lesson models.Lesson, start, end string, isBeginner bool) models.ReservationStatus {
	if s.seatOpen(ctx, lesson, start, end, isBeginner, "") {
		return models.ReservationConfirmed
	}
	return models.ReservationWaitlisted
}

func (s *ReservationService) seatOpen(ctx context.Context, lesson models.Lesson, start, end string, isBeginner bool, excludeID string) bool {
	_, avail, err := s.availability.ForLesson(ctx, lesson.ID, excludeID)
	if err != nil {
		s.logger.Warn("availability unreadable, assuming open seat",
			zap.String("lesson_id", lesson.ID), zap.Error(err))
		return true
	}
	if isBeginner && avail.BeginnerAvailable <= 0 {
		return false
	}
	for _, pool := range targetPools(lesson, start, end) {
		p, ok := avail.PoolFor(pool)
		if !ok {
			continue
		}
		if p.Available <= 0 {
			return false
		}
	}
	return true
}

// targetPools names the seat pools a window occupies. TIME_DUAL windows that
// span the break occupy both halves.
func targetPools(lesson models.Lesson, start, end string) []models.Pool {
	if lesson.Type != models.ClassroomTimeDual {
		return []models.Pool{models.PoolSession}
	}
	startMin, okStart := models.ClockMinutes(start)
	endMin, okEnd := models.ClockMinutes(end)
	morningEnd, okME := models.ClockMinutes(lesson.MorningEnd)
	afternoonStart, okAS := models.ClockMinutes(lesson.AfternoonStart)
	if !okStart || !okEnd || !okME || !okAS {
		return []models.Pool{models.PoolMorning, models.PoolAfternoon}
	}
	var pools []models.Pool
	if startMin <= morningEnd {
		pools = append(pools, models.PoolMorning)
	}
	if endMin >= afternoonStart {
		pools = append(pools, models.PoolAfternoon)
	}
	if len(pools) == 0 {
		pools = append(pools, models.PoolAfternoon)
	}
	return pools
}

func (s *ReservationService) persistStatus(ctx context.Context, r *models.Reservation) error {
	headers := []string{"status", "cancel_message", "updated_at"}
	values := []string{string(r.Status), r.CancelMessage, r.UpdatedAt.UTC().Format(time.RFC3339)}
	if err := s.rows.WriteRow(ctx, store.TableReservations, "id", r.ID, headers, values); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist reservation")
	}
	return nil
}

// applyMutation reconciles the snapshot after a store write. Anything short
// of a clean apply falls back to a full rebuild so the cache converges on
// the store.
func (s *ReservationService) applyMutation(ctx context.Context, op string, result cache.MutationResult) {
	if result == cache.MutationApplied {
		return
	}
	s.logger.Warn("cache mutation not applied, rebuilding",
		zap.String("op", op), zap.String("result", result.String()))
	if _, err := s.mutator.RebuildReservations(ctx); err != nil {
		s.logger.Error("reservation cache rebuild failed", zap.String("op", op), zap.Error(err))
	}
}

func (s *ReservationService) recordOutcome(status models.ReservationStatus) {
	if s.metrics != nil {
		s.metrics.RecordReservationOutcome(status)
	}
}

// notifyWaitlisted announces a freed seat to waitlisted reservations whose
// category (general or beginner) matches the cancelled one and whose window
// now fits.
func (s *ReservationService) notifyWaitlisted(ctx context.Context, cancelled *models.Reservation) {
	if s.notifier == nil {
		return
	}
	lesson, err := s.findLesson(ctx, cancelled.Classroom, cancelled.Date)
	if err != nil {
		s.logger.Warn("skipping waitlist notification, lesson unavailable", zap.Error(err))
		return
	}
	_, avail, err := s.availability.ForLesson(ctx, lesson.ID, "")
	if err != nil {
		s.logger.Warn("skipping waitlist notification, availability unreadable", zap.Error(err))
		return
	}
	all, err := s.data.Reservations(ctx)
	if err != nil {
		s.logger.Warn("skipping waitlist notification, reservations unreadable", zap.Error(err))
		return
	}

	addresses := s.notifyAddresses(ctx)
	for _, cand := range all {
		if cand.Status != models.ReservationWaitlisted {
			continue
		}
		if cand.Classroom != cancelled.Classroom || cand.Date != cancelled.Date {
			continue
		}
		if cand.IsBeginner != cancelled.IsBeginner {
			continue
		}
		if !openFor(avail, lesson, cand) {
			continue
		}
		recipient := addresses[cand.StudentID]
		if recipient == "" {
			recipient = cand.StudentID
		}
		n := Notification{
			Recipient:     recipient,
			Event:         EventSeatAvailable,
			ReservationID: cand.ID,
			StudentID:     cand.StudentID,
			Classroom:     cand.Classroom,
			Date:          cand.Date,
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.logger.Warn("waitlist notification failed",
				zap.String("reservation_id", cand.ID), zap.Error(err))
		}
	}
}

func (s *ReservationService) notifyAddresses(ctx context.Context) map[string]string {
	roster, err := s.data.Roster(ctx)
	if err != nil {
		s.logger.Warn("roster unavailable, notifying by student id", zap.Error(err))
		return map[string]string{}
	}
	out := make(map[string]string, len(roster))
	for _, entry := range roster {
		out[entry.StudentID] = entry.NotifyAddress
	}
	return out
}

func openFor(avail models.LessonAvailability, lesson models.Lesson, r models.Reservation) bool {
	if r.IsBeginner && avail.BeginnerAvailable <= 0 {
		return false
	}
	for _, pool := range targetPools(lesson, r.StartTime, r.EndTime) {
		p, ok := avail.PoolFor(pool)
		if !ok {
			continue
		}
		if p.Available <= 0 {
			return false
		}
	}
	return true
}

func normalizeWindow(date, start, end string) (string, string, string, error) {
	normDate, err := models.NormalizeDate(date)
	if err != nil {
		return "", "", "", err
	}
	normStart, err := models.NormalizeClock(start)
	if err != nil {
		return "", "", "", err
	}
	normEnd, err := models.NormalizeClock(end)
	if err != nil {
		return "", "", "", err
	}
	return normDate, normStart, normEnd, nil
}
