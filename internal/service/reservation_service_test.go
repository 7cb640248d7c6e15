package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-booking-api/internal/cache"
	"github.com/noah-isme/lesson-booking-api/internal/dto"
	"github.com/noah-isme/lesson-booking-api/internal/models"
	"github.com/noah-isme/lesson-booking-api/pkg/config"
	appErrors "github.com/noah-isme/lesson-booking-api/pkg/errors"
	"github.com/noah-isme/lesson-booking-api/pkg/lock"
)

type bookingData struct {
	lessons      []models.Lesson
	reservations []models.Reservation
	roster       []models.RosterEntry
	prices       []models.PriceRule

	reservationsErr error
}

func (d *bookingData) Lessons(ctx context.Context) ([]models.Lesson, error) {
	return d.lessons, nil
}

func (d *bookingData) Reservations(ctx context.Context) ([]models.Reservation, error) {
	if d.reservationsErr != nil {
		return nil, d.reservationsErr
	}
	return d.reservations, nil
}

func (d *bookingData) Roster(ctx context.Context) ([]models.RosterEntry, error) {
	return d.roster, nil
}

func (d *bookingData) Prices(ctx context.Context) ([]models.PriceRule, error) {
	return d.prices, nil
}

// mutatorStub plays the snapshot cache: mutations land in bookingData so
// follow-up availability reads observe them.
type mutatorStub struct {
	data *bookingData

	appendResult cache.MutationResult
	patchResult  cache.MutationResult
	rebuilds     int
}

func (m *mutatorStub) AppendReservation(ctx context.Context, r models.Reservation) cache.MutationResult {
	if m.appendResult == cache.MutationApplied {
		m.data.reservations = append(m.data.reservations, r)
	}
	return m.appendResult
}

func (m *mutatorStub) PatchReservationStatus(ctx context.Context, id string, status models.ReservationStatus, cancelMessage string) cache.MutationResult {
	if m.patchResult != cache.MutationApplied {
		return m.patchResult
	}
	for i := range m.data.reservations {
		if m.data.reservations[i].ID == id {
			m.data.reservations[i].Status = status
			m.data.reservations[i].CancelMessage = cancelMessage
			return cache.MutationApplied
		}
	}
	return cache.MutationStale
}

func (m *mutatorStub) ReplaceReservation(ctx context.Context, r models.Reservation) cache.MutationResult {
	for i := range m.data.reservations {
		if m.data.reservations[i].ID == r.ID {
			m.data.reservations[i] = r
			return cache.MutationApplied
		}
	}
	return cache.MutationStale
}

func (m *mutatorStub) RebuildReservations(ctx context.Context) ([]models.Reservation, error) {
	m.rebuilds++
	return m.data.reservations, nil
}

type rowWrite struct {
	table, idColumn, id string
	headers, values     []string
}

type rowsStub struct {
	appended  []rowWrite
	written   []rowWrite
	appendErr error
	writeErr  error
}

func (r *rowsStub) AppendRow(ctx context.Context, table string, headers, values []string) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.appended = append(r.appended, rowWrite{table: table, headers: headers, values: values})
	return nil
}

func (r *rowsStub) WriteRow(ctx context.Context, table, idColumn, id string, headers, values []string) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	r.written = append(r.written, rowWrite{table: table, idColumn: idColumn, id: id, headers: headers, values: values})
	return nil
}

type lockerStub struct {
	busy     bool
	acquired []string
	released int
}

type handleStub struct{ locker *lockerStub }

func (h handleStub) Release(ctx context.Context) error {
	h.locker.released++
	return nil
}

func (l *lockerStub) TryAcquire(ctx context.Context, name string, timeout time.Duration) (lock.Handle, bool, error) {
	if l.busy {
		return nil, false, nil
	}
	l.acquired = append(l.acquired, name)
	return handleStub{locker: l}, true, nil
}

type notifierStub struct {
	sent []Notification
	err  error
}

func (n *notifierStub) Notify(ctx context.Context, msg Notification) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

type bookingFixture struct {
	data     *bookingData
	mutator  *mutatorStub
	rows     *rowsStub
	locker   *lockerStub
	notifier *notifierStub
	svc      *ReservationService
}

func bookingTestConfig() config.BookingConfig {
	return config.BookingConfig{
		LeadTime:                2 * time.Hour,
		MinTimedDuration:        2 * time.Hour,
		DefaultCapacity:         10,
		DefaultBeginnerCapacity: 2,
		LockTimeout:             time.Second,
	}
}

func newBookingFixture(lessons []models.Lesson, reservations []models.Reservation) *bookingFixture {
	data := &bookingData{lessons: lessons, reservations: reservations}
	for i := 1; i <= 9; i++ {
		id := fmt.Sprintf("stu-%d", i)
		data.roster = append(data.roster, models.RosterEntry{
			StudentID:     id,
			NotifyAddress: "line:" + id,
			Active:        true,
		})
	}
	cfg := bookingTestConfig()
	mutator := &mutatorStub{data: data}
	rows := &rowsStub{}
	locker := &lockerStub{}
	notifier := &notifierStub{}
	avail := NewAvailabilityService(data, cfg, nil)
	svc := NewReservationService(data, mutator, avail, rows, locker, notifier, nil, cfg, nil, nil)
	svc.now = func() time.Time {
		return time.Date(2025, 10, 14, 9, 0, 0, 0, time.UTC)
	}
	return &bookingFixture{data: data, mutator: mutator, rows: rows, locker: locker, notifier: notifier, svc: svc}
}

func studentClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent}
}

func staffClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, appErrors.FromError(err).Code)
}

func TestCreateConfirmsWithOpenSeats(t *testing.T) {
	f := newBookingFixture([]models.Lesson{sessionLesson(intPtr(5), intPtr(2))}, nil)

	r, err := f.svc.Create(context.Background(), dto.CreateReservationRequest{
		Classroom: "daikanyama",
		Date:      "2025-10-15",
	}, studentClaims("stu-1"))
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, r.Status)
	assert.Equal(t, "stu-1", r.StudentID)
	assert.NotEmpty(t, r.ID)

	require.Len(t, f.rows.appended, 1)
	assert.Equal(t, "reservations", f.rows.appended[0].table)
	assert.Equal(t, []string{"reservation:2025-10-15"}, f.locker.acquired)
	assert.Equal(t, 1, f.locker.released)
	// The cache mutation landed, no rebuild was needed.
	assert.Len(t, f.data.reservations, 1)
	assert.Zero(t, f.mutator.rebuilds)
}

func TestCreateWaitlistsFullMorningConfirmsAfternoon(t *testing.T) {
	var existing []models.Reservation
	for i := 1; i <= 8; i++ {
		r := confirmedAt("10:00", "11:00")
		r.ID = fmt.Sprintf("r-m%d", i)
		r.StudentID = fmt.Sprintf("stu-m%d", i)
		existing = append(existing, r)
	}
	f := newBookingFixture([]models.Lesson{dualLesson()}, existing)

	morning, err := f.svc.Create(context.Background(), dto.CreateReservationRequest{
		Classroom: "daikanyama",
		Date:      "2025-10-15",
		StartTime: "10:00",
		EndTime:   "12:00",
	}, studentClaims("stu-1"))
	require.NoError(t, err)
	assert.Equal(t, models.ReservationWaitlisted, morning.Status)

	afternoon, err := f.svc.Create(context.Background(), dto.CreateReservationRequest{
		Classroom: "daikanyama",
		Date:      "2025-10-15",
		StartTime: "13:00",
		EndTime:   "15:00",
	}, studentClaims("stu-2"))
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, afternoon.Status)
}

func TestCreateRejectsDuplicateDayAcrossClassrooms(t *testing.T) {
	other := sessionLesson(intPtr(5), nil)
	other.ID = "l-9"
	other.Classroom = "jiyugaoka"
	existing := confirmedAt("10:00", "11:00")
	existing.StudentID = "stu-1"
	f := newBookingFixture([]models.Lesson{sessionLesson(intPtr(5), nil), other}, []models.Reservation{existing})

	_, err := f.svc.Create(context.Background(), dto.CreateReservationRequest{
		Classroom: "jiyugaoka",
		Date:      "2025-10-15",
	}, studentClaims("stu-1"))
	requireCode(t, err, appErrors.ErrDuplicateDay.Code)
	assert.Empty(t, f.rows.appended)

	// A terminal reservation does not block a new booking.
	f.data.reservations[0].Status = models.ReservationCanceled
	_, err = f.svc.Create(context.Background(), dto.CreateReservationRequest{
		Classroom: "jiyugaoka",
		Date:      "2025-10-15",
	}, studentClaims("stu-1"))
	require.NoError(t, err)
}

func TestCreateBreakBoundaryRule(t *testing.T) {
	f := newBookingFixture([]models.Lesson{dualLesson()}, nil)

	// Ending inside the 12:00-13:00 break is rejected.
	_, err := f.svc.Create(context.Background(), dto.CreateReservationRequest{
		Classroom: "daikanyama",
		Date:      "2025-10-15",
		StartTime: "11:00",
		EndTime:   "12:30",
	}, studentClaims("stu-1"))
	requireCode(t, err, appErrors.ErrBreakOverlap.Code)

	// Spanning the whole break is allowed and occupies both halves.
	r, err := f.svc.Create(context.Background(), dto.CreateReservationRequest{
		Classroom: "daikanyama",
		Date:      "2025-10-15",
		StartTime: "11:00",
		EndTime:   "14:00",
	}, studentClaims("stu-1"))
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, r.Status)
}

func TestCreateMinDurationForTimedRooms(t *testing.T) {
	lesson := sessionLesson(intPtr(5), nil)
	lesson.Type = models.ClassroomAllDayTimed
	lesson.StartTime = "09:00"
	lesson.EndTime = "18:00"
	f := newBookingFixture([]models.Lesson{lesson}, nil)
	f.data.prices = []models.PriceRule{{Classroom: "daikanyama", Mode: models.PricingTimed, HourlyFee: 1500}}

	_, err := f.svc.Create(context.Background(), dto.CreateReservationRequest{
		Classroom: "daikanyama",
		Date:      "2025-10-15",
		StartTime: "10:00",
		EndTime:   "11:00",
	}, studentClaims("stu-1"))
	requireCode(t, err, appErrors.ErrMinDuration.Code)

	_, err = f.svc.Create(context.Background(), dto.CreateReservationRequest{
		Classroom: "daikanyama",
		Date:      "2025-10-15",
		StartTime: "10:00",
		EndTime:   "12:00",
	}, studentClaims("stu-1"))
	require.NoError(t, err)
}

func TestCreateBeginnerWaitlistedWhenQuotaSpent(t *testing.T) {
	taken := confirmedAt("10:00", "11:00")
	taken.StudentID = "stu-9"
	taken.IsBeginner = true
	f := newBookingFixture([]models.Lesson{sessionLesson(intPtr(5), intPtr(1))}, []models.Reservation{taken})

	// General seats remain but the beginner sub-quota is spent.
	r, err := f.svc.Create(context.Background(), dto.CreateReservationRequest{
		Classroom:  "daikanyama",
		Date:       "2025-10-15",
		IsBeginner: true,
	}, studentClaims("stu-1"))
	require.NoError(t, err)
	assert.Equal(t, models.ReservationWaitlisted, r.Status)

	general, err := f.svc.Create(context.Background(), dto.CreateReservationRequest{
		Classroom: "daikanyama",
		Date:      "2025-10-15",
	}, studentClaims("stu-2"))
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, general.Status)
}

func TestCreateLockBusy(t *testing.T) {
	f := newBookingFixture([]models.Lesson{sessionLesson(intPtr(5), nil)}, nil)
	f.locker.busy = true

	_, err := f.svc.Create(context.Background(), dto.CreateReservationRequest{
		Classroom: "daikanyama",
		Date:      "2025-10-15",
	}, studentClaims("stu-1"))
	requireCode(t, err, appErrors.ErrLockBusy.Code)
	assert.Empty(t, f.rows.appended)
}

func TestCreateLessonClosed(t *testing.T) {
	lesson := sessionLesson(intPtr(5), nil)
	lesson.Status = models.LessonCancelled
	f := newBookingFixture([]models.Lesson{lesson}, nil)

	_, err := f.svc.Create(context.Background(), dto.CreateReservationRequest{
		Classroom: "daikanyama",
		Date:      "2025-10-15",
	}, studentClaims("stu-1"))
	requireCode(t, err, appErrors.ErrLessonClosed.Code)
}

func TestCreateRebuildsWhenCacheMutationFails(t *testing.T) {
	f := newBookingFixture([]models.Lesson{sessionLesson(intPtr(5), nil)}, nil)
	f.mutator.appendResult = cache.MutationError

	r, err := f.svc.Create(context.Background(), dto.CreateReservationRequest{
		Classroom: "daikanyama",
		Date:      "2025-10-15",
	}, studentClaims("stu-1"))
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, r.Status)
	// The store write stands; the snapshot is resynced by rebuild.
	assert.Len(t, f.rows.appended, 1)
	assert.Equal(t, 1, f.mutator.rebuilds)
}

func TestCancelNotifiesMatchingWaitlistOnly(t *testing.T) {
	lesson := sessionLesson(intPtr(2), intPtr(2))
	c1 := confirmedAt("10:00", "11:00")
	c1.ID = "r-c1"
	c1.StudentID = "stu-1"
	c2 := confirmedAt("10:00", "11:00")
	c2.ID = "r-c2"
	c2.StudentID = "stu-2"
	waitlisted := func(id, student string, beginner bool) models.Reservation {
		return models.Reservation{
			ID:         id,
			StudentID:  student,
			Classroom:  "daikanyama",
			Date:       "2025-10-15",
			Status:     models.ReservationWaitlisted,
			IsBeginner: beginner,
		}
	}
	f := newBookingFixture([]models.Lesson{lesson}, []models.Reservation{
		c1, c2,
		waitlisted("r-w1", "stu-3", false),
		waitlisted("r-w2", "stu-4", false),
		waitlisted("r-w3", "stu-5", true),
	})

	r, err := f.svc.Cancel(context.Background(), "r-c1", dto.CancelReservationRequest{Message: "sick"}, studentClaims("stu-1"))
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCanceled, r.Status)
	assert.Equal(t, "sick", r.CancelMessage)

	require.Len(t, f.rows.written, 1)
	assert.Equal(t, "r-c1", f.rows.written[0].id)

	// The freed seat was general: both general waitlisters hear about it,
	// the beginner does not.
	require.Len(t, f.notifier.sent, 2)
	got := map[string]string{}
	for _, n := range f.notifier.sent {
		got[n.ReservationID] = n.Recipient
		assert.Equal(t, EventSeatAvailable, n.Event)
	}
	assert.Equal(t, map[string]string{"r-w1": "line:stu-3", "r-w2": "line:stu-4"}, got)
}

func TestCancelWaitlistedSendsNoNotifications(t *testing.T) {
	w := models.Reservation{
		ID:        "r-w1",
		StudentID: "stu-1",
		Classroom: "daikanyama",
		Date:      "2025-10-15",
		Status:    models.ReservationWaitlisted,
	}
	f := newBookingFixture([]models.Lesson{sessionLesson(intPtr(2), nil)}, []models.Reservation{w})

	r, err := f.svc.Cancel(context.Background(), "r-w1", dto.CancelReservationRequest{}, studentClaims("stu-1"))
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCanceled, r.Status)
	assert.Empty(t, f.notifier.sent)
}

func TestCancelGuards(t *testing.T) {
	c1 := confirmedAt("10:00", "11:00")
	c1.ID = "r-c1"
	c1.StudentID = "stu-1"
	done := confirmedAt("10:00", "11:00")
	done.ID = "r-done"
	done.StudentID = "stu-1"
	done.Status = models.ReservationCompleted
	f := newBookingFixture([]models.Lesson{sessionLesson(intPtr(5), nil)}, []models.Reservation{c1, done})

	_, err := f.svc.Cancel(context.Background(), "r-c1", dto.CancelReservationRequest{}, studentClaims("stu-2"))
	requireCode(t, err, appErrors.ErrOwnership.Code)

	_, err = f.svc.Cancel(context.Background(), "r-done", dto.CancelReservationRequest{}, studentClaims("stu-1"))
	requireCode(t, err, appErrors.ErrTerminalState.Code)

	_, err = f.svc.Cancel(context.Background(), "missing", dto.CancelReservationRequest{}, studentClaims("stu-1"))
	requireCode(t, err, appErrors.ErrNotFound.Code)

	// Staff may cancel on the student's behalf.
	_, err = f.svc.Cancel(context.Background(), "r-c1", dto.CancelReservationRequest{}, staffClaims())
	require.NoError(t, err)
}

func TestAmendDoesNotCountOwnSeat(t *testing.T) {
	lesson := dualLesson()
	lesson.TotalCapacity = intPtr(1)
	own := confirmedAt("10:00", "11:00")
	own.ID = "r-1"
	own.StudentID = "stu-1"
	f := newBookingFixture([]models.Lesson{lesson}, []models.Reservation{own})

	r, err := f.svc.Amend(context.Background(), "r-1", dto.AmendReservationRequest{
		StartTime: "10:00",
		EndTime:   "12:00",
	}, studentClaims("stu-1"))
	require.NoError(t, err)
	assert.Equal(t, "12:00", r.EndTime)
	require.Len(t, f.rows.written, 1)
	assert.Equal(t, cache.ReservationHeaders, f.rows.written[0].headers)
	assert.Equal(t, "12:00", f.data.reservations[0].EndTime)
}

func TestAmendRejectsWhenTargetPoolFull(t *testing.T) {
	lesson := dualLesson()
	lesson.TotalCapacity = intPtr(1)
	own := confirmedAt("10:00", "11:00")
	own.ID = "r-1"
	own.StudentID = "stu-1"
	other := confirmedAt("13:00", "14:00")
	other.ID = "r-2"
	other.StudentID = "stu-2"
	f := newBookingFixture([]models.Lesson{lesson}, []models.Reservation{own, other})

	_, err := f.svc.Amend(context.Background(), "r-1", dto.AmendReservationRequest{
		StartTime: "13:30",
		EndTime:   "15:30",
	}, studentClaims("stu-1"))
	requireCode(t, err, appErrors.ErrCapacityFull.Code)
	assert.Empty(t, f.rows.written)
}

func TestConfirmWaitlisted(t *testing.T) {
	lesson := sessionLesson(intPtr(1), nil)
	w := models.Reservation{
		ID:        "r-w1",
		StudentID: "stu-1",
		Classroom: "daikanyama",
		Date:      "2025-10-15",
		Status:    models.ReservationWaitlisted,
	}
	f := newBookingFixture([]models.Lesson{lesson}, []models.Reservation{w})

	r, err := f.svc.ConfirmWaitlisted(context.Background(), "r-w1", studentClaims("stu-1"))
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, r.Status)
	assert.Equal(t, models.ReservationConfirmed, f.data.reservations[0].Status)

	_, err = f.svc.ConfirmWaitlisted(context.Background(), "r-w1", studentClaims("stu-1"))
	requireCode(t, err, appErrors.ErrNotWaitlisted.Code)
}

func TestConfirmWaitlistedRejectsWhenStillFull(t *testing.T) {
	lesson := sessionLesson(intPtr(1), nil)
	c := confirmedAt("10:00", "11:00")
	c.ID = "r-c1"
	c.StudentID = "stu-2"
	w := models.Reservation{
		ID:        "r-w1",
		StudentID: "stu-1",
		Classroom: "daikanyama",
		Date:      "2025-10-15",
		Status:    models.ReservationWaitlisted,
	}
	f := newBookingFixture([]models.Lesson{lesson}, []models.Reservation{c, w})

	_, err := f.svc.ConfirmWaitlisted(context.Background(), "r-w1", studentClaims("stu-1"))
	requireCode(t, err, appErrors.ErrCapacityFull.Code)
}

func TestCompleteRequiresStaff(t *testing.T) {
	c := confirmedAt("10:00", "11:00")
	c.ID = "r-c1"
	c.StudentID = "stu-1"
	f := newBookingFixture([]models.Lesson{sessionLesson(intPtr(5), nil)}, []models.Reservation{c})

	_, err := f.svc.Complete(context.Background(), "r-c1", studentClaims("stu-1"))
	requireCode(t, err, appErrors.ErrForbidden.Code)

	r, err := f.svc.Complete(context.Background(), "r-c1", staffClaims())
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCompleted, r.Status)

	_, err = f.svc.Complete(context.Background(), "r-c1", staffClaims())
	requireCode(t, err, appErrors.ErrTerminalState.Code)
}

func TestCreateRejectsWhenDuplicateCheckUnreadable(t *testing.T) {
	f := newBookingFixture([]models.Lesson{sessionLesson(intPtr(5), nil)}, nil)

	// The duplicate guard must not be skipped on a failed read: break the
	// dataset after the lesson lookup by swapping the data source error in.
	f.data.reservationsErr = errors.New("redis gone")
	_, err := f.svc.Create(context.Background(), dto.CreateReservationRequest{
		Classroom: "daikanyama",
		Date:      "2025-10-15",
	}, studentClaims("stu-1"))
	requireCode(t, err, appErrors.ErrInternal.Code)
	assert.Empty(t, f.rows.appended)
}

func TestListScopesStudentsToTheirOwnRows(t *testing.T) {
	mine := confirmedAt("10:00", "11:00")
	mine.ID = "r-1"
	mine.StudentID = "stu-1"
	theirs := confirmedAt("10:00", "11:00")
	theirs.ID = "r-2"
	theirs.StudentID = "stu-2"
	f := newBookingFixture([]models.Lesson{sessionLesson(intPtr(5), nil)}, []models.Reservation{mine, theirs})

	out, err := f.svc.List(context.Background(), dto.ReservationFilter{StudentID: "stu-2"}, studentClaims("stu-1"))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "r-1", out[0].ID)

	out, err = f.svc.List(context.Background(), dto.ReservationFilter{StudentID: "stu-2"}, staffClaims())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "r-2", out[0].ID)
}
