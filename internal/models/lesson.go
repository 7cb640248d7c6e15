package models

// ClassroomType selects the capacity model applied to a lesson.
type ClassroomType string

const (
	// ClassroomSessionBased rooms run one continuous session with a single
	// seat pool.
	ClassroomSessionBased ClassroomType = "SESSION_BASED"
	// ClassroomTimeDual rooms run a morning and an afternoon block split by
	// a lunch break; each block has its own pool.
	ClassroomTimeDual ClassroomType = "TIME_DUAL"
	// ClassroomAllDayTimed rooms run one open full-day block billed by time.
	ClassroomAllDayTimed ClassroomType = "ALL_DAY_TIMED"
)

// LessonStatus tracks staff-driven lesson scheduling state.
type LessonStatus string

const (
	LessonScheduled LessonStatus = "SCHEDULED"
	LessonCancelled LessonStatus = "CANCELLED"
	LessonCompleted LessonStatus = "COMPLETED"
)

// Lesson is one classroom's scheduled session(s) on one date. Capacity
// fields are pointers: nil means "not set on the lesson" and defers to the
// classroom default, then the system default.
type Lesson struct {
	ID        string        `json:"id"`
	Date      string        `json:"date"`
	Classroom string        `json:"classroom"`
	Venue     string        `json:"venue"`
	Type      ClassroomType `json:"type"`

	// Single window for SESSION_BASED and ALL_DAY_TIMED rooms.
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`

	// Dual windows for TIME_DUAL rooms. MorningEnd and AfternoonStart are
	// the pool split points; the break sits between them.
	MorningStart   string `json:"morning_start,omitempty"`
	MorningEnd     string `json:"morning_end,omitempty"`
	AfternoonStart string `json:"afternoon_start,omitempty"`
	AfternoonEnd   string `json:"afternoon_end,omitempty"`
	BreakStart     string `json:"break_start,omitempty"`
	BreakEnd       string `json:"break_end,omitempty"`

	BeginnerWindowStart string `json:"beginner_window_start,omitempty"`

	TotalCapacity    *int `json:"total_capacity,omitempty"`
	BeginnerCapacity *int `json:"beginner_capacity,omitempty"`

	Status LessonStatus `json:"status"`
}

// SessionEnd returns the clock at which the lesson's last session ends.
func (l Lesson) SessionEnd() string {
	if l.Type == ClassroomTimeDual {
		return l.AfternoonEnd
	}
	return l.EndTime
}

// SessionStart returns the clock at which the lesson's first session starts.
func (l Lesson) SessionStart() string {
	if l.Type == ClassroomTimeDual {
		return l.MorningStart
	}
	return l.StartTime
}

// Bookable reports whether new reservations may target this lesson.
func (l Lesson) Bookable() bool {
	return l.Status == LessonScheduled
}
