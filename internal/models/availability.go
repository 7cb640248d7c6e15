package models

// Pool names the seat bucket under evaluation.
type Pool string

const (
	PoolSession   Pool = "session"
	PoolMorning   Pool = "morning"
	PoolAfternoon Pool = "afternoon"
)

// PoolAvailability is the seat count for one pool. Full is only set when a
// configured pool ran out; zero-capacity pools are simply not offered and
// never reported full.
type PoolAvailability struct {
	Pool      Pool `json:"pool"`
	Capacity  int  `json:"capacity"`
	Confirmed int  `json:"confirmed"`
	Available int  `json:"available"`
	Full      bool `json:"full"`
}

// LessonAvailability is the calculator output for one lesson.
type LessonAvailability struct {
	LessonID  string        `json:"lesson_id"`
	Date      string        `json:"date"`
	Classroom string        `json:"classroom"`
	Type      ClassroomType `json:"type"`

	Pools []PoolAvailability `json:"pools"`

	// BeginnerAvailable is the beginner sub-quota remainder, clamped to the
	// relevant general pool (afternoon for TIME_DUAL rooms).
	BeginnerAvailable int `json:"beginner_available"`
	BeginnerCapacity  int `json:"beginner_capacity"`
	BeginnerConfirmed int `json:"beginner_confirmed"`
}

// PoolFor returns the availability entry for the named pool.
func (a LessonAvailability) PoolFor(pool Pool) (PoolAvailability, bool) {
	for _, p := range a.Pools {
		if p.Pool == pool {
			return p, true
		}
	}
	return PoolAvailability{}, false
}
