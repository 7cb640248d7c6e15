package models

import (
	"encoding/json"
	"time"
)

// ReservationStatus tracks the reservation lifecycle. CANCELED and
// COMPLETED are terminal.
type ReservationStatus string

const (
	ReservationConfirmed  ReservationStatus = "CONFIRMED"
	ReservationWaitlisted ReservationStatus = "WAITLISTED"
	ReservationCanceled   ReservationStatus = "CANCELED"
	ReservationCompleted  ReservationStatus = "COMPLETED"
)

// Reservation is one student's claim on one lesson.
type Reservation struct {
	ID        string            `json:"id"`
	StudentID string            `json:"student_id"`
	Classroom string            `json:"classroom"`
	Date      string            `json:"date"`
	Status    ReservationStatus `json:"status"`

	// Sub-window of the lesson window; empty for session-based rooms.
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`

	IsBeginner bool   `json:"is_beginner"`
	Notes      string `json:"notes,omitempty"`

	// Accounting is an opaque payload owned by the billing system; the
	// booking core carries it untouched.
	Accounting json.RawMessage `json:"accounting,omitempty"`

	CancelMessage string `json:"cancel_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Active reports whether the reservation occupies (or queues for) a seat.
// At most one active reservation per (student, date) may exist.
func (r Reservation) Active() bool {
	return r.Status == ReservationConfirmed || r.Status == ReservationWaitlisted
}

// Terminal reports whether the reservation can no longer transition.
func (r Reservation) Terminal() bool {
	return r.Status == ReservationCanceled || r.Status == ReservationCompleted
}
