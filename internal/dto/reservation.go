package dto

import "encoding/json"

// CreateReservationRequest books one student into one lesson, addressed by
// classroom + date (a lesson is unique per pair).
type CreateReservationRequest struct {
	Classroom string `json:"classroom" validate:"required"`
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	IsBeginner bool  `json:"is_beginner"`
	Notes     string `json:"notes,omitempty" validate:"max=500"`

	// Accounting is carried opaquely for the billing system.
	Accounting json.RawMessage `json:"accounting,omitempty"`
}

// AmendReservationRequest moves an existing reservation to a new window.
type AmendReservationRequest struct {
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Notes     string `json:"notes,omitempty" validate:"max=500"`
}

// CancelReservationRequest carries the optional cancellation note.
type CancelReservationRequest struct {
	Message string `json:"message,omitempty" validate:"max=500"`
}

// ReservationFilter narrows reservation listings.
type ReservationFilter struct {
	StudentID string
	Classroom string
	Date      string
	Status    string
}
