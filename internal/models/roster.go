package models

// RosterEntry is one registered student. The notify address is whatever the
// external notifier understands (LINE user id, e-mail, push token).
type RosterEntry struct {
	StudentID     string `json:"student_id"`
	Name          string `json:"name"`
	NotifyAddress string `json:"notify_address,omitempty"`
	IsBeginner    bool   `json:"is_beginner"`
	Active        bool   `json:"active"`
}

// PricingMode distinguishes flat per-session pricing from per-hour pricing.
type PricingMode string

const (
	PricingFlat  PricingMode = "FLAT"
	PricingTimed PricingMode = "TIMED"
)

// PriceRule is one classroom's price-master row. Only Mode matters to the
// booking core (the minimum-duration rule applies to timed rooms); the rates
// ride along for exports.
type PriceRule struct {
	Classroom  string      `json:"classroom"`
	Mode       PricingMode `json:"mode"`
	SessionFee int         `json:"session_fee,omitempty"`
	HourlyFee  int         `json:"hourly_fee,omitempty"`
}
