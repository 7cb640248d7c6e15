package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the canonical date form used across datasets.
	DateLayout = "2006-01-02"
	// ClockLayout is the canonical wall-clock form used across datasets.
	ClockLayout = "15:04"
)

var dateLayouts = []string{
	DateLayout,
	"2006/01/02",
	"2006/1/2",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

var clockLayouts = []string{
	ClockLayout,
	"15:04:05",
	"3:04 PM",
}

// NormalizeDate coerces the store's assorted date cell forms into the
// canonical layout.
func NormalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(DateLayout), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", raw)
}

// NormalizeClock coerces the store's assorted time cell forms into the
// canonical layout.
func NormalizeClock(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(ClockLayout), nil
		}
	}
	return "", fmt.Errorf("unrecognized time %q", raw)
}

// ClockMinutes converts a canonical clock string into minutes since
// midnight. The second return is false for empty or malformed input.
func ClockMinutes(clock string) (int, bool) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(clock))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// CombineDateClock resolves a date + clock pair into a time.Time in the
// given location.
func CombineDateClock(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+clock, loc)
}
