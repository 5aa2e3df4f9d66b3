// Package timeutil parses and formats the timestamp and day-key strings used
// by the tracker sheet.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DayKeyLayout is the fixed display format for day keys, e.g. "02/11/21".
	DayKeyLayout = "02/01/06"

	clockLayout        = "15:04"
	clockSecondsLayout = "15:04:05"
	fullLayout         = "02/01/06 15:04"
	fullSecondsLayout  = "02/01/06 15:04:05"
)

// Time is a timestamp that remembers how precise its source string was, so a
// value parsed from "02:20" renders back as "02:20" and not as a full
// timestamp. Clock-only values anchor to today's date.
type Time struct {
	t          time.Time
	hasDate    bool
	hasSeconds bool
}

// Now returns the current time with full date precision.
func Now() Time {
	return Time{t: time.Now().Truncate(time.Second), hasDate: true, hasSeconds: true}
}

// FromStdTime wraps a time.Time as a full-precision Time.
func FromStdTime(t time.Time) Time {
	return Time{t: t.Truncate(time.Second), hasDate: true, hasSeconds: true}
}

// Parse reads a timestamp string in one of the accepted forms: "15:04",
// "15:04:05", "02/01/06 15:04" or "02/01/06 15:04:05". Clock-only forms are
// anchored to today's date.
func Parse(s string) (Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(fullSecondsLayout, s, time.Local); err == nil {
		return Time{t: t, hasDate: true, hasSeconds: true}, nil
	}
	if t, err := time.ParseInLocation(fullLayout, s, time.Local); err == nil {
		return Time{t: t, hasDate: true}, nil
	}
	if t, err := time.ParseInLocation(clockSecondsLayout, s, time.Local); err == nil {
		return anchorToday(t, true), nil
	}
	if t, err := time.ParseInLocation(clockLayout, s, time.Local); err == nil {
		return anchorToday(t, false), nil
	}
	return Time{}, fmt.Errorf("parse time %q: unrecognized format", s)
}

func anchorToday(clock time.Time, seconds bool) Time {
	now := time.Now()
	t := time.Date(now.Year(), now.Month(), now.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, time.Local)
	return Time{t: t, hasSeconds: seconds}
}

// String renders the timestamp at its source precision.
func (t Time) String() string {
	switch {
	case t.hasDate && t.hasSeconds:
		return t.t.Format(fullSecondsLayout)
	case t.hasDate:
		return t.t.Format(fullLayout)
	case t.hasSeconds:
		return t.t.Format(clockSecondsLayout)
	default:
		return t.t.Format(clockLayout)
	}
}

// DayKey returns the day-key string for the timestamp's date.
func (t Time) DayKey() string { return t.t.Format(DayKeyLayout) }

// Std returns the underlying time.Time.
func (t Time) Std() time.Time { return t.t }

// IsZero reports whether the timestamp is the zero value.
func (t Time) IsZero() bool { return t.t.IsZero() }

// Before reports whether t is strictly before u.
func (t Time) Before(u Time) bool { return t.t.Before(u.t) }

// Sub returns the duration t minus u.
func (t Time) Sub(u Time) time.Duration { return t.t.Sub(u.t) }

// ParseDayKey reads a day-key string back into a date.
func ParseDayKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DayKeyLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day key %q: %w", key, err)
	}
	return t, nil
}

// HumanDuration renders a duration as e.g. "2h 35m" or "45s". Sub-minute
// durations show seconds, anything longer drops them.
func HumanDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
