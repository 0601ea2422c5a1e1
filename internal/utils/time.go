package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/mono/internal/constants"
)

func isLocal(name string) bool { return name == "" || name == "Local" }

// LoadLocation resolves an IANA zone name. "" and "Local" mean the host zone.
func LoadLocation(name string) (*time.Location, error) {
	if isLocal(name) {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// ValidateTimezone reports whether LoadLocation would accept name.
func ValidateTimezone(name string) bool {
	_, err := LoadLocation(name)
	return err == nil
}

// NowInTimezone is the wall clock in the named zone.
func NowInTimezone(name string) (time.Time, error) {
	loc, err := LoadLocation(name)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return time.Now().In(loc), nil
}

// DateOf formats t as YYYY-MM-DD in t's own location.
func DateOf(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// DaysBetween counts calendar days from date a to date b (both YYYY-MM-DD).
// The result is negative when b is earlier.
func DaysBetween(a, b string) (int, error) {
	from, err := time.Parse(constants.DateFormat, a)
	if err != nil {
		return 0, err
	}
	to, err := time.Parse(constants.DateFormat, b)
	if err != nil {
		return 0, err
	}
	return int(to.Sub(from) / (24 * time.Hour)), nil
}

// FormatTimestamp is the fixed-width UTC layout used for stored timestamps.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(constants.TimestampFormat)
}

// ParseTimestamp reads a stored timestamp, falling back to RFC 3339 for
// rows written by older builds.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(constants.TimestampFormat, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// ValidateTimeFormat reports whether s is a 24-hour HH:MM clock time.
func ValidateTimeFormat(s string) bool {
	_, err := time.Parse(constants.TimeFormat, s)
	return err == nil
}

// Greeting returns the salutation for the hour of t.
func Greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "Good morning"
	case h >= 12 && h < 17:
		return "Good afternoon"
	case h >= 17 && h < 21:
		return "Good evening"
	default:
		return "Good night"
	}
}
