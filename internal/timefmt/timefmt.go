// Package timefmt bridges the two time representations the system deals
// with: RFC3339 instants used locally for duration math, and wall-clock
// HH:MM strings used by the remote spreadsheet, which cannot hold absolute
// instants reliably. Both directions fail soft: a value that is not in the
// expected form passes through rather than aborting a sync cycle.
package timefmt

import (
	"strings"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	wallClockLayout = "15:04"
)

// ToWallClock renders an RFC3339 instant as a 24h HH:MM string in UTC.
// Empty input yields ""; input that does not parse as an instant is
// returned unchanged, on the assumption it is already wall-clock form.
func ToWallClock(instant string) string {
	if instant == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, instant)
	if err != nil {
		return instant
	}
	return t.UTC().Format(wallClockLayout)
}

// ToInstant combines a calendar date (YYYY-MM-DD) with a wall-clock time
// into an RFC3339 instant in UTC. It returns "" for the empty-ish values
// spreadsheets produce ("", "-", "null") and for combinations that do not
// form a valid date/time. A value already containing the T separator is
// assumed to be an instant and is returned unchanged.
func ToInstant(date, v string) string {
	if v == "" || v == "-" || v == "null" {
		return ""
	}
	if strings.Contains(v, "T") {
		return v
	}
	for _, layout := range []string{wallClockLayout, "15:04:05"} {
		if t, err := time.Parse(DateLayout+"T"+layout, date+"T"+v); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return ""
}

// DateOf returns the YYYY-MM-DD part of an RFC3339 instant in UTC, or ""
// when the input is not an instant.
func DateOf(instant string) string {
	t, err := time.Parse(time.RFC3339, instant)
	if err != nil {
		return ""
	}
	return t.UTC().Format(DateLayout)
}
