// Package textparse converts spreadsheet-style cell text into typed values.
//
// Meter exports, price files and contract catalogs come from Dutch locale
// tooling as often as not, so numbers may use a decimal comma and timestamps
// may be written in several layouts.
package textparse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrEmpty is returned for blank cells.
	ErrEmpty = errors.New("textparse: empty value")
	// ErrInvalidNumber is returned when a cell is not a number.
	ErrInvalidNumber = errors.New("textparse: invalid number")
	// ErrInvalidTimestamp is returned when no layout matches.
	ErrInvalidTimestamp = errors.New("textparse: invalid timestamp")
	// ErrNonexistentLocalTime is returned for wall times skipped by a DST change.
	ErrNonexistentLocalTime = errors.New("textparse: nonexistent local time")
	// ErrAmbiguousLocalTime is returned for wall times repeated by a DST change.
	ErrAmbiguousLocalTime = errors.New("textparse: ambiguous local time")
)

// Decimal parses "0,25", "0.25", "1.234,5" and "1,234.5".
func Decimal(value string) (float64, error) {
	s := strings.TrimSpace(value)
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmpty
	}
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return 0, ErrInvalidNumber
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidNumber
	}
	return parsed, nil
}

type timestampLayout struct {
	layout string
	offset bool
}

var timestampLayouts = []timestampLayout{
	{layout: time.RFC3339Nano, offset: true},
	{layout: "2006-01-02T15:04:05"},
	{layout: "2006-01-02 15:04:05"},
	{layout: "2006-01-02T15:04"},
	{layout: "2006-01-02 15:04"},
	{layout: "2006-01-02 15:04:05-07:00", offset: true},
	{layout: "02-01-2006 15:04:05"},
	{layout: "02-01-2006 15:04"},
	{layout: "02/01/2006 15:04"},
	{layout: "2006-01-02"},
	{layout: "02-01-2006"},
}

// Timestamp parses value with the supported layouts. Values without an
// explicit offset are interpreted in loc and must name exactly one instant
// there: wall times skipped or repeated by a DST change are rejected.
func Timestamp(value string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, ErrEmpty
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, candidate := range timestampLayouts {
		if candidate.offset {
			if t, err := time.Parse(candidate.layout, s); err == nil {
				return t, nil
			}
			continue
		}
		wall, err := time.Parse(candidate.layout, s)
		if err != nil {
			continue
		}
		return resolveWallTime(wall, loc)
	}
	return time.Time{}, ErrInvalidTimestamp
}

// resolveWallTime maps a wall clock reading (carried in UTC fields) to the
// single instant in loc that shows it.
func resolveWallTime(wall time.Time, loc *time.Location) (time.Time, error) {
	if loc == time.UTC {
		return wall, nil
	}
	// Zone transitions are at least a day apart, so the offsets in force a
	// day either side cover every offset the wall time could carry.
	offsets := make(map[int]struct{}, 2)
	for _, near := range []time.Time{wall.Add(-24 * time.Hour), wall, wall.Add(24 * time.Hour)} {
		_, offset := near.In(loc).Zone()
		offsets[offset] = struct{}{}
	}

	var matches []time.Time
	for offset := range offsets {
		instant := wall.Add(-time.Duration(offset) * time.Second).In(loc)
		if sameWallClock(instant, wall) && !containsInstant(matches, instant) {
			matches = append(matches, instant)
		}
	}
	label := wall.Format("2006-01-02 15:04:05")
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return time.Time{}, fmt.Errorf("%w: %s in %s", ErrNonexistentLocalTime, label, loc)
	default:
		return time.Time{}, fmt.Errorf("%w: %s in %s", ErrAmbiguousLocalTime, label, loc)
	}
}

func sameWallClock(t, wall time.Time) bool {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := wall.Date()
	return y1 == y2 && m1 == m2 && d1 == d2 &&
		t.Hour() == wall.Hour() && t.Minute() == wall.Minute() &&
		t.Second() == wall.Second() && t.Nanosecond() == wall.Nanosecond()
}

func containsInstant(instants []time.Time, t time.Time) bool {
	for _, existing := range instants {
		if existing.Equal(t) {
			return true
		}
	}
	return false
}

// DateTime joins a separate date and time cell and parses the result.
func DateTime(date, clock string, loc *time.Location) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" {
		return time.Time{}, ErrEmpty
	}
	if clock == "" {
		return Timestamp(date, loc)
	}
	return Timestamp(date+" "+clock, loc)
}
