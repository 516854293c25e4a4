package metering

import (
	"strings"
	"time"
)

// Granularity is the bucket size used when resampling a series.
type Granularity string

const (
	GranularityHour  Granularity = "HOUR"
	GranularityDay   Granularity = "DAY"
	GranularityMonth Granularity = "MONTH"
)

// ParseGranularity resolves user input such as "hour", "d" or "MONTH".
func ParseGranularity(value string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "hour", "hourly", "h":
		return GranularityHour, nil
	case "day", "daily", "d":
		return GranularityDay, nil
	case "month", "monthly", "m":
		return GranularityMonth, nil
	default:
		return "", ErrInvalidGranularity
	}
}

// IsValid checks if the granularity is one of the supported values.
func (g Granularity) IsValid() bool {
	switch g {
	case GranularityHour, GranularityDay, GranularityMonth:
		return true
	default:
		return false
	}
}

// Truncate returns the start of the bucket containing t.
// Day and month buckets follow the calendar of t's own location; hour
// buckets are cut on the absolute instant so DST repeats stay separate.
func (g Granularity) Truncate(t time.Time) time.Time {
	switch g {
	case GranularityHour:
		return t.Truncate(time.Hour)
	case GranularityDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return t
	}
}

// TimeKey is the display and storage representation of a bucket start.
type TimeKey string

// NewTimeKey builds a TimeKey for the given granularity and bucket start.
func NewTimeKey(granularity Granularity, periodStart time.Time) (TimeKey, error) {
	if !granularity.IsValid() {
		return "", ErrInvalidGranularity
	}
	if periodStart.IsZero() {
		return "", NewSchemaError("timestamp", "zero period start")
	}
	return TimeKey(periodStart.Format(timeKeyLayout(granularity))), nil
}

// String returns the raw key.
func (k TimeKey) String() string { return string(k) }

func timeKeyLayout(granularity Granularity) string {
	switch granularity {
	case GranularityHour:
		return "2006-01-02T15:04Z07:00"
	case GranularityDay:
		return "2006-01-02"
	default:
		return "2006-01"
	}
}
