package metering

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSchema is matched by every SchemaError.
	ErrSchema = errors.New("metering: schema error")
	// ErrDuplicateTimestamp is matched by every DuplicateTimestampError.
	ErrDuplicateTimestamp = errors.New("metering: duplicate timestamp")
	// ErrUnitMismatch is matched by every UnitMismatchError.
	ErrUnitMismatch = errors.New("metering: unrecognized unit")
	// ErrEmptySeries is returned when a series has no intervals.
	ErrEmptySeries = errors.New("metering: empty series")
	// ErrNilSeries is returned when a nil series is passed.
	ErrNilSeries = errors.New("metering: nil series")
	// ErrNegativeInterval is returned when a constructed interval carries negative energy.
	ErrNegativeInterval = errors.New("metering: negative interval value")
	// ErrInvalidGranularity is returned when granularity is unsupported.
	ErrInvalidGranularity = errors.New("metering: invalid granularity")
)

// SchemaError reports a missing or unusable column in a meter export.
type SchemaError struct {
	Column string
	Reason string
}

// NewSchemaError builds a SchemaError for the given column.
func NewSchemaError(column, reason string) *SchemaError {
	return &SchemaError{Column: column, Reason: reason}
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("metering: schema error: column %q: %s", e.Column, e.Reason)
}

// Is lets errors.Is match ErrSchema.
func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// DuplicateTimestampError reports a reading instant that occurs more than once.
// Band is empty for cumulative exports.
type DuplicateTimestampError struct {
	Timestamp time.Time
	Band      Band
}

func (e *DuplicateTimestampError) Error() string {
	if e.Band == "" {
		return fmt.Sprintf("metering: duplicate timestamp %s", e.Timestamp.Format(time.RFC3339))
	}
	return fmt.Sprintf("metering: duplicate timestamp %s for column %q", e.Timestamp.Format(time.RFC3339), e.Band.Column())
}

// Is lets errors.Is match ErrDuplicateTimestamp.
func (e *DuplicateTimestampError) Is(target error) bool { return target == ErrDuplicateTimestamp }

// UnitMismatchError reports an unrecognized energy unit token.
type UnitMismatchError struct {
	Token string
}

func (e *UnitMismatchError) Error() string {
	return fmt.Sprintf("metering: unrecognized unit %q (expected kWh, MWh or Wh)", e.Token)
}

// Is lets errors.Is match ErrUnitMismatch.
func (e *UnitMismatchError) Is(target error) bool { return target == ErrUnitMismatch }
