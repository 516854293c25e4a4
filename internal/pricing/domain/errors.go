package pricing

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyPrices is returned when a price series has no quotes.
	ErrEmptyPrices = errors.New("pricing: empty price series")
	// ErrNilPrices is returned when aligning against a nil price series.
	ErrNilPrices = errors.New("pricing: nil price series")
	// ErrZeroHour is returned when a quote has no hour start.
	ErrZeroHour = errors.New("pricing: zero hour start")
	// ErrUnalignedHour is returned when a quote does not start on a full hour.
	ErrUnalignedHour = errors.New("pricing: hour start not on the hour")
	// ErrDuplicateHour is returned when two quotes share an hour.
	ErrDuplicateHour = errors.New("pricing: duplicate hour")
	// ErrInvalidPrice is returned for NaN or infinite prices.
	ErrInvalidPrice = errors.New("pricing: invalid price")
	// ErrNoOverlap is returned when no consumption hour has a price.
	ErrNoOverlap = errors.New("pricing: no overlap between consumption and prices")
)

// PriceCoverageWarning reports consumption hours that had no matching price.
type PriceCoverageWarning struct {
	MissingHours int
	FirstMissing time.Time
	LastMissing  time.Time
	Coverage     float64
}

func (w *PriceCoverageWarning) String() string {
	if w == nil {
		return ""
	}
	return fmt.Sprintf("price coverage %.1f%%: %d consumption hours without price (%s .. %s)",
		w.Coverage*100, w.MissingHours,
		w.FirstMissing.UTC().Format(time.RFC3339), w.LastMissing.UTC().Format(time.RFC3339))
}
