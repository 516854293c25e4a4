package metering

import (
	"slices"
	"sort"
	"time"
)

// ConsumptionInterval is the energy used (and returned) during one sampling interval.
// All values are kWh and never negative.
type ConsumptionInterval struct {
	Timestamp         time.Time
	LowKWh            float64
	NormalKWh         float64
	LowReturnedKWh    float64
	NormalReturnedKWh float64
}

// UsedKWh returns the consumption across both bands.
func (i ConsumptionInterval) UsedKWh() float64 { return i.LowKWh + i.NormalKWh }

// ReturnedKWh returns the feed-in across both bands.
func (i ConsumptionInterval) ReturnedKWh() float64 { return i.LowReturnedKWh + i.NormalReturnedKWh }

func (i ConsumptionInterval) validate() error {
	if i.Timestamp.IsZero() {
		return NewSchemaError("timestamp", "interval without timestamp")
	}
	if i.LowKWh < 0 || i.NormalKWh < 0 || i.LowReturnedKWh < 0 || i.NormalReturnedKWh < 0 {
		return ErrNegativeInterval
	}
	return nil
}

// SourceFormat identifies which export shape a series was built from.
type SourceFormat string

const (
	FormatCumulative SourceFormat = "cumulative"
	FormatSplit      SourceFormat = "split"
)

// Diagnostics records the silent corrections applied while normalizing.
type Diagnostics struct {
	Format         SourceFormat
	Records        int
	ClampedValues  int
	DefaultedBands int
}

// ConsumptionSeries is an ordered, unique-timestamp sequence of intervals.
// It is never mutated after construction.
type ConsumptionSeries struct {
	intervals   []ConsumptionInterval
	diagnostics Diagnostics
}

// NewConsumptionSeries builds a series from already-differenced intervals.
// Intervals are sorted by timestamp; duplicates and negative values are rejected.
func NewConsumptionSeries(intervals []ConsumptionInterval) (*ConsumptionSeries, error) {
	if len(intervals) == 0 {
		return nil, ErrEmptySeries
	}
	sorted := slices.Clone(intervals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	for i, interval := range sorted {
		if err := interval.validate(); err != nil {
			return nil, err
		}
		if i > 0 && sorted[i-1].Timestamp.Equal(interval.Timestamp) {
			return nil, &DuplicateTimestampError{Timestamp: interval.Timestamp}
		}
	}
	return &ConsumptionSeries{
		intervals:   sorted,
		diagnostics: Diagnostics{Format: FormatSplit, Records: len(sorted)},
	}, nil
}

// Len returns the number of intervals.
func (s *ConsumptionSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.intervals)
}

// Intervals returns a copy of the intervals in timestamp order.
func (s *ConsumptionSeries) Intervals() []ConsumptionInterval {
	if s == nil {
		return nil
	}
	return slices.Clone(s.intervals)
}

// Diagnostics returns the corrections applied during normalization.
func (s *ConsumptionSeries) Diagnostics() Diagnostics {
	if s == nil {
		return Diagnostics{}
	}
	return s.diagnostics
}

// Start returns the first interval timestamp.
func (s *ConsumptionSeries) Start() time.Time {
	if s.Len() == 0 {
		return time.Time{}
	}
	return s.intervals[0].Timestamp
}

// End returns the last interval timestamp.
func (s *ConsumptionSeries) End() time.Time {
	if s.Len() == 0 {
		return time.Time{}
	}
	return s.intervals[len(s.intervals)-1].Timestamp
}

// TotalUsedKWh sums consumption over all intervals.
func (s *ConsumptionSeries) TotalUsedKWh() float64 {
	if s == nil {
		return 0
	}
	var sum float64
	for _, interval := range s.intervals {
		sum += interval.UsedKWh()
	}
	return sum
}

// TotalReturnedKWh sums feed-in over all intervals.
func (s *ConsumptionSeries) TotalReturnedKWh() float64 {
	if s == nil {
		return 0
	}
	var sum float64
	for _, interval := range s.intervals {
		sum += interval.ReturnedKWh()
	}
	return sum
}
