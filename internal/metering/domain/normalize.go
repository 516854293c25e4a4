package metering

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// exportFormat turns the records of one export shape into intervals.
type exportFormat interface {
	format() SourceFormat
	intervals(records []MeterRecord, unit Unit, diag *Diagnostics) ([]ConsumptionInterval, error)
}

// Normalize converts raw meter records into a canonical consumption series.
//
// Exports that carry a cumulative total are differenced; exports with
// pre-split low/normal columns are used as-is. Negative interval values are
// clamped to zero and counted in the series diagnostics.
func Normalize(records []MeterRecord, unit Unit) (*ConsumptionSeries, error) {
	if !unit.IsValid() {
		return nil, &UnitMismatchError{Token: string(unit)}
	}
	if err := validateRecords(records); err != nil {
		return nil, err
	}
	format, err := detectFormat(records)
	if err != nil {
		return nil, err
	}

	diag := Diagnostics{Format: format.format(), Records: len(records)}
	intervals, err := format.intervals(records, unit, &diag)
	if err != nil {
		return nil, err
	}
	if len(intervals) == 0 {
		return nil, ErrEmptySeries
	}
	return &ConsumptionSeries{intervals: intervals, diagnostics: diag}, nil
}

func validateRecords(records []MeterRecord) error {
	for i, record := range records {
		if record.Timestamp.IsZero() {
			return NewSchemaError("timestamp", fmt.Sprintf("record %d has no timestamp", i))
		}
		if !record.Band.IsValid() {
			return NewSchemaError(string(record.Band), fmt.Sprintf("record %d has an unknown band", i))
		}
		if math.IsNaN(record.Value) || math.IsInf(record.Value, 0) {
			return NewSchemaError(record.Band.Column(), fmt.Sprintf("record %d at %s is not a finite number", i, record.Timestamp.Format(time.RFC3339)))
		}
	}
	return nil
}

func detectFormat(records []MeterRecord) (exportFormat, error) {
	var hasSplit bool
	for _, record := range records {
		switch record.Band {
		case BandTotal:
			return cumulativeFormat{}, nil
		case BandLow, BandNormal:
			hasSplit = true
		}
	}
	if hasSplit {
		return splitFormat{}, nil
	}
	return nil, NewSchemaError("total", "export has neither a cumulative total nor low_used/normal_used columns")
}

// cumulativeFormat handles exports with a monotonically increasing meter total.
type cumulativeFormat struct{}

func (cumulativeFormat) format() SourceFormat { return FormatCumulative }

// Readings without tariff window information are booked under the normal band.
func (cumulativeFormat) intervals(records []MeterRecord, unit Unit, diag *Diagnostics) ([]ConsumptionInterval, error) {
	totals := make([]MeterRecord, 0, len(records))
	for _, record := range records {
		if record.Band == BandTotal {
			totals = append(totals, record)
		}
	}
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Timestamp.Before(totals[j].Timestamp)
	})

	intervals := make([]ConsumptionInterval, 0, len(totals))
	for i, record := range totals {
		if i > 0 && totals[i-1].Timestamp.Equal(record.Timestamp) {
			return nil, &DuplicateTimestampError{Timestamp: record.Timestamp}
		}
		var delta float64
		if i > 0 {
			delta = unit.ToKWh(record.Value) - unit.ToKWh(totals[i-1].Value)
		}
		if delta < 0 {
			delta = 0
			diag.ClampedValues++
		}
		intervals = append(intervals, ConsumptionInterval{Timestamp: record.Timestamp, NormalKWh: delta})
	}
	return intervals, nil
}

// splitFormat handles exports with per-interval values split by band.
type splitFormat struct{}

func (splitFormat) format() SourceFormat { return FormatSplit }

func (splitFormat) intervals(records []MeterRecord, unit Unit, diag *Diagnostics) ([]ConsumptionInterval, error) {
	type slot struct {
		interval ConsumptionInterval
		seen     map[Band]bool
	}
	byInstant := make(map[int64]*slot, len(records))
	for _, record := range records {
		key := record.Timestamp.UnixNano()
		current := byInstant[key]
		if current == nil {
			current = &slot{
				interval: ConsumptionInterval{Timestamp: record.Timestamp},
				seen:     make(map[Band]bool, 4),
			}
			byInstant[key] = current
		}
		if current.seen[record.Band] {
			return nil, &DuplicateTimestampError{Timestamp: record.Timestamp, Band: record.Band}
		}
		current.seen[record.Band] = true

		value := unit.ToKWh(record.Value)
		if value < 0 {
			value = 0
			diag.ClampedValues++
		}
		switch record.Band {
		case BandLow:
			current.interval.LowKWh = value
		case BandNormal:
			current.interval.NormalKWh = value
		case BandLowReturned:
			current.interval.LowReturnedKWh = value
		case BandNormalReturned:
			current.interval.NormalReturnedKWh = value
		}
	}

	intervals := make([]ConsumptionInterval, 0, len(byInstant))
	for _, current := range byInstant {
		if !current.seen[BandLow] {
			diag.DefaultedBands++
		}
		if !current.seen[BandNormal] {
			diag.DefaultedBands++
		}
		intervals = append(intervals, current.interval)
	}
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Timestamp.Before(intervals[j].Timestamp)
	})
	return intervals, nil
}
