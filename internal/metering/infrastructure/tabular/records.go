package tabular

import (
	"fmt"
	"strings"
	"time"

	metering "energy-compare/internal/metering/domain"
	"energy-compare/internal/textparse"
)

var (
	timestampAliases = []string{"timestamp", "datetime"}
	dateAliases      = []string{"only_date", "date", "datum"}
	clockAliases     = []string{"only_time", "time", "tijd"}

	bandAliases = map[metering.Band][]string{
		metering.BandTotal:          {"total"},
		metering.BandLow:            {"low_used_diff", "low_used", "low"},
		metering.BandNormal:         {"normal_used_diff", "normal_used", "normal"},
		metering.BandLowReturned:    {"low_returned_diff", "low_returned"},
		metering.BandNormalReturned: {"normal_returned_diff", "normal_returned"},
	}
	bandOrder = []metering.Band{
		metering.BandTotal,
		metering.BandLow,
		metering.BandNormal,
		metering.BandLowReturned,
		metering.BandNormalReturned,
	}
)

// Records converts a table into meter records. Timestamps without an
// explicit offset are read in loc. Empty band cells are skipped so that the
// normalizer can default them.
func Records(table Table, loc *time.Location) ([]metering.MeterRecord, error) {
	columns := make(map[string]int, len(table.Header))
	for i, name := range table.Header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := columns[key]; !ok {
			columns[key] = i
		}
	}

	tsIdx := lookup(columns, timestampAliases)
	dateIdx := lookup(columns, dateAliases)
	clockIdx := lookup(columns, clockAliases)
	if tsIdx < 0 && dateIdx < 0 && clockIdx >= 0 {
		// A lone time column holds full timestamps.
		tsIdx, clockIdx = clockIdx, -1
	}
	if tsIdx < 0 && dateIdx < 0 {
		return nil, metering.NewSchemaError("timestamp", "no timestamp or date column")
	}

	bandIdx := make(map[metering.Band]int)
	for _, band := range bandOrder {
		if idx := lookup(columns, bandAliases[band]); idx >= 0 {
			bandIdx[band] = idx
		}
	}

	records := make([]metering.MeterRecord, 0, len(table.Rows)*2)
	for i, row := range table.Rows {
		line := i + 2
		at, err := rowTimestamp(row, tsIdx, dateIdx, clockIdx, loc)
		if err != nil {
			return nil, metering.NewSchemaError("timestamp", fmt.Sprintf("line %d: %v", line, err))
		}
		for _, band := range bandOrder {
			idx, ok := bandIdx[band]
			if !ok {
				continue
			}
			cell := cellAt(row, idx)
			if strings.TrimSpace(cell) == "" {
				continue
			}
			value, err := textparse.Decimal(cell)
			if err != nil {
				return nil, metering.NewSchemaError(table.Header[idx], fmt.Sprintf("line %d: %v", line, err))
			}
			records = append(records, metering.MeterRecord{Timestamp: at, Band: band, Value: value})
		}
	}
	return records, nil
}

func rowTimestamp(row []string, tsIdx, dateIdx, clockIdx int, loc *time.Location) (time.Time, error) {
	if tsIdx >= 0 && strings.TrimSpace(cellAt(row, tsIdx)) != "" {
		return textparse.Timestamp(cellAt(row, tsIdx), loc)
	}
	if dateIdx >= 0 {
		clock := ""
		if clockIdx >= 0 {
			clock = cellAt(row, clockIdx)
		}
		return textparse.DateTime(cellAt(row, dateIdx), clock, loc)
	}
	return time.Time{}, textparse.ErrEmpty
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func lookup(columns map[string]int, aliases []string) int {
	for _, alias := range aliases {
		if idx, ok := columns[alias]; ok {
			return idx
		}
	}
	return -1
}
