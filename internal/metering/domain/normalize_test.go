package metering

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

func at(minutes int) time.Time { return base.Add(time.Duration(minutes) * time.Minute) }

func TestNormalize_CumulativeDifferencesReadings(t *testing.T) {
	records := []MeterRecord{
		{Timestamp: at(0), Band: BandTotal, Value: 100},
		{Timestamp: at(15), Band: BandTotal, Value: 100.5},
		{Timestamp: at(30), Band: BandTotal, Value: 101.25},
	}

	series, err := Normalize(records, UnitKWh)
	require.NoError(t, err)

	intervals := series.Intervals()
	require.Len(t, intervals, 3)
	assert.Equal(t, 0.0, intervals[0].UsedKWh())
	assert.InDelta(t, 0.5, intervals[1].NormalKWh, 1e-9)
	assert.InDelta(t, 0.75, intervals[2].NormalKWh, 1e-9)
	assert.Equal(t, FormatCumulative, series.Diagnostics().Format)
	assert.Equal(t, 0, series.Diagnostics().ClampedValues)
}

func TestNormalize_CumulativeSortsAndConvertsMWh(t *testing.T) {
	records := []MeterRecord{
		{Timestamp: at(60), Band: BandTotal, Value: 1.003},
		{Timestamp: at(0), Band: BandTotal, Value: 1.000},
	}

	series, err := Normalize(records, UnitMWh)
	require.NoError(t, err)

	intervals := series.Intervals()
	require.Len(t, intervals, 2)
	assert.True(t, intervals[0].Timestamp.Equal(at(0)))
	assert.InDelta(t, 3.0, intervals[1].NormalKWh, 1e-9)
}

func TestNormalize_MeterRolloverIsClamped(t *testing.T) {
	records := []MeterRecord{
		{Timestamp: at(0), Band: BandTotal, Value: 99998},
		{Timestamp: at(15), Band: BandTotal, Value: 99999},
		{Timestamp: at(30), Band: BandTotal, Value: 2},
		{Timestamp: at(45), Band: BandTotal, Value: 4},
	}

	series, err := Normalize(records, UnitKWh)
	require.NoError(t, err)

	for _, interval := range series.Intervals() {
		assert.GreaterOrEqual(t, interval.LowKWh, 0.0)
		assert.GreaterOrEqual(t, interval.NormalKWh, 0.0)
	}
	assert.Equal(t, 1, series.Diagnostics().ClampedValues)
	assert.InDelta(t, 3.0, series.TotalUsedKWh(), 1e-9)
}

func TestNormalize_SplitBandsAndDefaults(t *testing.T) {
	records := []MeterRecord{
		{Timestamp: at(0), Band: BandLow, Value: 0.2},
		{Timestamp: at(0), Band: BandNormal, Value: 0.3},
		{Timestamp: at(15), Band: BandNormal, Value: -0.1},
		{Timestamp: at(15), Band: BandNormalReturned, Value: 0.4},
	}

	series, err := Normalize(records, UnitKWh)
	require.NoError(t, err)

	intervals := series.Intervals()
	require.Len(t, intervals, 2)
	assert.InDelta(t, 0.5, intervals[0].UsedKWh(), 1e-9)
	assert.Equal(t, 0.0, intervals[1].NormalKWh)
	assert.InDelta(t, 0.4, intervals[1].NormalReturnedKWh, 1e-9)

	diag := series.Diagnostics()
	assert.Equal(t, FormatSplit, diag.Format)
	assert.Equal(t, 1, diag.ClampedValues)
	assert.Equal(t, 1, diag.DefaultedBands)
	assert.Equal(t, 4, diag.Records)
}

func TestNormalize_MissingColumnsIsSchemaError(t *testing.T) {
	_, err := Normalize([]MeterRecord{{Timestamp: at(0), Band: BandLowReturned, Value: 1}}, UnitKWh)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "total", schemaErr.Column)

	_, err = Normalize(nil, UnitKWh)
	assert.True(t, errors.Is(err, ErrSchema))
}

func TestNormalize_MissingTimestampIsSchemaError(t *testing.T) {
	_, err := Normalize([]MeterRecord{{Band: BandTotal, Value: 1}}, UnitKWh)
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "timestamp", schemaErr.Column)
}

func TestNormalize_DuplicateTimestampsRejected(t *testing.T) {
	_, err := Normalize([]MeterRecord{
		{Timestamp: at(0), Band: BandTotal, Value: 1},
		{Timestamp: at(0), Band: BandTotal, Value: 2},
	}, UnitKWh)
	assert.True(t, errors.Is(err, ErrDuplicateTimestamp))

	_, err = Normalize([]MeterRecord{
		{Timestamp: at(0), Band: BandLow, Value: 1},
		{Timestamp: at(0).In(time.FixedZone("CET", 3600)), Band: BandLow, Value: 2},
	}, UnitKWh)
	var dupErr *DuplicateTimestampError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, BandLow, dupErr.Band)
	assert.Contains(t, dupErr.Error(), "low_used")
}

func TestNormalize_UnknownUnit(t *testing.T) {
	_, err := Normalize([]MeterRecord{{Timestamp: at(0), Band: BandTotal, Value: 1}}, Unit("GJ"))
	assert.True(t, errors.Is(err, ErrUnitMismatch))

	_, err = ParseUnit("therm")
	var unitErr *UnitMismatchError
	require.True(t, errors.As(err, &unitErr))
	assert.Equal(t, "therm", unitErr.Token)

	unit, err := ParseUnit(" mwh ")
	require.NoError(t, err)
	assert.Equal(t, UnitMWh, unit)
}

func TestNewConsumptionSeries_RejectsNegativeAndDuplicates(t *testing.T) {
	_, err := NewConsumptionSeries([]ConsumptionInterval{{Timestamp: at(0), LowKWh: -1}})
	assert.ErrorIs(t, err, ErrNegativeInterval)

	_, err = NewConsumptionSeries([]ConsumptionInterval{{Timestamp: at(0)}, {Timestamp: at(0)}})
	assert.ErrorIs(t, err, ErrDuplicateTimestamp)

	_, err = NewConsumptionSeries(nil)
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestConsumptionSeries_IntervalsAreCopies(t *testing.T) {
	series, err := NewConsumptionSeries([]ConsumptionInterval{{Timestamp: at(0), NormalKWh: 1}})
	require.NoError(t, err)

	intervals := series.Intervals()
	intervals[0].NormalKWh = 99
	assert.Equal(t, 1.0, series.Intervals()[0].NormalKWh)
}
