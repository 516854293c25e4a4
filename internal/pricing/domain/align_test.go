package pricing

import (
	"testing"
	"time"
	_ "time/tzdata"

	metering "energy-compare/internal/metering/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

func hourlyPrices(t *testing.T, start time.Time, hours int, eur float64) *PriceSeries {
	t.Helper()
	quotes := make([]PriceQuote, 0, hours)
	for i := 0; i < hours; i++ {
		quotes = append(quotes, PriceQuote{HourStart: start.Add(time.Duration(i) * time.Hour), EURPerKWh: eur})
	}
	series, err := NewPriceSeries("test", quotes)
	require.NoError(t, err)
	return series
}

func quarterHours(t *testing.T, start time.Time, n int) *metering.ConsumptionSeries {
	t.Helper()
	intervals := make([]metering.ConsumptionInterval, 0, n)
	for i := 0; i < n; i++ {
		intervals = append(intervals, metering.ConsumptionInterval{
			Timestamp: start.Add(time.Duration(i) * 15 * time.Minute),
			NormalKWh: 0.25,
			LowKWh:    0.05,
		})
	}
	series, err := metering.NewConsumptionSeries(intervals)
	require.NoError(t, err)
	return series
}

func TestAlign_FullCoverage(t *testing.T) {
	series := quarterHours(t, day, 24*4)
	prices := hourlyPrices(t, day.Add(-2*time.Hour), 30, 0.1)

	aligned, err := Align(series, prices)
	require.NoError(t, err)

	assert.Equal(t, 1.0, aligned.Coverage)
	assert.Equal(t, 24, aligned.ConsumptionHours)
	assert.Len(t, aligned.Hours, 24)
	assert.Nil(t, aligned.Warning)
	assert.Equal(t, "test", aligned.PriceVersion)
	assert.InDelta(t, series.TotalUsedKWh(), aligned.TotalUsedKWh(), 1e-9)
	assert.InDelta(t, 1.2, aligned.Hours[0].UsedKWh(), 1e-9)
}

func TestAlign_PartialCoverageIsSurfaced(t *testing.T) {
	series := quarterHours(t, day, 10*4)
	prices := hourlyPrices(t, day, 6, 0.2)

	aligned, err := Align(series, prices)
	require.NoError(t, err)

	assert.Equal(t, 6, aligned.JoinedHours)
	assert.InDelta(t, 0.6, aligned.Coverage, 1e-9)
	require.NotNil(t, aligned.Warning)
	assert.Equal(t, 4, aligned.Warning.MissingHours)
	assert.True(t, aligned.Warning.FirstMissing.Equal(day.Add(6*time.Hour)))
	assert.True(t, aligned.Warning.LastMissing.Equal(day.Add(9*time.Hour)))
	assert.Contains(t, aligned.Warning.String(), "60.0%")
}

func TestAlign_JoinsOnInstantAndKeepsLocalHour(t *testing.T) {
	amsterdam, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	series := quarterHours(t, day.In(amsterdam), 4)
	prices := hourlyPrices(t, day, 1, 0.3)

	aligned, err := Align(series, prices)
	require.NoError(t, err)
	require.Len(t, aligned.Hours, 1)
	assert.Equal(t, amsterdam, aligned.Hours[0].HourStart.Location())
	assert.Equal(t, 0.3, aligned.Hours[0].EURPerKWh)
}

func TestAlign_NilPrices(t *testing.T) {
	_, err := Align(quarterHours(t, day, 4), nil)
	assert.ErrorIs(t, err, ErrNilPrices)
}

func TestNewPriceSeries_Validation(t *testing.T) {
	_, err := NewPriceSeries("v", nil)
	assert.ErrorIs(t, err, ErrEmptyPrices)

	_, err = NewPriceSeries("v", []PriceQuote{{HourStart: day.Add(30 * time.Minute)}})
	assert.ErrorIs(t, err, ErrUnalignedHour)

	_, err = NewPriceSeries("v", []PriceQuote{{HourStart: day}, {HourStart: day.In(time.FixedZone("CET", 3600))}})
	assert.ErrorIs(t, err, ErrDuplicateHour)

	_, err = NewPriceSeries("v", []PriceQuote{{}})
	assert.ErrorIs(t, err, ErrZeroHour)

	series, err := NewPriceSeries("v", []PriceQuote{
		QuoteFromEURPerMWh(day.Add(time.Hour), -12.5),
		QuoteFromEURPerMWh(day, 100),
	})
	require.NoError(t, err)
	assert.True(t, series.Start().Equal(day))
	assert.True(t, series.End().Equal(day.Add(time.Hour)))
	price, ok := series.PriceAt(day.Add(70 * time.Minute))
	require.True(t, ok)
	assert.InDelta(t, -0.0125, price, 1e-12)
	assert.InDelta(t, 0.04375, series.AverageEURPerKWh(), 1e-12)
}
