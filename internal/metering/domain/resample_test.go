package metering

import (
	"math/rand"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quarterHourSeries(t *testing.T, start time.Time, n int, seed int64) *ConsumptionSeries {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	intervals := make([]ConsumptionInterval, 0, n)
	for i := 0; i < n; i++ {
		intervals = append(intervals, ConsumptionInterval{
			Timestamp: start.Add(time.Duration(i) * 15 * time.Minute),
			LowKWh:    rng.Float64(),
			NormalKWh: rng.Float64(),
		})
	}
	series, err := NewConsumptionSeries(intervals)
	require.NoError(t, err)
	return series
}

func TestResample_SumIsConserved(t *testing.T) {
	series := quarterHourSeries(t, base, 24*4*45, 7)

	for _, granularity := range []Granularity{GranularityHour, GranularityDay, GranularityMonth} {
		aggregated, err := Resample(series, granularity)
		require.NoError(t, err)
		assert.InDelta(t, series.TotalUsedKWh(), aggregated.TotalUsedKWh(), 1e-6, string(granularity))
	}
}

func TestResample_HourBucketsSumNotMean(t *testing.T) {
	series, err := NewConsumptionSeries([]ConsumptionInterval{
		{Timestamp: at(0), NormalKWh: 1},
		{Timestamp: at(15), NormalKWh: 2},
		{Timestamp: at(30), LowKWh: 3},
		{Timestamp: at(60), NormalKWh: 4},
	})
	require.NoError(t, err)

	hourly, err := Resample(series, GranularityHour)
	require.NoError(t, err)
	require.Len(t, hourly.Buckets, 2)
	assert.Equal(t, 6.0, hourly.Buckets[0].UsedKWh())
	assert.Equal(t, 3, hourly.Buckets[0].Samples)
	assert.Equal(t, 4.0, hourly.Buckets[1].UsedKWh())
}

func TestResample_CalendarBoundariesInLocalTime(t *testing.T) {
	amsterdam, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	series, err := NewConsumptionSeries([]ConsumptionInterval{
		{Timestamp: time.Date(2025, time.January, 31, 23, 30, 0, 0, amsterdam), NormalKWh: 1},
		{Timestamp: time.Date(2025, time.February, 1, 0, 15, 0, 0, amsterdam), NormalKWh: 2},
	})
	require.NoError(t, err)

	monthly, err := Resample(series, GranularityMonth)
	require.NoError(t, err)
	require.Len(t, monthly.Buckets, 2)
	assert.Equal(t, TimeKey("2025-01"), monthly.Buckets[0].TimeKey)
	assert.Equal(t, TimeKey("2025-02"), monthly.Buckets[1].TimeKey)

	daily, err := Resample(series, GranularityDay)
	require.NoError(t, err)
	require.Len(t, daily.Buckets, 2)
	assert.Equal(t, 0, daily.Buckets[1].Start.Hour())
}

func TestResample_DSTFallBackKeepsRepeatedHourApart(t *testing.T) {
	amsterdam, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	// 2025-10-26 02:00 CEST -> 02:00 CET; 00:00 UTC and 01:00 UTC are both 02:xx local.
	first := time.Date(2025, time.October, 26, 0, 30, 0, 0, time.UTC).In(amsterdam)
	second := time.Date(2025, time.October, 26, 1, 30, 0, 0, time.UTC).In(amsterdam)
	series, err := NewConsumptionSeries([]ConsumptionInterval{
		{Timestamp: first, NormalKWh: 1},
		{Timestamp: second, NormalKWh: 2},
	})
	require.NoError(t, err)

	hourly, err := Resample(series, GranularityHour)
	require.NoError(t, err)
	assert.Len(t, hourly.Buckets, 2)
}

func TestResample_InvalidInput(t *testing.T) {
	_, err := Resample(nil, GranularityDay)
	assert.ErrorIs(t, err, ErrNilSeries)

	series := quarterHourSeries(t, base, 4, 1)
	_, err = Resample(series, Granularity("WEEK"))
	assert.ErrorIs(t, err, ErrInvalidGranularity)

	_, err = ParseGranularity("fortnight")
	assert.ErrorIs(t, err, ErrInvalidGranularity)
	g, err := ParseGranularity("Daily")
	require.NoError(t, err)
	assert.Equal(t, GranularityDay, g)
}

func TestReindexDailyForward_CarriesLastKnownDay(t *testing.T) {
	series, err := NewConsumptionSeries([]ConsumptionInterval{
		{Timestamp: base.Add(1 * time.Hour), NormalKWh: 1},
		{Timestamp: base.Add(2 * time.Hour), NormalKWh: 2},
		{Timestamp: base.Add(48 * time.Hour), NormalKWh: 5},
	})
	require.NoError(t, err)

	points, err := ReindexDailyForward(series, []time.Time{
		base.Add(-time.Hour),
		base.Add(3 * time.Hour),
		base.Add(30 * time.Hour),
		base.Add(50 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, points, 4)

	assert.False(t, points[0].Known)
	assert.Equal(t, 3.0, points[1].DailyKWh)
	assert.Equal(t, 3.0, points[2].DailyKWh, "gap day carries previous total")
	assert.Equal(t, 5.0, points[3].DailyKWh)

	own, err := ReindexDailyForward(series, nil)
	require.NoError(t, err)
	assert.Len(t, own, series.Len())
}
