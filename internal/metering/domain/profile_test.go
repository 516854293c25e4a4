package metering

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHourOfDayProfile_PeakAndLow(t *testing.T) {
	series, err := NewConsumptionSeries([]ConsumptionInterval{
		{Timestamp: base.Add(7 * time.Hour), NormalKWh: 1},
		{Timestamp: base.Add(18 * time.Hour), NormalKWh: 3},
		{Timestamp: base.Add(18*time.Hour + 15*time.Minute), LowKWh: 1},
		{Timestamp: base.Add(24*time.Hour + 7*time.Hour), NormalKWh: 2},
		{Timestamp: base.Add(24*time.Hour + 18*time.Hour), NormalKWh: 2},
	})
	require.NoError(t, err)

	profile, err := HourOfDayProfile(series)
	require.NoError(t, err)

	assert.Equal(t, 18, profile.PeakHour)
	assert.Equal(t, 7, profile.LowHour)
	assert.InDelta(t, 3.0, profile.Hours[18].MeanKWh, 1e-9)
	assert.InDelta(t, 1.5, profile.Hours[7].MeanKWh, 1e-9)
	assert.Equal(t, 0, profile.Hours[3].Samples)
}

func TestSummarize_UsesDailySums(t *testing.T) {
	series, err := NewConsumptionSeries([]ConsumptionInterval{
		{Timestamp: base.Add(1 * time.Hour), NormalKWh: 2, NormalReturnedKWh: 1},
		{Timestamp: base.Add(2 * time.Hour), LowKWh: 4},
		{Timestamp: base.Add(25 * time.Hour), NormalKWh: 3},
	})
	require.NoError(t, err)

	summary, err := Summarize(series)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Days)
	assert.Equal(t, 3, summary.Intervals)
	assert.InDelta(t, 9.0, summary.TotalKWh, 1e-9)
	assert.InDelta(t, 1.0, summary.TotalReturnedKWh, 1e-9)
	assert.InDelta(t, 6.0, summary.MaxDailyKWh, 1e-9)
	assert.InDelta(t, 3.0, summary.MinDailyKWh, 1e-9)
	assert.InDelta(t, 4.5, summary.AverageDailyKWh, 1e-9)
	assert.True(t, summary.Start.Equal(base.Add(time.Hour)))
}
