package metering

import (
	"sort"
	"time"
)

// Bucket is the summed energy of all intervals starting inside one period.
type Bucket struct {
	Start             time.Time
	TimeKey           TimeKey
	LowKWh            float64
	NormalKWh         float64
	LowReturnedKWh    float64
	NormalReturnedKWh float64
	Samples           int
}

// UsedKWh returns the consumption across both bands.
func (b Bucket) UsedKWh() float64 { return b.LowKWh + b.NormalKWh }

// ReturnedKWh returns the feed-in across both bands.
func (b Bucket) ReturnedKWh() float64 { return b.LowReturnedKWh + b.NormalReturnedKWh }

// AggregatedSeries is a series resampled to one granularity.
// Only periods that contain at least one interval are present.
type AggregatedSeries struct {
	Granularity Granularity
	Buckets     []Bucket
}

// TotalUsedKWh sums consumption over all buckets.
func (a AggregatedSeries) TotalUsedKWh() float64 {
	var sum float64
	for _, bucket := range a.Buckets {
		sum += bucket.UsedKWh()
	}
	return sum
}

// Resample sums the intervals of series into calendar buckets.
// Energy is additive, so buckets always hold sums, never means.
func Resample(series *ConsumptionSeries, granularity Granularity) (AggregatedSeries, error) {
	if series == nil {
		return AggregatedSeries{}, ErrNilSeries
	}
	if !granularity.IsValid() {
		return AggregatedSeries{}, ErrInvalidGranularity
	}

	result := AggregatedSeries{Granularity: granularity}
	index := make(map[int64]int)
	for _, interval := range series.intervals {
		start := granularity.Truncate(interval.Timestamp)
		pos, ok := index[start.UnixNano()]
		if !ok {
			key, err := NewTimeKey(granularity, start)
			if err != nil {
				return AggregatedSeries{}, err
			}
			pos = len(result.Buckets)
			index[start.UnixNano()] = pos
			result.Buckets = append(result.Buckets, Bucket{Start: start, TimeKey: key})
		}
		bucket := &result.Buckets[pos]
		bucket.LowKWh += interval.LowKWh
		bucket.NormalKWh += interval.NormalKWh
		bucket.LowReturnedKWh += interval.LowReturnedKWh
		bucket.NormalReturnedKWh += interval.NormalReturnedKWh
		bucket.Samples++
	}
	// Series with mixed locations can produce out-of-order bucket starts.
	sort.SliceStable(result.Buckets, func(i, j int) bool {
		return result.Buckets[i].Start.Before(result.Buckets[j].Start)
	})
	return result, nil
}

// DailyPoint is a day total projected onto a single sample instant.
type DailyPoint struct {
	At       time.Time
	DailyKWh float64
	// Known is false for points before the first day with data.
	Known bool
}

// ReindexDailyForward projects day totals onto the given instants, carrying the
// last known day total forward across gaps. When points is empty the series'
// own timestamps are used. The view is for charts only; cost figures are always
// computed from interval sums.
func ReindexDailyForward(series *ConsumptionSeries, points []time.Time) ([]DailyPoint, error) {
	daily, err := Resample(series, GranularityDay)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		points = make([]time.Time, 0, series.Len())
		for _, interval := range series.intervals {
			points = append(points, interval.Timestamp)
		}
	}

	result := make([]DailyPoint, 0, len(points))
	for _, at := range points {
		idx := sort.Search(len(daily.Buckets), func(i int) bool {
			return daily.Buckets[i].Start.After(at)
		})
		if idx == 0 {
			result = append(result, DailyPoint{At: at})
			continue
		}
		result = append(result, DailyPoint{
			At:       at,
			DailyKWh: daily.Buckets[idx-1].UsedKWh(),
			Known:    true,
		})
	}
	return result, nil
}
