package metering

import "time"

// HourStat is the mean hourly consumption for one hour of the day.
type HourStat struct {
	Hour    int
	MeanKWh float64
	Samples int
}

// HourProfile describes how consumption is spread over the day.
type HourProfile struct {
	Hours [24]HourStat
	// PeakHour and LowHour are -1 when the series has no hourly data.
	PeakHour int
	LowHour  int
}

// HourOfDayProfile averages hourly sums per hour of the day, in the
// location of the series timestamps.
func HourOfDayProfile(series *ConsumptionSeries) (HourProfile, error) {
	hourly, err := Resample(series, GranularityHour)
	if err != nil {
		return HourProfile{}, err
	}

	var sums [24]float64
	profile := HourProfile{PeakHour: -1, LowHour: -1}
	for _, bucket := range hourly.Buckets {
		hour := bucket.Start.Hour()
		sums[hour] += bucket.UsedKWh()
		profile.Hours[hour].Samples++
	}
	for hour := range profile.Hours {
		stat := &profile.Hours[hour]
		stat.Hour = hour
		if stat.Samples == 0 {
			continue
		}
		stat.MeanKWh = sums[hour] / float64(stat.Samples)
		if profile.PeakHour < 0 || stat.MeanKWh > profile.Hours[profile.PeakHour].MeanKWh {
			profile.PeakHour = hour
		}
		if profile.LowHour < 0 || stat.MeanKWh < profile.Hours[profile.LowHour].MeanKWh {
			profile.LowHour = hour
		}
	}
	return profile, nil
}

// Summary is the headline view of an uploaded export.
type Summary struct {
	Records          int
	Intervals        int
	Start            time.Time
	End              time.Time
	Days             int
	TotalKWh         float64
	TotalReturnedKWh float64
	AverageDailyKWh  float64
	MaxDailyKWh      float64
	MinDailyKWh      float64
}

// Summarize computes totals and daily extremes from day sums.
func Summarize(series *ConsumptionSeries) (Summary, error) {
	daily, err := Resample(series, GranularityDay)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Records:          series.diagnostics.Records,
		Intervals:        series.Len(),
		Start:            series.Start(),
		End:              series.End(),
		Days:             len(daily.Buckets),
		TotalKWh:         series.TotalUsedKWh(),
		TotalReturnedKWh: series.TotalReturnedKWh(),
	}
	for i, bucket := range daily.Buckets {
		used := bucket.UsedKWh()
		if i == 0 || used > summary.MaxDailyKWh {
			summary.MaxDailyKWh = used
		}
		if i == 0 || used < summary.MinDailyKWh {
			summary.MinDailyKWh = used
		}
	}
	if summary.Days > 0 {
		summary.AverageDailyKWh = summary.TotalKWh / float64(summary.Days)
	}
	return summary, nil
}
