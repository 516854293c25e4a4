package pricing

import (
	"time"

	metering "energy-compare/internal/metering/domain"
)

// AlignedHour is one consumption hour joined with its day-ahead price.
type AlignedHour struct {
	// HourStart keeps the consumption series' location so that month
	// bucketing downstream follows the local calendar.
	HourStart time.Time
	LowKWh    float64
	NormalKWh float64
	EURPerKWh float64
}

// UsedKWh returns the consumption across both bands.
func (h AlignedHour) UsedKWh() float64 { return h.LowKWh + h.NormalKWh }

// AlignedDataset is the inner join of hourly consumption and prices.
type AlignedDataset struct {
	Hours            []AlignedHour
	ConsumptionHours int
	JoinedHours      int
	// Coverage is JoinedHours / ConsumptionHours, 0 when there is no consumption.
	Coverage     float64
	PriceVersion string
	Warning      *PriceCoverageWarning
}

// Align resamples series to hours and joins each hour with its price on the
// absolute instant. Hours without a price are dropped and reported in the
// coverage warning; they are never filled in.
func Align(series *metering.ConsumptionSeries, prices *PriceSeries) (*AlignedDataset, error) {
	if prices == nil {
		return nil, ErrNilPrices
	}
	hourly, err := metering.Resample(series, metering.GranularityHour)
	if err != nil {
		return nil, err
	}

	dataset := &AlignedDataset{
		Hours:            make([]AlignedHour, 0, len(hourly.Buckets)),
		ConsumptionHours: len(hourly.Buckets),
		PriceVersion:     prices.Version(),
	}
	var missing []time.Time
	for _, bucket := range hourly.Buckets {
		price, ok := prices.PriceAt(bucket.Start)
		if !ok {
			missing = append(missing, bucket.Start)
			continue
		}
		dataset.Hours = append(dataset.Hours, AlignedHour{
			HourStart: bucket.Start,
			LowKWh:    bucket.LowKWh,
			NormalKWh: bucket.NormalKWh,
			EURPerKWh: price,
		})
	}
	dataset.JoinedHours = len(dataset.Hours)
	if dataset.ConsumptionHours > 0 {
		dataset.Coverage = float64(dataset.JoinedHours) / float64(dataset.ConsumptionHours)
	}
	if len(missing) > 0 {
		dataset.Warning = &PriceCoverageWarning{
			MissingHours: len(missing),
			FirstMissing: missing[0],
			LastMissing:  missing[len(missing)-1],
			Coverage:     dataset.Coverage,
		}
	}
	return dataset, nil
}

// TotalUsedKWh sums consumption over the joined hours.
func (d *AlignedDataset) TotalUsedKWh() float64 {
	if d == nil {
		return 0
	}
	var sum float64
	for _, hour := range d.Hours {
		sum += hour.UsedKWh()
	}
	return sum
}
