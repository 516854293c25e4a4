package pricing

import (
	"math"
	"slices"
	"sort"
	"time"
)

// PriceQuote is the day-ahead price of one UTC hour.
type PriceQuote struct {
	HourStart time.Time
	EURPerKWh float64
}

// QuoteFromEURPerMWh converts an exchange quote to EUR/kWh.
func QuoteFromEURPerMWh(hourStart time.Time, eurPerMWh float64) PriceQuote {
	return PriceQuote{HourStart: hourStart, EURPerKWh: eurPerMWh / 1000}
}

// PriceSeries is an immutable, versioned set of hourly prices.
// Once built it is safe for concurrent readers.
type PriceSeries struct {
	version string
	quotes  []PriceQuote
	byHour  map[int64]float64
}

// NewPriceSeries validates and indexes quotes. Hours are normalized to UTC.
func NewPriceSeries(version string, quotes []PriceQuote) (*PriceSeries, error) {
	if len(quotes) == 0 {
		return nil, ErrEmptyPrices
	}
	sorted := make([]PriceQuote, 0, len(quotes))
	byHour := make(map[int64]float64, len(quotes))
	for _, quote := range quotes {
		if quote.HourStart.IsZero() {
			return nil, ErrZeroHour
		}
		if math.IsNaN(quote.EURPerKWh) || math.IsInf(quote.EURPerKWh, 0) {
			return nil, ErrInvalidPrice
		}
		hour := quote.HourStart.UTC()
		if !hour.Truncate(time.Hour).Equal(hour) {
			return nil, ErrUnalignedHour
		}
		key := hour.Unix()
		if _, ok := byHour[key]; ok {
			return nil, ErrDuplicateHour
		}
		byHour[key] = quote.EURPerKWh
		sorted = append(sorted, PriceQuote{HourStart: hour, EURPerKWh: quote.EURPerKWh})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].HourStart.Before(sorted[j].HourStart) })
	return &PriceSeries{version: version, quotes: sorted, byHour: byHour}, nil
}

// Version identifies the snapshot the series was built from.
func (p *PriceSeries) Version() string {
	if p == nil {
		return ""
	}
	return p.version
}

// Len returns the number of hours.
func (p *PriceSeries) Len() int {
	if p == nil {
		return 0
	}
	return len(p.quotes)
}

// Quotes returns a copy of the quotes in time order.
func (p *PriceSeries) Quotes() []PriceQuote {
	if p == nil {
		return nil
	}
	return slices.Clone(p.quotes)
}

// PriceAt returns the price of the hour containing at.
func (p *PriceSeries) PriceAt(at time.Time) (float64, bool) {
	if p == nil {
		return 0, false
	}
	price, ok := p.byHour[at.UTC().Truncate(time.Hour).Unix()]
	return price, ok
}

// Start returns the first quoted hour.
func (p *PriceSeries) Start() time.Time {
	if p.Len() == 0 {
		return time.Time{}
	}
	return p.quotes[0].HourStart
}

// End returns the last quoted hour.
func (p *PriceSeries) End() time.Time {
	if p.Len() == 0 {
		return time.Time{}
	}
	return p.quotes[len(p.quotes)-1].HourStart
}

// AverageEURPerKWh returns the mean hourly price.
func (p *PriceSeries) AverageEURPerKWh() float64 {
	if p.Len() == 0 {
		return 0
	}
	var sum float64
	for _, quote := range p.quotes {
		sum += quote.EURPerKWh
	}
	return sum / float64(len(p.quotes))
}
