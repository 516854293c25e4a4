package tariff

import (
	"time"

	metering "energy-compare/internal/metering/domain"
	pricing "energy-compare/internal/pricing/domain"
)

// MonthCost is the unrounded cost of one calendar month.
type MonthCost struct {
	Month      time.Time
	TimeKey    metering.TimeKey
	EnergyCost float64
	MonthlyFee float64
	Total      float64
	NormalKWh  float64
	LowKWh     float64
	// Samples counts meter intervals for fixed contracts and joined hours for dynamic ones.
	Samples int
}

// CostResult is one contract evaluated over one consumption series.
// All figures are unrounded; round with RoundMoney when presenting.
type CostResult struct {
	Provider          string
	ContractLabel     string
	Kind              Kind
	MonthlyFee        float64
	Months            []MonthCost
	TotalYear         float64
	TotalKWh          float64
	EnergyCostExclFee float64
	AvgRate           float64
	// AvgRateUndefined is set when TotalKWh is zero and AvgRate was forced to 0.
	AvgRateUndefined bool
	Coverage         float64
	Warning          *pricing.PriceCoverageWarning
}

// Breakdown returns the months keyed by their TimeKey.
func (r CostResult) Breakdown() map[metering.TimeKey]MonthCost {
	breakdown := make(map[metering.TimeKey]MonthCost, len(r.Months))
	for _, month := range r.Months {
		breakdown[month.TimeKey] = month
	}
	return breakdown
}

func newCostResult(c Contract, months []MonthCost, coverage float64, warning *pricing.PriceCoverageWarning) CostResult {
	result := CostResult{
		Provider:      c.Provider(),
		ContractLabel: c.Label(),
		Kind:          c.Kind(),
		MonthlyFee:    c.MonthlyFee(),
		Months:        months,
		Coverage:      coverage,
		Warning:       warning,
	}
	for _, month := range months {
		result.TotalYear += month.Total
		result.TotalKWh += month.NormalKWh + month.LowKWh
		result.EnergyCostExclFee += month.EnergyCost
	}
	if result.TotalKWh > 0 {
		result.AvgRate = result.EnergyCostExclFee / result.TotalKWh
	} else {
		result.AvgRateUndefined = true
	}
	return result
}

// Estimate is a manual-usage projection. YearlyCost is MonthlyCost × 12.
type Estimate struct {
	Provider      string
	ContractLabel string
	Kind          Kind
	MonthlyCost   float64
	YearlyCost    float64
}

func newEstimate(c Contract, monthly float64) Estimate {
	return Estimate{
		Provider:      c.Provider(),
		ContractLabel: c.Label(),
		Kind:          c.Kind(),
		MonthlyCost:   monthly,
		YearlyCost:    monthly * 12,
	}
}
