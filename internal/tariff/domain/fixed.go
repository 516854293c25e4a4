package tariff

import (
	"strings"

	metering "energy-compare/internal/metering/domain"
)

// FixedContract charges a fixed rate per band plus a monthly fee.
type FixedContract struct {
	ProviderName string
	ContractName string
	RateNormal   float64
	RateLow      float64
	Fee          float64
}

func (c FixedContract) Provider() string { return c.ProviderName }

// Label is the contract name, or the provider when the catalog gives none.
func (c FixedContract) Label() string {
	if strings.TrimSpace(c.ContractName) == "" {
		return c.ProviderName
	}
	return c.ContractName
}

// Kind is fixed when the contract name says so ("vast" or "fixed"), variable otherwise.
func (c FixedContract) Kind() Kind {
	name := strings.ToLower(c.ContractName)
	if strings.Contains(name, "vast") || strings.Contains(name, "fixed") {
		return KindFixed
	}
	return KindVariable
}

func (c FixedContract) MonthlyFee() float64 { return c.Fee }

func (c FixedContract) RequiresPrices() bool { return false }

func (c FixedContract) Validate() error {
	if err := validateCommon(c.ProviderName, c.Fee); err != nil {
		return err
	}
	if !validRate(c.RateNormal) || !validRate(c.RateLow) {
		return ErrInvalidRate
	}
	return nil
}

// Evaluate prices every month bucket directly; no price alignment is involved.
func (c FixedContract) Evaluate(in Input) (CostResult, error) {
	if in.Monthly.Granularity != metering.GranularityMonth || len(in.Monthly.Buckets) == 0 {
		return CostResult{}, ErrMonthlyRequired
	}
	months := make([]MonthCost, 0, len(in.Monthly.Buckets))
	for _, bucket := range in.Monthly.Buckets {
		energy := bucket.LowKWh*c.RateLow + bucket.NormalKWh*c.RateNormal
		months = append(months, MonthCost{
			Month:      bucket.Start,
			TimeKey:    bucket.TimeKey,
			EnergyCost: energy,
			MonthlyFee: c.Fee,
			Total:      energy + c.Fee,
			NormalKWh:  bucket.NormalKWh,
			LowKWh:     bucket.LowKWh,
			Samples:    bucket.Samples,
		})
	}
	return newCostResult(c, months, 1, nil), nil
}

// Estimate prices a manual monthly usage and projects it over twelve months.
func (c FixedContract) Estimate(usage ManualUsage) (Estimate, error) {
	monthly := usage.MonthlyNormalKWh*c.RateNormal + usage.MonthlyLowKWh*c.RateLow + c.Fee
	return newEstimate(c, monthly), nil
}
