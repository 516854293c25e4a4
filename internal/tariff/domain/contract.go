package tariff

import (
	"math"
	"strings"

	metering "energy-compare/internal/metering/domain"
	pricing "energy-compare/internal/pricing/domain"
)

// Kind is the display classification of a contract.
type Kind string

const (
	KindFixed    Kind = "fixed"
	KindVariable Kind = "variable"
	KindDynamic  Kind = "dynamic"
)

// DefaultMonthlyFee is the standing charge used when a catalog entry omits one.
const DefaultMonthlyFee = 7.00

// Input is the shared, read-only evaluation input. Monthly is needed by
// fixed contracts, Aligned by dynamic ones.
type Input struct {
	Monthly metering.AggregatedSeries
	Aligned *pricing.AlignedDataset
}

// ManualUsage is a hand-entered monthly consumption used for estimates.
type ManualUsage struct {
	MonthlyNormalKWh float64
	MonthlyLowKWh    float64
	// AverageEURPerKWh is the market price dynamic contracts are estimated at.
	AverageEURPerKWh  float64
	AveragePriceKnown bool
}

// Contract is one tariff variant. Implementations carry no state between calls.
type Contract interface {
	Provider() string
	Label() string
	Kind() Kind
	MonthlyFee() float64
	// RequiresPrices reports whether Evaluate needs Input.Aligned.
	RequiresPrices() bool
	Validate() error
	Evaluate(in Input) (CostResult, error)
	Estimate(usage ManualUsage) (Estimate, error)
}

// Evaluate validates c and computes its cost over in. Failures are wrapped
// in a ContractError naming the contract.
func Evaluate(in Input, c Contract) (CostResult, error) {
	if c == nil {
		return CostResult{}, ErrNilContract
	}
	if err := c.Validate(); err != nil {
		return CostResult{}, &ContractError{Provider: c.Provider(), Label: c.Label(), Err: err}
	}
	result, err := c.Evaluate(in)
	if err != nil {
		return CostResult{}, &ContractError{Provider: c.Provider(), Label: c.Label(), Err: err}
	}
	return result, nil
}

// EstimateCost validates c and computes its manual estimate.
func EstimateCost(usage ManualUsage, c Contract) (Estimate, error) {
	if c == nil {
		return Estimate{}, ErrNilContract
	}
	if usage.MonthlyNormalKWh < 0 || usage.MonthlyLowKWh < 0 {
		return Estimate{}, ErrNegativeUsage
	}
	if err := c.Validate(); err != nil {
		return Estimate{}, &ContractError{Provider: c.Provider(), Label: c.Label(), Err: err}
	}
	estimate, err := c.Estimate(usage)
	if err != nil {
		return Estimate{}, &ContractError{Provider: c.Provider(), Label: c.Label(), Err: err}
	}
	return estimate, nil
}

func validRate(rate float64) bool {
	return !math.IsNaN(rate) && !math.IsInf(rate, 0) && rate >= 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validateCommon(provider string, fee float64) error {
	if strings.TrimSpace(provider) == "" {
		return ErrEmptyProvider
	}
	if !finite(fee) || fee < 0 {
		return ErrNegativeFee
	}
	return nil
}
