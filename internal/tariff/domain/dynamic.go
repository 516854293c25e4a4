package tariff

import (
	"sort"
	"strings"

	metering "energy-compare/internal/metering/domain"
	pricing "energy-compare/internal/pricing/domain"
)

// DynamicContract passes the hourly market price through plus a surcharge.
type DynamicContract struct {
	ProviderName     string
	ContractName     string
	SurchargeInclVAT float64
	Fee              float64
}

func (c DynamicContract) Provider() string { return c.ProviderName }

func (c DynamicContract) Label() string {
	if strings.TrimSpace(c.ContractName) == "" {
		return "Dynamic"
	}
	return c.ContractName
}

func (c DynamicContract) Kind() Kind { return KindDynamic }

func (c DynamicContract) MonthlyFee() float64 { return c.Fee }

func (c DynamicContract) RequiresPrices() bool { return true }

// Validate accepts negative surcharges; some suppliers run cashback offers.
func (c DynamicContract) Validate() error {
	if err := validateCommon(c.ProviderName, c.Fee); err != nil {
		return err
	}
	if !finite(c.SurchargeInclVAT) {
		return ErrInvalidRate
	}
	return nil
}

// Evaluate prices every joined hour and books it in the month of its local
// hour start. Months without a joined hour are absent.
func (c DynamicContract) Evaluate(in Input) (CostResult, error) {
	if in.Aligned == nil {
		return CostResult{}, ErrAlignmentRequired
	}
	if in.Aligned.JoinedHours == 0 || len(in.Aligned.Hours) == 0 {
		return CostResult{}, pricing.ErrNoOverlap
	}

	byMonth := make(map[int64]*MonthCost)
	for _, hour := range in.Aligned.Hours {
		start := metering.GranularityMonth.Truncate(hour.HourStart)
		month, ok := byMonth[start.UnixNano()]
		if !ok {
			key, err := metering.NewTimeKey(metering.GranularityMonth, start)
			if err != nil {
				return CostResult{}, err
			}
			month = &MonthCost{Month: start, TimeKey: key, MonthlyFee: c.Fee}
			byMonth[start.UnixNano()] = month
		}
		month.EnergyCost += hour.UsedKWh() * (hour.EURPerKWh + c.SurchargeInclVAT)
		month.NormalKWh += hour.NormalKWh
		month.LowKWh += hour.LowKWh
		month.Samples++
	}

	months := make([]MonthCost, 0, len(byMonth))
	for _, month := range byMonth {
		month.Total = month.EnergyCost + month.MonthlyFee
		months = append(months, *month)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month.Before(months[j].Month) })
	return newCostResult(c, months, in.Aligned.Coverage, in.Aligned.Warning), nil
}

// Estimate prices a manual monthly usage at the average market price.
func (c DynamicContract) Estimate(usage ManualUsage) (Estimate, error) {
	if !usage.AveragePriceKnown {
		return Estimate{}, ErrNoMarketPrice
	}
	kwh := usage.MonthlyNormalKWh + usage.MonthlyLowKWh
	monthly := kwh*(usage.AverageEURPerKWh+c.SurchargeInclVAT) + c.Fee
	return newEstimate(c, monthly), nil
}
