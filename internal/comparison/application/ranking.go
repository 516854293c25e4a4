package application

import (
	"sort"

	tariff "energy-compare/internal/tariff/domain"
)

// Rank orders results by yearly total in whole cents, then provider, then
// contract label. Comparing cents keeps float noise from splitting ties.
func Rank(results []tariff.CostResult) []tariff.CostResult {
	ranked := make([]tariff.CostResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return less(
			rankKey{tariff.Cents(ranked[i].TotalYear), ranked[i].Provider, ranked[i].ContractLabel, ranked[i].TotalYear},
			rankKey{tariff.Cents(ranked[j].TotalYear), ranked[j].Provider, ranked[j].ContractLabel, ranked[j].TotalYear},
		)
	})
	return ranked
}

// RankEstimates orders estimates the same way by yearly cost.
func RankEstimates(estimates []tariff.Estimate) []tariff.Estimate {
	ranked := make([]tariff.Estimate, len(estimates))
	copy(ranked, estimates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return less(
			rankKey{tariff.Cents(ranked[i].YearlyCost), ranked[i].Provider, ranked[i].ContractLabel, ranked[i].YearlyCost},
			rankKey{tariff.Cents(ranked[j].YearlyCost), ranked[j].Provider, ranked[j].ContractLabel, ranked[j].YearlyCost},
		)
	})
	return ranked
}

type rankKey struct {
	cents    int64
	provider string
	label    string
	exact    float64
}

func less(a, b rankKey) bool {
	if a.cents != b.cents {
		return a.cents < b.cents
	}
	if a.provider != b.provider {
		return a.provider < b.provider
	}
	if a.label != b.label {
		return a.label < b.label
	}
	return a.exact < b.exact
}
