package application

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"testing"
	"time"

	metering "energy-compare/internal/metering/domain"
	pricing "energy-compare/internal/pricing/domain"
	tariff "energy-compare/internal/tariff/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

func testService() *Service {
	return NewService(WithWorkers(3), WithLogger(log.New(io.Discard, "", 0)))
}

func yearSeries(t *testing.T) *metering.ConsumptionSeries {
	t.Helper()
	var intervals []metering.ConsumptionInterval
	for h := 0; h < 24*90; h++ {
		intervals = append(intervals, metering.ConsumptionInterval{
			Timestamp: start.Add(time.Duration(h) * time.Hour),
			NormalKWh: 0.3 + float64(h%7)*0.05,
			LowKWh:    0.1 + float64(h%5)*0.02,
		})
	}
	series, err := metering.NewConsumptionSeries(intervals)
	require.NoError(t, err)
	return series
}

func pricesFor(t *testing.T, hours int) *pricing.PriceSeries {
	t.Helper()
	quotes := make([]pricing.PriceQuote, 0, hours)
	for h := 0; h < hours; h++ {
		quotes = append(quotes, pricing.PriceQuote{
			HourStart: start.Add(time.Duration(h) * time.Hour),
			EURPerKWh: 0.05 + float64(h%24)*0.004,
		})
	}
	prices, err := pricing.NewPriceSeries("snapshot-1", quotes)
	require.NoError(t, err)
	return prices
}

func contracts() []tariff.Contract {
	return []tariff.Contract{
		tariff.FixedContract{ProviderName: "Vattenfall", ContractName: "Vast 1 jaar", RateNormal: 0.27, RateLow: 0.24, Fee: 7},
		tariff.DynamicContract{ProviderName: "Zonneplan", SurchargeInclVAT: 0.02, Fee: 6},
		tariff.FixedContract{ProviderName: "Eneco", ContractName: "Variabel", RateNormal: 0.31, RateLow: 0.22, Fee: 7},
		tariff.DynamicContract{ProviderName: "Frank Energie", SurchargeInclVAT: 0.0182, Fee: 4.95},
		tariff.FixedContract{ProviderName: "Budget Energie", ContractName: "Vast 3 jaar", RateNormal: 0.25, RateLow: 0.25, Fee: 7.5},
	}
}

func TestCompare_RanksAscendingAndExposesCheapest(t *testing.T) {
	result, err := testService().Compare(context.Background(), yearSeries(t), pricesFor(t, 24*90), contracts())
	require.NoError(t, err)

	require.Len(t, result.Ranked, 5)
	for i := 1; i < len(result.Ranked); i++ {
		assert.LessOrEqual(t, tariff.Cents(result.Ranked[i-1].TotalYear), tariff.Cents(result.Ranked[i].TotalYear))
	}
	require.NotNil(t, result.Cheapest)
	assert.Equal(t, result.Ranked[0], *result.Cheapest)
	assert.Equal(t, 1.0, result.Coverage)
	assert.Nil(t, result.Warning)
	assert.Equal(t, "snapshot-1", result.PriceVersion)
	assert.NotEmpty(t, result.RunID)
	for _, cost := range result.Ranked {
		assert.Len(t, cost.Months, 3)
	}
}

func TestCompare_IsDeterministic(t *testing.T) {
	series := yearSeries(t)
	prices := pricesFor(t, 24*90)

	first, err := testService().Compare(context.Background(), series, prices, contracts())
	require.NoError(t, err)
	second, err := testService().Compare(context.Background(), series, prices, contracts())
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first.Ranked)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second.Ranked)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
	assert.Equal(t, first.Cheapest, second.Cheapest)
}

func TestCompare_TieBreaksAlphabeticallyByProvider(t *testing.T) {
	series, err := metering.NewConsumptionSeries([]metering.ConsumptionInterval{{Timestamp: start, NormalKWh: 100}})
	require.NoError(t, err)
	tied := []tariff.Contract{
		tariff.FixedContract{ProviderName: "Zeta", RateNormal: 0.2, Fee: 7},
		tariff.FixedContract{ProviderName: "Alpha", RateNormal: 0.2, Fee: 7},
		tariff.FixedContract{ProviderName: "Mid", RateNormal: 0.1, Fee: 7},
	}

	result, err := testService().Compare(context.Background(), series, nil, tied)
	require.NoError(t, err)
	require.Len(t, result.Ranked, 3)
	assert.Equal(t, "Mid", result.Ranked[0].Provider)
	assert.Equal(t, "Alpha", result.Ranked[1].Provider)
	assert.Equal(t, "Zeta", result.Ranked[2].Provider)
	assert.Equal(t, 1.0, result.Coverage)
	assert.Empty(t, result.PriceVersion)
}

func TestCompare_PartialPriceCoverageIsSurfaced(t *testing.T) {
	result, err := testService().Compare(context.Background(), yearSeries(t), pricesFor(t, 24*45), contracts())
	require.NoError(t, err)

	require.NotNil(t, result.Warning)
	assert.InDelta(t, 0.5, result.Coverage, 1e-9)
	for _, cost := range result.Ranked {
		if cost.Kind == tariff.KindDynamic {
			assert.InDelta(t, 0.5, cost.Coverage, 1e-9)
			assert.NotNil(t, cost.Warning)
		} else {
			assert.Equal(t, 1.0, cost.Coverage)
		}
	}
}

func TestCompare_EmptyContractsHasNoCheapest(t *testing.T) {
	result, err := testService().Compare(context.Background(), yearSeries(t), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Ranked)
	assert.Nil(t, result.Cheapest)
}

func TestCompare_Errors(t *testing.T) {
	_, err := testService().Compare(context.Background(), nil, nil, contracts())
	assert.ErrorIs(t, err, metering.ErrNilSeries)

	_, err = testService().Compare(context.Background(), yearSeries(t), nil, contracts())
	assert.ErrorIs(t, err, pricing.ErrNilPrices)

	_, err = testService().Compare(context.Background(), yearSeries(t), pricesFor(t, 24*90), []tariff.Contract{
		tariff.FixedContract{ProviderName: "Broken", RateNormal: -1},
	})
	assert.ErrorIs(t, err, tariff.ErrInvalidRate)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = testService().Compare(ctx, yearSeries(t), pricesFor(t, 24*90), contracts())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEstimate_RanksYearlyProjection(t *testing.T) {
	usage := tariff.ManualUsage{MonthlyNormalKWh: 200, MonthlyLowKWh: 100}

	result, err := testService().Estimate(context.Background(), usage, contracts())
	require.NoError(t, err)
	require.Len(t, result.Ranked, 3, "dynamic contracts are skipped without a market price")
	assert.Equal(t, "Budget Energie", result.Cheapest.Provider)
	assert.InDelta(t, (200*0.25+100*0.25+7.5)*12, result.Cheapest.YearlyCost, 1e-9)

	usage.AverageEURPerKWh = 0.08
	usage.AveragePriceKnown = true
	result, err = testService().Estimate(context.Background(), usage, contracts())
	require.NoError(t, err)
	assert.Len(t, result.Ranked, 5)
}

func TestRank_CentsThenProviderThenLabel(t *testing.T) {
	ranked := Rank([]tariff.CostResult{
		{Provider: "B", ContractLabel: "x", TotalYear: 100.004},
		{Provider: "A", ContractLabel: "z", TotalYear: 100.001},
		{Provider: "A", ContractLabel: "y", TotalYear: 100.003},
		{Provider: "C", ContractLabel: "x", TotalYear: 99.99},
	})
	assert.Equal(t, "C", ranked[0].Provider)
	assert.Equal(t, "y", ranked[1].ContractLabel)
	assert.Equal(t, "z", ranked[2].ContractLabel)
	assert.Equal(t, "B", ranked[3].Provider)
}

func TestRank_UsesDisplayedCents(t *testing.T) {
	// 10.005 is shown as 10.01, so B ties with A and the provider decides.
	ranked := Rank([]tariff.CostResult{
		{Provider: "B", ContractLabel: "x", TotalYear: 10.005},
		{Provider: "A", ContractLabel: "x", TotalYear: 10.01},
	})
	require.Equal(t, tariff.Cents(ranked[0].TotalYear), tariff.Cents(ranked[1].TotalYear))
	assert.Equal(t, "A", ranked[0].Provider)
	assert.Equal(t, "10.01", tariff.FormatMoney(ranked[1].TotalYear))
}
