package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"time"

	metering "energy-compare/internal/metering/domain"
	"energy-compare/internal/observability/metrics"
	pricing "energy-compare/internal/pricing/domain"
	tariff "energy-compare/internal/tariff/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Result is a ranked comparison. Ranked and Cheapest depend only on the
// inputs; RunID and EvaluatedAt identify the run.
type Result struct {
	RunID        string
	EvaluatedAt  time.Time
	PriceVersion string
	Ranked       []tariff.CostResult
	Cheapest     *tariff.CostResult
	// Coverage is the price join coverage, 1 when no contract needed prices.
	Coverage    float64
	Warning     *pricing.PriceCoverageWarning
	Diagnostics metering.Diagnostics
}

// EstimateResult is a ranked manual-usage projection.
type EstimateResult struct {
	RunID    string
	Ranked   []tariff.Estimate
	Cheapest *tariff.Estimate
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Service compares contracts over one consumption series.
type Service struct {
	workers int
	logger  *log.Logger
	clock   Clock
}

// Option configures the service.
type Option func(*Service)

// WithWorkers bounds the number of concurrent contract evaluations.
func WithWorkers(workers int) Option {
	return func(s *Service) {
		if workers > 0 {
			s.workers = workers
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs the comparison service.
func NewService(opts ...Option) *Service {
	s := &Service{
		workers: runtime.GOMAXPROCS(0),
		logger:  log.Default(),
		clock:   SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compare evaluates every contract against series and ranks the results.
// Monthly buckets and the aligned price dataset are built once and shared
// read-only by all evaluations. prices may be nil when no contract needs them.
func (s *Service) Compare(ctx context.Context, series *metering.ConsumptionSeries, prices *pricing.PriceSeries, contracts []tariff.Contract) (*Result, error) {
	start := s.clock.Now()
	result, err := s.compare(ctx, series, prices, contracts)
	outcome := metrics.ResultSuccess
	if err != nil {
		outcome = metrics.ResultError
	}
	metrics.ObserveCompare(outcome, s.clock.Now().Sub(start), len(contracts))
	if err != nil {
		return nil, err
	}
	result.EvaluatedAt = start

	cheapest := "-"
	if result.Cheapest != nil {
		cheapest = result.Cheapest.Provider + "/" + result.Cheapest.ContractLabel
	}
	s.logger.Printf("compare: run=%s contracts=%d coverage=%.3f prices=%s cheapest=%s",
		result.RunID, len(result.Ranked), result.Coverage, result.PriceVersion, cheapest)
	if result.Warning != nil {
		s.logger.Printf("compare: run=%s warning: %s", result.RunID, result.Warning)
	}
	return result, nil
}

func (s *Service) compare(ctx context.Context, series *metering.ConsumptionSeries, prices *pricing.PriceSeries, contracts []tariff.Contract) (*Result, error) {
	if series == nil {
		return nil, metering.ErrNilSeries
	}
	monthly, err := metering.Resample(series, metering.GranularityMonth)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:       uuid.NewString(),
		Coverage:    1,
		Diagnostics: series.Diagnostics(),
	}
	input := tariff.Input{Monthly: monthly}
	for _, contract := range contracts {
		if contract == nil {
			return nil, tariff.ErrNilContract
		}
		if !contract.RequiresPrices() || input.Aligned != nil {
			continue
		}
		aligned, err := pricing.Align(series, prices)
		if err != nil {
			return nil, fmt.Errorf("compare: align prices for %s: %w", contract.Provider(), err)
		}
		input.Aligned = aligned
		result.Coverage = aligned.Coverage
		result.Warning = aligned.Warning
		result.PriceVersion = aligned.PriceVersion
		metrics.SetPriceCoverage(aligned.Coverage)
	}

	evaluated := make([]tariff.CostResult, len(contracts))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)
	for i, contract := range contracts {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			cost, err := tariff.Evaluate(input, contract)
			if err != nil {
				return err
			}
			evaluated[i] = cost
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	result.Ranked = Rank(evaluated)
	if len(result.Ranked) > 0 {
		cheapest := result.Ranked[0]
		result.Cheapest = &cheapest
	}
	return result, nil
}

// Estimate projects a manual monthly usage over every contract and ranks the
// yearly figures.
func (s *Service) Estimate(ctx context.Context, usage tariff.ManualUsage, contracts []tariff.Contract) (*EstimateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	estimates := make([]tariff.Estimate, 0, len(contracts))
	for _, contract := range contracts {
		estimate, err := tariff.EstimateCost(usage, contract)
		if err != nil {
			if errors.Is(err, tariff.ErrNoMarketPrice) {
				s.logger.Printf("estimate: skipping %s: %v", contract.Provider(), err)
				continue
			}
			return nil, err
		}
		estimates = append(estimates, estimate)
	}
	result := &EstimateResult{RunID: uuid.NewString(), Ranked: RankEstimates(estimates)}
	if len(result.Ranked) > 0 {
		cheapest := result.Ranked[0]
		result.Cheapest = &cheapest
	}
	return result, nil
}
