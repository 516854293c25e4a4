package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"energy-compare/internal/observability/metrics"
	pricing "energy-compare/internal/pricing/domain"
)

// ErrNoSnapshot is returned when no price snapshot has been loaded yet.
var ErrNoSnapshot = errors.New("price catalog: no snapshot loaded")

// PriceSource loads the raw quotes of a price catalog.
// The returned version identifies the content so unchanged reloads can be skipped.
type PriceSource interface {
	LoadPrices(ctx context.Context) ([]pricing.PriceQuote, string, error)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Catalog holds the active price snapshot. Readers take the current
// *PriceSeries and keep using it for the whole request; a refresh swaps
// the pointer and never touches a published series.
type Catalog struct {
	source   PriceSource
	current  atomic.Pointer[pricing.PriceSeries]
	loadedAt atomic.Pointer[time.Time]
	logger   *log.Logger
	clock    Clock
}

// Option configures the catalog.
type Option func(*Catalog)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the clock.
func WithClock(clock Clock) Option {
	return func(c *Catalog) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewCatalog constructs an empty catalog over source.
func NewCatalog(source PriceSource, opts ...Option) (*Catalog, error) {
	if source == nil {
		return nil, errors.New("price catalog: nil source")
	}
	c := &Catalog{
		source: source,
		logger: log.Default(),
		clock:  SystemClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Snapshot returns the active price series.
func (c *Catalog) Snapshot() (*pricing.PriceSeries, error) {
	series := c.current.Load()
	if series == nil {
		return nil, ErrNoSnapshot
	}
	return series, nil
}

// LoadedAt returns when the active snapshot was published.
func (c *Catalog) LoadedAt() time.Time {
	at := c.loadedAt.Load()
	if at == nil {
		return time.Time{}
	}
	return *at
}

// Refresh reloads the source and publishes a new snapshot when the version changed.
// It reports whether a new snapshot was published.
func (c *Catalog) Refresh(ctx context.Context) (bool, error) {
	start := c.clock.Now()
	changed, hours, err := c.refresh(ctx)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObservePriceRefresh(result, c.clock.Now().Sub(start), hours)
	return changed, err
}

func (c *Catalog) refresh(ctx context.Context) (bool, int, error) {
	quotes, version, err := c.source.LoadPrices(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("price catalog: load: %w", err)
	}
	if current := c.current.Load(); current != nil && version != "" && current.Version() == version {
		return false, current.Len(), nil
	}
	series, err := pricing.NewPriceSeries(version, quotes)
	if err != nil {
		return false, 0, fmt.Errorf("price catalog: version %q: %w", version, err)
	}
	now := c.clock.Now()
	c.current.Store(series)
	c.loadedAt.Store(&now)
	c.logger.Printf("price catalog: published version=%s hours=%d range=%s..%s",
		series.Version(), series.Len(),
		series.Start().Format(time.RFC3339), series.End().Format(time.RFC3339))
	return true, series.Len(), nil
}

// Run refreshes the catalog every interval until ctx is done.
// Failed refreshes keep the previous snapshot.
func (c *Catalog) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.Refresh(ctx); err != nil {
				c.logger.Printf("price catalog: refresh failed: %v", err)
			}
		}
	}
}
