package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	pricing "energy-compare/internal/pricing/domain"
)

const (
	defaultPricesTable = "day_ahead_prices"
	defaultBiddingZone = "NL"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by the repository.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PriceRepository is a Postgres store of hourly day-ahead prices.
type PriceRepository struct {
	db    DBTX
	table string
	zone  string
}

// PriceOption configures the repository.
type PriceOption func(*PriceRepository)

// WithPriceTable overrides the default table name.
func WithPriceTable(table string) PriceOption {
	return func(repo *PriceRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// WithBiddingZone selects the bidding zone rows are read from and written to.
func WithBiddingZone(zone string) PriceOption {
	return func(repo *PriceRepository) {
		if zone != "" {
			repo.zone = zone
		}
	}
}

// NewPriceRepository constructs a repository.
func NewPriceRepository(db DBTX, opts ...PriceOption) *PriceRepository {
	repo := &PriceRepository{db: db, table: defaultPricesTable, zone: defaultBiddingZone}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// LoadPrices returns every quote of the bidding zone. The version combines
// the row count and the latest import time, so any import changes it.
func (r *PriceRepository) LoadPrices(ctx context.Context) ([]pricing.PriceQuote, string, error) {
	if r == nil || r.db == nil {
		return nil, "", errors.New("price repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT hour_start, eur_per_kwh, imported_at
FROM %s
WHERE bidding_zone = $1
ORDER BY hour_start`, r.table)

	rows, err := r.db.QueryContext(ctx, query, r.zone)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var (
		quotes []pricing.PriceQuote
		latest time.Time
	)
	for rows.Next() {
		var (
			hour     time.Time
			price    float64
			imported time.Time
		)
		if err := rows.Scan(&hour, &price, &imported); err != nil {
			return nil, "", err
		}
		if imported.After(latest) {
			latest = imported
		}
		quotes = append(quotes, pricing.PriceQuote{HourStart: hour.UTC(), EURPerKWh: price})
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	version := fmt.Sprintf("%s:%d:%d", r.zone, len(quotes), latest.UTC().UnixNano())
	return quotes, version, nil
}

// SaveQuotes upserts quotes and returns the number of rows written.
func (r *PriceRepository) SaveQuotes(ctx context.Context, quotes []pricing.PriceQuote) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("price repo: nil db")
	}
	if len(quotes) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
INSERT INTO %s (bidding_zone, hour_start, eur_per_kwh, imported_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (bidding_zone, hour_start)
DO UPDATE SET eur_per_kwh = EXCLUDED.eur_per_kwh, imported_at = EXCLUDED.imported_at`, r.table)

	now := time.Now().UTC()
	written := 0
	for _, quote := range quotes {
		if quote.HourStart.IsZero() {
			return written, pricing.ErrZeroHour
		}
		if _, err := r.db.ExecContext(ctx, query, r.zone, quote.HourStart.UTC(), quote.EURPerKWh, now); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
