package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	pricing "energy-compare/internal/pricing/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestPriceRepositoryRoundTrip(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	zone := "TEST-" + time.Now().UTC().Format("150405.000000")
	repo := NewPriceRepository(db, WithBiddingZone(zone))
	t.Cleanup(func() {
		_, _ = db.Exec("DELETE FROM day_ahead_prices WHERE bidding_zone = $1", zone)
	})

	hour := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	written, err := repo.SaveQuotes(context.Background(), []pricing.PriceQuote{
		{HourStart: hour.Add(time.Hour), EURPerKWh: 0.2},
		{HourStart: hour, EURPerKWh: 0.1},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if written != 2 {
		t.Fatalf("expected 2 rows written, got %d", written)
	}

	quotes, version, err := repo.LoadPrices(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(quotes) != 2 || version == "" {
		t.Fatalf("unexpected load result %d %q", len(quotes), version)
	}
	if !quotes[0].HourStart.Equal(hour) || quotes[0].EURPerKWh != 0.1 {
		t.Fatalf("unexpected first quote %+v", quotes[0])
	}

	series, err := pricing.NewPriceSeries(version, quotes)
	if err != nil {
		t.Fatalf("price series: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("expected 2 hours, got %d", series.Len())
	}
}
