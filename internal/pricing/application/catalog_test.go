package application

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	pricing "energy-compare/internal/pricing/domain"
)

type stubSource struct {
	quotes  []pricing.PriceQuote
	version string
	err     error
	calls   int
}

func (s *stubSource) LoadPrices(ctx context.Context) ([]pricing.PriceQuote, string, error) {
	s.calls++
	return s.quotes, s.version, s.err
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestCatalog(t *testing.T, source PriceSource) *Catalog {
	t.Helper()
	catalog, err := NewCatalog(source,
		WithLogger(log.New(io.Discard, "", 0)),
		WithClock(fixedClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}),
	)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	return catalog
}

func TestCatalogRefreshPublishesSnapshot(t *testing.T) {
	hour := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	source := &stubSource{
		quotes:  []pricing.PriceQuote{{HourStart: hour, EURPerKWh: 0.1}},
		version: "v1",
	}
	catalog := newTestCatalog(t, source)

	if _, err := catalog.Snapshot(); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}

	changed, err := catalog.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !changed {
		t.Fatalf("expected first refresh to publish")
	}
	first, err := catalog.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if first.Version() != "v1" || first.Len() != 1 {
		t.Fatalf("unexpected snapshot %s/%d", first.Version(), first.Len())
	}

	changed, err = catalog.Refresh(context.Background())
	if err != nil || changed {
		t.Fatalf("same version should not republish: changed=%v err=%v", changed, err)
	}

	source.version = "v2"
	source.quotes = append(source.quotes, pricing.PriceQuote{HourStart: hour.Add(time.Hour), EURPerKWh: 0.2})
	if _, err := catalog.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh v2: %v", err)
	}
	second, _ := catalog.Snapshot()
	if second.Version() != "v2" || second.Len() != 2 {
		t.Fatalf("unexpected second snapshot %s/%d", second.Version(), second.Len())
	}
	if first.Len() != 1 {
		t.Fatalf("published snapshot must not change after refresh")
	}
	if catalog.LoadedAt().IsZero() {
		t.Fatalf("expected loaded at to be set")
	}
}

func TestCatalogRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	hour := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	source := &stubSource{quotes: []pricing.PriceQuote{{HourStart: hour, EURPerKWh: 0.1}}, version: "v1"}
	catalog := newTestCatalog(t, source)
	if _, err := catalog.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	source.err = errors.New("boom")
	if _, err := catalog.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	source.err = nil
	source.version = "v3"
	source.quotes = []pricing.PriceQuote{{HourStart: hour}, {HourStart: hour}}
	if _, err := catalog.Refresh(context.Background()); !errors.Is(err, pricing.ErrDuplicateHour) {
		t.Fatalf("expected duplicate hour error, got %v", err)
	}

	snapshot, err := catalog.Snapshot()
	if err != nil || snapshot.Version() != "v1" {
		t.Fatalf("expected v1 to stay active, got %v %v", snapshot, err)
	}
}

func TestNewCatalogRequiresSource(t *testing.T) {
	if _, err := NewCatalog(nil); err == nil {
		t.Fatalf("expected error for nil source")
	}
}
