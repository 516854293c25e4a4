package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"energy-compare/internal/auth"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunCompareRanksAndWritesReport(t *testing.T) {
	dir := t.TempDir()
	cfg := config{
		meterPath: writeFile(t, dir, "meter.csv", "timestamp,low_used_diff,normal_used_diff\n"+
			"2025-01-01 00:00,0.5,1\n2025-01-01 00:15,0.5,1\n2025-01-01 01:00,0,0\n"),
		pricePath: writeFile(t, dir, "prices.csv", "Datetime (UTC),eur_per_kwh\n"+
			"2025-01-01 00:00:00,0.1\n2025-01-01 01:00:00,0.1\n"),
		contracts: writeFile(t, dir, "contracts.yaml", `
fixed:
  - provider: Alfa
    contract_name: Variabel
    rate_normal: 0.2
    rate_low: 0.1
    monthly_fee: 5
dynamic:
  - provider: Spot
    surcharge_incl_vat: 0.02
    monthly_fee: 5
`),
		unit:     "kWh",
		timezone: "UTC",
		workers:  2,
		outPath:  filepath.Join(dir, "report.xlsx"),
	}

	var out bytes.Buffer
	if err := runCompare(context.Background(), cfg, &out); err != nil {
		t.Fatalf("compare: %v", err)
	}
	text := out.String()
	// Spot: 3 kWh * (0.10 + 0.02) + 5 = 5.36, Alfa: 0.1 + 0.4 + 5 = 5.50
	if !strings.Contains(text, " 1. Spot") || !strings.Contains(text, "5.36") {
		t.Fatalf("expected Spot to rank first, got:\n%s", text)
	}
	if !strings.Contains(text, " 2. Alfa") || !strings.Contains(text, "5.50") {
		t.Fatalf("expected Alfa second, got:\n%s", text)
	}
	if !strings.Contains(text, "coverage 100.0%") {
		t.Fatalf("expected full coverage line, got:\n%s", text)
	}
	if info, err := os.Stat(cfg.outPath); err != nil || info.Size() == 0 {
		t.Fatalf("expected report file, err=%v", err)
	}
}

func TestRunCompareRejectsUnknownReportExtension(t *testing.T) {
	dir := t.TempDir()
	cfg := config{
		meterPath: writeFile(t, dir, "meter.csv", "timestamp,normal_used_diff\n2025-01-01 00:00,1\n"),
		contracts: writeFile(t, dir, "contracts.yaml", "fixed:\n  - provider: Alfa\n    rate_normal: 0.2\n"),
		unit:      "kWh",
		timezone:  "UTC",
		workers:   1,
		outPath:   filepath.Join(dir, "report.docx"),
	}
	var out bytes.Buffer
	if err := runCompare(context.Background(), cfg, &out); err == nil {
		t.Fatalf("expected error for .docx report")
	}
}

func TestRunIssueTokenRoundTrips(t *testing.T) {
	var out bytes.Buffer
	cfg := config{secret: "s3cret", subject: "ops", role: "analyst", ttl: time.Hour}
	if err := runIssueToken(cfg, &out); err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := auth.ParseJWT(strings.TrimSpace(out.String()), []byte("s3cret"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Role != string(auth.RoleAnalyst) || claims.Subject != "ops" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	cfg.role = "root"
	if err := runIssueToken(cfg, &out); err == nil {
		t.Fatalf("expected invalid role error")
	}
}
