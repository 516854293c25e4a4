package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"energy-compare/internal/auth"
	comparison "energy-compare/internal/comparison/application"
	comparisoninterfaces "energy-compare/internal/comparison/interfaces"
	metering "energy-compare/internal/metering/domain"
	"energy-compare/internal/metering/infrastructure/tabular"
	pricing "energy-compare/internal/pricing/domain"
	pricefile "energy-compare/internal/pricing/infrastructure/file"
	pricerepo "energy-compare/internal/pricing/infrastructure/postgres"
	tariff "energy-compare/internal/tariff/domain"
	tariffcatalog "energy-compare/internal/tariff/infrastructure/catalog"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type config struct {
	mode       string
	meterPath  string
	unit       string
	contracts  string
	pricePath  string
	timezone   string
	defaultFee float64
	workers    int
	outPath    string

	dbURL       string
	biddingZone string

	secret  string
	subject string
	role    string
	ttl     time.Duration
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx := context.Background()
	switch cfg.mode {
	case "compare":
		err = runCompare(ctx, cfg, os.Stdout)
	case "import-prices":
		err = runImportPrices(ctx, cfg, os.Stdout)
	case "token":
		err = runIssueToken(cfg, os.Stdout)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, cfg.mode+":", err)
		os.Exit(2)
	}
}

func parseFlags() (config, error) {
	var cfg config
	flag.StringVar(&cfg.mode, "mode", "compare", "compare, import-prices or token")
	flag.StringVar(&cfg.meterPath, "meter", "", "meter export (.csv or .xlsx)")
	flag.StringVar(&cfg.unit, "unit", "kWh", "unit of the meter values")
	flag.StringVar(&cfg.contracts, "contracts", getenvDefault("CONTRACTS_FILE", ""), "comma separated contract catalogs (.yaml or .csv)")
	flag.StringVar(&cfg.pricePath, "prices", getenvDefault("PRICE_FILE", ""), "day-ahead price CSV")
	flag.StringVar(&cfg.timezone, "tz", getenvDefault("METER_TIMEZONE", "Europe/Amsterdam"), "zone of naive timestamps")
	flag.Float64Var(&cfg.defaultFee, "default-fee", getenvFloatDefault("DEFAULT_MONTHLY_FEE", tariff.DefaultMonthlyFee), "monthly fee when a catalog row has none")
	flag.IntVar(&cfg.workers, "workers", 4, "parallel contract evaluations")
	flag.StringVar(&cfg.outPath, "out", "", "optional report path (.pdf or .xlsx)")
	flag.StringVar(&cfg.dbURL, "db", getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")), "Postgres DSN")
	flag.StringVar(&cfg.biddingZone, "zone", getenvDefault("BIDDING_ZONE", "NL"), "bidding zone for imported prices")
	flag.StringVar(&cfg.secret, "secret", getenvDefault("AUTH_JWT_SECRET", ""), "JWT signing secret")
	flag.StringVar(&cfg.subject, "sub", "", "token subject")
	flag.StringVar(&cfg.role, "role", string(auth.RoleViewer), "token role (viewer, analyst, admin)")
	flag.DurationVar(&cfg.ttl, "ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	switch cfg.mode {
	case "compare":
		if cfg.meterPath == "" {
			return cfg, errors.New("missing --meter")
		}
		if cfg.contracts == "" {
			return cfg, errors.New("missing --contracts or CONTRACTS_FILE")
		}
	case "import-prices":
		if cfg.pricePath == "" {
			return cfg, errors.New("missing --prices or PRICE_FILE")
		}
		if cfg.dbURL == "" {
			return cfg, errors.New("missing --db or DATABASE_URL/PG_DSN")
		}
	case "token":
		if cfg.secret == "" {
			return cfg, errors.New("missing --secret or AUTH_JWT_SECRET")
		}
		if cfg.subject == "" {
			return cfg, errors.New("missing --sub")
		}
	default:
		return cfg, fmt.Errorf("unknown --mode %q", cfg.mode)
	}
	return cfg, nil
}

func runCompare(ctx context.Context, cfg config, out io.Writer) error {
	loc, err := time.LoadLocation(cfg.timezone)
	if err != nil {
		return err
	}
	unit, err := metering.ParseUnit(cfg.unit)
	if err != nil {
		return err
	}
	series, err := readMeter(cfg.meterPath, unit, loc)
	if err != nil {
		return err
	}
	contracts, err := tariffcatalog.LoadFiles(cfg.defaultFee, splitCSV(cfg.contracts)...)
	if err != nil {
		return err
	}

	var prices *pricing.PriceSeries
	if cfg.pricePath != "" {
		loader, err := pricefile.NewLoader(cfg.pricePath, loc)
		if err != nil {
			return err
		}
		quotes, version, err := loader.LoadPrices(ctx)
		if err != nil {
			return err
		}
		if prices, err = pricing.NewPriceSeries(version, quotes); err != nil {
			return err
		}
	}

	service := comparison.NewService(
		comparison.WithWorkers(cfg.workers),
		comparison.WithLogger(log.New(io.Discard, "", 0)),
	)
	result, err := service.Compare(ctx, series, prices, contracts.Contracts())
	if err != nil {
		return err
	}
	printResult(out, result)

	if cfg.outPath == "" {
		return nil
	}
	var data []byte
	switch strings.ToLower(filepath.Ext(cfg.outPath)) {
	case ".pdf":
		data, err = comparisoninterfaces.BuildComparisonPDF(result)
	case ".xlsx":
		data, err = comparisoninterfaces.BuildComparisonXLSX(result)
	default:
		return fmt.Errorf("unsupported report extension %q", filepath.Ext(cfg.outPath))
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfg.outPath, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(out, "Report written to %s\n", cfg.outPath)
	return nil
}

func readMeter(path string, unit metering.Unit, loc *time.Location) (*metering.ConsumptionSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := tabular.Read(path, f)
	if err != nil {
		return nil, err
	}
	records, err := tabular.Records(table, loc)
	if err != nil {
		return nil, err
	}
	return metering.Normalize(records, unit)
}

func printResult(out io.Writer, result *comparison.Result) {
	diag := result.Diagnostics
	fmt.Fprintf(out, "Run %s: %s export, %d records, %d clamped, %d defaulted bands\n",
		result.RunID, diag.Format, diag.Records, diag.ClampedValues, diag.DefaultedBands)
	if result.PriceVersion != "" {
		fmt.Fprintf(out, "Prices %s, coverage %.1f%%\n", result.PriceVersion, result.Coverage*100)
	}
	if result.Warning != nil {
		fmt.Fprintf(out, "Warning: %s\n", result.Warning)
	}
	for i, cost := range result.Ranked {
		rate := "n/a"
		if !cost.AvgRateUndefined {
			rate = strconv.FormatFloat(cost.AvgRate, 'f', 4, 64)
		}
		fmt.Fprintf(out, "%2d. %-24s %-28s %-8s EUR %10s  %8.1f kWh  avg %s\n",
			i+1, cost.Provider, cost.ContractLabel, cost.Kind, tariff.FormatMoney(cost.TotalYear), cost.TotalKWh, rate)
	}
}

func runImportPrices(ctx context.Context, cfg config, out io.Writer) error {
	loc, err := time.LoadLocation(cfg.timezone)
	if err != nil {
		return err
	}
	loader, err := pricefile.NewLoader(cfg.pricePath, loc)
	if err != nil {
		return err
	}
	quotes, version, err := loader.LoadPrices(ctx)
	if err != nil {
		return err
	}

	db, err := sql.Open("pgx", cfg.dbURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := pricerepo.RunMigrations(db); err != nil {
		return err
	}
	repo := pricerepo.NewPriceRepository(db, pricerepo.WithBiddingZone(cfg.biddingZone))
	saved, err := repo.SaveQuotes(ctx, quotes)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %d hours for %s from %s (file version %s)\n", saved, cfg.biddingZone, cfg.pricePath, version)
	return nil
}

func runIssueToken(cfg config, out io.Writer) error {
	role, ok := auth.NormalizeRole(cfg.role)
	if !ok {
		return auth.ErrInvalidRole
	}
	token, err := auth.IssueJWT([]byte(cfg.secret), cfg.subject, role, cfg.ttl, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
