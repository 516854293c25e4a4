// Package config loads service configuration from the environment, an
// optional .env file and an optional YAML overlay.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	tariff "energy-compare/internal/tariff/domain"
)

// Config holds service configuration.
type Config struct {
	HTTPAddr             string        `yaml:"http_addr"`
	DatabaseURL          string        `yaml:"database_url"`
	MigrateOnStart       bool          `yaml:"migrate_on_start"`
	BiddingZone          string        `yaml:"bidding_zone"`
	PriceFile            string        `yaml:"price_file"`
	PriceRefreshInterval time.Duration `yaml:"price_refresh_interval"`
	ContractFiles        []string      `yaml:"contract_files"`
	DefaultMonthlyFee    float64       `yaml:"default_monthly_fee"`
	MeterTimezone        string        `yaml:"meter_timezone"`
	CompareWorkers       int           `yaml:"compare_workers"`
	MaxUploadBytes       int64         `yaml:"max_upload_bytes"`
	JWTSecret            string        `yaml:"jwt_secret"`
	CORSOrigins          []string      `yaml:"cors_origins"`
}

// Load reads .env when present, then the environment, then the YAML file
// named by ENGINE_CONFIG. YAML values override the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenvDefault("HTTP_ADDR", ":8080"),
		DatabaseURL:          getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		MigrateOnStart:       getenvBoolDefault("DB_MIGRATE", true),
		BiddingZone:          getenvDefault("BIDDING_ZONE", "NL"),
		PriceFile:            getenvDefault("PRICE_FILE", ""),
		PriceRefreshInterval: getenvDuration("PRICE_REFRESH_INTERVAL", 15*time.Minute),
		ContractFiles:        splitCSV(getenvDefault("CONTRACTS_FILE", "")),
		DefaultMonthlyFee:    getenvFloatDefault("DEFAULT_MONTHLY_FEE", tariff.DefaultMonthlyFee),
		MeterTimezone:        getenvDefault("METER_TIMEZONE", "Europe/Amsterdam"),
		CompareWorkers:       getenvIntDefault("COMPARE_WORKERS", 4),
		MaxUploadBytes:       int64(getenvIntDefault("MAX_UPLOAD_BYTES", 32<<20)),
		JWTSecret:            getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		CORSOrigins:          splitCSV(getenvDefault("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
	}

	if path := os.Getenv("ENGINE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	return cfg, cfg.Validate()
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.HTTPAddr) == "" {
		problems = append(problems, "HTTP_ADDR cannot be empty")
	}
	if c.PriceFile == "" && c.DatabaseURL == "" {
		problems = append(problems, "PRICE_FILE or DATABASE_URL is required for dynamic prices")
	}
	if len(c.ContractFiles) == 0 {
		problems = append(problems, "CONTRACTS_FILE is required")
	}
	if c.DefaultMonthlyFee < 0 {
		problems = append(problems, fmt.Sprintf("invalid DEFAULT_MONTHLY_FEE %.2f: must not be negative", c.DefaultMonthlyFee))
	}
	if c.CompareWorkers < 1 {
		problems = append(problems, fmt.Sprintf("invalid COMPARE_WORKERS %d: must be at least 1", c.CompareWorkers))
	}
	if c.MaxUploadBytes < 1024 {
		problems = append(problems, fmt.Sprintf("invalid MAX_UPLOAD_BYTES %d: must be at least 1024", c.MaxUploadBytes))
	}
	if c.PriceRefreshInterval < 0 {
		problems = append(problems, "PRICE_REFRESH_INTERVAL must not be negative")
	}
	if _, err := time.LoadLocation(c.MeterTimezone); err != nil {
		problems = append(problems, fmt.Sprintf("invalid METER_TIMEZONE %q: %v", c.MeterTimezone, err))
	}
	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Location returns the zone naive meter timestamps are read in.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.MeterTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AuthEnabled reports whether bearer tokens are required.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
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
	parsed, err := strconv.ParseFloat(strings.Replace(value, ",", ".", 1), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
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
