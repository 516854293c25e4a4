package file

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	pricing "energy-compare/internal/pricing/domain"
	"energy-compare/internal/textparse"
)

var (
	// ErrMissingColumn is returned when the price file lacks a timestamp or price column.
	ErrMissingColumn = errors.New("price file: missing column")
)

var (
	utcColumns   = []string{"datetime (utc)", "timestamp", "hour_start", "datetime"}
	localColumns = []string{"datetime (local)"}
	mwhColumns   = []string{"price (eur/mwhe)", "price (eur/mwh)", "eur_per_mwh"}
	kwhColumns   = []string{"price (eur/kwh)", "eur_per_kwh"}
)

// Loader reads a day-ahead price CSV from disk.
type Loader struct {
	path     string
	location *time.Location
}

// NewLoader constructs a loader for path. Local timestamps are read in loc.
func NewLoader(path string, loc *time.Location) (*Loader, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("price file: empty path")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Loader{path: path, location: loc}, nil
}

// LoadPrices parses the file. The version is the SHA-256 of its content.
func (l *Loader) LoadPrices(ctx context.Context) ([]pricing.PriceQuote, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, "", err
	}
	sum := sha256.Sum256(raw)
	quotes, err := ParseCSV(strings.NewReader(string(raw)), l.location)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", l.path, err)
	}
	return quotes, hex.EncodeToString(sum[:8]), nil
}

// ParseCSV reads quotes from a price CSV with a header row. Comma and
// semicolon separated files are both accepted, as are decimal commas.
func ParseCSV(r io.Reader, loc *time.Location) ([]pricing.PriceQuote, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.Comma = detectSeparator(string(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("price file: read header: %w", err)
	}
	columns := indexHeader(header)

	tsIdx, local := find(columns, utcColumns), false
	if tsIdx < 0 {
		tsIdx, local = find(columns, localColumns), true
	}
	if tsIdx < 0 {
		return nil, fmt.Errorf("%w: timestamp", ErrMissingColumn)
	}
	priceIdx, perMWh := find(columns, mwhColumns), true
	if priceIdx < 0 {
		priceIdx, perMWh = find(columns, kwhColumns), false
	}
	if priceIdx < 0 {
		return nil, fmt.Errorf("%w: eur_per_mwh", ErrMissingColumn)
	}

	tsLoc := time.UTC
	if local {
		tsLoc = loc
	}

	var quotes []pricing.PriceQuote
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("price file: line %d: %w", line, err)
		}
		if tsIdx >= len(record) || priceIdx >= len(record) {
			return nil, fmt.Errorf("price file: line %d: short row", line)
		}
		if strings.TrimSpace(record[tsIdx]) == "" && strings.TrimSpace(record[priceIdx]) == "" {
			continue
		}
		at, err := textparse.Timestamp(record[tsIdx], tsLoc)
		if err != nil {
			return nil, fmt.Errorf("price file: line %d: %s: %w", line, header[tsIdx], err)
		}
		value, err := textparse.Decimal(record[priceIdx])
		if err != nil {
			return nil, fmt.Errorf("price file: line %d: %s: %w", line, header[priceIdx], err)
		}
		if perMWh {
			quotes = append(quotes, pricing.QuoteFromEURPerMWh(at, value))
		} else {
			quotes = append(quotes, pricing.PriceQuote{HourStart: at, EURPerKWh: value})
		}
	}
	return quotes, nil
}

func detectSeparator(raw string) rune {
	first, _, _ := strings.Cut(raw, "\n")
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}
	return ','
}

func indexHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := columns[key]; !ok {
			columns[key] = i
		}
	}
	return columns
}

func find(columns map[string]int, aliases []string) int {
	for _, alias := range aliases {
		if idx, ok := columns[alias]; ok {
			return idx
		}
	}
	return -1
}
