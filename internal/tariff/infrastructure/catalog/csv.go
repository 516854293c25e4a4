package catalog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	tariff "energy-compare/internal/tariff/domain"
	"energy-compare/internal/textparse"
)

var (
	providerAliases  = []string{"provider", "energieleverancier", "leverancier"}
	contractAliases  = []string{"contract_name", "contract"}
	normalAliases    = []string{"rate_normal", "normaal"}
	lowAliases       = []string{"rate_low", "dal"}
	feeAliases       = []string{"monthly_fee", "vastrecht"}
	surchargeAliases = []string{"surcharge_incl_vat", "opslag"}
)

// LoadCSV reads a fixed or dynamic contract table. A surcharge column marks
// the file as dynamic; otherwise band rates are required.
func LoadCSV(r io.Reader, defaultFee float64) ([]tariff.Contract, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(raw))
	if first, _, _ := bytes.Cut(raw, []byte("\n")); bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		reader.Comma = ';'
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("contract catalog: csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyCatalog
	}
	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := columns[key]; !ok {
			columns[key] = i
		}
	}
	providerIdx := lookup(columns, providerAliases)
	if providerIdx < 0 {
		return nil, fmt.Errorf("%w: provider", ErrMissingColumn)
	}
	parser := csvRows{columns: columns, defaultFee: defaultFee, providerIdx: providerIdx}
	if lookup(columns, surchargeAliases) >= 0 {
		return parser.dynamic(rows[1:])
	}
	return parser.fixed(rows[1:])
}

type csvRows struct {
	columns     map[string]int
	defaultFee  float64
	providerIdx int
}

func (p csvRows) fixed(rows [][]string) ([]tariff.Contract, error) {
	normalIdx := lookup(p.columns, normalAliases)
	if normalIdx < 0 {
		return nil, fmt.Errorf("%w: rate_normal", ErrMissingColumn)
	}
	lowIdx := lookup(p.columns, lowAliases)
	if lowIdx < 0 {
		return nil, fmt.Errorf("%w: rate_low", ErrMissingColumn)
	}
	contractIdx := lookup(p.columns, contractAliases)

	var contracts []tariff.Contract
	for i, row := range rows {
		line := i + 2
		provider := strings.TrimSpace(cell(row, p.providerIdx))
		if provider == "" {
			continue
		}
		normal, err := textparse.Decimal(cell(row, normalIdx))
		if err != nil {
			return nil, fmt.Errorf("contract catalog: line %d: rate_normal: %w", line, err)
		}
		low, err := textparse.Decimal(cell(row, lowIdx))
		if err != nil {
			return nil, fmt.Errorf("contract catalog: line %d: rate_low: %w", line, err)
		}
		fee, err := p.fee(row)
		if err != nil {
			return nil, fmt.Errorf("contract catalog: line %d: monthly_fee: %w", line, err)
		}
		contract := tariff.FixedContract{
			ProviderName: provider,
			ContractName: strings.TrimSpace(cell(row, contractIdx)),
			RateNormal:   normal,
			RateLow:      low,
			Fee:          fee,
		}
		if err := contract.Validate(); err != nil {
			return nil, fmt.Errorf("contract catalog: line %d (%s): %w", line, provider, err)
		}
		contracts = append(contracts, contract)
	}
	return contracts, nil
}

func (p csvRows) dynamic(rows [][]string) ([]tariff.Contract, error) {
	surchargeIdx := lookup(p.columns, surchargeAliases)
	contractIdx := lookup(p.columns, contractAliases)

	var contracts []tariff.Contract
	for i, row := range rows {
		line := i + 2
		provider := strings.TrimSpace(cell(row, p.providerIdx))
		if provider == "" {
			continue
		}
		surcharge, err := textparse.Decimal(cell(row, surchargeIdx))
		if err != nil {
			return nil, fmt.Errorf("contract catalog: line %d: surcharge_incl_vat: %w", line, err)
		}
		fee, err := p.fee(row)
		if err != nil {
			return nil, fmt.Errorf("contract catalog: line %d: monthly_fee: %w", line, err)
		}
		contract := tariff.DynamicContract{
			ProviderName:     provider,
			ContractName:     strings.TrimSpace(cell(row, contractIdx)),
			SurchargeInclVAT: surcharge,
			Fee:              fee,
		}
		if err := contract.Validate(); err != nil {
			return nil, fmt.Errorf("contract catalog: line %d (%s): %w", line, provider, err)
		}
		contracts = append(contracts, contract)
	}
	return contracts, nil
}

func (p csvRows) fee(row []string) (float64, error) {
	idx := lookup(p.columns, feeAliases)
	if idx < 0 || strings.TrimSpace(cell(row, idx)) == "" {
		return p.defaultFee, nil
	}
	return textparse.Decimal(cell(row, idx))
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func lookup(columns map[string]int, aliases []string) int {
	for _, alias := range aliases {
		if idx, ok := columns[alias]; ok {
			return idx
		}
	}
	return -1
}
