package catalog

import (
	"fmt"
	"io"

	tariff "energy-compare/internal/tariff/domain"
	"energy-compare/internal/textparse"

	"gopkg.in/yaml.v3"
)

// Decimal is a YAML scalar that accepts both "0.25" and "0,25".
type Decimal struct {
	Value float64
	Set   bool
}

// UnmarshalYAML parses the scalar with decimal comma support.
func (d *Decimal) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	value, err := textparse.Decimal(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %q: %w", node.Line, node.Value, err)
	}
	d.Value = value
	d.Set = true
	return nil
}

func (d Decimal) or(fallback float64) float64 {
	if d.Set {
		return d.Value
	}
	return fallback
}

type yamlFile struct {
	DefaultMonthlyFee Decimal       `yaml:"default_monthly_fee"`
	Fixed             []yamlFixed   `yaml:"fixed"`
	Dynamic           []yamlDynamic `yaml:"dynamic"`
}

type yamlFixed struct {
	Provider     string  `yaml:"provider"`
	ContractName string  `yaml:"contract_name"`
	RateNormal   Decimal `yaml:"rate_normal"`
	RateLow      Decimal `yaml:"rate_low"`
	MonthlyFee   Decimal `yaml:"monthly_fee"`
}

type yamlDynamic struct {
	Provider         string  `yaml:"provider"`
	ContractName     string  `yaml:"contract_name"`
	SurchargeInclVAT Decimal `yaml:"surcharge_incl_vat"`
	MonthlyFee       Decimal `yaml:"monthly_fee"`
}

// LoadYAML reads a catalog with "fixed" and "dynamic" lists. A
// default_monthly_fee in the file overrides defaultFee.
func LoadYAML(r io.Reader, defaultFee float64) ([]tariff.Contract, error) {
	var file yamlFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyCatalog
		}
		return nil, fmt.Errorf("contract catalog: yaml: %w", err)
	}
	fee := file.DefaultMonthlyFee.or(defaultFee)

	contracts := make([]tariff.Contract, 0, len(file.Fixed)+len(file.Dynamic))
	for i, entry := range file.Fixed {
		if !entry.RateNormal.Set {
			return nil, fmt.Errorf("contract catalog: fixed[%d] (%s): %w: rate_normal", i, entry.Provider, ErrMissingColumn)
		}
		contract := tariff.FixedContract{
			ProviderName: entry.Provider,
			ContractName: entry.ContractName,
			RateNormal:   entry.RateNormal.Value,
			RateLow:      entry.RateLow.or(entry.RateNormal.Value),
			Fee:          entry.MonthlyFee.or(fee),
		}
		if err := contract.Validate(); err != nil {
			return nil, fmt.Errorf("contract catalog: fixed[%d] (%s): %w", i, entry.Provider, err)
		}
		contracts = append(contracts, contract)
	}
	for i, entry := range file.Dynamic {
		if !entry.SurchargeInclVAT.Set {
			return nil, fmt.Errorf("contract catalog: dynamic[%d] (%s): %w: surcharge_incl_vat", i, entry.Provider, ErrMissingColumn)
		}
		contract := tariff.DynamicContract{
			ProviderName:     entry.Provider,
			ContractName:     entry.ContractName,
			SurchargeInclVAT: entry.SurchargeInclVAT.Value,
			Fee:              entry.MonthlyFee.or(fee),
		}
		if err := contract.Validate(); err != nil {
			return nil, fmt.Errorf("contract catalog: dynamic[%d] (%s): %w", i, entry.Provider, err)
		}
		contracts = append(contracts, contract)
	}
	return contracts, nil
}
