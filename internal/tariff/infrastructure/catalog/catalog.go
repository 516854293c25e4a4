// Package catalog loads contract catalogs from YAML and CSV files.
package catalog

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	tariff "energy-compare/internal/tariff/domain"
)

var (
	// ErrUnsupportedFile is returned for catalog files that are neither YAML nor CSV.
	ErrUnsupportedFile = errors.New("contract catalog: unsupported file")
	// ErrMissingColumn is returned when a CSV catalog lacks a required column.
	ErrMissingColumn = errors.New("contract catalog: missing column")
	// ErrEmptyCatalog is returned when no contract could be loaded.
	ErrEmptyCatalog = errors.New("contract catalog: no contracts")
)

// Catalog is an immutable, versioned set of contracts.
type Catalog struct {
	version   string
	contracts []tariff.Contract
}

// Version identifies the catalog content.
func (c *Catalog) Version() string {
	if c == nil {
		return ""
	}
	return c.version
}

// Contracts returns a copy of the contract list.
func (c *Catalog) Contracts() []tariff.Contract {
	if c == nil {
		return nil
	}
	return slices.Clone(c.contracts)
}

// Len returns the number of contracts.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.contracts)
}

// LoadFiles reads every path and merges the contracts into one catalog.
// defaultFee applies to entries without a monthly fee.
func LoadFiles(defaultFee float64, paths ...string) (*Catalog, error) {
	hash := sha256.New()
	var contracts []tariff.Contract
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		loaded, err := Load(filepath.Base(path), bytes.NewReader(raw), defaultFee)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		hash.Write(raw)
		contracts = append(contracts, loaded...)
	}
	if len(contracts) == 0 {
		return nil, ErrEmptyCatalog
	}
	return &Catalog{version: hex.EncodeToString(hash.Sum(nil)[:8]), contracts: contracts}, nil
}

// New builds a catalog from already-constructed contracts.
func New(version string, contracts []tariff.Contract) (*Catalog, error) {
	for i, contract := range contracts {
		if contract == nil {
			return nil, fmt.Errorf("contract catalog: entry %d: %w", i+1, tariff.ErrNilContract)
		}
		if err := contract.Validate(); err != nil {
			return nil, fmt.Errorf("contract catalog: entry %d (%s): %w", i+1, contract.Provider(), err)
		}
	}
	return &Catalog{version: version, contracts: slices.Clone(contracts)}, nil
}

// Load reads one catalog file, dispatching on the extension of name.
func Load(name string, r io.Reader, defaultFee float64) ([]tariff.Contract, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return LoadYAML(r, defaultFee)
	case ".csv":
		return LoadCSV(r, defaultFee)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, name)
	}
}
