package tariff

import (
	"errors"
	"fmt"
)

var (
	// ErrNilContract is returned when evaluating a nil contract.
	ErrNilContract = errors.New("tariff: nil contract")
	// ErrEmptyProvider is returned when a contract has no provider name.
	ErrEmptyProvider = errors.New("tariff: empty provider")
	// ErrInvalidRate is returned for NaN, infinite or negative energy rates.
	ErrInvalidRate = errors.New("tariff: invalid rate")
	// ErrNegativeFee is returned when a monthly fee is negative.
	ErrNegativeFee = errors.New("tariff: negative monthly fee")
	// ErrMonthlyRequired is returned when fixed evaluation gets no monthly buckets.
	ErrMonthlyRequired = errors.New("tariff: monthly consumption required")
	// ErrAlignmentRequired is returned when dynamic evaluation gets no aligned dataset.
	ErrAlignmentRequired = errors.New("tariff: aligned price dataset required")
	// ErrNoMarketPrice is returned when a dynamic estimate has no average market price.
	ErrNoMarketPrice = errors.New("tariff: average market price required")
	// ErrNegativeUsage is returned for negative manual usage figures.
	ErrNegativeUsage = errors.New("tariff: negative usage")
)

// ContractError names the contract an evaluation failed for.
type ContractError struct {
	Provider string
	Label    string
	Err      error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("tariff: contract %q/%q: %v", e.Provider, e.Label, e.Err)
}

func (e *ContractError) Unwrap() error { return e.Err }
