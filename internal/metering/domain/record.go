package metering

import (
	"strings"
	"time"
)

// Band classifies a meter value by tariff window.
type Band string

const (
	BandTotal          Band = "total"
	BandLow            Band = "low"
	BandNormal         Band = "normal"
	BandLowReturned    Band = "low_returned"
	BandNormalReturned Band = "normal_returned"
)

// IsValid checks if the band is one of the supported values.
func (b Band) IsValid() bool {
	switch b {
	case BandTotal, BandLow, BandNormal, BandLowReturned, BandNormalReturned:
		return true
	default:
		return false
	}
}

// Column returns the export column name the band is read from.
func (b Band) Column() string {
	switch b {
	case BandLow:
		return "low_used"
	case BandNormal:
		return "normal_used"
	default:
		return string(b)
	}
}

// MeterRecord is one parsed value from a meter export.
type MeterRecord struct {
	Timestamp time.Time
	Band      Band
	Value     float64
}

// Unit is the energy unit of the values in an export.
type Unit string

const (
	UnitKWh Unit = "kWh"
	UnitMWh Unit = "MWh"
	UnitWh  Unit = "Wh"
)

// ParseUnit resolves a unit token. An empty token means kWh.
func ParseUnit(token string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "", "kwh":
		return UnitKWh, nil
	case "mwh":
		return UnitMWh, nil
	case "wh":
		return UnitWh, nil
	default:
		return "", &UnitMismatchError{Token: token}
	}
}

// IsValid checks if the unit is supported.
func (u Unit) IsValid() bool {
	switch u {
	case UnitKWh, UnitMWh, UnitWh:
		return true
	default:
		return false
	}
}

// ToKWh converts a value in u to kWh.
func (u Unit) ToKWh(value float64) float64 {
	switch u {
	case UnitMWh:
		return value * 1000
	case UnitWh:
		return value / 1000
	default:
		return value
	}
}
