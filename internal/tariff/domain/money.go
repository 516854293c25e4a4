package tariff

import "github.com/shopspring/decimal"

// RoundMoney rounds an amount to cents, half away from zero.
func RoundMoney(amount float64) float64 {
	rounded, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	return rounded
}

// FormatMoney renders an amount with exactly two decimals.
func FormatMoney(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// Cents returns the amount as a whole number of cents.
func Cents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Round(2).Shift(2).IntPart()
}
