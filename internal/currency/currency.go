// Package currency converts and formats monetary amounts between the two
// display currencies the planner supports.
package currency

import (
	"fmt"
	"math"
	"strings"

	xcurrency "golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// USD is the US dollar currency code.
	USD = "USD"
	// EUR is the euro currency code.
	EUR = "EUR"

	// DefaultUSDToEUR is the fallback conversion rate applied when the
	// configured rate is unset, non-numeric or not positive.
	DefaultUSDToEUR = 0.92

	// Placeholder is rendered wherever no monetary value can be shown.
	Placeholder = "—"
)

// Supported reports whether code is one of the display currencies.
func Supported(code string) bool {
	return code == USD || code == EUR
}

// Converter converts amounts between USD and EUR using a single configured
// USD→EUR rate, and formats amounts for display.
type Converter struct {
	rate    float64
	printer *message.Printer
}

// NewConverter creates a Converter for the given USD→EUR rate.
// Invalid rates (zero, negative, NaN, Inf) fall back to DefaultUSDToEUR.
func NewConverter(usdToEUR float64) *Converter {
	if usdToEUR <= 0 || math.IsNaN(usdToEUR) || math.IsInf(usdToEUR, 0) {
		usdToEUR = DefaultUSDToEUR
	}
	return &Converter{
		rate:    usdToEUR,
		printer: message.NewPrinter(language.AmericanEnglish),
	}
}

// Rate returns the effective USD→EUR rate.
func (c *Converter) Rate() float64 {
	return c.rate
}

// Convert converts amount from one currency code to another.
// It returns nil when amount is nil or not a number, the amount unchanged
// when from equals to, and the rate-adjusted amount for the USD/EUR pair.
// Any other combination of codes passes the amount through unchanged: an
// unrecognized currency is treated as the target currency so aggregation
// never fails on dirty source data.
func (c *Converter) Convert(amount *float64, from, to string) *float64 {
	if amount == nil || math.IsNaN(*amount) {
		return nil
	}
	v := *amount
	switch {
	case from == to:
		// unchanged
	case from == USD && to == EUR:
		v = v * c.rate
	case from == EUR && to == USD:
		v = v / c.rate
	}
	return &v
}

// Format renders amount as a compact currency string with the symbol
// prefixed directly to the grouped amount, e.g. "$1,234.50". A nil or NaN
// amount renders as the Placeholder. A currency code the locale formatter
// cannot parse falls back to "<amount> <code>" with two decimals.
func (c *Converter) Format(amount *float64, code string) string {
	if amount == nil || math.IsNaN(*amount) {
		return Placeholder
	}
	unit, err := xcurrency.ParseISO(code)
	if err != nil {
		return strings.TrimSpace(fmt.Sprintf("%.2f %s", *amount, code))
	}
	// The locale formatter inserts a space between symbol and amount, so
	// the two parts are rendered separately and joined without one.
	symbol := c.printer.Sprintf("%v", xcurrency.Symbol(unit))
	return symbol + c.printer.Sprintf("%.2f", *amount)
}
