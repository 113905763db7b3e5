package selection

import "github.com/nvoloshin/trip-planner/internal/currency"

// Totals is the running cost of the current selection, expressed in both
// display currencies. The pair is always rate-consistent: EUR is derived
// from the USD sum with a single conversion, never by re-summing per-entry
// EUR conversions, so the two figures can never drift apart regardless of
// the mix of source currencies.
type Totals struct {
	USD float64 `json:"usd"`
	EUR float64 `json:"eur"`
}

// ComputeTotals sums the ledger entries in USD, treating undefined
// conversions as zero contribution, then derives the EUR figure once.
func ComputeTotals(entries map[string]Entry, conv *currency.Converter) Totals {
	var usd float64
	for _, e := range entries {
		amount := e.Amount
		if v := conv.Convert(&amount, e.Currency, currency.USD); v != nil {
			usd += *v
		}
	}

	var eur float64
	if v := conv.Convert(&usd, currency.USD, currency.EUR); v != nil {
		eur = *v
	}

	return Totals{USD: usd, EUR: eur}
}
