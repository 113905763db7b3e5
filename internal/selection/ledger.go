// Package selection owns the persistent set of selected record identities
// and the running total derived from it. Entries survive arbitrary
// re-projections and re-renders: the render layer re-applies membership by
// identity instead of remembering anything itself.
package selection

import (
	"strings"
	"sync"

	"github.com/nvoloshin/trip-planner/internal/currency"
)

// Entry is the raw amount/currency snapshot cached for one selected
// record, taken when the row was last toggled.
type Entry struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Ledger stores selected entries keyed by record identity and keeps the
// totals recomputed synchronously on every mutation. It is safe for
// concurrent use.
//
// An entry whose identity disappears from a later fetch goes stale: it no
// longer matches any rendered row but still contributes to the totals
// until explicitly removed or cleared.
type Ledger struct {
	mu       sync.RWMutex
	entries  map[string]Entry
	totals   Totals
	conv     *currency.Converter
	onChange func(Totals)
}

// NewLedger creates an empty ledger whose totals are computed with conv.
func NewLedger(conv *currency.Converter) *Ledger {
	return &Ledger{
		entries: make(map[string]Entry),
		conv:    conv,
	}
}

// OnChange registers a callback invoked synchronously after every
// mutation with the freshly recomputed totals. Only one callback is
// supported; registering replaces the previous one.
func (l *Ledger) OnChange(fn func(Totals)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = fn
}

// Toggle inserts the amount/currency snapshot under id when selected is
// true and removes the entry when false. Toggling an already-matching
// state is a no-op in effect. A nil amount is stored as zero so that a
// selected row without a price contributes nothing. The currency code is
// trimmed and upper-cased on the way in, matching how the projector
// normalizes codes, so "eur" and "EUR" convert identically. Returns the
// totals recomputed from the mutated ledger.
func (l *Ledger) Toggle(id string, amount *float64, currencyCode string, selected bool) Totals {
	l.mu.Lock()
	if selected {
		amt := 0.0
		if amount != nil {
			amt = *amount
		}
		l.entries[id] = Entry{
			Amount:   amt,
			Currency: strings.ToUpper(strings.TrimSpace(currencyCode)),
		}
	} else {
		delete(l.entries, id)
	}
	l.totals = ComputeTotals(l.entries, l.conv)
	totals := l.totals
	fn := l.onChange
	l.mu.Unlock()

	if fn != nil {
		fn(totals)
	}
	return totals
}

// Remove drops the entry for id, if any, and recomputes totals.
func (l *Ledger) Remove(id string) Totals {
	return l.Toggle(id, nil, "", false)
}

// Clear empties the ledger.
func (l *Ledger) Clear() Totals {
	l.mu.Lock()
	l.entries = make(map[string]Entry)
	l.totals = Totals{}
	totals := l.totals
	fn := l.onChange
	l.mu.Unlock()

	if fn != nil {
		fn(totals)
	}
	return totals
}

// IsSelected reports whether id is currently selected. The render layer
// calls this when reconstructing a row's checked control after a
// re-render.
func (l *Ledger) IsSelected(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[id]
	return ok
}

// Entries returns a copy of the current entries.
func (l *Ledger) Entries() map[string]Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]Entry, len(l.entries))
	for k, v := range l.entries {
		out[k] = v
	}
	return out
}

// Totals returns the totals as of the last mutation.
func (l *Ledger) Totals() Totals {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totals
}

// Len returns the number of selected entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
