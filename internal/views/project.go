// Package views projects raw Airtable records into normalized,
// display-ready rows. Field names are resolved through the alias table in
// internal/schema, values are coerced into canonical forms, and prices are
// rendered both in their original currency and converted into the chosen
// display currency.
package views

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nvoloshin/trip-planner/internal/airtable"
	"github.com/nvoloshin/trip-planner/internal/currency"
	"github.com/nvoloshin/trip-planner/internal/schema"
)

// Kind identifies one of the four record kinds the planner handles.
type Kind string

const (
	KindResort Kind = "resort"
	KindFlight Kind = "flight"
	KindExtra  Kind = "extra"
	KindFamily Kind = "family"
)

// Kinds lists all record kinds in presentation order.
var Kinds = []Kind{KindResort, KindFlight, KindExtra, KindFamily}

// Row is the normalized projection of one record. It carries the record's
// stable identity, resolved display fields, and a snapshot of the raw
// amount and currency code. The snapshot is deliberately unconverted:
// totals stay correct after later display-currency changes without a
// re-fetch, as long as conversion happens through the same Converter.
type Row struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Name string `json:"name"`

	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
	Airline     string `json:"airline,omitempty"`
	Perks       string `json:"perks,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Members     string `json:"members,omitempty"`
	Families    string `json:"families,omitempty"`
	Link        string `json:"link,omitempty"`
	LinkLabel   string `json:"link_label,omitempty"`

	// Original is the price in its source currency, "—" when unknown.
	Original string `json:"original"`
	// Converted is the price in the display currency, "—" when conversion
	// is undefined.
	Converted string `json:"converted"`

	// Amount and Currency are the raw monetary snapshot used for
	// selection and aggregation. Amount is nil when the record carries no
	// numeric price.
	Amount   *float64 `json:"amount"`
	Currency string   `json:"currency"`

	// Selected mirrors the selection ledger at projection time so a
	// client rebuilding its view re-applies membership by identity.
	Selected bool `json:"selected"`
}

// Projector maps raw records of each kind into Rows.
type Projector struct {
	schema schema.Schema
	conv   *currency.Converter
}

// NewProjector creates a Projector over the given alias table and
// converter.
func NewProjector(s schema.Schema, conv *currency.Converter) *Projector {
	return &Projector{schema: s, conv: conv}
}

// Project normalizes one record of the given kind into a Row, with prices
// rendered for displayCurrency. Missing fields resolve to documented
// defaults and never produce an error.
func (p *Projector) Project(kind Kind, rec airtable.Record, displayCurrency string) Row {
	row := Row{ID: rec.ID, Kind: string(kind)}

	row.Name = p.text(kind, "name", rec.Fields)
	if row.Name == "" {
		row.Name = unnamed(kind)
	}

	row.Amount = NumberOrNil(p.raw(kind, "price", rec.Fields))
	row.Currency = strings.ToUpper(strings.TrimSpace(p.text(kind, "currency", rec.Fields)))
	row.Original = originalLabel(row.Amount, row.Currency)
	if row.Amount != nil && row.Currency != "" {
		converted := p.conv.Convert(row.Amount, row.Currency, displayCurrency)
		row.Converted = p.conv.Format(converted, displayCurrency)
	} else {
		row.Converted = currency.Placeholder
	}

	row.Link = p.text(kind, "link", rec.Fields)
	row.LinkLabel = DomainLabel(row.Link)

	switch kind {
	case KindResort:
		row.Origin = p.text(kind, "origin", rec.Fields)
		row.Perks = p.text(kind, "perks", rec.Fields)
		row.Families = ShortNames(p.raw(kind, "families", rec.Fields))
	case KindFlight:
		row.Airline = p.text(kind, "airline", rec.Fields)
		row.Origin = p.text(kind, "origin", rec.Fields)
		row.Destination = p.text(kind, "destination", rec.Fields)
		row.Families = ShortNames(p.raw(kind, "families", rec.Fields))
	case KindExtra:
		row.Notes = p.text(kind, "notes", rec.Fields)
	case KindFamily:
		row.Members = p.text(kind, "members", rec.Fields)
		row.Notes = p.text(kind, "notes", rec.Fields)
	}

	return row
}

// ProjectAll projects and sorts a full table of records of one kind.
func (p *Projector) ProjectAll(kind Kind, recs []airtable.Record, displayCurrency string) []Row {
	rows := make([]Row, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, p.Project(kind, rec, displayCurrency))
	}
	SortRows(rows)
	return rows
}

// SortRows orders rows by display name, case-insensitive ascending, with
// the raw price as tie-break (missing prices sort as 0).
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		ni := strings.ToLower(rows[i].Name)
		nj := strings.ToLower(rows[j].Name)
		if ni != nj {
			return ni < nj
		}
		return amountOrZero(rows[i].Amount) < amountOrZero(rows[j].Amount)
	})
}

func (p *Projector) raw(kind Kind, attribute string, fields map[string]interface{}) interface{} {
	v, _ := Resolve(fields, p.schema.Aliases(string(kind), attribute))
	return v
}

func (p *Projector) text(kind Kind, attribute string, fields map[string]interface{}) string {
	return DisplayList(p.raw(kind, attribute, fields))
}

func originalLabel(amount *float64, code string) string {
	if amount == nil || code == "" {
		return currency.Placeholder
	}
	return fmt.Sprintf("%s %s", strconv.FormatFloat(*amount, 'f', -1, 64), code)
}

func amountOrZero(a *float64) float64 {
	if a == nil {
		return 0
	}
	return *a
}

func unnamed(kind Kind) string {
	switch kind {
	case KindResort:
		return "Unnamed Resort"
	case KindFlight:
		return "Unnamed Flight"
	case KindExtra:
		return "Unnamed Extra"
	default:
		return "Unnamed"
	}
}
