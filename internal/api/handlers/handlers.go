// Package handlers implements the render-facing JSON API. Rows carry
// stable identities, display strings and selection state, so any client
// can rebuild its view from scratch on every response without losing the
// user's selection.
package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nvoloshin/trip-planner/internal/airtable"
	"github.com/nvoloshin/trip-planner/internal/api/middleware"
	"github.com/nvoloshin/trip-planner/internal/currency"
	"github.com/nvoloshin/trip-planner/internal/prefs"
	"github.com/nvoloshin/trip-planner/internal/selection"
	"github.com/nvoloshin/trip-planner/internal/views"
)

// Section is one record kind's slice of the trip view. Exactly one of
// Rows, EmptyMessage or Error is meaningful: an empty fetch and a failed
// fetch are distinct outcomes and are never conflated.
type Section struct {
	Kind         string      `json:"kind"`
	Rows         []views.Row `json:"rows"`
	Count        int         `json:"count"`
	EmptyMessage string      `json:"empty_message,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// TotalsPayload is the running total plus its rendering in the current
// display currency.
type TotalsPayload struct {
	selection.Totals
	Formatted string `json:"formatted"`
	Selected  int    `json:"selected"`
}

// TripHandler serves the projected trip data and the selection endpoints.
type TripHandler struct {
	fetcher   airtable.Fetcher
	projector *views.Projector
	ledger    *selection.Ledger
	prefs     *prefs.Store
	conv      *currency.Converter
	tables    map[views.Kind]string
	log       zerolog.Logger
}

// NewTripHandler creates a TripHandler. tables maps each record kind to
// its Airtable table name.
func NewTripHandler(
	fetcher airtable.Fetcher,
	projector *views.Projector,
	ledger *selection.Ledger,
	prefsStore *prefs.Store,
	conv *currency.Converter,
	tables map[views.Kind]string,
	log zerolog.Logger,
) *TripHandler {
	return &TripHandler{
		fetcher:   fetcher,
		projector: projector,
		ledger:    ledger,
		prefs:     prefsStore,
		conv:      conv,
		tables:    tables,
		log:       log,
	}
}

// GetTrip handles GET /api/trip. All four kinds are fetched concurrently;
// each section succeeds or fails on its own, so one table's outage never
// blanks the rest of the page or touches the current total.
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	display := h.prefs.Currency()

	sections := make([]Section, len(views.Kinds))
	var wg sync.WaitGroup
	for i, kind := range views.Kinds {
		wg.Add(1)
		go func(i int, kind views.Kind) {
			defer wg.Done()
			sections[i] = h.loadSection(r, kind, display)
		}(i, kind)
	}
	wg.Wait()

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"currency": display,
		"sections": sections,
		"totals":   h.totalsPayload(h.ledger.Totals()),
	})
}

// GetTable handles GET /api/tables/{kind}.
func (h *TripHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	kind := views.Kind(r.PathValue("kind"))
	if _, ok := h.tables[kind]; !ok {
		middleware.WriteError(w, http.StatusNotFound, "Unknown record kind")
		return
	}

	section := h.loadSection(r, kind, h.prefs.Currency())
	middleware.WriteJSON(w, http.StatusOK, section)
}

// ToggleSelection handles POST /api/selection. The totals are recomputed
// synchronously inside the toggle and returned, so the client never
// observes a stale total after a mutation.
func (h *TripHandler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       string   `json:"id"`
		Amount   *float64 `json:"amount"`
		Currency string   `json:"currency"`
		Selected bool     `json:"selected"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "id is required")
		return
	}

	totals := h.ledger.Toggle(req.ID, req.Amount, req.Currency, req.Selected)

	h.log.Debug().
		Str("id", req.ID).
		Bool("selected", req.Selected).
		Float64("total_usd", totals.USD).
		Msg("Selection toggled")

	middleware.WriteJSON(w, http.StatusOK, h.totalsPayload(totals))
}

// GetSelection handles GET /api/selection.
func (h *TripHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": h.ledger.Entries(),
		"totals":  h.totalsPayload(h.ledger.Totals()),
	})
}

// ClearSelection handles DELETE /api/selection. This is the manual reset
// that purges entries whose records disappeared from later fetches.
func (h *TripHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	totals := h.ledger.Clear()
	middleware.WriteJSON(w, http.StatusOK, h.totalsPayload(totals))
}

// GetCurrency handles GET /api/currency.
func (h *TripHandler) GetCurrency(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"currency": h.prefs.Currency(),
	})
}

// PutCurrency handles PUT /api/currency. The totals pair is returned
// unchanged: switching the display currency only affects rendering, never
// the aggregate itself.
func (h *TripHandler) PutCurrency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Currency string `json:"currency"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !currency.Supported(req.Currency) {
		middleware.WriteError(w, http.StatusBadRequest, "Unsupported display currency")
		return
	}

	if err := h.prefs.SetCurrency(req.Currency); err != nil {
		// The in-memory preference already switched; losing the file
		// only costs persistence across restarts.
		h.log.Warn().Err(err).Msg("Failed to persist currency preference")
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"currency": h.prefs.Currency(),
		"totals":   h.totalsPayload(h.ledger.Totals()),
	})
}

// loadSection fetches and projects one record kind. Fetch failures are
// absorbed into the section's Error; an empty table produces the kind's
// empty-state message.
func (h *TripHandler) loadSection(r *http.Request, kind views.Kind, display string) Section {
	section := Section{Kind: string(kind), Rows: []views.Row{}}

	table := h.tables[kind]
	records, err := h.fetcher.FetchTable(r.Context(), table)
	if err != nil {
		h.log.Error().Err(err).Str("table", table).Msg("Failed to fetch table")
		section.Error = "Failed to load " + table
		return section
	}

	if len(records) == 0 {
		section.EmptyMessage = emptyMessage(kind)
		return section
	}

	rows := h.projector.ProjectAll(kind, records, display)
	for i := range rows {
		rows[i].Selected = h.ledger.IsSelected(rows[i].ID)
	}
	section.Rows = rows
	section.Count = len(rows)
	return section
}

func (h *TripHandler) totalsPayload(totals selection.Totals) TotalsPayload {
	display := h.prefs.Currency()
	amount := totals.USD
	if display == currency.EUR {
		amount = totals.EUR
	}
	return TotalsPayload{
		Totals:    totals,
		Formatted: h.conv.Format(&amount, display),
		Selected:  h.ledger.Len(),
	}
}

func emptyMessage(kind views.Kind) string {
	switch kind {
	case views.KindResort:
		return "No resorts found."
	case views.KindFlight:
		return "No flights found."
	case views.KindExtra:
		return "No extras found."
	case views.KindFamily:
		return "No families found."
	}
	return "No records found."
}
