package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/nvoloshin/trip-planner/internal/airtable"
	"github.com/nvoloshin/trip-planner/internal/currency"
	"github.com/nvoloshin/trip-planner/internal/prefs"
	"github.com/nvoloshin/trip-planner/internal/schema"
	"github.com/nvoloshin/trip-planner/internal/selection"
	"github.com/nvoloshin/trip-planner/internal/views"
)

// stubFetcher serves canned records per table and simulates transport
// failures for selected tables.
type stubFetcher struct {
	records map[string][]airtable.Record
	errors  map[string]error
}

func (s *stubFetcher) FetchTable(ctx context.Context, table string) ([]airtable.Record, error) {
	if err, ok := s.errors[table]; ok {
		return nil, err
	}
	return s.records[table], nil
}

var testTables = map[views.Kind]string{
	views.KindResort: "Resort",
	views.KindFlight: "Flights",
	views.KindExtra:  "Extras",
	views.KindFamily: "Families",
}

func newTestHandler(t *testing.T, fetcher airtable.Fetcher) *TripHandler {
	t.Helper()

	s, err := schema.Load()
	if err != nil {
		t.Fatalf("schema.Load failed: %v", err)
	}
	conv := currency.NewConverter(0.92)
	ledger := selection.NewLedger(conv)
	store := prefs.NewStore(filepath.Join(t.TempDir(), "prefs.json"), currency.USD)

	return NewTripHandler(fetcher, views.NewProjector(s, conv), ledger, store, conv, testTables, zerolog.Nop())
}

type tripResponse struct {
	Currency string        `json:"currency"`
	Sections []Section     `json:"sections"`
	Totals   TotalsPayload `json:"totals"`
}

func getTrip(t *testing.T, h *TripHandler) tripResponse {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/trip", nil)
	rec := httptest.NewRecorder()
	h.GetTrip(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GetTrip status = %d, want 200", rec.Code)
	}
	var resp tripResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode trip response: %v", err)
	}
	return resp
}

func sectionByKind(t *testing.T, resp tripResponse, kind views.Kind) Section {
	t.Helper()
	for _, s := range resp.Sections {
		if s.Kind == string(kind) {
			return s
		}
	}
	t.Fatalf("section %q missing from response", kind)
	return Section{}
}

func TestGetTrip_EmptyAndErrorAreDistinct(t *testing.T) {
	fetcher := &stubFetcher{
		records: map[string][]airtable.Record{
			"Flights": {
				{ID: "recF1", Fields: map[string]interface{}{
					"Flight Name":   "AMS-LIS",
					"Price (input)": 220.0,
					"Currency":      "EUR",
				}},
			},
			"Families": {},
			"Extras":   {},
		},
		errors: map[string]error{
			"Resort": errors.New("HTTP 502 bad gateway"),
		},
	}
	h := newTestHandler(t, fetcher)

	resp := getTrip(t, h)

	resorts := sectionByKind(t, resp, views.KindResort)
	if resorts.Error == "" {
		t.Error("resort section should carry a fetch error")
	}
	if resorts.EmptyMessage != "" {
		t.Error("a failed fetch must not masquerade as an empty table")
	}

	families := sectionByKind(t, resp, views.KindFamily)
	if families.EmptyMessage != "No families found." {
		t.Errorf("families EmptyMessage = %q, want configured empty state", families.EmptyMessage)
	}
	if families.Error != "" {
		t.Error("an empty table must not masquerade as a failure")
	}

	flights := sectionByKind(t, resp, views.KindFlight)
	if flights.Count != 1 || len(flights.Rows) != 1 {
		t.Fatalf("flights section = %+v, want one row", flights)
	}
	if flights.Rows[0].Name != "AMS-LIS" {
		t.Errorf("flight name = %q", flights.Rows[0].Name)
	}

	// One kind's failure leaves totals untouched.
	if resp.Totals.USD != 0 {
		t.Errorf("totals.USD = %v, want 0", resp.Totals.USD)
	}
}

func TestToggleSelection_TotalsFlow(t *testing.T) {
	h := newTestHandler(t, &stubFetcher{})

	toggle := func(body string) TotalsPayload {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/api/selection", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		h.ToggleSelection(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("ToggleSelection status = %d, body %s", rec.Code, rec.Body.String())
		}
		var totals TotalsPayload
		if err := json.Unmarshal(rec.Body.Bytes(), &totals); err != nil {
			t.Fatalf("decode totals: %v", err)
		}
		return totals
	}

	toggle(`{"id":"recUSD","amount":100,"currency":"USD","selected":true}`)
	totals := toggle(`{"id":"recEUR","amount":100,"currency":"EUR","selected":true}`)

	wantUSD := 100 + 100/0.92
	if math.Abs(totals.USD-wantUSD) > 1e-9 {
		t.Errorf("USD total = %v, want %v", totals.USD, wantUSD)
	}
	if math.Abs(totals.EUR-wantUSD*0.92) > 1e-9 {
		t.Errorf("EUR total = %v, want %v", totals.EUR, wantUSD*0.92)
	}
	if totals.Formatted != "$208.70" {
		t.Errorf("Formatted = %q, want $208.70", totals.Formatted)
	}
	if totals.Selected != 2 {
		t.Errorf("Selected = %d, want 2", totals.Selected)
	}

	// Deselect one; total drops synchronously in the same response.
	totals = toggle(`{"id":"recEUR","amount":100,"currency":"EUR","selected":false}`)
	if math.Abs(totals.USD-100) > 1e-9 {
		t.Errorf("USD total after deselect = %v, want 100", totals.USD)
	}
}

func TestToggleSelection_Validation(t *testing.T) {
	h := newTestHandler(t, &stubFetcher{})

	req := httptest.NewRequest(http.MethodPost, "/api/selection", bytes.NewBufferString(`{"amount":10,"selected":true}`))
	rec := httptest.NewRecorder()
	h.ToggleSelection(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing id: status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/selection", bytes.NewBufferString(`{not json`))
	rec = httptest.NewRecorder()
	h.ToggleSelection(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body: status = %d, want 400", rec.Code)
	}
}

func TestSelection_SurvivesRerender(t *testing.T) {
	fetcher := &stubFetcher{
		records: map[string][]airtable.Record{
			"Resort": {
				{ID: "recA", Fields: map[string]interface{}{
					"Resort Name":   "Coral Bay",
					"Price (input)": 100.0,
					"Currency":      "USD",
				}},
			},
			"Flights":  {},
			"Extras":   {},
			"Families": {},
		},
	}
	h := newTestHandler(t, fetcher)

	body := bytes.NewBufferString(`{"id":"recA","amount":100,"currency":"USD","selected":true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/selection", body)
	rec := httptest.NewRecorder()
	h.ToggleSelection(rec, req)

	// Every re-fetch rebuilds the rows from scratch; the checked state
	// must be re-derived from the ledger by identity each time.
	for i := 0; i < 3; i++ {
		resp := getTrip(t, h)
		resorts := sectionByKind(t, resp, views.KindResort)
		if len(resorts.Rows) != 1 || !resorts.Rows[0].Selected {
			t.Fatalf("render %d: selection not re-applied, rows=%+v", i, resorts.Rows)
		}
	}
}

func TestPutCurrency_TotalsUnchanged(t *testing.T) {
	h := newTestHandler(t, &stubFetcher{})

	body := bytes.NewBufferString(`{"id":"recA","amount":100,"currency":"USD","selected":true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/selection", body)
	rec := httptest.NewRecorder()
	h.ToggleSelection(rec, req)

	before := h.ledger.Totals()

	req = httptest.NewRequest(http.MethodPut, "/api/currency", bytes.NewBufferString(`{"currency":"EUR"}`))
	rec = httptest.NewRecorder()
	h.PutCurrency(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("PutCurrency status = %d", rec.Code)
	}

	var resp struct {
		Currency string        `json:"currency"`
		Totals   TotalsPayload `json:"totals"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Currency != currency.EUR {
		t.Errorf("currency = %q, want EUR", resp.Currency)
	}
	// The USD/EUR pair is display-currency-agnostic.
	if resp.Totals.USD != before.USD || resp.Totals.EUR != before.EUR {
		t.Errorf("totals changed on currency switch: %+v vs %+v", resp.Totals.Totals, before)
	}
	// Only the formatted rendering follows the new display currency.
	if resp.Totals.Formatted != "€92.00" {
		t.Errorf("Formatted = %q, want €92.00", resp.Totals.Formatted)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/currency", nil)
	rec = httptest.NewRecorder()
	h.GetCurrency(rec, req)
	if got := rec.Body.String(); !bytes.Contains([]byte(got), []byte("EUR")) {
		t.Errorf("GetCurrency body = %s, want EUR", got)
	}
}

func TestPutCurrency_Unsupported(t *testing.T) {
	h := newTestHandler(t, &stubFetcher{})

	req := httptest.NewRequest(http.MethodPut, "/api/currency", bytes.NewBufferString(`{"currency":"GBP"}`))
	rec := httptest.NewRecorder()
	h.PutCurrency(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetTable(t *testing.T) {
	fetcher := &stubFetcher{
		records: map[string][]airtable.Record{
			"Extras": {
				{ID: "recE1", Fields: map[string]interface{}{"Extra Name": "Surf lesson"}},
			},
		},
	}
	h := newTestHandler(t, fetcher)

	req := httptest.NewRequest(http.MethodGet, "/api/tables/extra", nil)
	req.SetPathValue("kind", "extra")
	rec := httptest.NewRecorder()
	h.GetTable(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var section Section
	if err := json.Unmarshal(rec.Body.Bytes(), &section); err != nil {
		t.Fatalf("decode section: %v", err)
	}
	if section.Count != 1 || section.Rows[0].Name != "Surf lesson" {
		t.Errorf("section = %+v", section)
	}
}

func TestGetTable_UnknownKind(t *testing.T) {
	h := newTestHandler(t, &stubFetcher{})

	req := httptest.NewRequest(http.MethodGet, "/api/tables/cruise", nil)
	req.SetPathValue("kind", "cruise")
	rec := httptest.NewRecorder()
	h.GetTable(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestClearSelection(t *testing.T) {
	h := newTestHandler(t, &stubFetcher{})

	body := bytes.NewBufferString(`{"id":"recA","amount":50,"currency":"USD","selected":true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/selection", body)
	rec := httptest.NewRecorder()
	h.ToggleSelection(rec, req)

	req = httptest.NewRequest(http.MethodDelete, "/api/selection", nil)
	rec = httptest.NewRecorder()
	h.ClearSelection(rec, req)

	var totals TotalsPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &totals); err != nil {
		t.Fatalf("decode totals: %v", err)
	}
	if totals.USD != 0 || totals.Selected != 0 {
		t.Errorf("totals after clear = %+v, want zero", totals)
	}
}
