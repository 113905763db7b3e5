// Package config loads service configuration from the environment, with a
// .env file picked up when present.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/nvoloshin/trip-planner/internal/currency"
)

// Config holds everything the service needs to talk to Airtable and to
// render prices.
type Config struct {
	// Airtable
	AirtableAPIKey string
	AirtableBaseID string

	// Table names, one per record kind.
	TableResorts  string
	TableFlights  string
	TableExtras   string
	TableFamilies string

	// USDToEUR is the single configured exchange rate. Invalid values
	// fall back to currency.DefaultUSDToEUR.
	USDToEUR float64

	// DefaultCurrency seeds the display-currency preference when no
	// stored value exists.
	DefaultCurrency string

	// PrefsPath is where the display-currency preference is persisted.
	PrefsPath string

	// AliasFile optionally overrides the embedded field-alias table.
	AliasFile string

	// Bind is the HTTP listen address.
	Bind string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present (non-fatal if missing).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AirtableAPIKey:  os.Getenv("AIRTABLE_API_KEY"),
		AirtableBaseID:  os.Getenv("AIRTABLE_BASE_ID"),
		TableResorts:    getEnvDefault("AIRTABLE_TABLE_RESORT", "Resort"),
		TableFlights:    getEnvDefault("AIRTABLE_TABLE_FLIGHTS", "Flights"),
		TableExtras:     getEnvDefault("AIRTABLE_TABLE_EXTRAS", "Extras"),
		TableFamilies:   getEnvDefault("AIRTABLE_TABLE_FAMILIES", "Families"),
		USDToEUR:        parseRate(os.Getenv("USD_TO_EUR")),
		DefaultCurrency: parseCurrency(os.Getenv("DEFAULT_DISPLAY_CURRENCY")),
		PrefsPath:       getEnvDefault("PREFS_PATH", "prefs.json"),
		AliasFile:       os.Getenv("ALIAS_FILE"),
		Bind:            getEnvDefault("BIND", ":8080"),
	}

	if cfg.AirtableAPIKey == "" {
		return nil, fmt.Errorf("AIRTABLE_API_KEY is required")
	}
	if cfg.AirtableBaseID == "" {
		return nil, fmt.Errorf("AIRTABLE_BASE_ID is required")
	}

	return cfg, nil
}

// Table returns the configured table name for a record kind, or "" for an
// unknown kind.
func (c *Config) Table(kind string) string {
	switch kind {
	case "resort":
		return c.TableResorts
	case "flight":
		return c.TableFlights
	case "extra":
		return c.TableExtras
	case "family":
		return c.TableFamilies
	}
	return ""
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseRate parses the USD→EUR rate, falling back to the documented
// default when the value is unset, non-numeric or not positive.
func parseRate(raw string) float64 {
	if raw == "" {
		return currency.DefaultUSDToEUR
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || rate <= 0 {
		return currency.DefaultUSDToEUR
	}
	return rate
}

// parseCurrency validates the default display currency, falling back to
// USD for anything outside the supported set.
func parseCurrency(raw string) string {
	if currency.Supported(raw) {
		return raw
	}
	return currency.USD
}
