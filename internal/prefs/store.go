// Package prefs persists the display-currency preference across restarts.
// It is a single-value store: read once at startup, written on every
// user-initiated currency change.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nvoloshin/trip-planner/internal/currency"
)

type prefsFile struct {
	DisplayCurrency string `json:"display_currency"`
}

// Store is a file-backed holder of the display currency. The in-memory
// value is authoritative; the file is only a restart survival mechanism.
// Safe for concurrent use.
type Store struct {
	path string

	mu       sync.RWMutex
	currency string
}

// NewStore loads the preference from path, falling back to defaultCurrency
// when the file is missing, unreadable, or holds an unsupported code. The
// fallback is not written back until the next explicit change.
func NewStore(path, defaultCurrency string) *Store {
	if !currency.Supported(defaultCurrency) {
		defaultCurrency = currency.USD
	}

	s := &Store{path: path, currency: defaultCurrency}

	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var f prefsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return s
	}
	if currency.Supported(f.DisplayCurrency) {
		s.currency = f.DisplayCurrency
	}
	return s
}

// Currency returns the current display currency.
func (s *Store) Currency() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currency
}

// SetCurrency switches the display currency and persists it. Unsupported
// codes are rejected. The in-memory value changes even when the write
// fails, so the running process stays consistent with what the user chose;
// the write error is still reported for logging.
func (s *Store) SetCurrency(code string) error {
	if !currency.Supported(code) {
		return fmt.Errorf("unsupported display currency %q", code)
	}

	s.mu.Lock()
	s.currency = code
	s.mu.Unlock()

	return s.write(code)
}

// write persists atomically: temp file in the same directory, then rename.
func (s *Store) write(code string) error {
	data, err := json.Marshal(prefsFile{DisplayCurrency: code})
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".prefs-*.json")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}
