// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

// Package labelmap resolves an XKB layout name (as decoded by internal/xkb)
// to the short label a tray icon actually has room for, e.g. "English
// (US)" -> "EN".
package labelmap

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// builtins covers the layout names XKB ships by default, keyed by their
// exact name.
var builtins = map[string]string{
	"English (US)": "EN",
	"English (UK)": "EN",
	"English":      "EN",
	"German":       "DE",
	"French":       "FR",
	"Spanish":      "ES",
	"Italian":      "IT",
	"Portuguese":   "PT",
	"Russian":      "RU",
	"Ukrainian":    "UA",
	"Polish":       "PL",
	"Czech":        "CZ",
	"Swedish":      "SE",
	"Norwegian":    "NO",
	"Danish":       "DK",
	"Finnish":      "FI",
	"Dutch":        "NL",
	"Japanese":     "JA",
	"Korean":       "KO",
	"Chinese":      "ZH",
	"Arabic":       "AR",
	"Hebrew":       "HE",
	"Greek":        "EL",
	"Turkish":      "TR",
}

// Map resolves layout names to short labels. The zero value is not usable;
// construct with New.
type Map struct {
	mu        sync.RWMutex
	overrides map[string]string
	builtins  map[string]string
}

// New returns a Map seeded with the built-in layout-name table.
func New() *Map {
	m := make(map[string]string, len(builtins))
	for k, v := range builtins {
		m[k] = v
	}
	return &Map{builtins: m}
}

// Resolve returns the short label for name. It tries, in order: an exact
// match, a case-insensitive match, an exact match on the name with any
// parenthetical variant stripped, and a case-insensitive match on that
// stripped name. The whole sequence is tried against the user overrides
// first, and only then against the built-in table. A name matching nothing falls back to the first two
// characters of its stripped form, uppercased, or "??" if that is empty.
func (m *Map) Resolve(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if label, ok := lookup(m.overrides, name); ok {
		return label
	}
	if label, ok := lookup(m.builtins, name); ok {
		return label
	}
	return defaultLabel(stripVariant(name))
}

// lookup tries an exact match, then a case-insensitive match, then the same
// two against the name with its parenthetical variant stripped.
func lookup(entries map[string]string, name string) (string, bool) {
	if label, ok := entries[name]; ok {
		return label, true
	}
	if label, ok := lookupCaseInsensitive(entries, name); ok {
		return label, true
	}

	base := stripVariant(name)
	if base == name {
		return "", false
	}
	if label, ok := entries[base]; ok {
		return label, true
	}
	return lookupCaseInsensitive(entries, base)
}

func lookupCaseInsensitive(entries map[string]string, name string) (string, bool) {
	lower := strings.ToLower(name)
	for k, v := range entries {
		if strings.ToLower(k) == lower {
			return v, true
		}
	}
	return "", false
}

// stripVariant drops a trailing parenthetical qualifier, e.g.
// "German (no dead keys)" -> "German".
func stripVariant(name string) string {
	if i := strings.IndexByte(name, '('); i >= 0 {
		return strings.TrimSpace(name[:i])
	}
	return name
}

func defaultLabel(base string) string {
	if base == "" {
		return "??"
	}
	runes := []rune(base)
	if len(runes) >= 2 {
		return strings.ToUpper(string(runes[:2]))
	}
	return strings.ToUpper(string(runes))
}

// LoadOverrides reads a TOML file of layout-name to label mappings and
// installs them, taking priority over the built-in table. A missing file is
// not an error: it means the user has no overrides configured.
func (m *Map) LoadOverrides(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("labelmap: reading %s: %w", path, err)
	}

	var overrides map[string]string
	if err := toml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("labelmap: parsing %s: %w", path, err)
	}

	m.mu.Lock()
	m.overrides = overrides
	m.mu.Unlock()
	return nil
}
