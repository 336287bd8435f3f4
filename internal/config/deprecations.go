// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ManuGH/xbench/internal/log"
	"github.com/ManuGH/xbench/internal/metrics"
)

// Deprecation represents a deprecated configuration field
type Deprecation struct {
	OldField        string // The deprecated field name (e.g., "new_tokens")
	NewField        string // The replacement field name
	DeprecatedSince string // Version when it was deprecated
	RemovalVersion  string // Version when it will be removed (empty if not scheduled)
}

// deprecationRegistry contains all known deprecated configuration fields
var deprecationRegistry = map[string]Deprecation{
	"new_tokens": {
		OldField:        "new_tokens",
		NewField:        "generate_kwargs.max_new_tokens and generate_kwargs.min_new_tokens",
		DeprecatedSince: "0.2.0",
	},
}

// LogDeprecationWarning logs a structured warning for a deprecated field and
// counts it.
func LogDeprecationWarning(dep Deprecation) {
	logger := log.WithComponent("config")
	evt := logger.Warn().
		Str("old_field", dep.OldField).
		Str("new_field", dep.NewField).
		Str("deprecated_since", dep.DeprecatedSince)
	if dep.RemovalVersion != "" {
		evt = evt.Str("removal_version", dep.RemovalVersion)
	}
	evt.Msgf("deprecated configuration field '%s' detected, please use %s instead", dep.OldField, dep.NewField)
	metrics.RecordDeprecation(dep.OldField)
}

// warnDeprecated logs the registered deprecation for field.
func warnDeprecated(field string) {
	dep, ok := GetDeprecation(field)
	if !ok {
		dep = Deprecation{OldField: field, NewField: "its replacement"}
	}
	LogDeprecationWarning(dep)
}

// GetDeprecation looks up a deprecation by old field name
func GetDeprecation(oldField string) (Deprecation, bool) {
	dep, found := deprecationRegistry[oldField]
	return dep, found
}

// DeprecationSummary returns a human-readable summary of all registered deprecations
func DeprecationSummary() string {
	if len(deprecationRegistry) == 0 {
		return "No deprecated configuration fields"
	}

	names := make([]string, 0, len(deprecationRegistry))
	for name := range deprecationRegistry {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Deprecated configuration fields:\n")
	for _, name := range names {
		dep := deprecationRegistry[name]
		fmt.Fprintf(&b, "  - %s -> %s (deprecated since %s)\n", dep.OldField, dep.NewField, dep.DeprecatedSince)
	}
	return b.String()
}
