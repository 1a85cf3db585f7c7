package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// SourceDefinition describes how one upload kind maps onto a Record.
// Column lists are tried in order; the first present column wins.
type SourceDefinition struct {
	Source           Source
	Label            string
	Delimiter        rune
	OrderIDColumns   []string
	TimestampColumns []string
	AmountColumns    []string
}

// lookup returns the value of the first of names present in row.
// Exact header matches are preferred; otherwise a case-insensitive,
// whitespace-trimmed match is used.
func lookup(row RawRow, names []string) (string, string, bool) {
	for _, name := range names {
		if v, ok := row.Get(name); ok {
			return name, v, true
		}
	}
	for _, name := range names {
		want := strings.ToLower(strings.TrimSpace(name))
		for _, k := range row.keys {
			if strings.ToLower(strings.TrimSpace(k)) == want {
				return k, row.values[k], true
			}
		}
	}
	return "", "", false
}

var (
	registry   = make(map[Source]SourceDefinition)
	registryMu sync.RWMutex
)

// Register adds a source definition to the registry.
// Panics if the source is invalid, has no columns, or is already registered.
func Register(def SourceDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if !def.Source.Valid() {
		panic(fmt.Sprintf("invalid source: %q", def.Source))
	}
	if len(def.OrderIDColumns) == 0 || len(def.AmountColumns) == 0 {
		panic(fmt.Sprintf("source %s: order id and amount columns are required", def.Source))
	}
	if _, exists := registry[def.Source]; exists {
		panic(fmt.Sprintf("source already registered: %s", def.Source))
	}

	if def.Delimiter == 0 {
		def.Delimiter = ','
	}
	if def.Label == "" {
		def.Label = string(def.Source)
	}

	registry[def.Source] = def
}

// Get returns the definition for a source.
// Returns false if not found.
func Get(src Source) (SourceDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[src]
	return def, ok
}

// All returns all registered definitions sorted by source name.
func All() []SourceDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]SourceDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Source < result[j].Source
	})

	return result
}

// Clear removes all registered sources.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[Source]SourceDefinition)
}
