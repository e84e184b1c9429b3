package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry   = make(map[string]*Schema)
	registryMu sync.RWMutex
)

// Register adds a schema to the registry.
// Panics if a schema with the same type is already registered.
func Register(s *Schema) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[s.typ]; exists {
		panic(fmt.Sprintf("schema already registered: %s", s.typ))
	}
	registry[s.typ] = s
}

// Get returns a schema by document type.
// Returns false if not found.
func Get(documentType string) (*Schema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	s, ok := registry[strings.ToLower(strings.TrimSpace(documentType))]
	return s, ok
}

// Resolve returns the schema for documentType or an error wrapping
// ErrUnknownDocumentType.
func Resolve(documentType string) (*Schema, error) {
	s, ok := Get(documentType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocumentType, documentType)
	}
	return s, nil
}

// All returns all registered schemas.
// Sorted by group then by type for consistent ordering.
func All() []*Schema {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]*Schema, 0, len(registry))
	for _, s := range registry {
		result = append(result, s)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].group != result[j].group {
			return result[i].group < result[j].group
		}
		return result[i].typ < result[j].typ
	})

	return result
}

// ByGroup returns all schemas for a specific group.
// Sorted by type for consistent ordering.
func ByGroup(group string) []*Schema {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []*Schema
	for _, s := range registry {
		if s.group == group {
			result = append(result, s)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].typ < result[j].typ
	})

	return result
}

// Groups returns all unique group names.
// Sorted alphabetically.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, s := range registry {
		seen[s.group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// SchemaCount returns the number of registered schemas.
func SchemaCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered schemas.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]*Schema)
}

// MapDisplayToCanonical rewrites header cells that match a display label of
// schema (case-insensitive, exact after trimming) to their canonical field.
// Unmapped headers pass through unchanged.
func MapDisplayToCanonical(schema *Schema, header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if f, ok := schema.Canonical(h); ok {
			out[i] = f
			continue
		}
		out[i] = h
	}
	return out
}
