// Package tables registers all document schemas with the core registry.
// Import this package to ensure all schemas are registered.
package tables

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/fxdesk/internal/core"
)

//go:embed schemas.yaml
var schemasYAML []byte

func init() {
	schemas, err := Load(bytes.NewReader(schemasYAML))
	if err != nil {
		panic(fmt.Sprintf("load built-in schemas: %v", err))
	}
	for _, s := range schemas {
		core.Register(s)
	}
}

// Load parses a YAML list of schema definitions and builds each one.
// Unknown keys are rejected so a typo in a rule does not silently disable it.
func Load(r io.Reader) ([]*core.Schema, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var defs []core.SchemaDefinition
	if err := dec.Decode(&defs); err != nil {
		return nil, fmt.Errorf("decode schemas: %w", err)
	}

	schemas := make([]*core.Schema, 0, len(defs))
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		s, err := core.NewSchema(def)
		if err != nil {
			return nil, err
		}
		if seen[s.Type()] {
			return nil, fmt.Errorf("schema %s defined twice", s.Type())
		}
		seen[s.Type()] = true
		schemas = append(schemas, s)
	}
	return schemas, nil
}
