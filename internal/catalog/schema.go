// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/steps.json
var schemaFS embed.FS

const stepsSchemaURL = "schemas/steps.json"

var stepsSchema = mustCompileSteps()

func mustCompileSteps() *jsonschema.Schema {
	f, err := schemaFS.Open(stepsSchemaURL)
	if err != nil {
		panic(fmt.Sprintf("catalog: open embedded schema: %v", err))
	}
	defer f.Close()

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(stepsSchemaURL, f); err != nil {
		panic(fmt.Sprintf("catalog: add embedded schema: %v", err))
	}
	s, err := compiler.Compile(stepsSchemaURL)
	if err != nil {
		panic(fmt.Sprintf("catalog: compile embedded schema: %v", err))
	}
	return s
}

// SchemaField places a field definition inside a group and may override
// its bounds for this schema.
type SchemaField struct {
	FieldKey       string   `json:"field_key"`
	Optional       bool     `json:"optional,omitempty"`
	LabelKey       string   `json:"label_i18n_key,omitempty"`
	PlaceholderKey string   `json:"placeholder_i18n_key,omitempty"`
	MinValue       *float64 `json:"min_value,omitempty"`
	MaxValue       *float64 `json:"max_value,omitempty"`
	Step           *float64 `json:"step,omitempty"`
}

// Group is a titled section of fields within a step.
type Group struct {
	Key      string        `json:"key"`
	TitleKey string        `json:"title_i18n_key,omitempty"`
	Layout   string        `json:"layout,omitempty"`
	Fields   []SchemaField `json:"fields,omitempty"`
}

// Step is one page of a schema-driven form.
type Step struct {
	Key      string  `json:"key"`
	TitleKey string  `json:"title_i18n_key,omitempty"`
	Groups   []Group `json:"groups,omitempty"`
}

// Schema is a versioned step/group/field layout for a category.
type Schema struct {
	Version int    `json:"version"`
	Steps   []Step `json:"steps"`
}

// Payload is what the schema endpoint returns for a category: the layout
// plus the definitions of every field it references.
type Payload struct {
	Schema *Schema                    `json:"schema"`
	Fields map[string]FieldDefinition `json:"fields"`
}

// Usable reports whether the payload carries both a schema and its fields.
func (p *Payload) Usable() bool {
	return p != nil && p.Schema != nil && p.Fields != nil
}

// ParseSchema validates a raw schema document and decodes it.
func ParseSchema(raw []byte) (*Schema, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("catalog: schema is not valid JSON: %w", err)
	}
	if err := stepsSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("catalog: schema validation failed: %w", err)
	}

	var s Schema
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("catalog: decode schema: %w", err)
	}
	return &s, nil
}

// FieldKeys returns every field key referenced by the schema, in layout
// order, each once.
func (s *Schema) FieldKeys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, step := range s.Steps {
		for _, g := range step.Groups {
			for _, f := range g.Fields {
				if f.FieldKey == "" || seen[f.FieldKey] {
					continue
				}
				seen[f.FieldKey] = true
				keys = append(keys, f.FieldKey)
			}
		}
	}
	return keys
}

// ForFilter returns a copy of the schema with every field optional.
func (s *Schema) ForFilter() *Schema {
	out := &Schema{Version: s.Version, Steps: make([]Step, len(s.Steps))}
	for i, step := range s.Steps {
		ns := Step{Key: step.Key, TitleKey: step.TitleKey, Groups: make([]Group, len(step.Groups))}
		for j, g := range step.Groups {
			ng := g
			ng.Fields = make([]SchemaField, len(g.Fields))
			for k, f := range g.Fields {
				f.Optional = true
				ng.Fields[k] = f
			}
			ns.Groups[j] = ng
		}
		out.Steps[i] = ns
	}
	return out
}

// Definitions flattens the schema into ordered field definitions, applying
// per-schema overrides. Keys with no definition in fields are skipped.
func (s *Schema) Definitions(fields map[string]FieldDefinition) []FieldDefinition {
	seen := make(map[string]bool)
	var defs []FieldDefinition
	for i, step := range s.Steps {
		for _, g := range step.Groups {
			for _, sf := range g.Fields {
				def, ok := fields[sf.FieldKey]
				if !ok || seen[sf.FieldKey] {
					continue
				}
				seen[sf.FieldKey] = true

				def.Name = sf.FieldKey
				def.Group = g.Key
				def.StepIndex = i
				if sf.Optional {
					def.Optional = true
				}
				if sf.MinValue != nil {
					def.Min = sf.MinValue
				}
				if sf.MaxValue != nil {
					def.Max = sf.MaxValue
				}
				if sf.Step != nil {
					def.Step = sf.Step
				}
				defs = append(defs, def)
			}
		}
	}
	return defs
}
