// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// FieldType is the input control a field is rendered with.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldNumber      FieldType = "number"
	FieldSelect      FieldType = "select"
	FieldMultiselect FieldType = "multiselect"
	FieldCheckbox    FieldType = "checkbox"
	FieldDate        FieldType = "date"
	FieldTextarea    FieldType = "textarea"
	FieldRange       FieldType = "range"
)

// Known reports whether t is one of the supported field types.
func (t FieldType) Known() bool {
	switch t {
	case FieldText, FieldNumber, FieldSelect, FieldMultiselect,
		FieldCheckbox, FieldDate, FieldTextarea, FieldRange:
		return true
	}
	return false
}

// Values is the current form state, keyed by field name. Values hold one of
// string, float64, int64, bool, []string, or nil.
type Values map[string]any

// Option is one selectable value of a select or multiselect field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldDefinition describes a single advert attribute.
type FieldDefinition struct {
	Name        string     `json:"name"`
	Type        FieldType  `json:"type"`
	Label       string     `json:"label"`
	Placeholder string     `json:"placeholder,omitempty"`
	Required    bool       `json:"required,omitempty"`
	Optional    bool       `json:"optional,omitempty"`
	Min         *float64   `json:"min,omitempty"`
	Max         *float64   `json:"max,omitempty"`
	Step        *float64   `json:"step,omitempty"`
	Unit        string     `json:"unit,omitempty"`
	Options     []Option   `json:"options,omitempty"`
	HelpText    string     `json:"helpText,omitempty"`
	Validation  string     `json:"validation,omitempty"`
	Group       string     `json:"group,omitempty"`
	Conditional *Condition `json:"conditional,omitempty"`
	Hidden      bool       `json:"hidden,omitempty"`

	// Integer makes number fields parse as whole numbers.
	Integer bool `json:"integer,omitempty"`
	// TriState marks a yes/no select whose value is a bool, where an
	// unanswered field stays unset.
	TriState bool `json:"triState,omitempty"`
	// Source names the reference-data endpoint that supplies Options.
	Source string `json:"source,omitempty"`
	// StepIndex is the position of the schema step the field was declared in.
	StepIndex int `json:"-"`
}

// Visible reports whether the field should be rendered for the given form
// state. Hidden fields are never visible; conditional fields are visible
// only while their condition matches.
func (f FieldDefinition) Visible(values Values) bool {
	if f.Hidden {
		return false
	}
	if f.Conditional != nil && !f.Conditional.Match(values) {
		return false
	}
	return true
}

// HasOption reports whether v is one of the field's option values.
func (f FieldDefinition) HasOption(v string) bool {
	for _, o := range f.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

// OptionLabel returns the label for an option value, or the value itself.
func (f FieldDefinition) OptionLabel(v string) string {
	for _, o := range f.Options {
		if o.Value == v {
			return o.Label
		}
	}
	return v
}

// Condition is a visibility predicate evaluated against the form state.
// A condition built from a single value tests equality; one built from a
// list tests membership.
type Condition struct {
	Field  string
	Values []string
	OneOf  bool
}

// Equals returns a condition that holds when field equals value.
func Equals(field string, value any) *Condition {
	s, _ := scalarString(value)
	return &Condition{Field: field, Values: []string{s}}
}

// OneOf returns a condition that holds when field is one of values.
func OneOf(field string, values ...string) *Condition {
	return &Condition{Field: field, Values: values, OneOf: true}
}

// Match evaluates the condition against the form state.
func (c *Condition) Match(values Values) bool {
	current, ok := scalarString(values[c.Field])
	if !ok {
		return false
	}
	if !c.OneOf {
		return len(c.Values) == 1 && c.Values[0] == current
	}
	for _, v := range c.Values {
		if v == current {
			return true
		}
	}
	return false
}

type conditionWire struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON writes the condition as {field, value} with value a scalar or
// an array, mirroring how it was authored.
func (c *Condition) MarshalJSON() ([]byte, error) {
	var value any = c.Values
	if !c.OneOf {
		if len(c.Values) == 1 {
			value = c.Values[0]
		} else {
			value = nil
		}
	}
	return json.Marshal(struct {
		Field string `json:"field"`
		Value any    `json:"value"`
	}{c.Field, value})
}

// UnmarshalJSON accepts a scalar or array value.
func (c *Condition) UnmarshalJSON(b []byte) error {
	var w conditionWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Field == "" {
		return fmt.Errorf("catalog: conditional without field")
	}
	c.Field = w.Field

	var list []any
	if err := json.Unmarshal(w.Value, &list); err == nil {
		c.OneOf = true
		c.Values = make([]string, 0, len(list))
		for _, item := range list {
			s, ok := scalarString(item)
			if !ok {
				return fmt.Errorf("catalog: conditional %q has non-scalar value", w.Field)
			}
			c.Values = append(c.Values, s)
		}
		return nil
	}

	var scalar any
	if err := json.Unmarshal(w.Value, &scalar); err != nil {
		return fmt.Errorf("catalog: conditional %q value: %w", w.Field, err)
	}
	s, ok := scalarString(scalar)
	if !ok {
		return fmt.Errorf("catalog: conditional %q has non-scalar value", w.Field)
	}
	c.OneOf = false
	c.Values = []string{s}
	return nil
}

// scalarString renders a scalar form value for comparison. It reports
// false for nil, lists, and non-finite numbers.
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", false
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case json.Number:
		return x.String(), true
	}
	return "", false
}

// ValidateConditionals checks that every conditional references another
// field of the same set and that no conditional chain loops back on itself.
func ValidateConditionals(defs []FieldDefinition) error {
	byName := make(map[string]FieldDefinition, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}

	for _, d := range defs {
		if d.Conditional == nil {
			continue
		}
		if d.Conditional.Field == d.Name {
			return fmt.Errorf("catalog: field %q is conditional on itself", d.Name)
		}
		if _, ok := byName[d.Conditional.Field]; !ok {
			return fmt.Errorf("catalog: field %q is conditional on unknown field %q", d.Name, d.Conditional.Field)
		}

		seen := map[string]bool{d.Name: true}
		cur := byName[d.Conditional.Field]
		for {
			if seen[cur.Name] {
				return fmt.Errorf("catalog: conditional cycle through field %q", cur.Name)
			}
			seen[cur.Name] = true
			if cur.Conditional == nil {
				break
			}
			next, ok := byName[cur.Conditional.Field]
			if !ok {
				break
			}
			cur = next
		}
	}
	return nil
}
