// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package specifics converts between typed advert form state and the flat
// string map stored alongside each advert.
//
// Every value is stored as a string: numbers in their shortest decimal form,
// booleans as "yes"/"no", multiselect lists comma-joined, and option flags
// under "option_<category>_<code>" keys. Unset values are never written.
package specifics

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"classifieds/internal/catalog"
)

// OptionPrefix marks keys that hold option flags.
const OptionPrefix = "option_"

// Specifics is the persisted attribute map of an advert.
type Specifics map[string]string

// Value implements driver.Valuer, storing the map as a JSON object.
func (s Specifics) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(map[string]string(s))
	if err != nil {
		return nil, fmt.Errorf("specifics: marshal: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner for jsonb columns.
func (s *Specifics) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = Specifics{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("specifics: cannot scan %T", src)
	}
	m := make(map[string]string)
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("specifics: unmarshal: %w", err)
	}
	*s = m
	return nil
}

// Kind is the logical type a stored string decodes to.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindList
)

// Kinds maps field names to their logical types. Keys not present decode
// as strings.
type Kinds map[string]Kind

// KindsFor derives decoding kinds from field definitions.
func KindsFor(defs []catalog.FieldDefinition) Kinds {
	kinds := make(Kinds, len(defs))
	for _, d := range defs {
		kinds[d.Name] = KindOf(d)
	}
	return kinds
}

// KindOf returns the logical type of a field's value.
func KindOf(d catalog.FieldDefinition) Kind {
	switch d.Type {
	case catalog.FieldNumber, catalog.FieldRange:
		if d.Integer {
			return KindInt
		}
		return KindFloat
	case catalog.FieldCheckbox:
		return KindBool
	case catalog.FieldMultiselect:
		return KindList
	case catalog.FieldSelect:
		if d.TriState {
			return KindBool
		}
	}
	return KindString
}

// Form is the typed in-memory form state.
type Form struct {
	Values catalog.Values
	// Options maps "<category>_<code>" to "true" or the chosen variant.
	Options map[string]string
}

// Encode flattens form state into specifics. Nil, empty, and NaN values and
// unselected options are omitted.
func Encode(f Form) Specifics {
	out := make(Specifics, len(f.Values)+len(f.Options))
	for k, v := range f.Values {
		if s, ok := EncodeValue(v); ok {
			out[k] = s
		}
	}
	for k, v := range f.Options {
		if k == "" || v == "" {
			continue
		}
		out[OptionPrefix+k] = v
	}
	return out
}

// EncodeValue stringifies a single typed value. It reports false when the
// value is unset and must not be written.
func EncodeValue(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, x != ""
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", false
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		if x {
			return "yes", true
		}
		return "no", true
	case []string:
		if len(x) == 0 {
			return "", false
		}
		return strings.Join(x, ","), true
	}
	return "", false
}

// Decode expands specifics back into form state. Option keys move into the
// Options map; other keys decode by kind. Values that fail to parse decode
// to nil.
func Decode(s Specifics, kinds Kinds) Form {
	f := Form{Values: make(catalog.Values, len(s)), Options: make(map[string]string)}
	for k, v := range s {
		if strings.HasPrefix(k, OptionPrefix) {
			f.Options[strings.TrimPrefix(k, OptionPrefix)] = v
			continue
		}
		f.Values[k] = DecodeValue(v, kinds[k])
	}
	return f
}

// DecodeValue parses one stored string as kind.
func DecodeValue(v string, kind Kind) any {
	switch kind {
	case KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil
		}
		return n
	case KindFloat:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		return n
	case KindBool:
		b, ok := parseBool(v)
		if !ok {
			return nil
		}
		return b
	case KindList:
		if v == "" {
			return nil
		}
		return strings.Split(v, ",")
	}
	return v
}

// parseBool reads the stored yes/no form. The true/false spelling written
// by older clients is accepted too.
func parseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true":
		return true, true
	case "no", "false":
		return false, true
	}
	return false, false
}

// Sanitize normalises an untrusted attribute object: keys and values are
// trimmed, non-string values stringified, lists comma-joined and empty
// entries dropped. Booleans are stored as yes/no, except option flags which
// keep "true".
func Sanitize(raw map[string]any) Specifics {
	out := make(Specifics, len(raw))
	for k, v := range raw {
		key := strings.TrimSpace(k)
		var val string
		switch x := v.(type) {
		case nil:
		case string:
			val = x
		case bool:
			switch {
			case strings.HasPrefix(key, OptionPrefix):
				if x {
					val = "true"
				}
			default:
				val, _ = EncodeValue(x)
			}
		case []any:
			parts := make([]string, 0, len(x))
			for _, e := range x {
				if e != nil {
					parts = append(parts, strings.TrimSpace(fmt.Sprint(e)))
				}
			}
			val = strings.Join(parts, ",")
		default:
			val = fmt.Sprint(x)
		}
		val = strings.TrimSpace(val)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	return out
}

// internalKeys are identifiers that are stored but never shown as free-text
// attributes.
var internalKeys = map[string]bool{
	"make_id":          true,
	"model_id":         true,
	"color_id":         true,
	"additional_phone": true,
	"generation_id":    true,
}

// Attribute is one human-readable specifics entry.
type Attribute struct {
	Key   string
	Label string
	Value string
}

// DisplayAttributes returns the entries suitable for an advert page, sorted
// by key. Internal identifiers, option flags, and hidden fields are left
// out. Labels and option values are resolved through defs when present.
func (s Specifics) DisplayAttributes(defs []catalog.FieldDefinition) []Attribute {
	byName := make(map[string]catalog.FieldDefinition, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}

	keys := make([]string, 0, len(s))
	for k := range s {
		if internalKeys[k] || strings.HasPrefix(k, OptionPrefix) {
			continue
		}
		if d, ok := byName[k]; ok && d.Hidden {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Attribute, 0, len(keys))
	for _, k := range keys {
		out = append(out, displayAttribute(k, s[k], byName))
	}
	return out
}

func displayAttribute(key, value string, defs map[string]catalog.FieldDefinition) Attribute {
	a := Attribute{Key: key, Label: strings.ReplaceAll(key, "_", " "), Value: value}
	d, ok := defs[key]
	if !ok {
		return a
	}
	a.Label = d.Label
	switch KindOf(d) {
	case KindBool:
		if b, ok := parseBool(value); ok && b {
			a.Value = "Yes"
		} else if ok {
			a.Value = "No"
		}
	case KindList:
		parts := strings.Split(value, ",")
		for i, p := range parts {
			parts[i] = d.OptionLabel(p)
		}
		a.Value = strings.Join(parts, ", ")
	default:
		if d.Type == catalog.FieldSelect {
			a.Value = d.OptionLabel(value)
		}
		if d.Unit != "" {
			a.Value += " " + d.Unit
		}
	}
	return a
}

// Options returns the option flags held by s, keyed without the prefix.
func (s Specifics) Options() map[string]string {
	out := make(map[string]string)
	for k, v := range s {
		if strings.HasPrefix(k, OptionPrefix) {
			out[strings.TrimPrefix(k, OptionPrefix)] = v
		}
	}
	return out
}
