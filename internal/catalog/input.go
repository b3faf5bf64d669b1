// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of date field values.
const DateLayout = "2006-01-02"

// InputError reports a submitted value that does not satisfy its field.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func inputErr(f FieldDefinition, format string, args ...any) error {
	return &InputError{Field: f.Name, Message: fmt.Sprintf(format, args...)}
}

// ParseInput coerces the raw submitted values of one form control into the
// field's typed value. A nil result means the field is unset.
//
// Empty number input is nil, never zero. Checkboxes are true only for the
// exact values "true" and "on". Multiselect keeps submission order and drops
// repeats.
func ParseInput(f FieldDefinition, raw []string) (any, error) {
	first := ""
	if len(raw) > 0 {
		first = strings.TrimSpace(raw[0])
	}

	switch f.Type {
	case FieldText, FieldTextarea:
		if first == "" {
			return nil, nil
		}
		if f.Validation != "" {
			re, err := regexp.Compile("^(?:" + f.Validation + ")$")
			if err != nil {
				return nil, fmt.Errorf("catalog: field %q pattern: %w", f.Name, err)
			}
			if !re.MatchString(first) {
				return nil, inputErr(f, "does not match the expected format")
			}
		}
		return first, nil

	case FieldNumber, FieldRange:
		if first == "" {
			return nil, nil
		}
		return parseNumber(f, first)

	case FieldSelect:
		if first == "" {
			return nil, nil
		}
		if !f.HasOption(first) {
			return nil, inputErr(f, "unknown option %q", first)
		}
		if f.TriState {
			return first == "yes", nil
		}
		return first, nil

	case FieldMultiselect:
		var out []string
		for _, v := range raw {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if !f.HasOption(v) {
				return nil, inputErr(f, "unknown option %q", v)
			}
			out = Toggle(out, v, true)
		}
		if len(out) == 0 {
			return nil, nil
		}
		return out, nil

	case FieldCheckbox:
		if first == "true" || first == "on" {
			return true, nil
		}
		return nil, nil

	case FieldDate:
		if first == "" {
			return nil, nil
		}
		d, err := time.Parse(DateLayout, first)
		if err != nil {
			return nil, inputErr(f, "expected a date as YYYY-MM-DD")
		}
		if f.Min != nil && d.Before(dateFromMillis(*f.Min)) {
			return nil, inputErr(f, "must not be before %s", DateBound(*f.Min))
		}
		if f.Max != nil && d.After(dateFromMillis(*f.Max)) {
			return nil, inputErr(f, "must not be after %s", DateBound(*f.Max))
		}
		return first, nil
	}

	return nil, fmt.Errorf("catalog: field %q has unsupported type %q", f.Name, f.Type)
}

func parseNumber(f FieldDefinition, s string) (any, error) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, inputErr(f, "expected a number")
	}
	if f.Min != nil && n < *f.Min {
		return nil, inputErr(f, "must be at least %s", strconv.FormatFloat(*f.Min, 'f', -1, 64))
	}
	if f.Max != nil && n > *f.Max {
		return nil, inputErr(f, "must be at most %s", strconv.FormatFloat(*f.Max, 'f', -1, 64))
	}
	if f.Integer {
		if n != math.Trunc(n) {
			return nil, inputErr(f, "expected a whole number")
		}
		return int64(n), nil
	}
	return n, nil
}

// Toggle adds or removes v from list. Adding a present value or removing an
// absent one returns the list unchanged, so repeated toggles are idempotent.
func Toggle(list []string, v string, on bool) []string {
	idx := -1
	for i, item := range list {
		if item == v {
			idx = i
			break
		}
	}
	switch {
	case on && idx < 0:
		return append(list, v)
	case !on && idx >= 0:
		out := make([]string, 0, len(list)-1)
		out = append(out, list[:idx]...)
		return append(out, list[idx+1:]...)
	}
	return list
}

// DateBound converts a millisecond timestamp bound to the YYYY-MM-DD form
// used by date inputs.
func DateBound(ms float64) string {
	return dateFromMillis(ms).Format(DateLayout)
}

func dateFromMillis(ms float64) time.Time {
	t := time.UnixMilli(int64(ms)).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MissingRequired returns the names of visible required fields that have
// no value in the form.
func MissingRequired(defs []FieldDefinition, values Values) []string {
	var missing []string
	for _, d := range defs {
		if !d.Required || d.Optional || !d.Visible(values) {
			continue
		}
		if isEmpty(values[d.Name]) {
			missing = append(missing, d.Name)
		}
	}
	return missing
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []string:
		return len(x) == 0
	case float64:
		return math.IsNaN(x)
	}
	return false
}
