// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package render

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"strconv"
	"strings"

	"classifieds/internal/catalog"
	"classifieds/internal/filters"
	"classifieds/internal/specifics"
)

//go:embed templates/fields/*.html
var fieldFS embed.FS

var fieldTemplates = template.Must(template.New("fields").ParseFS(fieldFS, "templates/fields/*.html"))

// fieldView is the data a field control template is executed with.
type fieldView struct {
	Def      catalog.FieldDefinition
	Name     string
	ID       string
	Value    string
	Selected map[string]bool
	Checked  bool
	Required bool
	Pattern  string
	Min      string
	Max      string
	Step     string
}

// Field renders the form control of one field. It renders nothing for a
// hidden field, for a conditional field whose condition does not match the
// current form state, and for an unknown field type.
func Field(f catalog.FieldDefinition, value any, form catalog.Values) template.HTML {
	return field(f, value, form, f.Name)
}

// FilterField renders a field as a search filter: never required, and
// submitted under its "catalog_field_" query key.
func FilterField(f catalog.FieldDefinition, value any, form catalog.Values) template.HTML {
	f.Optional = true
	return field(f, value, form, filters.FieldPrefix+f.Name)
}

func field(f catalog.FieldDefinition, value any, form catalog.Values, name string) template.HTML {
	if !f.Visible(form) {
		return ""
	}
	if !f.Type.Known() {
		slog.Warn("unknown field type", "field", f.Name, "type", f.Type)
		return ""
	}

	v := fieldView{
		Def:      f,
		Name:     name,
		ID:       "field-" + strings.ReplaceAll(name, "_", "-"),
		Required: f.Required && !f.Optional,
		Pattern:  f.Validation,
		Min:      number(f.Min),
		Max:      number(f.Max),
		Step:     number(f.Step),
		Selected: make(map[string]bool),
	}

	switch f.Type {
	case catalog.FieldMultiselect:
		for _, s := range listValue(value) {
			v.Selected[s] = true
		}
	case catalog.FieldCheckbox:
		v.Checked = value == true
	case catalog.FieldDate:
		if f.Min != nil {
			v.Min = catalog.DateBound(*f.Min)
		}
		if f.Max != nil {
			v.Max = catalog.DateBound(*f.Max)
		}
		v.Value, _ = specifics.EncodeValue(value)
	case catalog.FieldRange:
		v.Value, _ = specifics.EncodeValue(value)
		if v.Value == "" {
			v.Value = v.Min
		}
	case catalog.FieldSelect:
		v.Value, _ = specifics.EncodeValue(value)
		v.Selected[v.Value] = true
	default:
		v.Value, _ = specifics.EncodeValue(value)
	}

	var buf bytes.Buffer
	if err := fieldTemplates.ExecuteTemplate(&buf, string(f.Type), v); err != nil {
		slog.Error("field render failed", "field", f.Name, "error", err)
		return ""
	}
	return template.HTML(buf.String())
}

// Group renders, in order, the fields of defs that belong to group. Fields
// of other groups are skipped.
func Group(group string, defs []catalog.FieldDefinition, form catalog.Values) template.HTML {
	var b strings.Builder
	for _, d := range defs {
		if d.Group != group {
			continue
		}
		b.WriteString(string(Field(d, form[d.Name], form)))
	}
	return template.HTML(b.String())
}

// SchemaGroup renders one group of a remote schema inside a fieldset with
// the group's layout. title is the already translated group title. An
// empty group renders nothing.
func SchemaGroup(g catalog.Group, title string, defs []catalog.FieldDefinition, form catalog.Values) template.HTML {
	body := Group(g.Key, defs, form)
	if body == "" {
		return ""
	}
	layout := g.Layout
	if layout == "" {
		layout = "single"
	}

	var buf bytes.Buffer
	err := fieldTemplates.ExecuteTemplate(&buf, "group", map[string]any{
		"Key":    g.Key,
		"Title":  title,
		"Layout": layout,
		"Body":   body,
	})
	if err != nil {
		slog.Error("group render failed", "group", g.Key, "error", err)
		return ""
	}
	return template.HTML(buf.String())
}

func number(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func listValue(v any) []string {
	switch x := v.(type) {
	case []string:
		return x
	case string:
		if x == "" {
			return nil
		}
		return strings.Split(x, ",")
	}
	return nil
}
