// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package filters maps search state to and from URL query parameters.
//
// Fixed filters use their own keys (category_id, price_min, price_max,
// location, verified_only, q, sort, page). Category fields use
// "catalog_field_<name>" and are encoded with the same stringification as
// advert specifics, so a filter value compares directly against the stored
// string.
package filters

import (
	"errors"
	"log/slog"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"classifieds/internal/catalog"
	"classifieds/internal/specifics"
)

// FieldPrefix precedes category field names in query parameters.
const FieldPrefix = "catalog_field_"

// Sort orders search results.
type Sort string

const (
	SortDateDesc  Sort = "date-desc"
	SortDateAsc   Sort = "date-asc"
	SortPriceAsc  Sort = "price-asc"
	SortPriceDesc Sort = "price-desc"
)

// DefaultSort shows the newest adverts first.
const DefaultSort = SortDateDesc

// ParseSort returns the sort named by s, or DefaultSort.
func ParseSort(s string) Sort {
	switch Sort(s) {
	case SortDateDesc, SortDateAsc, SortPriceAsc, SortPriceDesc:
		return Sort(s)
	}
	return DefaultSort
}

// Filters is the complete search state.
type Filters struct {
	CategoryID   uuid.UUID
	PriceMin     *float64
	PriceMax     *float64
	Location     string
	VerifiedOnly bool
	Query        string
	Sort         Sort
	Page         int
	// Fields holds typed category field values keyed by field name.
	Fields catalog.Values
}

// Decode reads filters from query parameters. defs are the category's
// fields; they are treated as optional and values that do not fit their
// field are dropped.
func Decode(q url.Values, defs []catalog.FieldDefinition) Filters {
	f := Filters{
		Location:     strings.TrimSpace(q.Get("location")),
		VerifiedOnly: truthy(q.Get("verified_only")),
		Query:        strings.TrimSpace(q.Get("q")),
		Sort:         ParseSort(q.Get("sort")),
		PriceMin:     parsePrice(q.Get("price_min")),
		PriceMax:     parsePrice(q.Get("price_max")),
	}
	if id, err := uuid.Parse(q.Get("category_id")); err == nil {
		f.CategoryID = id
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 1 {
		f.Page = p
	}

	for _, d := range defs {
		raw, ok := q[FieldPrefix+d.Name]
		if !ok {
			continue
		}
		if d.Type == catalog.FieldMultiselect {
			raw = splitList(raw)
		}
		if d.TriState {
			raw = triStateInput(raw)
		}
		if d.Type == catalog.FieldCheckbox {
			raw = checkboxInput(raw)
		}
		d.Optional = true
		v, err := catalog.ParseInput(d, raw)
		if err != nil {
			var ie *catalog.InputError
			if !errors.As(err, &ie) {
				slog.Warn("filter field skipped", "field", d.Name, "error", err)
			}
			continue
		}
		if v == nil {
			continue
		}
		if f.Fields == nil {
			f.Fields = make(catalog.Values)
		}
		f.Fields[d.Name] = v
	}

	f.Normalize()
	return f
}

// Normalize corrects values that cannot be applied as given: an inverted
// price range is swapped and an out-of-range page is reset.
func (f *Filters) Normalize() {
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		f.PriceMin, f.PriceMax = f.PriceMax, f.PriceMin
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Sort == "" {
		f.Sort = DefaultSort
	}
}

// Specifics returns the category field filters in stored string form.
func (f Filters) Specifics() specifics.Specifics {
	return specifics.Encode(specifics.Form{Values: f.Fields})
}

// Encode serializes the filters into query parameters. Unset values are
// left out so equal filters always produce the same URL.
func (f Filters) Encode() url.Values {
	q := url.Values{}
	if f.CategoryID != uuid.Nil {
		q.Set("category_id", f.CategoryID.String())
	}
	if f.PriceMin != nil {
		q.Set("price_min", strconv.FormatFloat(*f.PriceMin, 'f', -1, 64))
	}
	if f.PriceMax != nil {
		q.Set("price_max", strconv.FormatFloat(*f.PriceMax, 'f', -1, 64))
	}
	if f.Location != "" {
		q.Set("location", f.Location)
	}
	if f.VerifiedOnly {
		q.Set("verified_only", "true")
	}
	if f.Query != "" {
		q.Set("q", f.Query)
	}
	if f.Sort != "" && f.Sort != DefaultSort {
		q.Set("sort", string(f.Sort))
	}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	for k, v := range f.Specifics() {
		q.Set(FieldPrefix+k, v)
	}
	return q
}

// URL returns path with the encoded filters as its query string.
func (f Filters) URL(path string) string {
	q := f.Encode().Encode()
	if q == "" {
		return path
	}
	return path + "?" + q
}

// With returns a copy of f with one category field changed. A nil value
// removes the filter. Any change returns to the first page.
func (f Filters) With(name string, v any) Filters {
	out := f
	out.Fields = make(catalog.Values, len(f.Fields)+1)
	for k, val := range f.Fields {
		out.Fields[k] = val
	}
	if v == nil {
		delete(out.Fields, name)
	} else {
		out.Fields[name] = v
	}
	out.Page = 1
	return out
}

// FieldNames returns the names of the active category field filters in
// sorted order.
func (f Filters) FieldNames() []string {
	names := make([]string, 0, len(f.Fields))
	for k := range f.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// parsePrice reads a price bound. Negative, non-finite and malformed values
// are ignored.
func parsePrice(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// splitList accepts multiselect values both as repeated parameters and as
// one comma-joined parameter.
func splitList(raw []string) []string {
	var out []string
	for _, r := range raw {
		out = append(out, strings.Split(r, ",")...)
	}
	return out
}

// triStateInput maps the stored yes/no form of a tri-state field back to
// the option value it was encoded from.
func triStateInput(raw []string) []string {
	if len(raw) == 0 {
		return raw
	}
	switch strings.ToLower(strings.TrimSpace(raw[0])) {
	case "true", "yes":
		return []string{"yes"}
	case "false", "no":
		return []string{"no"}
	}
	return raw
}

// checkboxInput maps the stored yes form of a checkbox filter, and the
// spellings a hand-edited URL may use, to the submitted form value.
func checkboxInput(raw []string) []string {
	if len(raw) > 0 && truthy(raw[0]) {
		return []string{"on"}
	}
	return nil
}
