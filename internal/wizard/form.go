// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package wizard

import (
	"errors"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"classifieds/internal/catalog"
	"classifieds/internal/specifics"
)

// stepGroups maps attribute steps to the static field groups shown on them.
var stepGroups = map[Step]string{
	StepBasics:    catalog.GroupBasic,
	StepMechanics: catalog.GroupSpecs,
	StepPricing:   catalog.GroupCondition,
	StepContact:   catalog.GroupContact,
}

// FieldsForStep returns the fields shown on an attribute step. Schema-driven
// sets put their first schema step on the basics page and everything else
// on the mechanics page.
func FieldsForStep(fs catalog.FieldSet, step Step) []catalog.FieldDefinition {
	if !fs.Available {
		return nil
	}
	if fs.Schema != nil {
		var out []catalog.FieldDefinition
		for _, f := range fs.Fields {
			switch {
			case step == StepBasics && f.StepIndex == 0:
				out = append(out, f)
			case step == StepMechanics && f.StepIndex > 0:
				out = append(out, f)
			}
		}
		return out
	}
	group, ok := stepGroups[step]
	if !ok {
		return nil
	}
	return fs.InGroup(group)
}

// FieldErrors collects per-field input problems.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	names := make([]string, 0, len(e))
	for n := range e {
		names = append(names, n)
	}
	sort.Strings(names)
	return "wizard: invalid fields: " + strings.Join(names, ", ")
}

// ApplyFields parses the submitted values of defs into the state's
// attributes. Every key of defs is rewritten: fields left empty or hidden
// by their condition lose their stored value. Nothing changes when any
// field is invalid.
func ApplyFields(st *State, defs []catalog.FieldDefinition, kinds specifics.Kinds, form url.Values) error {
	current := specifics.Decode(st.Attributes, kinds).Values
	parsed := make(catalog.Values, len(defs))
	errs := make(FieldErrors)

	for _, d := range defs {
		if d.Hidden {
			continue
		}
		v, err := catalog.ParseInput(d, form[d.Name])
		if err != nil {
			var ie *catalog.InputError
			if errors.As(err, &ie) {
				errs[d.Name] = ie.Message
				continue
			}
			return err
		}
		parsed[d.Name] = v
		current[d.Name] = v
	}

	for _, d := range defs {
		if d.Visible(current) {
			continue
		}
		parsed[d.Name] = nil
		delete(errs, d.Name)
	}

	for _, name := range catalog.MissingRequired(defs, current) {
		if _, bad := errs[name]; !bad {
			errs[name] = "required"
		}
	}
	if len(errs) > 0 {
		return errs
	}

	keys := make([]string, 0, len(defs))
	for _, d := range defs {
		if !d.Hidden {
			keys = append(keys, d.Name)
		}
	}
	st.MergeAttributes(specifics.Encode(specifics.Form{Values: parsed}), keys)
	return nil
}

// ApplyOptions records the vehicle options step. A checked option is sent
// as "option_<category>_<code>"; its variant, if any, as
// "variant_<category>_<code>".
func ApplyOptions(st *State, form url.Values) {
	selected := make(map[string]string)
	keys := make([]string, 0, len(catalog.VehicleOptions))
	for _, o := range catalog.VehicleOptions {
		keys = append(keys, specifics.OptionPrefix+o.Key())
		if !checked(form.Get(specifics.OptionPrefix + o.Key())) {
			continue
		}
		value := "true"
		if len(o.Variants) > 0 {
			if v := form.Get("variant_" + o.Key()); variantAllowed(o, v) {
				value = v
			}
		}
		selected[o.Key()] = value
	}
	st.MergeAttributes(specifics.Encode(specifics.Form{Options: selected}), keys)
}

func checked(v string) bool {
	return v == "true" || v == "on"
}

func variantAllowed(o catalog.VehicleOption, v string) bool {
	for _, variant := range o.Variants {
		if variant.Value == v {
			return true
		}
	}
	return false
}

// ApplyPricing records step 5's fixed fields.
func ApplyPricing(st *State, form url.Values) error {
	p := &Pricing{
		Title:       strings.TrimSpace(form.Get("title")),
		Description: strings.TrimSpace(form.Get("description")),
		Currency:    strings.ToUpper(strings.TrimSpace(form.Get("currency"))),
	}
	if raw := strings.TrimSpace(form.Get("price")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			return FieldErrors{"price": "expected a non-negative number"}
		}
		p.Price = &price
	}
	st.Pricing = p
	return nil
}

// ApplyContact records step 7's fixed fields.
func ApplyContact(st *State, form url.Values) {
	st.Contact = &Contact{Location: strings.TrimSpace(form.Get("location"))}
}
