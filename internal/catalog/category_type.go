// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog describes the category-dependent attribute schema of an
// advert: which category bucket a category path belongs to, which fields
// that bucket exposes, when each field is visible, and how raw form input is
// coerced into typed values.
package catalog

import (
	"fmt"
	"strings"

	"classifieds/internal/slug"
)

// CategoryType is the closed set of domain buckets a category can belong to.
// It is computed from the category path and never persisted.
type CategoryType int

const (
	Generic CategoryType = iota
	Vehicle
	RealEstate
	Electronics
	Fashion
	Jobs
)

// AllCategoryTypes lists every CategoryType in declaration order.
var AllCategoryTypes = []CategoryType{Generic, Vehicle, RealEstate, Electronics, Fashion, Jobs}

// String returns the wire name of the category type.
func (t CategoryType) String() string {
	switch t {
	case Generic:
		return "generic"
	case Vehicle:
		return "vehicle"
	case RealEstate:
		return "real_estate"
	case Electronics:
		return "electronics"
	case Fashion:
		return "fashion"
	case Jobs:
		return "jobs"
	default:
		panic(fmt.Sprintf("catalog: unknown category type %d", int(t)))
	}
}

// ParseCategoryType converts a wire name back into a CategoryType.
func ParseCategoryType(s string) (CategoryType, error) {
	for _, t := range AllCategoryTypes {
		if t.String() == s {
			return t, nil
		}
	}
	return Generic, fmt.Errorf("catalog: invalid category type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t CategoryType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *CategoryType) UnmarshalText(b []byte) error {
	parsed, err := ParseCategoryType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Specialized reports whether the type uses a statically compiled field set.
// Specialized types are excluded from remote schema lookups.
func (t CategoryType) Specialized() bool {
	switch t {
	case Vehicle, RealEstate, Electronics, Fashion, Jobs:
		return true
	case Generic:
		return false
	default:
		panic(fmt.Sprintf("catalog: unknown category type %d", int(t)))
	}
}

// UsesRemoteSchema reports whether fields for this type come from the
// remote catalog schema endpoint.
func (t CategoryType) UsesRemoteSchema() bool {
	return !t.Specialized()
}

// detectionRule maps a category type to the path fragments that select it.
// Fragments cover both transliterated Russian and English slugs.
type detectionRule struct {
	typ       CategoryType
	fragments []string
}

// detectionRules are evaluated in order; the first rule with a matching
// fragment wins.
var detectionRules = []detectionRule{
	{Vehicle, []string{"transport", "avtomobil", "mototekhn", "motorcycle", "truck", "car", "vehicle"}},
	{RealEstate, []string{"nedvizhimost", "real-estate", "real_estate", "kvartir", "apartment", "house", "prodazha", "arenda"}},
	{Electronics, []string{"elektronika", "electronics", "phone", "computer", "laptop", "tv", "audio", "photo", "appliance"}},
	{Fashion, []string{"lichnye-veshchi", "fashion", "odezhda", "clothing", "garderob", "obuv", "shoes", "aksessuar"}},
	{Jobs, []string{"rabota", "jobs", "career", "vacancy"}},
}

// DetectCategoryType maps a category path or slug to its CategoryType.
// Empty or unrecognised input yields Generic.
//
// Example: "vehicles/cars" → Vehicle.
func DetectCategoryType(pathOrSlug string) CategoryType {
	s := slug.Transliterate(strings.TrimSpace(pathOrSlug))
	if s == "" {
		return Generic
	}
	for _, rule := range detectionRules {
		for _, frag := range rule.fragments {
			if strings.Contains(s, frag) {
				return rule.typ
			}
		}
	}
	return Generic
}
