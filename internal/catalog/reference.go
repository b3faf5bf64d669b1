// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"log/slog"
)

// ReferenceSource loads the rows of a reference-data list such as vehicle
// makes or EPC ratings. parent filters dependent lists (models of a make)
// and is empty otherwise.
type ReferenceSource interface {
	ReferenceOptions(ctx context.Context, source, parent, locale string) ([]Option, error)
}

// referenceParents names the field whose value filters a dependent source.
var referenceParents = map[string]string{
	SourceVehicleModels: "make_id",
	SourceDeviceModels:  "brand_id",
}

// ParentField returns the field a dependent source is filtered by.
func ParentField(source string) (string, bool) {
	f, ok := referenceParents[source]
	return f, ok
}

// ResolveOptions fills the options of every reference-backed field in defs.
// A dependent list whose parent has no value stays empty. A failed load is
// logged and leaves that list empty.
func ResolveOptions(ctx context.Context, src ReferenceSource, defs []FieldDefinition, values Values, locale string) []FieldDefinition {
	out := make([]FieldDefinition, len(defs))
	copy(out, defs)
	if src == nil {
		return out
	}

	for i, d := range out {
		if d.Source == "" {
			continue
		}
		parent := ""
		if pf, ok := ParentField(d.Source); ok {
			parent, _ = scalarString(values[pf])
			if parent == "" {
				out[i].Options = nil
				continue
			}
		}
		opts, err := src.ReferenceOptions(ctx, d.Source, parent, locale)
		if err != nil {
			slog.Warn("reference data unavailable", "source", d.Source, "error", err)
			out[i].Options = nil
			continue
		}
		out[i].Options = opts
	}
	return out
}

// ReferenceLabel looks up the display name of a reference id. It returns
// false when the list cannot be loaded or has no such id.
func ReferenceLabel(ctx context.Context, src ReferenceSource, source, parent, id, locale string) (string, bool) {
	if src == nil || id == "" {
		return "", false
	}
	opts, err := src.ReferenceOptions(ctx, source, parent, locale)
	if err != nil {
		slog.Warn("reference data unavailable", "source", source, "error", err)
		return "", false
	}
	for _, o := range opts {
		if o.Value == id {
			return o.Label, true
		}
	}
	return "", false
}
