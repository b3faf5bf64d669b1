// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// SchemaFetcher loads the schema payload for a category. A nil payload with
// a nil error means the category has no schema.
type SchemaFetcher interface {
	FetchSchema(ctx context.Context, categoryID uuid.UUID, locale string) (*Payload, error)
}

// SchemaCache stores schema payloads between lookups. Implementations must
// treat every failure as a miss.
type SchemaCache interface {
	GetSchema(ctx context.Context, categoryID uuid.UUID, locale string) (*Payload, bool)
	SetSchema(ctx context.Context, categoryID uuid.UUID, locale string, p *Payload)
}

// FieldSet is the resolved field list for one category.
type FieldSet struct {
	Type   CategoryType
	Fields []FieldDefinition
	// Schema is set only for fields that came from a remote schema.
	Schema *Schema
	// Available is false when a remote schema was needed but could not be
	// loaded. The dynamic fields section is hidden in that case.
	Available bool
}

// Field returns the definition with the given name.
func (s FieldSet) Field(name string) (FieldDefinition, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// InGroup returns the fields that belong to group, in order.
func (s FieldSet) InGroup(group string) []FieldDefinition {
	var out []FieldDefinition
	for _, f := range s.Fields {
		if f.Group == group {
			out = append(out, f)
		}
	}
	return out
}

// ForFilter returns a copy of the set with every field optional.
func (s FieldSet) ForFilter() FieldSet {
	out := s
	out.Fields = make([]FieldDefinition, len(s.Fields))
	for i, f := range s.Fields {
		f.Optional = true
		out.Fields[i] = f
	}
	if s.Schema != nil {
		out.Schema = s.Schema.ForFilter()
	}
	return out
}

// Registry resolves the field set of a category, either from the static
// sets or from the remote schema source.
type Registry struct {
	fetcher SchemaFetcher
	cache   SchemaCache
}

// NewRegistry creates a registry. cache may be nil.
func NewRegistry(fetcher SchemaFetcher, cache SchemaCache) *Registry {
	return &Registry{fetcher: fetcher, cache: cache}
}

// Lookup resolves the field set for a category identified by id and path.
// It never returns an error: fetch and decode failures downgrade to an
// unavailable set.
func (r *Registry) Lookup(ctx context.Context, categoryID uuid.UUID, path, locale string) FieldSet {
	t := DetectCategoryType(path)
	if t.Specialized() {
		return FieldSet{Type: t, Fields: StaticFields(t), Available: true}
	}

	unavailable := FieldSet{Type: t}
	if r.fetcher == nil || categoryID == uuid.Nil {
		return unavailable
	}

	if r.cache != nil {
		if p, ok := r.cache.GetSchema(ctx, categoryID, locale); ok && p.Usable() {
			return remoteSet(t, p)
		}
	}

	p, err := r.fetcher.FetchSchema(ctx, categoryID, locale)
	if err != nil {
		slog.Warn("catalog schema unavailable", "category_id", categoryID, "error", err)
		return unavailable
	}
	if !p.Usable() {
		slog.Debug("catalog schema missing", "category_id", categoryID)
		return unavailable
	}

	defs := p.Schema.Definitions(p.Fields)
	if err := ValidateConditionals(defs); err != nil {
		slog.Warn("catalog schema rejected", "category_id", categoryID, "error", err)
		return unavailable
	}

	if r.cache != nil {
		r.cache.SetSchema(ctx, categoryID, locale, p)
	}
	return FieldSet{Type: t, Fields: defs, Schema: p.Schema, Available: true}
}

func remoteSet(t CategoryType, p *Payload) FieldSet {
	return FieldSet{Type: t, Fields: p.Schema.Definitions(p.Fields), Schema: p.Schema, Available: true}
}
