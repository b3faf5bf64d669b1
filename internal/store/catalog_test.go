// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"classifieds/internal/catalog"
)

func TestCatalogStoreSchema(t *testing.T) {
	db := testDB(t)
	s := NewCatalogStore(db)
	ctx := context.Background()

	prefix := "st_" + uuid.NewString()[:6] + "_"
	kind, seats := prefix+"kind", prefix+"seats"
	t.Cleanup(func() { db.Exec("DELETE FROM catalog_fields WHERE name LIKE $1", prefix+"%") })

	defs := []catalog.FieldDefinition{
		{Name: kind, Type: catalog.FieldSelect, Label: "Kind", Required: true,
			Options: []catalog.Option{{Value: "sofa", Label: "Sofa"}, {Value: "table", Label: "Table"}}},
		{Name: seats, Type: catalog.FieldNumber, Label: "Seats", Integer: true, Conditional: catalog.Equals(kind, "sofa")},
	}
	for _, d := range defs {
		if err := s.SaveField(ctx, d); err != nil {
			t.Fatalf("SaveField %s: %v", d.Name, err)
		}
	}
	if err := s.SaveField(ctx, catalog.FieldDefinition{Name: prefix + "bad", Type: "colorpicker"}); err == nil {
		t.Error("SaveField accepted an unknown type")
	}

	cat := newCategoryPath(t, db, "home/furniture")
	if p, err := s.FetchSchema(ctx, cat.ID, "en"); err != nil || p != nil {
		t.Fatalf("FetchSchema without schema = %v, %v", p, err)
	}

	raw := []byte(`{"version": 3, "steps": [
		{"key": "details", "groups": [{"key": "main", "fields": [{"field_key": "` + kind + `"}]}]},
		{"key": "more", "groups": [{"key": "extra", "fields": [{"field_key": "` + seats + `", "max_value": 8}]}]}
	]}`)
	if err := s.SaveSchema(ctx, cat.ID, raw); err != nil {
		t.Fatalf("SaveSchema: %v", err)
	}
	if err := s.SaveSchema(ctx, cat.ID, []byte(`{"steps": "nope"}`)); err == nil {
		t.Error("SaveSchema accepted an invalid document")
	}

	p, err := s.FetchSchema(ctx, cat.ID, "en")
	if err != nil {
		t.Fatalf("FetchSchema: %v", err)
	}
	if !p.Usable() || p.Schema.Version != 3 || len(p.Fields) != 2 {
		t.Fatalf("payload = %+v", p)
	}
	if p.Fields[seats].Conditional == nil || p.Fields[seats].Conditional.Field != kind {
		t.Errorf("conditional not restored: %+v", p.Fields[seats])
	}

	fs := catalog.NewRegistry(s, nil).Lookup(ctx, cat.ID, cat.Path, "en")
	if !fs.Available || len(fs.Fields) != 2 {
		t.Fatalf("registry lookup = %+v", fs)
	}
	if f, _ := fs.Field(seats); f.Max == nil || *f.Max != 8 {
		t.Errorf("schema override not applied: %+v", f)
	}
}

func TestCatalogStoreReferences(t *testing.T) {
	db := testDB(t)
	s := NewCatalogStore(db)
	ctx := context.Background()

	source := "test-" + uuid.NewString()[:8]
	t.Cleanup(func() { db.Exec("DELETE FROM reference_items WHERE source = $1", source) })

	rows := []struct {
		id, parent, names string
		sort              int
	}{
		{"a4", "audi", `{"en": "A4"}`, 2},
		{"a3", "audi", `{"en": "A3", "ro": "A3 Sportback"}`, 1},
		{"x5", "bmw", `{}`, 1},
	}
	for _, r := range rows {
		if _, err := db.Exec(`INSERT INTO reference_items (source, id, parent_id, names, sort) VALUES ($1, $2, $3, $4, $5)`,
			source, r.id, r.parent, r.names, r.sort); err != nil {
			t.Fatal(err)
		}
	}

	opts, err := s.ReferenceOptions(ctx, source, "audi", "ro")
	if err != nil {
		t.Fatal(err)
	}
	want := []catalog.Option{{Value: "a3", Label: "A3 Sportback"}, {Value: "a4", Label: "A4"}}
	if len(opts) != len(want) || opts[0] != want[0] || opts[1] != want[1] {
		t.Errorf("options = %v, want %v", opts, want)
	}

	all, err := s.ReferenceItems(ctx, source, "", "en")
	if err != nil || len(all) != 3 {
		t.Fatalf("all items = %v, %v", all, err)
	}
	for _, it := range all {
		if it.ID == "x5" && it.Name != "x5" {
			t.Errorf("name fallback = %q, want id", it.Name)
		}
	}

	none, err := s.ReferenceOptions(ctx, "no-such-source", "", "en")
	if err != nil || len(none) != 0 {
		t.Errorf("unknown source = %v, %v", none, err)
	}
}
