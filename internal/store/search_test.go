// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"classifieds/internal/catalog"
	"classifieds/internal/filters"
	"classifieds/internal/models"
	"classifieds/internal/specifics"
)

func floatPtr(v float64) *float64 { return &v }

func TestApplyFilters(t *testing.T) {
	cat := uuid.New()
	defs := []catalog.FieldDefinition{
		{Name: "fuel", Type: catalog.FieldMultiselect, Options: []catalog.Option{{Value: "diesel"}, {Value: "petrol"}}},
		{Name: "mileage", Type: catalog.FieldRange},
		{Name: "gearbox", Type: catalog.FieldSelect, Options: []catalog.Option{{Value: "manual"}}},
	}
	f := filters.Filters{
		CategoryID:   cat,
		PriceMin:     floatPtr(100),
		PriceMax:     floatPtr(900),
		Location:     "50%_off",
		Query:        "audi",
		VerifiedOnly: true,
		Fields: catalog.Values{
			"fuel":    []string{"diesel", "petrol"},
			"mileage": float64(20000),
			"gearbox": "manual",
			"colour":  "red",
		},
	}

	qb := applyFilters(f, defs)
	where := qb.where()

	for _, want := range []string{
		"a.status = 'active'",
		"p.id = $1",
		"c.path LIKE p.path || '/%'",
		"a.price >= $2",
		"a.price <= $3",
		"a.location ILIKE $4",
		"(a.title ILIKE $5 OR a.description ILIKE $5)",
		"u.verified",
		"string_to_array(a.specifics->>$6::text, ',') && $7::text[]",
		">= $9::numeric",
		"a.specifics->>$10::text = $11",
	} {
		if !strings.Contains(where, want) {
			t.Errorf("where clause missing %q:\n%s", want, where)
		}
	}
	if strings.Contains(where, "colour") {
		t.Error("filter on an unknown field was applied")
	}

	if len(qb.args) != 11 {
		t.Fatalf("args = %v", qb.args)
	}
	if qb.args[3] != `%50\%\_off%` {
		t.Errorf("location pattern = %v", qb.args[3])
	}
	if got, ok := qb.args[6].([]string); !ok || len(got) != 2 || got[0] != "diesel" {
		t.Errorf("multiselect arg = %#v", qb.args[6])
	}
	if qb.args[8] != "20000" || qb.args[10] != "manual" {
		t.Errorf("attribute args = %v, %v", qb.args[8], qb.args[10])
	}
}

func TestApplyFiltersEmpty(t *testing.T) {
	qb := applyFilters(filters.Filters{}, nil)
	if qb.where() != "WHERE a.status = 'active'" || len(qb.args) != 0 {
		t.Errorf("empty filters = %q %v", qb.where(), qb.args)
	}
}

func TestOrderBy(t *testing.T) {
	tests := map[filters.Sort]string{
		filters.SortDateDesc:  "a.created_at DESC",
		filters.SortDateAsc:   "a.created_at ASC",
		filters.SortPriceAsc:  "a.price ASC NULLS LAST, a.created_at DESC",
		filters.SortPriceDesc: "a.price DESC NULLS LAST, a.created_at DESC",
		"":                    "a.created_at DESC",
	}
	for s, want := range tests {
		if got := orderBy(s); got != want {
			t.Errorf("orderBy(%q) = %q, want %q", s, got, want)
		}
	}
}

// publish creates an active advert in category with the given price and
// attributes.
func publish(t *testing.T, s *AdvertStore, owner uuid.UUID, category *models.Category, title string, price float64, attrs specifics.Specifics) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id, err := s.CreateDraft(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	attachPhoto(t, s.db, id, "adverts/"+id.String()+"/1.jpg")
	active := models.AdvertStatusActive
	patch := models.AdvertPatch{
		Title:       &title,
		CategoryID:  &category.ID,
		Price:       &price,
		Location:    strPtr("Chisinau"),
		Description: strPtr("Search test advert."),
		Specifics:   attrs,
		Status:      &active,
	}
	if err := s.UpdateAdvert(ctx, owner, id, patch); err != nil {
		t.Fatalf("publish %s: %v", title, err)
	}
	return id
}

func TestAdvertStoreSearch(t *testing.T) {
	db := testDB(t)
	s := NewAdvertStore(db, nil)
	ctx := context.Background()
	seller := newSeller(t, db)
	cars := newCategoryPath(t, db, "vehicles/cars")
	root, err := NewCategoryStore(db).FindByID(ctx, *cars.ParentID)
	if err != nil || root == nil {
		t.Fatalf("root category: %v", err)
	}

	cheap := publish(t, s, seller.ID, cars, "Cheap diesel", 3000, specifics.Specifics{"fuel": "diesel", "mileage": "210000"})
	mid := publish(t, s, seller.ID, cars, "Mid petrol", 9000, specifics.Specifics{"fuel": "petrol", "mileage": "90000"})
	dear := publish(t, s, seller.ID, cars, "Dear hybrid", 30000, specifics.Specifics{"fuel": "hybrid,petrol", "mileage": "5000"})
	if _, err := s.CreateDraft(ctx, seller.ID); err != nil {
		t.Fatal(err)
	}

	defs := []catalog.FieldDefinition{
		{Name: "fuel", Type: catalog.FieldMultiselect},
		{Name: "mileage", Type: catalog.FieldRange},
	}
	ids := func(r *SearchResult) []uuid.UUID {
		out := make([]uuid.UUID, len(r.Adverts))
		for i, a := range r.Adverts {
			out[i] = a.ID
		}
		return out
	}

	tests := []struct {
		name string
		f    filters.Filters
		want []uuid.UUID
	}{
		{"parent category includes children", filters.Filters{CategoryID: root.ID, Sort: filters.SortPriceAsc}, []uuid.UUID{cheap, mid, dear}},
		{"price range", filters.Filters{CategoryID: cars.ID, PriceMin: floatPtr(5000), PriceMax: floatPtr(10000)}, []uuid.UUID{mid}},
		{"price descending", filters.Filters{CategoryID: cars.ID, Sort: filters.SortPriceDesc}, []uuid.UUID{dear, mid, cheap}},
		{"multiselect overlap", filters.Filters{CategoryID: cars.ID, Sort: filters.SortPriceAsc, Fields: catalog.Values{"fuel": []string{"petrol"}}}, []uuid.UUID{mid, dear}},
		{"range lower bound", filters.Filters{CategoryID: cars.ID, Sort: filters.SortPriceAsc, Fields: catalog.Values{"mileage": float64(90000)}}, []uuid.UUID{cheap, mid}},
		{"text query", filters.Filters{CategoryID: cars.ID, Query: "HYBRID"}, []uuid.UUID{dear}},
		{"verified only", filters.Filters{CategoryID: cars.ID, VerifiedOnly: true}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := s.Search(ctx, tt.f, defs)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			got := ids(r)
			if r.Total != len(tt.want) || len(got) != len(tt.want) {
				t.Fatalf("got %v (total %d), want %v", got, r.Total, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("position %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}

	if err := NewUserStore(db).SetVerified(ctx, seller.ID, true); err != nil {
		t.Fatal(err)
	}
	r, err := s.Search(ctx, filters.Filters{CategoryID: cars.ID, VerifiedOnly: true}, nil)
	if err != nil || r.Total != 3 {
		t.Errorf("verified seller search = %v, %v", r, err)
	}
}
