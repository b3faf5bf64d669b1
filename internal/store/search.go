// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"classifieds/internal/catalog"
	"classifieds/internal/filters"
	"classifieds/internal/models"
)

// PageSize is the number of adverts per search results page.
const PageSize = 20

// SearchResult is one page of matching adverts.
type SearchResult struct {
	Adverts []models.Advert
	Total   int
}

// queryBuilder accumulates WHERE conditions with numbered placeholders.
type queryBuilder struct {
	conditions []string
	args       []any
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{conditions: []string{"a.status = 'active'"}}
}

// arg registers a value and returns its placeholder.
func (qb *queryBuilder) arg(v any) string {
	qb.args = append(qb.args, v)
	return fmt.Sprintf("$%d", len(qb.args))
}

// addCondition appends condition with every %s replaced by the
// placeholder of v.
func (qb *queryBuilder) addCondition(condition string, v any) {
	p := qb.arg(v)
	qb.conditions = append(qb.conditions, strings.ReplaceAll(condition, "%s", p))
}

func (qb *queryBuilder) where() string {
	return "WHERE " + strings.Join(qb.conditions, " AND ")
}

// addSpecific filters on one stored attribute. Multiselect values match
// when any selected value is present, range values are lower bounds and
// everything else must match exactly.
func (qb *queryBuilder) addSpecific(def catalog.FieldDefinition, stored string) {
	key := qb.arg(def.Name) + "::text"
	switch def.Type {
	case catalog.FieldMultiselect:
		val := qb.arg(strings.Split(stored, ","))
		qb.conditions = append(qb.conditions,
			fmt.Sprintf("string_to_array(a.specifics->>%s, ',') && %s::text[]", key, val))
	case catalog.FieldRange:
		val := qb.arg(stored)
		qb.conditions = append(qb.conditions, fmt.Sprintf(
			"(CASE WHEN a.specifics->>%[1]s ~ '^-?[0-9]+(\\.[0-9]+)?$' THEN (a.specifics->>%[1]s)::numeric END) >= %[2]s::numeric",
			key, val))
	default:
		val := qb.arg(stored)
		qb.conditions = append(qb.conditions, fmt.Sprintf("a.specifics->>%s = %s", key, val))
	}
}

// applyFilters translates the search state into conditions. defs are the
// category's fields; attribute filters for other names are ignored.
func applyFilters(f filters.Filters, defs []catalog.FieldDefinition) *queryBuilder {
	qb := newQueryBuilder()

	if f.CategoryID != uuid.Nil {
		qb.addCondition(`a.category_id IN (
			SELECT c.id FROM categories c, categories p
			WHERE p.id = %s AND (c.id = p.id OR c.path LIKE p.path || '/%'))`, f.CategoryID)
	}
	if f.PriceMin != nil {
		qb.addCondition("a.price >= %s", *f.PriceMin)
	}
	if f.PriceMax != nil {
		qb.addCondition("a.price <= %s", *f.PriceMax)
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		qb.addCondition("a.location ILIKE %s", "%"+escapeLike(loc)+"%")
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		qb.addCondition("(a.title ILIKE %s OR a.description ILIKE %s)", "%"+escapeLike(q)+"%")
	}
	if f.VerifiedOnly {
		qb.conditions = append(qb.conditions, "u.verified")
	}

	stored := f.Specifics()
	for _, d := range defs {
		if v, ok := stored[d.Name]; ok && v != "" {
			qb.addSpecific(d, v)
		}
	}
	return qb
}

func orderBy(s filters.Sort) string {
	switch s {
	case filters.SortDateAsc:
		return "a.created_at ASC"
	case filters.SortPriceAsc:
		return "a.price ASC NULLS LAST, a.created_at DESC"
	case filters.SortPriceDesc:
		return "a.price DESC NULLS LAST, a.created_at DESC"
	default:
		return "a.created_at DESC"
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Search returns one page of active adverts matching f.
func (s *AdvertStore) Search(ctx context.Context, f filters.Filters, defs []catalog.FieldDefinition) (*SearchResult, error) {
	f.Normalize()
	qb := applyFilters(f, defs)
	where := qb.where()

	result := &SearchResult{}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) `+advertFrom+` `+where, qb.args...,
	).Scan(&result.Total); err != nil {
		return nil, fmt.Errorf("count adverts: %w", err)
	}

	args := append(qb.args, PageSize, (f.Page-1)*PageSize)
	query := fmt.Sprintf(`SELECT %s %s %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		advertColumns, advertFrom, where, orderBy(f.Sort), len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search adverts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAdvert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan advert: %w", err)
		}
		result.Adverts = append(result.Adverts, *a)
	}
	return result, rows.Err()
}
