// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"classifieds/internal/catalog"
	"classifieds/internal/models"
)

// CatalogStore serves catalog schemas, field definitions and reference
// lists. It implements catalog.SchemaFetcher and catalog.ReferenceSource.
type CatalogStore struct {
	db *sql.DB
}

// NewCatalogStore returns a new CatalogStore.
func NewCatalogStore(db *sql.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// FetchSchema loads the schema of a category together with every field it
// references. A category without a schema yields nil, nil. locale is not
// used yet: field labels are stored once.
func (s *CatalogStore) FetchSchema(ctx context.Context, categoryID uuid.UUID, _ string) (*catalog.Payload, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT schema FROM catalog_schemas WHERE category_id = $1`, categoryID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch schema: %w", err)
	}

	schema, err := catalog.ParseSchema(raw)
	if err != nil {
		return nil, err
	}
	fields, err := s.Fields(ctx, schema.FieldKeys())
	if err != nil {
		return nil, err
	}
	return &catalog.Payload{Schema: schema, Fields: fields}, nil
}

// Fields returns the definitions of the named fields. Unknown names are
// left out.
func (s *CatalogStore) Fields(ctx context.Context, names []string) (map[string]catalog.FieldDefinition, error) {
	out := make(map[string]catalog.FieldDefinition, len(names))
	if len(names) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, definition FROM catalog_fields WHERE name = ANY($1)`, names)
	if err != nil {
		return nil, fmt.Errorf("list catalog fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var raw []byte
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("scan catalog field: %w", err)
		}
		var def catalog.FieldDefinition
		if err := json.Unmarshal(raw, &def); err != nil {
			return nil, fmt.Errorf("catalog field %s: %w", name, err)
		}
		def.Name = name
		out[name] = def
	}
	return out, rows.Err()
}

// SaveField inserts or replaces a field definition.
func (s *CatalogStore) SaveField(ctx context.Context, def catalog.FieldDefinition) error {
	if def.Name == "" || !def.Type.Known() {
		return fmt.Errorf("save catalog field: invalid definition %q (%s)", def.Name, def.Type)
	}
	raw, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal catalog field: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO catalog_fields (name, definition) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET definition = EXCLUDED.definition, updated_at = NOW()
	`, def.Name, raw)
	if err != nil {
		return fmt.Errorf("save catalog field: %w", err)
	}
	return nil
}

// SaveSchema validates and stores the schema document of a category.
func (s *CatalogStore) SaveSchema(ctx context.Context, categoryID uuid.UUID, raw []byte) error {
	schema, err := catalog.ParseSchema(raw)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO catalog_schemas (category_id, version, schema) VALUES ($1, $2, $3)
		ON CONFLICT (category_id) DO UPDATE
		SET version = EXCLUDED.version, schema = EXCLUDED.schema, updated_at = NOW()
	`, categoryID, schema.Version, raw)
	if err != nil {
		return fmt.Errorf("save schema: %w", err)
	}
	return nil
}

// ReferenceItems lists the rows of a reference source, localized. parent
// filters dependent lists and is ignored when empty.
func (s *CatalogStore) ReferenceItems(ctx context.Context, source, parent, locale string) ([]models.ReferenceItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_id, code, names, sort
		FROM reference_items
		WHERE source = $1 AND ($2 = '' OR parent_id = $2)
		ORDER BY sort, id
	`, source, parent)
	if err != nil {
		return nil, fmt.Errorf("list reference items %s: %w", source, err)
	}
	defer rows.Close()

	items := []models.ReferenceItem{}
	for rows.Next() {
		var it models.ReferenceItem
		var names []byte
		if err := rows.Scan(&it.ID, &it.ParentID, &it.Code, &names, &it.Sort); err != nil {
			return nil, fmt.Errorf("scan reference item: %w", err)
		}
		var localized map[string]string
		if err := json.Unmarshal(names, &localized); err != nil {
			return nil, fmt.Errorf("reference item %s/%s names: %w", source, it.ID, err)
		}
		it.Name = localizedName(localized, locale, it.ID)
		items = append(items, it)
	}
	return items, rows.Err()
}

// ReferenceOptions implements catalog.ReferenceSource.
func (s *CatalogStore) ReferenceOptions(ctx context.Context, source, parent, locale string) ([]catalog.Option, error) {
	items, err := s.ReferenceItems(ctx, source, parent, locale)
	if err != nil {
		return nil, err
	}
	opts := make([]catalog.Option, len(items))
	for i, it := range items {
		opts[i] = catalog.Option{Value: it.ID, Label: it.Name}
	}
	return opts, nil
}

func localizedName(names map[string]string, locale, fallback string) string {
	if n := names[locale]; n != "" {
		return n
	}
	if n := names["en"]; n != "" {
		return n
	}
	return fallback
}
