// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"classifieds/internal/models"
)

// MediaStore handles advert photo records. Uploading is done elsewhere;
// this store only tracks what is attached to which advert.
type MediaStore struct {
	db *sql.DB
}

// NewMediaStore creates a new MediaStore with the given database connection.
func NewMediaStore(db *sql.DB) *MediaStore {
	return &MediaStore{db: db}
}

// mediaColumns lists the columns selected in media queries.
const mediaColumns = `id, advert_id, storage_path, content_type, width, height, sort, created_at`

// scanMedia scans a media row from the result set.
func scanMedia(scanner interface{ Scan(...any) error }) (*models.Media, error) {
	var m models.Media
	err := scanner.Scan(
		&m.ID, &m.AdvertID, &m.StoragePath, &m.ContentType,
		&m.Width, &m.Height, &m.Sort, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create attaches a stored object to an advert.
func (s *MediaStore) Create(ctx context.Context, m *models.Media) (*models.Media, error) {
	if m.ContentType == "" {
		m.ContentType = "image/jpeg"
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO media (advert_id, storage_path, content_type, width, height, sort)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+mediaColumns,
		m.AdvertID, m.StoragePath, m.ContentType, m.Width, m.Height, m.Sort,
	)
	created, err := scanMedia(row)
	if err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}
	return created, nil
}

// ListByAdvert returns an advert's media in display order.
func (s *MediaStore) ListByAdvert(ctx context.Context, advertID uuid.UUID) ([]models.Media, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+mediaColumns+`
		FROM media
		WHERE advert_id = $1
		ORDER BY sort, created_at
	`, advertID)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	var items []models.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// CountMedia returns how many media items an advert has.
func (s *MediaStore) CountMedia(ctx context.Context, advertID uuid.UUID) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media WHERE advert_id = $1`, advertID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count media: %w", err)
	}
	return n, nil
}

// Delete removes a media record and returns it so the caller can clean
// up the stored object.
func (s *MediaStore) Delete(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM media WHERE id = $1
		RETURNING `+mediaColumns, id)
	m, err := scanMedia(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete media: %w", err)
	}
	return m, nil
}
