// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"classifieds/internal/models"
)

var (
	// ErrNotFound is returned when an advert does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrForbidden is returned when an advert belongs to another user.
	ErrForbidden = errors.New("store: forbidden")
	// ErrInvalidTransition is returned for a status change the advert
	// lifecycle does not allow.
	ErrInvalidTransition = errors.New("store: invalid status transition")
	// ErrMediaRequired is returned when activating an advert without photos.
	ErrMediaRequired = errors.New("store: media required")
	// ErrNoCategories is returned when a draft cannot be created because no
	// top-level category exists.
	ErrNoCategories = errors.New("store: no categories")
)

// ObjectRemover deletes stored media objects by key.
type ObjectRemover interface {
	DeleteObjects(ctx context.Context, keys []string) error
}

// AdvertStore handles advert persistence.
type AdvertStore struct {
	db      *sql.DB
	objects ObjectRemover
}

// NewAdvertStore returns a new AdvertStore. objects may be nil, in which
// case media files are left in storage when adverts are deleted.
func NewAdvertStore(db *sql.DB, objects ObjectRemover) *AdvertStore {
	return &AdvertStore{db: db, objects: objects}
}

const advertColumns = `a.id, a.user_id, a.category_id, a.title, a.description, a.price,
	a.currency, a.location, a.condition, a.status, a.specifics, a.created_at, a.updated_at,
	c.path, u.display_name,
	(SELECT COUNT(*) FROM media m WHERE m.advert_id = a.id)`

const advertFrom = `FROM adverts a
	JOIN categories c ON c.id = a.category_id
	JOIN users u ON u.id = a.user_id`

func scanAdvert(scanner interface{ Scan(...any) error }) (*models.Advert, error) {
	var a models.Advert
	err := scanner.Scan(
		&a.ID, &a.UserID, &a.CategoryID, &a.Title, &a.Description, &a.Price,
		&a.Currency, &a.Location, &a.Condition, &a.Status, &a.Specifics, &a.CreatedAt, &a.UpdatedAt,
		&a.CategoryPath, &a.SellerName, &a.MediaCount,
	)
	if err != nil {
		return nil, err
	}
	a.Currency = strings.TrimSpace(a.Currency)
	return &a, nil
}

// CreateDraft inserts an empty draft for owner in the first top-level
// category and returns its id.
func (s *AdvertStore) CreateDraft(ctx context.Context, owner uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO adverts (user_id, category_id, title, status)
		SELECT $1, c.id, $2, 'draft'
		FROM categories c
		WHERE c.level = 1 AND c.is_active
		ORDER BY c.sort, c.path
		LIMIT 1
		RETURNING id
	`, owner, models.DraftTitle).Scan(&id)
	if err == sql.ErrNoRows {
		return uuid.Nil, ErrNoCategories
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("create draft: %w", err)
	}
	return id, nil
}

// FindByID retrieves an advert. Returns nil if not found.
func (s *AdvertStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Advert, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+advertColumns+` `+advertFrom+` WHERE a.id = $1`, id)
	a, err := scanAdvert(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find advert: %w", err)
	}
	return a, nil
}

// ListByUser returns a user's adverts, most recently edited first.
func (s *AdvertStore) ListByUser(ctx context.Context, owner uuid.UUID) ([]models.Advert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+advertColumns+` `+advertFrom+`
		WHERE a.user_id = $1
		ORDER BY a.updated_at DESC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("list user adverts: %w", err)
	}
	defer rows.Close()

	var items []models.Advert
	for rows.Next() {
		a, err := scanAdvert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan advert: %w", err)
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// UpdateAdvert applies patch to an advert owned by owner. Only non-nil
// fields are written; specifics, when present, replace the stored map.
// Status changes must follow the advert lifecycle and activation needs at
// least one photo.
func (s *AdvertStore) UpdateAdvert(ctx context.Context, owner, id uuid.UUID, patch models.AdvertPatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update advert begin: %w", err)
	}
	defer tx.Rollback()

	var current models.AdvertStatus
	var userID uuid.UUID
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, status FROM adverts WHERE id = $1 FOR UPDATE`, id,
	).Scan(&userID, &current)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update advert lock: %w", err)
	}
	if userID != owner {
		return ErrForbidden
	}

	if patch.Status != nil && *patch.Status != current {
		if !current.CanTransition(*patch.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, *patch.Status)
		}
		if *patch.Status == models.AdvertStatusActive {
			var n int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM media WHERE advert_id = $1`, id).Scan(&n); err != nil {
				return fmt.Errorf("update advert count media: %w", err)
			}
			if n == 0 {
				return ErrMediaRequired
			}
		}
	}

	sets := []string{"updated_at = NOW()"}
	args := []any{}
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Title != nil {
		add("title", strings.TrimSpace(*patch.Title))
	}
	if patch.CategoryID != nil {
		add("category_id", *patch.CategoryID)
	}
	if patch.Condition != nil {
		add("condition", *patch.Condition)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.Currency != nil {
		add("currency", strings.ToUpper(*patch.Currency))
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.Specifics != nil {
		add("specifics", patch.Specifics)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE adverts SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update advert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update advert commit: %w", err)
	}
	return nil
}

// DeleteAdvert removes an advert owned by owner together with its media.
func (s *AdvertStore) DeleteAdvert(ctx context.Context, owner, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete advert begin: %w", err)
	}
	defer tx.Rollback()

	var userID uuid.UUID
	err = tx.QueryRowContext(ctx, `SELECT user_id FROM adverts WHERE id = $1 FOR UPDATE`, id).Scan(&userID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete advert lock: %w", err)
	}
	if userID != owner {
		return ErrForbidden
	}

	keys, err := mediaKeys(ctx, tx, `SELECT storage_path FROM media WHERE advert_id = $1`, id)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM adverts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete advert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete advert commit: %w", err)
	}

	s.removeObjects(ctx, keys)
	return nil
}

// CleanupDrafts deletes drafts not edited within retention and returns how
// many were removed.
func (s *AdvertStore) CleanupDrafts(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("cleanup drafts begin: %w", err)
	}
	defer tx.Rollback()

	keys, err := mediaKeys(ctx, tx, `
		SELECT m.storage_path FROM media m
		JOIN adverts a ON a.id = m.advert_id
		WHERE a.status = 'draft' AND a.updated_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM adverts WHERE status = 'draft' AND updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup drafts: %w", err)
	}
	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("cleanup drafts commit: %w", err)
	}

	s.removeObjects(ctx, keys)
	return int(n), nil
}

func mediaKeys(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list media keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan media key: %w", err)
		}
		m := models.Media{StoragePath: key}
		if !m.IsLegacyURL() {
			keys = append(keys, key)
		}
	}
	return keys, rows.Err()
}

func (s *AdvertStore) removeObjects(ctx context.Context, keys []string) {
	if s.objects == nil || len(keys) == 0 {
		return
	}
	if err := s.objects.DeleteObjects(ctx, keys); err != nil {
		slog.Warn("media object cleanup failed", "keys", len(keys), "error", err)
	}
}
