// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// schema.go caches catalog schema payloads and reference-data lists in
// Valkey so repeated form and filter renders skip the schema source.
// Every Valkey failure is logged and treated as a miss.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"classifieds/internal/catalog"
)

const (
	schemaKeyPrefix    = "schema:"
	referenceKeyPrefix = "ref:"

	// DefaultSchemaTTL is how long a schema payload stays cached.
	DefaultSchemaTTL = 10 * time.Minute
)

// SchemaCache stores catalog schema payloads per category and locale.
// It implements catalog.SchemaCache.
type SchemaCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSchemaCache creates a schema cache backed by the given Valkey client.
func NewSchemaCache(client *redis.Client, ttl time.Duration) *SchemaCache {
	if ttl == 0 {
		ttl = DefaultSchemaTTL
	}
	return &SchemaCache{client: client, ttl: ttl}
}

// SchemaKey returns the cache key for a category schema in a locale.
func SchemaKey(categoryID uuid.UUID, locale string) string {
	return schemaKeyPrefix + categoryID.String() + ":" + locale
}

// GetSchema returns the cached payload, if any.
func (c *SchemaCache) GetSchema(ctx context.Context, categoryID uuid.UUID, locale string) (*catalog.Payload, bool) {
	key := SchemaKey(categoryID, locale)
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("schema cache get error", "key", key, "error", err)
		return nil, false
	}

	var p catalog.Payload
	if err := json.Unmarshal(val, &p); err != nil {
		slog.Warn("schema cache entry corrupt", "key", key, "error", err)
		c.client.Del(ctx, key)
		return nil, false
	}
	slog.Debug("schema cache hit", "key", key)
	return &p, true
}

// SetSchema stores a payload with the configured TTL.
func (c *SchemaCache) SetSchema(ctx context.Context, categoryID uuid.UUID, locale string, p *catalog.Payload) {
	key := SchemaKey(categoryID, locale)
	val, err := json.Marshal(p)
	if err != nil {
		slog.Warn("schema cache marshal error", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, val, c.ttl).Err(); err != nil {
		slog.Warn("schema cache set error", "key", key, "error", err)
	}
}

// InvalidateCategory removes every cached locale of one category's schema.
func (c *SchemaCache) InvalidateCategory(ctx context.Context, categoryID uuid.UUID) {
	deleteMatching(ctx, c.client, schemaKeyPrefix+categoryID.String()+":*")
}

// InvalidateAll removes all cached schemas and reference lists. Used when
// field definitions change, since any category could be affected.
func (c *SchemaCache) InvalidateAll(ctx context.Context) {
	n := deleteMatching(ctx, c.client, schemaKeyPrefix+"*")
	n += deleteMatching(ctx, c.client, referenceKeyPrefix+"*")
	if n > 0 {
		slog.Info("schema cache fully cleared", "deleted", n)
	}
}

// References caches a reference-data source. It implements
// catalog.ReferenceSource. Errors from the source are returned uncached.
type References struct {
	src    catalog.ReferenceSource
	client *redis.Client
	ttl    time.Duration
}

// NewReferences wraps src with a Valkey cache.
func NewReferences(src catalog.ReferenceSource, client *redis.Client, ttl time.Duration) *References {
	if ttl == 0 {
		ttl = DefaultSchemaTTL
	}
	return &References{src: src, client: client, ttl: ttl}
}

// ReferenceKey returns the cache key for one reference list.
func ReferenceKey(source, parent, locale string) string {
	return referenceKeyPrefix + source + ":" + parent + ":" + locale
}

// ReferenceOptions implements catalog.ReferenceSource.
func (r *References) ReferenceOptions(ctx context.Context, source, parent, locale string) ([]catalog.Option, error) {
	key := ReferenceKey(source, parent, locale)
	val, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var opts []catalog.Option
		if jerr := json.Unmarshal(val, &opts); jerr == nil {
			return opts, nil
		}
	case err != redis.Nil:
		slog.Warn("reference cache get error", "key", key, "error", err)
	}

	opts, err := r.src.ReferenceOptions(ctx, source, parent, locale)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(opts); err == nil {
		if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
			slog.Warn("reference cache set error", "key", key, "error", err)
		}
	}
	return opts, nil
}

func deleteMatching(ctx context.Context, client *redis.Client, pattern string) int {
	var cursor uint64
	var deleted int
	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("cache scan error", "pattern", pattern, "error", err)
			return deleted
		}
		if len(keys) > 0 {
			if err := client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			return deleted
		}
	}
}
