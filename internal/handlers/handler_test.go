// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"classifieds/internal/cache"
	"classifieds/internal/catalog"
	"classifieds/internal/database"
	"classifieds/internal/middleware"
	"classifieds/internal/models"
	"classifieds/internal/render"
	"classifieds/internal/session"
	"classifieds/internal/store"
	"classifieds/internal/wizard"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "classifieds")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "classifieds")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "wizard:*", "schema:*", "ref:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB         *sql.DB
	Valkey     *redis.Client
	Renderer   *render.Renderer
	Sessions   *session.Store
	Users      *store.UserStore
	Categories *store.CategoryStore
	Catalog    *store.CatalogStore
	Adverts    *store.AdvertStore
	Media      *store.MediaStore
	Schemas    *cache.SchemaCache
	Registry   *catalog.Registry
	Service    *wizard.Service
	API        *API
	Auth       *Auth
	Public     *Public
	Wizard     *Wizard
}

// newTestEnv creates a complete test environment with all handler
// dependencies. Storage is not configured.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New(true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	sessions := session.NewStore(vk, false)
	users := store.NewUserStore(db)
	categories := store.NewCategoryStore(db)
	catalogStore := store.NewCatalogStore(db)
	adverts := store.NewAdvertStore(db, nil)
	media := store.NewMediaStore(db)
	schemas := cache.NewSchemaCache(vk, time.Minute)
	refs := cache.NewReferences(catalogStore, vk, time.Minute)
	registry := catalog.NewRegistry(catalogStore, schemas)
	service := wizard.NewService(wizard.NewValkeyStore(vk, time.Hour), adverts, media, refs)

	return &testEnv{
		DB:         db,
		Valkey:     vk,
		Renderer:   renderer,
		Sessions:   sessions,
		Users:      users,
		Categories: categories,
		Catalog:    catalogStore,
		Adverts:    adverts,
		Media:      media,
		Schemas:    schemas,
		Registry:   registry,
		Service:    service,
		API:        NewAPI(categories, catalogStore, adverts, media, nil, schemas),
		Auth:       NewAuth(renderer, sessions, users),
		Public:     NewPublic(renderer, categories, adverts, media, nil, registry, refs),
		Wizard:     NewWizard(renderer, service, registry, categories, adverts),
	}
}

// newSeller creates a throwaway user, removed with its adverts when the
// test ends.
func (e *testEnv) newSeller(t *testing.T, password string) *models.User {
	t.Helper()
	email := "seller-" + uuid.NewString()[:8] + "@handler-test.local"
	t.Cleanup(func() { e.DB.Exec("DELETE FROM users WHERE email = $1", email) })

	u, err := e.Users.Create(context.Background(), email, password, "Handler Test", "en")
	if err != nil {
		t.Fatalf("create seller: %v", err)
	}
	return u
}

// newCategory creates a top-level category with a unique slug derived from
// base. It is removed with its adverts when the test ends.
func (e *testEnv) newCategory(t *testing.T, base string) *models.Category {
	t.Helper()
	ctx := context.Background()
	slug := base + "-" + uuid.NewString()[:8]
	c, err := e.Categories.Create(ctx, nil, slug, map[string]string{"en": base, "ro": base + " ro"}, -1)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	t.Cleanup(func() {
		e.DB.Exec("DELETE FROM adverts WHERE category_id = $1", c.ID)
		e.Categories.Delete(ctx, c.ID)
	})
	return c
}

// sessionFor builds the session of a signed-in seller.
func sessionFor(u *models.User) *session.Data {
	return &session.Data{
		ID:          "test-" + uuid.NewString(),
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Locale:      "en",
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
