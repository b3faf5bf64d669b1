// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"classifieds/internal/database"
	"classifieds/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "classifieds")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "classifieds")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanUsers removes test users by email. Their adverts cascade.
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

// newSeller creates a throwaway user removed when the test ends.
func newSeller(t *testing.T, db *sql.DB) *models.User {
	t.Helper()
	email := "seller-" + uuid.NewString()[:8] + "@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	u, err := NewUserStore(db).Create(context.Background(), email, "pass", "Store Test", "en")
	if err != nil {
		t.Fatalf("create seller: %v", err)
	}
	return u
}

// newCategoryPath creates the categories of a slash-separated path under
// a unique test root and returns the leaf. The tree is removed when the
// test ends.
func newCategoryPath(t *testing.T, db *sql.DB, path string) *models.Category {
	t.Helper()
	cs := NewCategoryStore(db)
	ctx := context.Background()

	var parent *models.Category
	for i, slug := range strings.Split(path, "/") {
		if i == 0 {
			slug = slug + "-" + uuid.NewString()[:8]
		}
		c, err := cs.Create(ctx, parent, slug, map[string]string{"en": slug}, 1000+i)
		if err != nil {
			t.Fatalf("create category %s: %v", slug, err)
		}
		if parent == nil {
			root := c.ID
			t.Cleanup(func() {
				db.Exec("DELETE FROM adverts WHERE category_id IN (SELECT id FROM categories WHERE path LIKE (SELECT path FROM categories WHERE id = $1) || '%')", root)
				cs.Delete(ctx, root)
			})
		}
		parent = c
	}
	return parent
}

// fakeRemover records deleted object keys.
type fakeRemover struct {
	keys []string
}

func (f *fakeRemover) DeleteObjects(_ context.Context, keys []string) error {
	f.keys = append(f.keys, keys...)
	return nil
}
