// Package main is the entry point for the classifieds marketplace server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classifieds/internal/apiclient"
	"classifieds/internal/cache"
	"classifieds/internal/catalog"
	"classifieds/internal/config"
	"classifieds/internal/database"
	"classifieds/internal/handlers"
	"classifieds/internal/locale"
	"classifieds/internal/logging"
	"classifieds/internal/maintenance"
	"classifieds/internal/middleware"
	"classifieds/internal/render"
	"classifieds/internal/router"
	"classifieds/internal/session"
	"classifieds/internal/storage"
	"classifieds/internal/store"
	"classifieds/internal/wizard"
)

// referenceIdle is how long a posting session's reference lists are kept
// without use.
const referenceIdle = 30 * time.Minute

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		logging.Setup(os.Stdout, "info", false)
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: tinted text in development, JSON otherwise.
	logging.Setup(os.Stdout, cfg.LogLevel, cfg.IsDev())

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions, wizard state, schema cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	negotiator, err := locale.NewNegotiator(cfg.SupportedLocales)
	if err != nil {
		slog.Error("invalid locale configuration", "error", err)
		os.Exit(1)
	}

	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Object storage is optional; without it only legacy photo URLs load.
	storageClient, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	var remover store.ObjectRemover
	if storageClient != nil {
		remover = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", storageClient.Bucket())
	} else {
		slog.Warn("s3 storage not configured, photo files are not served or removed")
	}

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db)
	catalogStore := store.NewCatalogStore(db)
	advertStore := store.NewAdvertStore(db, remover)
	mediaStore := store.NewMediaStore(db)

	// Schemas and reference data come from this database unless another
	// instance is configured as the catalog source.
	schemaCache := cache.NewSchemaCache(valkeyClient, cfg.SchemaCacheTTL)
	var fetcher catalog.SchemaFetcher = catalogStore
	var refSource catalog.ReferenceSource = catalogStore
	if cfg.CatalogAPIURL != "" {
		client := apiclient.New(apiclient.Config{BaseURL: cfg.CatalogAPIURL, Token: cfg.CatalogAPIToken})
		fetcher, refSource = client, client
		slog.Info("catalog served by remote api", "url", cfg.CatalogAPIURL)
	}
	// Seeding or a changed catalog source leaves stale entries behind.
	schemaCache.InvalidateAll(context.Background())

	references := cache.NewReferences(refSource, valkeyClient, cfg.SchemaCacheTTL)
	registry := catalog.NewRegistry(fetcher, schemaCache)

	wizardService := wizard.NewService(
		wizard.NewValkeyStore(valkeyClient, cfg.WizardTTL),
		advertStore, mediaStore, references,
	)

	// Create handler groups with their dependencies.
	h := router.Handlers{
		API:    handlers.NewAPI(categoryStore, catalogStore, advertStore, mediaStore, storageClient, schemaCache),
		Auth:   handlers.NewAuth(renderer, sessionStore, userStore),
		Public: handlers.NewPublic(renderer, categoryStore, advertStore, mediaStore, storageClient, registry, references),
		Wizard: handlers.NewWizard(renderer, wizardService, registry, categoryStore, advertStore),
	}

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer loginLimiter.Stop()
	draftLimiter := middleware.NewRateLimiter(30, time.Hour).PerUser()
	defer draftLimiter.Stop()

	policy := middleware.SecurityPolicy{MediaURL: cfg.S3PublicURL, HSTS: secureCookies}
	if policy.MediaURL == "" {
		policy.MediaURL = cfg.S3Endpoint
	}
	if cfg.IsDev() {
		policy.ScriptOrigins = []string{"https://unpkg.com"}
	}

	r := router.New(router.Options{
		Sessions:     sessionStore,
		Security:     policy,
		Locales:      negotiator,
		CORSOrigins:  cfg.CORSOrigins,
		Secure:       secureCookies,
		LoginLimiter: loginLimiter,
		DraftLimiter: draftLimiter,
	}, h)

	// Housekeeping: abandoned drafts and idle reference caches.
	scheduler := maintenance.New(maintenance.Config{
		Schedule:       cfg.CleanupSchedule,
		DraftRetention: cfg.DraftRetention,
		ReferenceIdle:  referenceIdle,
	}, advertStore, wizardService)
	if err := scheduler.Register(); err != nil {
		slog.Error("failed to schedule maintenance", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	scheduler.Stop(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
