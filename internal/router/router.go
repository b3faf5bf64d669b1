// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// marketplace. Routes are organized into the JSON API used by the posting
// flow and the server-rendered pages.
package router

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"classifieds/internal/handlers"
	"classifieds/internal/locale"
	"classifieds/internal/middleware"
	"classifieds/internal/session"
	"classifieds/web"
)

// Options configures the middleware chains.
type Options struct {
	Sessions *session.Store
	Locales  *locale.Negotiator
	// CORSOrigins lists the origins allowed to call /api. Empty allows
	// same-origin requests only.
	CORSOrigins []string
	// Secure marks cookies as HTTPS-only.
	Secure bool
	// Security sets the content policy of pages and API responses.
	Security middleware.SecurityPolicy
	// LoginLimiter throttles login attempts; nil disables throttling.
	LoginLimiter *middleware.RateLimiter
	// DraftLimiter throttles draft creation over the API; nil disables it.
	DraftLimiter *middleware.RateLimiter
}

// Handlers are the handler groups mounted by the router.
type Handlers struct {
	API    *handlers.API
	Auth   *handlers.Auth
	Public *handlers.Public
	Wizard *handlers.Wizard
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(opts Options, h Handlers) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders(opts.Security))
	r.Use(middleware.LoadSession(opts.Sessions))
	r.Use(middleware.Locale(opts.Locales))

	static, err := fs.Sub(web.StaticFS, "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	}

	r.Get("/health", healthHandler)

	// JSON API: session auth, no CSRF form tokens. Scripted clients send
	// the session cookie; cross-origin callers must be listed.
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", middleware.CSRFHeaderName},
			AllowCredentials: true,
			MaxAge:           int((10 * time.Minute).Seconds()),
		}))

		r.Get("/categories/tree", h.API.CategoryTree)
		r.Get("/catalog/schema", h.API.Schema)
		r.Get("/catalog/{source}", h.API.References)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAPIAuth)
			if opts.DraftLimiter != nil {
				r.With(opts.DraftLimiter.Middleware).Post("/adverts", h.API.CreateAdvert)
			} else {
				r.Post("/adverts", h.API.CreateAdvert)
			}
			r.Patch("/adverts/{id}", h.API.UpdateAdvert)
			r.Delete("/adverts/{id}", h.API.DeleteAdvert)
			r.Get("/media/list", h.API.MediaList)
		})
	})

	// Server-rendered pages with CSRF protection.
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.Secure))

		r.Get("/", h.Public.Search)
		r.Get("/search", h.Public.Search)
		r.Get("/ad/{id}", h.Public.Advert)

		r.Get("/login", h.Auth.LoginPage)
		if opts.LoginLimiter != nil {
			r.With(opts.LoginLimiter.Middleware).Post("/login", h.Auth.LoginSubmit)
		} else {
			r.Post("/login", h.Auth.LoginSubmit)
		}
		r.Post("/logout", h.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/profile", h.Public.Profile)
			r.Get("/post", h.Wizard.Start)
			r.Post("/post/step", h.Wizard.Step)
			r.Post("/post/fields", h.Wizard.Fields)
			r.Post("/post/delete", h.Wizard.Delete)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
