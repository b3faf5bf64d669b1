// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// SecurityPolicy describes where pages may load resources from.
type SecurityPolicy struct {
	// MediaURL is the public base URL of the photo bucket. Empty allows
	// photos from any HTTPS origin.
	MediaURL string
	// ScriptOrigins are extra script sources, such as the htmx CDN used
	// in development.
	ScriptOrigins []string
	// HSTS enables Strict-Transport-Security.
	HSTS bool
}

// origin returns the scheme and host of a URL, or "" when it has none.
func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func (p SecurityPolicy) pageCSP() string {
	media := origin(p.MediaURL)
	if media == "" {
		media = "https:"
	}
	scripts := append([]string{"'self'"}, p.ScriptOrigins...)
	return strings.Join([]string{
		"default-src 'self'",
		"img-src 'self' data: " + media,
		"script-src " + strings.Join(scripts, " "),
		// htmx injects its indicator styles.
		"style-src 'self' 'unsafe-inline'",
		"form-action 'self'",
		"base-uri 'self'",
		"frame-ancestors 'self'",
	}, "; ")
}

// SecureHeaders sets the headers shared by every response, a content
// policy for rendered pages and a locked-down policy for /api, whose JSON
// carries drafts and seller data and must not be cached or framed.
func SecureHeaders(p SecurityPolicy) func(http.Handler) http.Handler {
	pageCSP := p.pageCSP()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			// Listing pages never need device access.
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), interest-cohort=()")
			if p.HSTS {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
				h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
				h.Set("X-Frame-Options", "DENY")
				h.Set("Cache-Control", "no-store")
			} else {
				h.Set("Content-Security-Policy", pageCSP)
				h.Set("X-Frame-Options", "SAMEORIGIN")
			}

			next.ServeHTTP(w, r)
		})
	}
}
