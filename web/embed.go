// Package web provides embedded static assets (CSS, JS) for the marketplace
// pages. In development, templates load HTMX from a CDN; in production, the
// vendored htmx.min.js is copied into static/ by the image build and served
// at /static/ together with the stylesheet.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree.
//
//go:embed all:static
var StaticFS embed.FS
