// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"classifieds/internal/catalog"
	"classifieds/internal/filters"
	"classifieds/internal/locale"
	"classifieds/internal/markdown"
	"classifieds/internal/middleware"
	"classifieds/internal/models"
	"classifieds/internal/render"
	"classifieds/internal/storage"
	"classifieds/internal/store"
)

var sortLabels = []struct {
	Value filters.Sort
	Label string
}{
	{filters.SortDateDesc, "Newest first"},
	{filters.SortDateAsc, "Oldest first"},
	{filters.SortPriceAsc, "Cheapest first"},
	{filters.SortPriceDesc, "Most expensive first"},
}

// Public serves the marketplace pages: search, advert detail and the
// seller's profile.
type Public struct {
	renderer   *render.Renderer
	categories *store.CategoryStore
	adverts    *store.AdvertStore
	media      *store.MediaStore
	storage    *storage.Client
	registry   *catalog.Registry
	refs       catalog.ReferenceSource
}

// NewPublic creates a new Public handler group. storageClient and refs may
// be nil.
func NewPublic(renderer *render.Renderer, categories *store.CategoryStore, adverts *store.AdvertStore, media *store.MediaStore, storageClient *storage.Client, registry *catalog.Registry, refs catalog.ReferenceSource) *Public {
	return &Public{
		renderer:   renderer,
		categories: categories,
		adverts:    adverts,
		media:      media,
		storage:    storageClient,
		registry:   registry,
		refs:       refs,
	}
}

type sortView struct {
	Value    filters.Sort
	Label    string
	Selected bool
}

// Search lists active adverts matching the query's filters. Category
// fields become filters once a category is chosen.
func (p *Public) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := locale.Code(middleware.LocaleFromCtx(ctx))
	q := r.URL.Query()

	var fs catalog.FieldSet
	var category *models.Category
	if id, err := uuid.Parse(q.Get("category_id")); err == nil {
		category, err = p.categories.FindByID(ctx, id)
		if err != nil {
			slog.Error("search category lookup failed", "error", err)
		}
	}
	if category != nil {
		fs = p.registry.Lookup(ctx, category.ID, category.Path, code).ForFilter()
	}

	f := filters.Decode(q, fs.Fields)
	if category == nil {
		f.CategoryID = uuid.Nil
	}
	defs := catalog.ResolveOptions(ctx, p.refs, fs.Fields, f.Fields, code)

	result, err := p.adverts.Search(ctx, f, defs)
	if err != nil {
		slog.Error("search failed", "error", err)
		p.renderer.Error(w, r, http.StatusInternalServerError, "Search is unavailable right now.")
		return
	}
	cats, err := p.categories.FlatTree(ctx)
	if err != nil {
		slog.Error("category list failed", "error", err)
	}

	sorts := make([]sortView, 0, len(sortLabels))
	for _, s := range sortLabels {
		sorts = append(sorts, sortView{Value: s.Value, Label: s.Label, Selected: s.Value == f.Sort})
	}

	data := map[string]any{
		"Categories":        cats,
		"Filters":           f,
		"PriceMin":          formatBound(f.PriceMin),
		"PriceMax":          formatBound(f.PriceMax),
		"Sorts":             sorts,
		"FilterFields":      defs,
		"SchemaUnavailable": category != nil && !fs.Available && fs.Type.UsesRemoteSchema(),
		"Total":             result.Total,
		"Adverts":           result.Adverts,
	}
	if f.Page > 1 {
		prev := f
		prev.Page--
		data["PrevURL"] = prev.URL("/search")
	}
	if f.Page*store.PageSize < result.Total {
		next := f
		next.Page++
		data["NextURL"] = next.URL("/search")
	}

	p.renderer.Page(w, r, "search", &render.PageData{
		Title: "Search",
		Data:  data,
	})
}

// Advert shows one advert. Drafts and archived adverts are visible to
// their owner only.
func (p *Public) Advert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		p.renderer.Error(w, r, http.StatusNotFound, "Advert not found.")
		return
	}
	a, err := p.adverts.FindByID(ctx, id)
	if err != nil {
		slog.Error("advert lookup failed", "advert_id", id, "error", err)
		p.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	sess := middleware.SessionFromCtx(ctx)
	if a == nil || (!a.IsActive() && (sess == nil || sess.UserID != a.UserID)) {
		p.renderer.Error(w, r, http.StatusNotFound, "Advert not found.")
		return
	}

	code := locale.Code(middleware.LocaleFromCtx(ctx))
	categoryName := ""
	fs := catalog.FieldSet{}
	if cat, err := p.categories.FindByID(ctx, a.CategoryID); err == nil && cat != nil {
		categoryName = cat.Name(code)
		fs = p.registry.Lookup(ctx, cat.ID, cat.Path, code)
	}
	defs := catalog.ResolveOptions(ctx, p.refs, fs.Fields, nil, code)

	media, err := p.media.ListByAdvert(ctx, a.ID)
	if err != nil {
		slog.Warn("advert media failed", "advert_id", a.ID, "error", err)
	}
	photos := make([]string, 0, len(media))
	for _, m := range media {
		if u := mediaURL(ctx, p.storage, m); u != "" {
			photos = append(photos, u)
		}
	}

	description := ""
	if a.Description != nil {
		description = *a.Description
	}

	p.renderer.Page(w, r, "advert", &render.PageData{
		Title: a.Title,
		Data: map[string]any{
			"Advert":       a,
			"CategoryName": categoryName,
			"Photos":       photos,
			"Description":  markdown.Render(description),
			"Attributes":   a.Specifics.DisplayAttributes(defs),
			"Options":      optionLabels(a.Specifics.Options()),
		},
	})
}

// Profile lists the signed-in seller's adverts.
func (p *Public) Profile(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	adverts, err := p.adverts.ListByUser(r.Context(), sess.UserID)
	if err != nil {
		slog.Error("profile adverts failed", "error", err)
		p.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	p.renderer.Page(w, r, "profile", &render.PageData{
		Title: "Your adverts",
		Data:  map[string]any{"Adverts": adverts},
	})
}

// optionLabels lists equipment options with their chosen variant.
func optionLabels(selected map[string]string) []string {
	var out []string
	for key, v := range selected {
		o, ok := catalog.LookupVehicleOption(key)
		if !ok {
			continue
		}
		label := o.Label
		if v != "true" {
			for _, variant := range o.Variants {
				if variant.Value == v {
					label += ": " + variant.Label
				}
			}
		}
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

func formatBound(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
