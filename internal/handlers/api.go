// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"classifieds/internal/catalog"
	"classifieds/internal/locale"
	"classifieds/internal/middleware"
	"classifieds/internal/models"
	"classifieds/internal/specifics"
	"classifieds/internal/storage"
	"classifieds/internal/store"
)

// API serves the JSON endpoints used by the posting flow: the category
// tree, catalog schemas and reference data, advert drafts and media lists.
type API struct {
	categories *store.CategoryStore
	catalog    *store.CatalogStore
	adverts    *store.AdvertStore
	media      *store.MediaStore
	storage    *storage.Client
	schemas    catalog.SchemaCache
}

// NewAPI creates the API handler group. storageClient and schemas may be
// nil.
func NewAPI(categories *store.CategoryStore, catalogStore *store.CatalogStore, adverts *store.AdvertStore, media *store.MediaStore, storageClient *storage.Client, schemas catalog.SchemaCache) *API {
	return &API{
		categories: categories,
		catalog:    catalogStore,
		adverts:    adverts,
		media:      media,
		storage:    storageClient,
		schemas:    schemas,
	}
}

// categoryNode is a category tree entry with its name resolved.
type categoryNode struct {
	ID       uuid.UUID      `json:"id"`
	Slug     string         `json:"slug"`
	Path     string         `json:"path"`
	Level    int            `json:"level"`
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Children []categoryNode `json:"children,omitempty"`
}

func toNodes(cats []models.Category, code string) []categoryNode {
	out := make([]categoryNode, 0, len(cats))
	for i := range cats {
		c := &cats[i]
		out = append(out, categoryNode{
			ID:       c.ID,
			Slug:     c.Slug,
			Path:     c.Path,
			Level:    c.Level,
			Name:     c.Name(code),
			Type:     catalog.DetectCategoryType(c.Path).String(),
			Children: toNodes(c.Children, code),
		})
	}
	return out
}

// CategoryTree returns the active category tree with names in the
// requested language.
func (a *API) CategoryTree(w http.ResponseWriter, r *http.Request) {
	tree, err := a.categories.Tree(r.Context())
	if err != nil {
		slog.Error("category tree failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, nil)
		return
	}
	writeOK(w, http.StatusOK, toNodes(tree, requestLocale(r)))
}

// Schema returns the schema payload of a category, or null data when it
// has none.
func (a *API) Schema(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("category_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadInput, map[string]string{"field": "category_id"})
		return
	}
	code := requestLocale(r)
	ctx := r.Context()

	if a.schemas != nil {
		if p, ok := a.schemas.GetSchema(ctx, id, code); ok && p.Usable() {
			writeOK(w, http.StatusOK, p)
			return
		}
	}

	p, err := a.catalog.FetchSchema(ctx, id, code)
	if err != nil {
		slog.Error("schema load failed", "category_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, nil)
		return
	}
	if p == nil {
		writeOK(w, http.StatusOK, nil)
		return
	}
	if a.schemas != nil {
		a.schemas.SetSchema(ctx, id, code, p)
	}
	writeOK(w, http.StatusOK, p)
}

// referenceParents lists the query parameters that may carry the parent
// id of a dependent reference list.
var referenceParents = []string{"make_id", "brand_id", "parent_id"}

// References returns one reference-data list as a bare JSON array.
func (a *API) References(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	q := r.URL.Query()
	parent := ""
	for _, p := range referenceParents {
		if v := q.Get(p); v != "" {
			parent = v
			break
		}
	}
	if _, dependent := catalog.ParentField(source); dependent && parent == "" {
		writeJSON(w, http.StatusOK, []models.ReferenceItem{})
		return
	}

	items, err := a.catalog.ReferenceItems(r.Context(), source, parent, requestLocale(r))
	if err != nil {
		slog.Error("reference data failed", "source", source, "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, nil)
		return
	}
	if items == nil {
		items = []models.ReferenceItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// advertPatchRequest accepts specifics of any JSON type; they are
// stringified before storage.
type advertPatchRequest struct {
	models.AdvertPatch
	Specifics map[string]any `json:"specifics,omitempty"`
}

// CreateAdvert creates an empty draft for the caller.
func (a *API) CreateAdvert(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	id, err := a.adverts.CreateDraft(r.Context(), sess.UserID)
	if err != nil {
		a.storeError(w, "create draft", err)
		return
	}
	advert, err := a.adverts.FindByID(r.Context(), id)
	if err != nil || advert == nil {
		a.storeError(w, "load draft", err)
		return
	}
	slog.Info("draft created", "advert_id", id, "user_id", sess.UserID)
	writeOK(w, http.StatusCreated, map[string]any{"advert": advert})
}

// UpdateAdvert applies a partial update to one of the caller's adverts.
func (a *API) UpdateAdvert(w http.ResponseWriter, r *http.Request) {
	id, ok := advertID(w, r)
	if !ok {
		return
	}
	var req advertPatchRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadInput, nil)
		return
	}
	if err := validate.Struct(req.AdvertPatch); err != nil {
		code, field := validationCode(err)
		writeError(w, http.StatusBadRequest, code, map[string]string{"field": field})
		return
	}

	patch := req.AdvertPatch
	if req.Specifics != nil {
		patch.Specifics = specifics.Sanitize(req.Specifics)
	}

	sess := middleware.SessionFromCtx(r.Context())
	if err := a.adverts.UpdateAdvert(r.Context(), sess.UserID, id, patch); err != nil {
		a.storeError(w, "update advert", err)
		return
	}
	advert, err := a.adverts.FindByID(r.Context(), id)
	if err != nil || advert == nil {
		a.storeError(w, "reload advert", err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"advert": advert})
}

// DeleteAdvert deletes one of the caller's adverts.
func (a *API) DeleteAdvert(w http.ResponseWriter, r *http.Request) {
	id, ok := advertID(w, r)
	if !ok {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if err := a.adverts.DeleteAdvert(r.Context(), sess.UserID, id); err != nil {
		a.storeError(w, "delete advert", err)
		return
	}
	slog.Info("advert deleted", "advert_id", id, "user_id", sess.UserID)
	writeOK(w, http.StatusOK, map[string]any{"deleted": true})
}

// mediaItem is one photo in a media list response.
type mediaItem struct {
	ID          uuid.UUID `json:"id"`
	URL         string    `json:"url,omitempty"`
	ContentType string    `json:"content_type"`
	Width       *int      `json:"width,omitempty"`
	Height      *int      `json:"height,omitempty"`
	Sort        int       `json:"sort"`
}

// MediaList returns the photos of one of the caller's adverts with
// browser-loadable URLs.
func (a *API) MediaList(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("advertId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadInput, map[string]string{"field": "advertId"})
		return
	}
	ctx := r.Context()
	advert, err := a.adverts.FindByID(ctx, id)
	if err != nil {
		a.storeError(w, "load advert", err)
		return
	}
	if advert == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, nil)
		return
	}
	if sess := middleware.SessionFromCtx(ctx); advert.UserID != sess.UserID {
		writeError(w, http.StatusForbidden, CodeForbidden, nil)
		return
	}

	media, err := a.media.ListByAdvert(ctx, id)
	if err != nil {
		a.storeError(w, "list media", err)
		return
	}
	items := make([]mediaItem, 0, len(media))
	for _, m := range media {
		items = append(items, mediaItem{
			ID:          m.ID,
			URL:         mediaURL(ctx, a.storage, m),
			ContentType: m.ContentType,
			Width:       m.Width,
			Height:      m.Height,
			Sort:        m.Sort,
		})
	}
	writeOK(w, http.StatusOK, map[string]any{"items": items})
}

// mediaURL resolves a photo URL. Without storage only legacy absolute URLs
// can be served.
func mediaURL(ctx context.Context, sc *storage.Client, m models.Media) string {
	if m.IsLegacyURL() {
		return m.StoragePath
	}
	if sc == nil {
		return ""
	}
	u, err := sc.MediaURL(ctx, m)
	if err != nil {
		slog.Warn("media url failed", "media_id", m.ID, "error", err)
		return ""
	}
	return u
}

// storeError maps store errors to API responses.
func (a *API) storeError(w http.ResponseWriter, op string, err error) {
	switch {
	case err == nil, errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, nil)
	case errors.Is(err, store.ErrForbidden):
		writeError(w, http.StatusForbidden, CodeForbidden, nil)
	case errors.Is(err, store.ErrInvalidTransition):
		writeError(w, http.StatusConflict, CodeInvalidTransition, nil)
	case errors.Is(err, store.ErrMediaRequired):
		writeError(w, http.StatusUnprocessableEntity, CodeMediaRequired, nil)
	case errors.Is(err, store.ErrNoCategories):
		writeError(w, http.StatusServiceUnavailable, CodeNoCategories, nil)
	default:
		slog.Error(op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, nil)
	}
}

func advertID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadInput, map[string]string{"field": "id"})
		return uuid.Nil, false
	}
	return id, true
}

// requestLocale returns the language code for API responses: the "lang"
// parameter when given, else the negotiated locale.
func requestLocale(r *http.Request) string {
	if l := r.URL.Query().Get("lang"); l != "" {
		return l
	}
	return locale.Code(middleware.LocaleFromCtx(r.Context()))
}
