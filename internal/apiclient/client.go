// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apiclient talks to a remote marketplace API: the catalog schema
// and reference-data endpoints, advert drafts, and the media list. It
// satisfies the same interfaces as the Postgres stores so a deployment can
// take its schemas from another instance.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"classifieds/internal/catalog"
	"classifieds/internal/models"
	"classifieds/internal/specifics"
)

// DefaultTimeout bounds every request made by the client.
const DefaultTimeout = 15 * time.Second

// APIError is a failed call. Code is the envelope's error code when the
// server sent one.
type APIError struct {
	Status int
	Code   string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Code)
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}

// IsNotFound reports whether err is a 404 or NOT_FOUND API error.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && (ae.Status == http.StatusNotFound || ae.Code == "NOT_FOUND")
}

// Config holds the client settings.
type Config struct {
	BaseURL string
	// Token is sent as a bearer token when set.
	Token   string
	Timeout time.Duration
}

// Client is a marketplace API client.
type Client struct {
	config Config
	client *http.Client
}

// New creates a client for the API at cfg.BaseURL.
func New(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{config: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// do performs a request and returns the envelope's data. Any non-2xx status
// or an envelope with ok=false is an *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api marshal: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	target := c.config.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("api request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api http %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("api read body: %w", err)
	}

	trimmed := bytes.TrimSpace(raw)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && len(trimmed) > 0 && trimmed[0] == '[' {
		return trimmed, nil
	}

	var env envelope
	if len(trimmed) > 0 {
		if err := json.Unmarshal(trimmed, &env); err != nil && resp.StatusCode < 300 {
			return nil, fmt.Errorf("api unmarshal: %w", err)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.OK {
		status := resp.StatusCode
		return nil, &APIError{Status: status, Code: env.Error}
	}
	return env.Data, nil
}

// FetchSchema implements catalog.SchemaFetcher. A category without a
// schema yields nil, nil.
func (c *Client) FetchSchema(ctx context.Context, categoryID uuid.UUID, locale string) (*catalog.Payload, error) {
	q := url.Values{"category_id": {categoryID.String()}}
	if locale != "" {
		q.Set("lang", locale)
	}
	data, err := c.do(ctx, http.MethodGet, "/api/catalog/schema", q, nil)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var p catalog.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("api schema unmarshal: %w", err)
	}
	return &p, nil
}

// referenceParams names the query parameter that carries a dependent
// list's parent id.
var referenceParams = map[string]string{
	catalog.SourceVehicleModels: "make_id",
	catalog.SourceDeviceModels:  "brand_id",
}

// ReferenceOptions implements catalog.ReferenceSource.
func (c *Client) ReferenceOptions(ctx context.Context, source, parent, locale string) ([]catalog.Option, error) {
	q := url.Values{}
	if locale != "" {
		q.Set("lang", locale)
	}
	if param, ok := referenceParams[source]; ok && parent != "" {
		q.Set(param, parent)
	}
	data, err := c.do(ctx, http.MethodGet, "/api/catalog/"+url.PathEscape(source), q, nil)
	if err != nil {
		return nil, err
	}

	var rows []models.ReferenceItem
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("api reference unmarshal %s: %w", source, err)
	}
	opts := make([]catalog.Option, 0, len(rows))
	for _, r := range rows {
		opts = append(opts, catalog.Option{Value: r.ID, Label: r.Name})
	}
	return opts, nil
}

// CreateDraft creates an empty draft advert for the authenticated caller.
// owner is implied by the token.
func (c *Client) CreateDraft(ctx context.Context, _ uuid.UUID) (uuid.UUID, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/adverts", nil, struct{}{})
	if err != nil {
		return uuid.Nil, err
	}
	var out struct {
		Advert struct {
			ID uuid.UUID `json:"id"`
		} `json:"advert"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return uuid.Nil, fmt.Errorf("api draft unmarshal: %w", err)
	}
	if out.Advert.ID == uuid.Nil {
		return uuid.Nil, errors.New("api: draft response without id")
	}
	return out.Advert.ID, nil
}

// patchBody keeps an empty specifics map on the wire, where it clears the
// stored attributes.
type patchBody struct {
	models.AdvertPatch
	Specifics *specifics.Specifics `json:"specifics,omitempty"`
}

// UpdateAdvert sends a partial update. Nil patch fields are omitted.
func (c *Client) UpdateAdvert(ctx context.Context, _ uuid.UUID, id uuid.UUID, patch models.AdvertPatch) error {
	body := patchBody{AdvertPatch: patch}
	if patch.Specifics != nil {
		body.Specifics = &patch.Specifics
	}
	_, err := c.do(ctx, http.MethodPatch, "/api/adverts/"+id.String(), nil, body)
	return err
}

// DeleteAdvert deletes an advert.
func (c *Client) DeleteAdvert(ctx context.Context, _ uuid.UUID, id uuid.UUID) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/adverts/"+id.String(), nil, nil)
	return err
}

// CountMedia returns how many media items an advert has.
func (c *Client) CountMedia(ctx context.Context, advertID uuid.UUID) (int, error) {
	q := url.Values{"advertId": {advertID.String()}}
	data, err := c.do(ctx, http.MethodGet, "/api/media/list", q, nil)
	if err != nil {
		return 0, err
	}
	var out struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("api media unmarshal: %w", err)
	}
	return len(out.Items), nil
}
