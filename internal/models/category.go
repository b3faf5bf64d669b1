// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category is a node of the marketplace category tree. Path is the
// slash-separated slug ancestry and Level its segment count.
type Category struct {
	ID        uuid.UUID         `json:"id"`
	ParentID  *uuid.UUID        `json:"parent_id"`
	Slug      string            `json:"slug"`
	Path      string            `json:"path"`
	Level     int               `json:"level"`
	Names     map[string]string `json:"names"`
	Sort      int               `json:"sort"`
	IsActive  bool              `json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`

	// Virtual fields populated by store methods.
	Children []Category `json:"children,omitempty"`
}

// Name returns the category name in locale, falling back to English and
// then to the slug.
func (c *Category) Name(locale string) string {
	if n := c.Names[locale]; n != "" {
		return n
	}
	if n := c.Names["en"]; n != "" {
		return n
	}
	return c.Slug
}

// ChildPath returns the path of a direct child with the given slug.
func (c *Category) ChildPath(slug string) string {
	return c.Path + "/" + slug
}

// PathLevel returns the number of segments in a category path.
func PathLevel(path string) int {
	path = strings.Trim(path, "/")
	if path == "" {
		return 0
	}
	return strings.Count(path, "/") + 1
}
