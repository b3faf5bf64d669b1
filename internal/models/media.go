// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Media is a photo attached to an advert. The file lives in object storage;
// older rows may hold an absolute URL instead of a storage key.
type Media struct {
	ID          uuid.UUID `json:"id"`
	AdvertID    uuid.UUID `json:"advert_id"`
	StoragePath string    `json:"storage_path"`
	ContentType string    `json:"content_type"`
	Width       *int      `json:"width,omitempty"`
	Height      *int      `json:"height,omitempty"`
	Sort        int       `json:"sort"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsImage returns true if the media item is an image type.
func (m *Media) IsImage() bool {
	return strings.HasPrefix(m.ContentType, "image/")
}

// IsLegacyURL reports whether StoragePath is already an absolute URL and
// must be served as is.
func (m *Media) IsLegacyURL() bool {
	return strings.HasPrefix(m.StoragePath, "http://") || strings.HasPrefix(m.StoragePath, "https://")
}
