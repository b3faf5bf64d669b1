// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"

	"classifieds/internal/specifics"
)

// AdvertStatus represents the publishing state of an advert.
type AdvertStatus string

const (
	AdvertStatusDraft    AdvertStatus = "draft"
	AdvertStatusActive   AdvertStatus = "active"
	AdvertStatusArchived AdvertStatus = "archived"
)

// Valid reports whether s is a known status.
func (s AdvertStatus) Valid() bool {
	switch s {
	case AdvertStatusDraft, AdvertStatusActive, AdvertStatusArchived:
		return true
	}
	return false
}

// CanTransition reports whether an advert may move from s to next. Staying
// in the same status is always allowed.
func (s AdvertStatus) CanTransition(next AdvertStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	switch s {
	case AdvertStatusDraft:
		return next == AdvertStatusActive || next == AdvertStatusArchived
	case AdvertStatusActive:
		return next == AdvertStatusArchived
	case AdvertStatusArchived:
		return next == AdvertStatusActive
	}
	return false
}

// Item conditions accepted on adverts.
const (
	ConditionNew      = "new"
	ConditionUsed     = "used"
	ConditionForParts = "for_parts"
)

// ValidCondition reports whether c is an accepted item condition.
func ValidCondition(c string) bool {
	switch c {
	case ConditionNew, ConditionUsed, ConditionForParts:
		return true
	}
	return false
}

// DraftTitle is the placeholder title of a freshly created draft.
const DraftTitle = "Draft"

// Advert is a classified listing with its attribute sidecar.
type Advert struct {
	ID          uuid.UUID           `json:"id"`
	UserID      uuid.UUID           `json:"user_id"`
	CategoryID  uuid.UUID           `json:"category_id"`
	Title       string              `json:"title"`
	Description *string             `json:"description,omitempty"`
	Price       *float64            `json:"price,omitempty"`
	Currency    string              `json:"currency"`
	Location    *string             `json:"location,omitempty"`
	Condition   *string             `json:"condition,omitempty"`
	Status      AdvertStatus        `json:"status"`
	Specifics   specifics.Specifics `json:"specifics,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`

	// Virtual fields populated by store methods.
	CategoryPath string `json:"category_path,omitempty"`
	SellerName   string `json:"seller_name,omitempty"`
	MediaCount   int    `json:"media_count,omitempty"`
}

// IsActive returns true if the advert is publicly visible.
func (a *Advert) IsActive() bool {
	return a.Status == AdvertStatusActive
}

// AdvertPatch is a partial advert update. Nil fields are left unchanged and
// are not sent on the wire.
type AdvertPatch struct {
	Title       *string             `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	CategoryID  *uuid.UUID          `json:"category_id,omitempty"`
	Condition   *string             `json:"condition,omitempty" validate:"omitempty,oneof=new used for_parts"`
	Description *string             `json:"description,omitempty" validate:"omitempty,min=10,max=20000"`
	Price       *float64            `json:"price,omitempty" validate:"omitempty,gte=0"`
	Location    *string             `json:"location,omitempty" validate:"omitempty,max=200"`
	Currency    *string             `json:"currency,omitempty" validate:"omitempty,len=3"`
	Status      *AdvertStatus       `json:"status,omitempty" validate:"omitempty,oneof=draft active archived"`
	Specifics   specifics.Specifics `json:"specifics,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p *AdvertPatch) Empty() bool {
	return p.Title == nil && p.CategoryID == nil && p.Condition == nil &&
		p.Description == nil && p.Price == nil && p.Location == nil &&
		p.Currency == nil && p.Status == nil && p.Specifics == nil
}
