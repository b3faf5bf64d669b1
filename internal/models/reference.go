// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// ReferenceItem is one row of a reference-data list (vehicle makes, device
// brands, EPC ratings and so on). ParentID links dependent lists such as
// models to their make.
type ReferenceItem struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
	Code     string `json:"code,omitempty"`
	Name     string `json:"name"`
	Sort     int    `json:"sort"`
}
