// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Like is a per-user "liked" mark on a country or post. The table carries a
// UNIQUE(user_key, item_id, item_type) constraint; that index is the source
// of truth for the denormalized counters on the target entities.
type Like struct {
	ID        int64     `json:"id"`
	UserKey   string    `json:"user_key"` // anonymous browser identifier
	ItemID    int64     `json:"item_id"`
	ItemType  string    `json:"item_type"` // ItemTypeCountry or ItemTypePost
	CreatedAt time.Time `json:"created_at"`
}

// ValidItemType reports whether t names a likeable entity.
func ValidItemType(t string) bool {
	return t == ItemTypeCountry || t == ItemTypePost
}
