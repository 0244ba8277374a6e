// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including Country, Post, Reservation, User, and audit event structures.
package model

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Admin roles, ordered by privilege: admin > editor > moderator.
const (
	RoleAdmin     = "admin"
	RoleEditor    = "editor"
	RoleModerator = "moderator"
)

// User represents a back-office user. Only users present in this table
// (and active) may pass the admin gate; there is no self-registration.
type User struct {
	ID           int64        `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never expose in JSON
	Name         string       `json:"name"`
	Role         string       `json:"role"`
	IsActive     bool         `json:"is_active"`
	Permissions  string       `json:"permissions"` // JSON object, e.g. {"blog":true}
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	LastLoginAt  sql.NullTime `json:"last_login_at,omitempty"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PermissionMap parses the permissions JSON object.
// Returns an empty map if the field is empty or malformed.
func (u *User) PermissionMap() map[string]bool {
	perms := make(map[string]bool)
	if u.Permissions == "" {
		return perms
	}
	_ = json.Unmarshal([]byte(u.Permissions), &perms)
	return perms
}
