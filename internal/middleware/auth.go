// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, rate limiting and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/service"
	"github.com/thepilgrim/pilgrim-go/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request-scoped data.
const (
	ContextKeyUser       ContextKey = "user"
	ContextKeyVisitorKey ContextKey = "visitor_key"
)

// Session keys.
const (
	SessionKeyUserID     = "user_id"
	SessionKeyVisitorKey = "visitor_key"
)

// isAPIRequest reports whether the request targets a JSON endpoint.
// API routes get JSON errors; the login page gets redirects.
func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// Auth creates middleware that requires an authenticated session.
// API routes receive a 401 JSON body; browser routes are redirected
// to the login page.
func Auth(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), SessionKeyUserID)
			if userID == 0 {
				if isAPIRequest(r) {
					WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				} else {
					http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoadUser creates middleware that loads the current user into the request
// context. Sessions referring to deleted or deactivated users are destroyed.
// Use after Auth.
func LoadUser(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), SessionKeyUserID)
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := queries.GetUserByID(r.Context(), userID)
			if err != nil || !user.IsActive {
				_ = sm.Destroy(r.Context())
				if isAPIRequest(r) {
					WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Session is no longer valid", nil)
				} else {
					http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
				}
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *model.User {
	user, ok := r.Context().Value(ContextKeyUser).(model.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserID returns the current user's ID from context, or 0 if not found.
// Safe to use in logging where a zero-value is acceptable.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// roleLevel returns a numeric level for role hierarchy.
// Higher level = more permissions. Unknown roles have no admin access.
func roleLevel(role string) int {
	switch role {
	case model.RoleAdmin:
		return 3
	case model.RoleEditor:
		return 2
	case model.RoleModerator:
		return 1
	default:
		return 0
	}
}

// RequireRole creates middleware that requires a minimum user role.
// Roles are hierarchical: admin > editor > moderator. Denials are written
// to the audit log when an event service is provided.
func RequireRole(minRole string, events *service.EventService) func(http.Handler) http.Handler {
	minLevel := roleLevel(minRole)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				if isAPIRequest(r) {
					WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				} else {
					http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
				}
				return
			}

			if roleLevel(user.Role) < minLevel {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", user.ID,
					"user_role", user.Role,
					"required_role", minRole,
				)
				if events != nil {
					events.LogRequest(r, model.EventLevelWarning, model.EventCategoryAuth,
						"access denied: insufficient role", user.ID, map[string]any{
							"method":        r.Method,
							"path":          r.URL.Path,
							"user_role":     user.Role,
							"required_role": minRole,
						})
				}
				WriteAPIError(w, http.StatusForbidden, "forbidden", "Insufficient permissions", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is shorthand for RequireRole(admin).
func RequireAdmin(events *service.EventService) func(http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin, events)
}

// RequireEditor allows admin and editor users.
func RequireEditor(events *service.EventService) func(http.Handler) http.Handler {
	return RequireRole(model.RoleEditor, events)
}

// RequireModerator allows any back-office role.
func RequireModerator(events *service.EventService) func(http.Handler) http.Handler {
	return RequireRole(model.RoleModerator, events)
}
