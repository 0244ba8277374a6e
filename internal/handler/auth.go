// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/thepilgrim/pilgrim-go/internal/auth"
	"github.com/thepilgrim/pilgrim-go/internal/middleware"
	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/service"
	"github.com/thepilgrim/pilgrim-go/internal/store"
	"github.com/thepilgrim/pilgrim-go/internal/util"
)

//go:embed templates/login.html
var templateFS embed.FS

var loginTemplate = template.Must(template.ParseFS(templateFS, "templates/login.html"))

const (
	routeLogin     = "/admin/login"
	routeDashboard = "/admin"
)

// AuthHandler handles the login page and session lifecycle.
type AuthHandler struct {
	queries         *store.Queries
	sessionManager  *scs.SessionManager
	events          *service.EventService
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		sessionManager:  sm,
		events:          service.NewEventService(db),
		loginProtection: lp,
	}
}

// loginPageData feeds the login template.
type loginPageData struct {
	Flash     string
	FlashType string
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, data loginPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := loginTemplate.Execute(w, data); err != nil {
		slog.Error("login template render failed", "error", err)
	}
}

// flashError stores an error flash and redirects back to the login form.
func (h *AuthHandler) flashError(w http.ResponseWriter, r *http.Request, message string) {
	h.sessionManager.Put(r.Context(), "flash", message)
	h.sessionManager.Put(r.Context(), "flash_type", "error")
	http.Redirect(w, r, routeLogin, http.StatusSeeOther)
}

// LoginForm renders the login page.
// Already-authenticated users are sent to the dashboard.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID); userID > 0 {
		http.Redirect(w, r, routeDashboard, http.StatusSeeOther)
		return
	}

	data := loginPageData{
		Flash:     h.sessionManager.PopString(r.Context(), "flash"),
		FlashType: h.sessionManager.PopString(r.Context(), "flash_type"),
	}
	if data.Flash != "" && data.FlashType == "" {
		data.FlashType = "info"
	}
	h.renderLogin(w, data)
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashError(w, r, "Invalid form data.")
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	if email == "" || password == "" {
		h.flashError(w, r, "Email and password are required.")
		return
	}

	clientIP := util.ClientIP(r)

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
			h.events.LogWarning(r.Context(), model.EventCategoryAuth,
				"login attempt on locked account", 0, clientIP, map[string]any{"email": email})
			h.flashError(w, r, fmt.Sprintf("Account temporarily locked. Try again in %s.", formatDuration(remaining)))
			return
		}
	}

	user, err := h.queries.GetActiveUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.events.LogWarning(r.Context(), model.EventCategoryAuth,
				"login failed: user not found", 0, clientIP, map[string]any{"email": email})
		} else {
			slog.Error("database error during login", "error", err)
		}
		// Record the failure even for unknown accounts to prevent enumeration.
		h.recordFailure(w, r, email)
		return
	}

	valid, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err)
		h.flashError(w, r, "Invalid email or password.")
		return
	}
	if !valid {
		h.events.LogWarning(r.Context(), model.EventCategoryAuth,
			"login failed: invalid password", user.ID, clientIP, map[string]any{"email": email})
		h.recordFailure(w, r, email)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(email)
	}

	// Migrate hashes created with older parameters.
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, hashErr := auth.HashPassword(password); hashErr == nil {
			if updErr := h.queries.UpdateUserPassword(r.Context(), user.ID, newHash, time.Now()); updErr != nil {
				slog.Error("failed to re-hash password", "error", updErr, "user_id", user.ID)
			}
		}
	}

	if err := h.queries.UpdateUserLastLogin(r.Context(), user.ID, time.Now()); err != nil {
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
	}

	// Regenerate session ID to prevent session fixation.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		slog.Error("session renewal error", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)
	h.events.LogInfo(r.Context(), model.EventCategoryAuth, "user logged in",
		user.ID, clientIP, map[string]any{"email": user.Email})

	http.Redirect(w, r, routeDashboard, http.StatusSeeOther)
}

// recordFailure tracks a failed attempt and renders the appropriate error.
func (h *AuthHandler) recordFailure(w http.ResponseWriter, r *http.Request, email string) {
	if h.loginProtection != nil {
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
			h.events.LogWarning(r.Context(), model.EventCategoryAuth,
				"account locked due to failed attempts", 0, util.ClientIP(r),
				map[string]any{"email": email, "duration": lockDuration.String()})
			h.flashError(w, r, fmt.Sprintf("Too many attempts. Account locked for %s.", formatDuration(lockDuration)))
			return
		}
		if remaining := h.loginProtection.GetRemainingAttempts(email); remaining <= 3 && remaining > 0 {
			h.flashError(w, r, fmt.Sprintf("Invalid email or password. %d attempts remaining.", remaining))
			return
		}
	}
	h.flashError(w, r, "Invalid email or password.")
}

// Logout destroys the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID)
	if userID > 0 {
		h.events.LogInfo(r.Context(), model.EventCategoryAuth, "user logged out",
			userID, util.ClientIP(r), nil)
	}

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	http.Redirect(w, r, routeLogin, http.StatusSeeOther)
}

// formatDuration renders a lockout duration for the login page.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	minutes := int(d.Round(time.Minute).Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%d minutes", minutes)
	}
	return fmt.Sprintf("%.1f hours", d.Hours())
}
