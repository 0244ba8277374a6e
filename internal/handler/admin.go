// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/thepilgrim/pilgrim-go/internal/cache"
	"github.com/thepilgrim/pilgrim-go/internal/imaging"
	"github.com/thepilgrim/pilgrim-go/internal/middleware"
	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/service"
	"github.com/thepilgrim/pilgrim-go/internal/storage"
	"github.com/thepilgrim/pilgrim-go/internal/store"
)

// AdminHandler holds shared dependencies for the back-office JSON handlers.
type AdminHandler struct {
	db             *sql.DB
	queries        *store.Queries
	sessionManager *scs.SessionManager
	events         *service.EventService
	cache          *cache.Manager
	storage        storage.ObjectStorage
	processor      *imaging.Processor
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *sql.DB, sm *scs.SessionManager, cm *cache.Manager, st storage.ObjectStorage) *AdminHandler {
	return &AdminHandler{
		db:             db,
		queries:        store.New(db),
		sessionManager: sm,
		events:         service.NewEventService(db),
		cache:          cm,
		storage:        st,
		processor:      imaging.NewProcessor(),
	}
}

// Verify reports whether the current session belongs to a back-office user.
// The frontend calls this to decide whether to reveal admin UI affordances.
func (h *AdminHandler) Verify(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		writeJSONSuccess(w, map[string]any{"isAdmin": false})
		return
	}
	writeJSONSuccess(w, map[string]any{
		"isAdmin": true,
		"user": map[string]any{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

// VerifyEmail checks whether a given email belongs to an active back-office
// user. The caller is already authenticated; this exists so the admin UI can
// confirm an address before granting it elevated frontend affordances.
func (h *AdminHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSONError(w, http.StatusBadRequest, "Email is required")
		return
	}

	user, err := h.queries.GetActiveUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONSuccess(w, map[string]any{
				"isAdmin": false,
				"message": "Not a back-office account",
			})
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "Failed to verify account")
		return
	}

	// Successful verification counts as activity on the account.
	if err := h.queries.UpdateUserLastLogin(r.Context(), user.ID, time.Now()); err != nil {
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
	}

	writeJSONSuccess(w, map[string]any{
		"isAdmin": true,
		"role":    user.Role,
		"message": "Verified",
	})
}

// Dashboard returns counts for the back-office landing page.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	countries, err := h.queries.CountCountries(ctx, false)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}
	posts, err := h.queries.CountPosts(ctx, "", 0)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}
	pendingFlag := false
	pendingComments, err := h.queries.CountComments(ctx, &pendingFlag)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}
	pendingReservations, err := h.queries.CountReservations(ctx, model.ReservationStatusPending)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}
	paidReservations, err := h.queries.CountReservations(ctx, model.ReservationStatusPaid)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}
	messages, err := h.queries.CountContactMessages(ctx)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}
	likes, err := h.queries.CountLikes(ctx)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}
	recentEvents, err := h.queries.ListEvents(ctx, store.ListEventsParams{Limit: 10})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}
	topLiked, err := h.queries.TopLikedItems(ctx, 5)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	writeJSONSuccess(w, map[string]any{
		"counts": map[string]any{
			"countries":            countries,
			"posts":                posts,
			"pending_comments":     pendingComments,
			"pending_reservations": pendingReservations,
			"paid_reservations":    paidReservations,
			"contact_messages":     messages,
			"likes":                likes,
		},
		"recent_events": recentEvents,
		"top_liked":     topLiked,
	})
}

// CacheStats returns cache hit/miss counters for the ops panel.
func (h *AdminHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "Cache not configured")
		return
	}
	stats, ok := h.cache.Stats()
	if !ok {
		writeJSONError(w, http.StatusServiceUnavailable, "Cache stats unavailable")
		return
	}
	writeJSONSuccess(w, map[string]any{"stats": stats})
}

// CacheClear flushes the content cache.
func (h *AdminHandler) CacheClear(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "Cache not configured")
		return
	}
	h.cache.ClearAll(r.Context())
	h.events.LogRequest(r, model.EventLevelInfo, model.EventCategoryCache,
		"cache cleared", middleware.GetUserID(r), nil)
	writeJSONSuccess(w, nil)
}
