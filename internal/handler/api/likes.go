// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/thepilgrim/pilgrim-go/internal/middleware"
	"github.com/thepilgrim/pilgrim-go/internal/service"
)

// LikeRequest toggles a like on a country or post. UserID is the anonymous
// browser key; when absent the server falls back to a per-session key so
// cookie-only clients still get stable toggles.
type LikeRequest struct {
	ItemID   int64  `json:"item_id"`
	ItemType string `json:"item_type"`
	UserID   string `json:"user_id"`
}

// visitorKey resolves the like identity for a request: the client-supplied
// key wins, otherwise a generated key stored in the session.
func (h *Handler) visitorKey(r *http.Request, supplied string) string {
	supplied = strings.TrimSpace(supplied)
	if supplied != "" {
		return supplied
	}
	if h.sessionManager == nil {
		return ""
	}
	key := h.sessionManager.GetString(r.Context(), middleware.SessionKeyVisitorKey)
	if key == "" {
		key = uuid.NewString()
		h.sessionManager.Put(r.Context(), middleware.SessionKeyVisitorKey, key)
	}
	return key
}

// ToggleLike handles POST /api/likes. Toggling is transactional: the like
// row and the denormalized counter change together, and the response count
// is the recomputed value.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	var req LikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	key := h.visitorKey(r, req.UserID)
	if key == "" {
		WriteBadRequest(w, "Missing user key", nil)
		return
	}

	result, err := h.likes.Toggle(r.Context(), key, req.ItemID, req.ItemType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidItemType):
			WriteValidationError(w, map[string]string{"item_type": "Must be country or post"})
		case errors.Is(err, service.ErrUnknownItem):
			WriteNotFound(w, "Item not found")
		default:
			WriteInternalError(w, "Failed to toggle like")
		}
		return
	}

	WriteSuccess(w, result, nil)
}

// ListLiked handles GET /api/likes?user_id=&item_type=. Clients use it to
// reconcile their local liked-state cache after a reload.
func (h *Handler) ListLiked(w http.ResponseWriter, r *http.Request) {
	itemType := r.URL.Query().Get("item_type")
	key := h.visitorKey(r, r.URL.Query().Get("user_id"))
	if key == "" {
		WriteBadRequest(w, "Missing user key", nil)
		return
	}

	ids, err := h.likes.ListLiked(r.Context(), key, itemType)
	if err != nil {
		if errors.Is(err, service.ErrInvalidItemType) {
			WriteValidationError(w, map[string]string{"item_type": "Must be country or post"})
			return
		}
		WriteInternalError(w, "Failed to list likes")
		return
	}
	if ids == nil {
		ids = []int64{}
	}

	WriteSuccess(w, map[string]any{"liked_items": ids}, nil)
}
