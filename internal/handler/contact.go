// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/thepilgrim/pilgrim-go/internal/middleware"
	"github.com/thepilgrim/pilgrim-go/internal/model"
)

// ListContactMessages handles GET /api/admin/messages, newest first.
func (h *AdminHandler) ListContactMessages(w http.ResponseWriter, r *http.Request) {
	page := ParsePageParam(r)
	perPage := ParsePerPageParam(r, 20, 100)

	messages, err := h.queries.ListContactMessages(r.Context(), int64(perPage), int64((page-1)*perPage))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to list messages")
		return
	}
	total, err := h.queries.CountContactMessages(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to count messages")
		return
	}

	writeJSONSuccess(w, map[string]any{
		"messages": messages,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// DeleteContactMessage handles DELETE /api/admin/messages/{id}.
func (h *AdminHandler) DeleteContactMessage(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	if err := h.queries.DeleteContactMessage(r.Context(), id); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to delete message")
		return
	}

	h.events.LogRequest(r, model.EventLevelInfo, model.EventCategorySystem,
		"contact message deleted", middleware.GetUserID(r), map[string]any{"message_id": id})
	writeJSONSuccess(w, nil)
}
