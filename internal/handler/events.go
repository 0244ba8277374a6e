// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/store"
)

// ListEvents handles GET /api/admin/events with optional level and category
// filters. This is the audit log view.
func (h *AdminHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	page := ParsePageParam(r)
	perPage := ParsePerPageParam(r, 50, 200)
	level := r.URL.Query().Get("level")
	category := r.URL.Query().Get("category")

	switch level {
	case "", model.EventLevelInfo, model.EventLevelWarning, model.EventLevelError:
	default:
		writeJSONError(w, http.StatusBadRequest, "Unknown event level")
		return
	}

	events, err := h.queries.ListEvents(r.Context(), store.ListEventsParams{
		Level:    level,
		Category: category,
		Limit:    int64(perPage),
		Offset:   int64((page - 1) * perPage),
	})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}
	total, err := h.queries.CountEvents(r.Context(), level)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to count events")
		return
	}

	writeJSONSuccess(w, map[string]any{
		"events":   events,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}
