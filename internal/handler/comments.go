// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/thepilgrim/pilgrim-go/internal/middleware"
	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/store"
)

// ListComments handles GET /api/admin/comments. The default view is the
// moderation queue (pending only); ?approved=true shows approved comments.
func (h *AdminHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	page := ParsePageParam(r)
	perPage := ParsePerPageParam(r, 50, 200)

	var approved *bool
	switch r.URL.Query().Get("approved") {
	case "true":
		v := true
		approved = &v
	case "false", "":
		v := false
		approved = &v
	case "any":
	default:
		writeJSONError(w, http.StatusBadRequest, "approved must be true, false or any")
		return
	}

	comments, err := h.queries.ListComments(r.Context(), store.ListCommentsParams{
		Approved: approved,
		Limit:    int64(perPage),
		Offset:   int64((page - 1) * perPage),
	})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to list comments")
		return
	}
	total, err := h.queries.CountComments(r.Context(), approved)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to count comments")
		return
	}

	writeJSONSuccess(w, map[string]any{
		"comments": comments,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// commentBatchRequest carries comment IDs for bulk moderation.
type commentBatchRequest struct {
	IDs []int64 `json:"ids"`
}

func decodeCommentBatch(w http.ResponseWriter, r *http.Request) ([]int64, bool) {
	var req commentBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	if len(req.IDs) == 0 {
		writeJSONError(w, http.StatusBadRequest, "No comment IDs given")
		return nil, false
	}
	return req.IDs, true
}

// ApproveComments handles POST /api/admin/comments/approve.
func (h *AdminHandler) ApproveComments(w http.ResponseWriter, r *http.Request) {
	ids, ok := decodeCommentBatch(w, r)
	if !ok {
		return
	}

	n, err := h.queries.SetCommentsApproved(r.Context(), ids, true)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to approve comments")
		return
	}

	h.events.LogRequest(r, model.EventLevelInfo, model.EventCategoryComment,
		"comments approved", middleware.GetUserID(r), map[string]any{"count": n})
	writeJSONSuccess(w, map[string]any{"updated": n})
}

// RejectComments handles POST /api/admin/comments/reject. Rejected comments
// go back to pending so they disappear from the public thread.
func (h *AdminHandler) RejectComments(w http.ResponseWriter, r *http.Request) {
	ids, ok := decodeCommentBatch(w, r)
	if !ok {
		return
	}

	n, err := h.queries.SetCommentsApproved(r.Context(), ids, false)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to reject comments")
		return
	}

	h.events.LogRequest(r, model.EventLevelInfo, model.EventCategoryComment,
		"comments rejected", middleware.GetUserID(r), map[string]any{"count": n})
	writeJSONSuccess(w, map[string]any{"updated": n})
}

// DeleteComments handles POST /api/admin/comments/delete.
func (h *AdminHandler) DeleteComments(w http.ResponseWriter, r *http.Request) {
	ids, ok := decodeCommentBatch(w, r)
	if !ok {
		return
	}

	n, err := h.queries.DeleteComments(r.Context(), ids)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to delete comments")
		return
	}

	h.events.LogRequest(r, model.EventLevelInfo, model.EventCategoryComment,
		"comments deleted", middleware.GetUserID(r), map[string]any{"count": n})
	writeJSONSuccess(w, map[string]any{"deleted": n})
}
