// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/thepilgrim/pilgrim-go/internal/handler"
	"github.com/thepilgrim/pilgrim-go/internal/model"
)

// htmlSanitizer strips dangerous markup from rendered post content.
// UGCPolicy allows the safe subset of HTML for user-facing documents.
var htmlSanitizer = bluemonday.UGCPolicy()

// renderMarkdown converts markdown content to sanitized HTML.
func renderMarkdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return htmlSanitizer.Sanitize(buf.String()), nil
}

// PostDetail is a published post with its content rendered for display.
type PostDetail struct {
	model.Post
	RenderedHTML string `json:"rendered_html"`
}

// ListPosts handles GET /api/blog: published posts, newest first, with an
// optional country_id filter and pagination.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, 10, 50)
	countryID := handler.ParseQueryInt64(r, "country_id")

	posts, err := h.public.ListPublishedPosts(r.Context(), countryID, int64(perPage), int64((page-1)*perPage))
	if err != nil {
		WriteInternalError(w, "Failed to list posts")
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}

	total, err := h.public.CountPublishedPosts(r.Context(), countryID)
	if err != nil {
		WriteInternalError(w, "Failed to count posts")
		return
	}

	WriteSuccess(w, posts, &Meta{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   pageCount(total, perPage),
	})
}

// GetPost handles GET /api/blog/{slug}. The view counter increments on
// every successful read; a counter failure is logged but never hides the
// post. Content is rendered from markdown to sanitized HTML.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		WriteBadRequest(w, "Missing post slug", nil)
		return
	}

	post, err := h.public.GetPublishedPostBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Post not found")
		} else {
			WriteInternalError(w, "Failed to retrieve post")
		}
		return
	}

	if err := h.public.IncrementPostViews(r.Context(), post.ID); err != nil {
		slog.Warn("view counter update failed", "category", "content", "post_id", post.ID, "error", err)
	} else {
		post.ViewsCount++
	}

	rendered, err := renderMarkdown(post.Content)
	if err != nil {
		WriteInternalError(w, "Failed to render post")
		return
	}

	WriteSuccess(w, PostDetail{Post: post, RenderedHTML: rendered}, nil)
}
