// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/thepilgrim/pilgrim-go/internal/middleware"
	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/store"
	"github.com/thepilgrim/pilgrim-go/internal/util"
)

// PostRequest is the request body for creating or updating a blog post.
type PostRequest struct {
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Excerpt   string `json:"excerpt"`
	Content   string `json:"content"`
	CountryID int64  `json:"country_id"` // 0 = no country
	Status    string `json:"status"`
}

func (req *PostRequest) validate() map[string]string {
	problems := make(map[string]string)
	if strings.TrimSpace(req.Title) == "" {
		problems["title"] = "Title is required"
	}
	if strings.TrimSpace(req.Content) == "" {
		problems["content"] = "Content is required"
	}
	if req.Slug != "" && !util.IsValidSlug(req.Slug) {
		problems["slug"] = "Slug may contain lowercase letters, digits and hyphens"
	}
	switch req.Status {
	case "", model.PostStatusDraft, model.PostStatusPublished:
	default:
		problems["status"] = "Status must be draft or published"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// ListPosts handles GET /api/admin/posts with optional status and country
// filters.
func (h *AdminHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page := ParsePageParam(r)
	perPage := ParsePerPageParam(r, 20, 100)
	status := r.URL.Query().Get("status")
	countryID := ParseQueryInt64(r, "country")

	posts, err := h.queries.ListPosts(r.Context(), store.ListPostsParams{
		Status:    status,
		CountryID: countryID,
		Limit:     int64(perPage),
		Offset:    int64((page - 1) * perPage),
	})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to list posts")
		return
	}
	total, err := h.queries.CountPosts(r.Context(), status, countryID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to count posts")
		return
	}

	writeJSONSuccess(w, map[string]any{
		"posts":    posts,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// GetPost handles GET /api/admin/posts/{id}.
func (h *AdminHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.postByID(w, r)
	if !ok {
		return
	}
	writeJSONSuccess(w, map[string]any{"post": post})
}

// CreatePost handles POST /api/admin/posts. An empty slug is derived from
// the title; reading time is computed from the content.
func (h *AdminHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if problems := req.validate(); problems != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, firstProblem(problems))
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = util.Slugify(req.Title)
	}
	if slug == "" {
		writeJSONError(w, http.StatusUnprocessableEntity, "Could not derive a slug from the title")
		return
	}
	if _, err := h.queries.GetPostBySlug(r.Context(), slug); err == nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "A post with this slug already exists")
		return
	}

	status := req.Status
	if status == "" {
		status = model.PostStatusDraft
	}

	now := time.Now()
	params := store.CreatePostParams{
		Title:       req.Title,
		Slug:        slug,
		Excerpt:     req.Excerpt,
		Content:     req.Content,
		AuthorID:    middleware.GetUserID(r),
		CountryID:   nullInt64(req.CountryID),
		Status:      status,
		ReadingTime: int64(util.ReadingTime(req.Content)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if status == model.PostStatusPublished {
		params.PublishedAt = sql.NullTime{Time: now, Valid: true}
	}

	post, err := h.queries.CreatePost(r.Context(), params)
	if err != nil {
		slog.Error("failed to create post", "error", err, "slug", slug)
		writeJSONError(w, http.StatusInternalServerError, "Failed to create post")
		return
	}

	h.invalidatePosts(r)
	h.events.LogRequest(r, model.EventLevelInfo, model.EventCategoryBlog,
		"post created", middleware.GetUserID(r), map[string]any{"post_id": post.ID, "slug": post.Slug})

	w.WriteHeader(http.StatusCreated)
	writeJSONSuccess(w, map[string]any{"post": post})
}

// UpdatePost handles PUT /api/admin/posts/{id}.
func (h *AdminHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.postByID(w, r)
	if !ok {
		return
	}

	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if problems := req.validate(); problems != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, firstProblem(problems))
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = existing.Slug
	}
	if slug != existing.Slug {
		if _, err := h.queries.GetPostBySlug(r.Context(), slug); err == nil {
			writeJSONError(w, http.StatusUnprocessableEntity, "A post with this slug already exists")
			return
		}
	}

	status := req.Status
	if status == "" {
		status = existing.Status
	}

	params := store.UpdatePostParams{
		ID:          existing.ID,
		Title:       req.Title,
		Slug:        slug,
		Excerpt:     req.Excerpt,
		Content:     req.Content,
		CountryID:   nullInt64(req.CountryID),
		Status:      status,
		ReadingTime: int64(util.ReadingTime(req.Content)),
		PublishedAt: existing.PublishedAt,
		UpdatedAt:   time.Now(),
	}
	// First transition to published stamps the timestamp; reverting to
	// draft keeps it so republishing preserves the original date.
	if status == model.PostStatusPublished && !existing.PublishedAt.Valid {
		params.PublishedAt = sql.NullTime{Time: time.Now(), Valid: true}
	}

	post, err := h.queries.UpdatePost(r.Context(), params)
	if err != nil {
		slog.Error("failed to update post", "error", err, "post_id", existing.ID)
		writeJSONError(w, http.StatusInternalServerError, "Failed to update post")
		return
	}

	h.invalidatePosts(r)
	h.events.LogRequest(r, model.EventLevelInfo, model.EventCategoryBlog,
		"post updated", middleware.GetUserID(r), map[string]any{"post_id": post.ID, "slug": post.Slug})

	writeJSONSuccess(w, map[string]any{"post": post})
}

// PublishPost handles POST /api/admin/posts/{id}/publish.
func (h *AdminHandler) PublishPost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.postByID(w, r)
	if !ok {
		return
	}
	if err := h.queries.PublishPost(r.Context(), post.ID, time.Now()); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to publish post")
		return
	}

	h.invalidatePosts(r)
	h.events.LogRequest(r, model.EventLevelInfo, model.EventCategoryBlog,
		"post published", middleware.GetUserID(r), map[string]any{"post_id": post.ID, "slug": post.Slug})
	writeJSONSuccess(w, nil)
}

// UnpublishPost handles POST /api/admin/posts/{id}/unpublish.
func (h *AdminHandler) UnpublishPost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.postByID(w, r)
	if !ok {
		return
	}
	if err := h.queries.UnpublishPost(r.Context(), post.ID); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to unpublish post")
		return
	}

	h.invalidatePosts(r)
	h.events.LogRequest(r, model.EventLevelInfo, model.EventCategoryBlog,
		"post unpublished", middleware.GetUserID(r), map[string]any{"post_id": post.ID, "slug": post.Slug})
	writeJSONSuccess(w, nil)
}

// DeletePost handles DELETE /api/admin/posts/{id}. Comments cascade.
func (h *AdminHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.postByID(w, r)
	if !ok {
		return
	}
	if err := h.queries.DeletePost(r.Context(), post.ID); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to delete post")
		return
	}

	h.invalidatePosts(r)
	h.events.LogRequest(r, model.EventLevelInfo, model.EventCategoryBlog,
		"post deleted", middleware.GetUserID(r), map[string]any{"post_id": post.ID, "slug": post.Slug})
	writeJSONSuccess(w, nil)
}

func (h *AdminHandler) postByID(w http.ResponseWriter, r *http.Request) (model.Post, bool) {
	id, err := ParseIDParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid post ID")
		return model.Post{}, false
	}
	post, err := h.queries.GetPostByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "Post not found")
		} else {
			writeJSONError(w, http.StatusInternalServerError, "Failed to load post")
		}
		return model.Post{}, false
	}
	return post, true
}

func nullInt64(v int64) sql.NullInt64 {
	if v <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}
