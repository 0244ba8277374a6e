// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/store"
	"github.com/thepilgrim/pilgrim-go/internal/util"
)

// maxCommentLength caps the comment body to keep moderation manageable.
const maxCommentLength = 4000

// ListComments handles GET /api/blog/{slug}/comments. Only approved
// comments on published posts are returned.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	post, err := h.public.GetPublishedPostBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Post not found")
		} else {
			WriteInternalError(w, "Failed to retrieve post")
		}
		return
	}

	comments, err := h.public.ListApprovedComments(r.Context(), post.ID)
	if err != nil {
		WriteInternalError(w, "Failed to list comments")
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	WriteSuccess(w, comments, &Meta{Total: int64(len(comments))})
}

// CommentRequest is a visitor comment submission.
type CommentRequest struct {
	PostID      int64  `json:"post_id"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	Body        string `json:"body"`
}

func (req *CommentRequest) validate() map[string]string {
	problems := make(map[string]string)
	req.AuthorName = strings.TrimSpace(req.AuthorName)
	req.AuthorEmail = strings.TrimSpace(req.AuthorEmail)
	req.Body = strings.TrimSpace(req.Body)

	if req.PostID <= 0 {
		problems["post_id"] = "Post ID is required"
	}
	if req.AuthorName == "" {
		problems["author_name"] = "Name is required"
	}
	if req.Body == "" {
		problems["body"] = "Comment body is required"
	} else if len(req.Body) > maxCommentLength {
		problems["body"] = "Comment is too long"
	}
	if req.AuthorEmail != "" {
		if _, err := mail.ParseAddress(req.AuthorEmail); err != nil {
			problems["author_email"] = "Invalid email address"
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// CreateComment handles POST /api/comments. Comments are created unapproved
// and queue for moderation; the submitter IP and its GeoIP country are
// recorded for the moderation view.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if problems := req.validate(); problems != nil {
		WriteValidationError(w, problems)
		return
	}

	ip := util.ClientIP(r)
	countryCode := ""
	if h.geo != nil {
		countryCode = h.geo.LookupCountry(ip)
	}

	comment, err := h.public.CreateComment(r.Context(), store.CreateCommentParams{
		PostID:      req.PostID,
		AuthorName:  req.AuthorName,
		AuthorEmail: req.AuthorEmail,
		Body:        req.Body,
		IPAddress:   ip,
		CountryCode: countryCode,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isForeignKeyViolation(err) {
			WriteNotFound(w, "Post not found")
			return
		}
		WriteInternalError(w, "Failed to create comment")
		return
	}

	WriteCreated(w, comment)
}

// isForeignKeyViolation detects a rejected post reference without binding
// to the driver's error type.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint")
}
