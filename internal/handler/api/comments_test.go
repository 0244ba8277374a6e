// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/thepilgrim/pilgrim-go/internal/model"
)

func TestCreateCommentEntersModerationQueue(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t)
	post := env.createPost(t, author.ID, "welcome", model.PostStatusPublished, "Hi")

	rec := env.do(t, http.MethodPost, "/api/comments", CommentRequest{
		PostID:     post.ID,
		AuthorName: "Ana",
		Body:       "Great post!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var got model.Comment
	decodeData(t, rec, &got)
	if got.Approved {
		t.Error("new comment must not be approved")
	}

	// Unapproved comments stay invisible on the public thread.
	rec = env.do(t, http.MethodGet, "/api/blog/welcome/comments", nil)
	var comments []model.Comment
	decodeData(t, rec, &comments)
	if len(comments) != 0 {
		t.Errorf("unmoderated thread has %d comments, want 0", len(comments))
	}

	if _, err := env.queries.SetCommentsApproved(context.Background(), []int64{got.ID}, true); err != nil {
		t.Fatalf("SetCommentsApproved: %v", err)
	}
	rec = env.do(t, http.MethodGet, "/api/blog/welcome/comments", nil)
	decodeData(t, rec, &comments)
	if len(comments) != 1 || comments[0].AuthorName != "Ana" {
		t.Errorf("approved thread = %+v, want one comment by Ana", comments)
	}
}

func TestCreateCommentValidation(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t)
	post := env.createPost(t, author.ID, "welcome", model.PostStatusPublished, "Hi")

	tests := []struct {
		name string
		body CommentRequest
		want int
	}{
		{"missing name", CommentRequest{PostID: post.ID, Body: "hey"}, http.StatusUnprocessableEntity},
		{"missing body", CommentRequest{PostID: post.ID, AuthorName: "Ana"}, http.StatusUnprocessableEntity},
		{"bad email", CommentRequest{PostID: post.ID, AuthorName: "Ana", AuthorEmail: "nope", Body: "hey"}, http.StatusUnprocessableEntity},
		{"unknown post", CommentRequest{PostID: 9999, AuthorName: "Ana", Body: "hey"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/comments", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestListCommentsUnknownPost(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/blog/nope/comments", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
