// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/thepilgrim/pilgrim-go/internal/model"
)

const postColumns = `id, title, slug, excerpt, content, author_id, country_id, status,
	reading_time, views_count, likes_count, published_at, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (model.Post, error) {
	var p model.Post
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.AuthorID,
		&p.CountryID, &p.Status, &p.ReadingTime, &p.ViewsCount, &p.LikesCount,
		&p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetPostByID fetches a post by primary key.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (model.Post, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// GetPostBySlug fetches a post by slug.
func (q *Queries) GetPostBySlug(ctx context.Context, slug string) (model.Post, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug)
	return scanPost(row)
}

// GetPublishedPostBySlug fetches a published post by slug (public read path).
func (q *Queries) GetPublishedPostBySlug(ctx context.Context, slug string) (model.Post, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug = ? AND status = ?`,
		slug, model.PostStatusPublished)
	return scanPost(row)
}

// ListPostsParams controls post listing.
type ListPostsParams struct {
	Status    string // empty = any
	CountryID int64  // 0 = any
	Limit     int64
	Offset    int64
}

// ListPosts returns posts newest first.
func (q *Queries) ListPosts(ctx context.Context, arg ListPostsParams) ([]model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE 1=1`
	var args []any
	if arg.Status != "" {
		query += ` AND status = ?`
		args = append(args, arg.Status)
	}
	if arg.CountryID != 0 {
		query += ` AND country_id = ?`
		args = append(args, arg.CountryID)
	}
	query += ` ORDER BY COALESCE(published_at, created_at) DESC LIMIT ? OFFSET ?`
	args = append(args, arg.Limit, arg.Offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CountPosts returns the number of posts matching the status/country filters.
func (q *Queries) CountPosts(ctx context.Context, status string, countryID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM posts WHERE 1=1`
	var args []any
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if countryID != 0 {
		query += ` AND country_id = ?`
		args = append(args, countryID)
	}
	var n int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// CreatePostParams holds parameters for CreatePost.
type CreatePostParams struct {
	Title       string
	Slug        string
	Excerpt     string
	Content     string
	AuthorID    int64
	CountryID   sql.NullInt64
	Status      string
	ReadingTime int64
	PublishedAt sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreatePost inserts a post and returns the created row.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (model.Post, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO posts (title, slug, excerpt, content, author_id, country_id, status,
			reading_time, published_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Slug, arg.Excerpt, arg.Content, arg.AuthorID, arg.CountryID,
		arg.Status, arg.ReadingTime, arg.PublishedAt, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return model.Post{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Post{}, err
	}
	return q.GetPostByID(ctx, id)
}

// UpdatePostParams holds parameters for UpdatePost.
type UpdatePostParams struct {
	ID          int64
	Title       string
	Slug        string
	Excerpt     string
	Content     string
	CountryID   sql.NullInt64
	Status      string
	ReadingTime int64
	PublishedAt sql.NullTime
	UpdatedAt   time.Time
}

// UpdatePost rewrites the writable fields of a post.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (model.Post, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, slug = ?, excerpt = ?, content = ?, country_id = ?,
			status = ?, reading_time = ?, published_at = ?, updated_at = ?
		 WHERE id = ?`,
		arg.Title, arg.Slug, arg.Excerpt, arg.Content, arg.CountryID,
		arg.Status, arg.ReadingTime, arg.PublishedAt, arg.UpdatedAt, arg.ID)
	if err != nil {
		return model.Post{}, err
	}
	return q.GetPostByID(ctx, arg.ID)
}

// PublishPost transitions a post to published and stamps published_at.
func (q *Queries) PublishPost(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE posts SET status = ?, published_at = ?, updated_at = ? WHERE id = ?`,
		model.PostStatusPublished, at, at, id)
	return err
}

// UnpublishPost moves a post back to draft. published_at is kept for history.
func (q *Queries) UnpublishPost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE posts SET status = ?, updated_at = ? WHERE id = ?`,
		model.PostStatusDraft, time.Now(), id)
	return err
}

// DeletePost hard-deletes a post. Comments cascade at the schema level.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	return err
}

// IncrementPostViews bumps the view counter atomically.
func (q *Queries) IncrementPostViews(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE posts SET views_count = views_count + 1 WHERE id = ?`, id)
	return err
}
