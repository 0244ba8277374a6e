// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/thepilgrim/pilgrim-go/internal/model"
)

const commentColumns = `id, post_id, author_name, author_email, body, approved, ip_address, country_code, created_at`

func scanComment(row interface{ Scan(...any) error }) (model.Comment, error) {
	var c model.Comment
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorName, &c.AuthorEmail, &c.Body,
		&c.Approved, &c.IPAddress, &c.CountryCode, &c.CreatedAt)
	return c, err
}

func collectComments(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]model.Comment, error) {
	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// GetCommentByID fetches a comment by primary key.
func (q *Queries) GetCommentByID(ctx context.Context, id int64) (model.Comment, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	return scanComment(row)
}

// ListApprovedComments returns approved comments for a post, oldest first.
func (q *Queries) ListApprovedComments(ctx context.Context, postID int64) ([]model.Comment, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE post_id = ? AND approved = 1 ORDER BY created_at`,
		postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectComments(rows)
}

// ListCommentsParams controls the moderation listing.
type ListCommentsParams struct {
	Approved *bool // nil = any
	PostID   int64 // 0 = any
	Limit    int64
	Offset   int64
}

// ListComments returns comments for moderation, newest first.
func (q *Queries) ListComments(ctx context.Context, arg ListCommentsParams) ([]model.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE 1=1`
	var args []any
	if arg.Approved != nil {
		query += ` AND approved = ?`
		args = append(args, *arg.Approved)
	}
	if arg.PostID != 0 {
		query += ` AND post_id = ?`
		args = append(args, arg.PostID)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, arg.Limit, arg.Offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectComments(rows)
}

// CreateCommentParams holds parameters for CreateComment.
type CreateCommentParams struct {
	PostID      int64
	AuthorName  string
	AuthorEmail string
	Body        string
	IPAddress   string
	CountryCode string
	CreatedAt   time.Time
}

// CreateComment inserts an unapproved comment and returns the created row.
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (model.Comment, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO comments (post_id, author_name, author_email, body, approved, ip_address, country_code, created_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?, ?)`,
		arg.PostID, arg.AuthorName, arg.AuthorEmail, arg.Body, arg.IPAddress, arg.CountryCode, arg.CreatedAt)
	if err != nil {
		return model.Comment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Comment{}, err
	}
	return q.GetCommentByID(ctx, id)
}

// SetCommentsApproved approves or rejects a batch of comments.
func (q *Queries) SetCommentsApproved(ctx context.Context, ids []int64, approved bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, approved)
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := q.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE comments SET approved = ? WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteComments hard-deletes a batch of comments.
func (q *Queries) DeleteComments(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := q.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM comments WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountComments returns comment totals for the dashboard.
func (q *Queries) CountComments(ctx context.Context, approved *bool) (int64, error) {
	query := `SELECT COUNT(*) FROM comments`
	var args []any
	if approved != nil {
		query += ` WHERE approved = ?`
		args = append(args, *approved)
	}
	var n int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}
