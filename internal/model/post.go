// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Post statuses.
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// Post item type for likes.
const ItemTypePost = "post"

// WordsPerMinute is the assumed reading speed used for the reading_time
// estimate on blog posts.
const WordsPerMinute = 200

// Post represents a blog post. Content is stored as markdown and rendered
// to sanitized HTML on the public read path. ReadingTime is recomputed on
// every content change as ceil(word_count/WordsPerMinute).
type Post struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Slug        string        `json:"slug"`
	Excerpt     string        `json:"excerpt"`
	Content     string        `json:"content"`
	AuthorID    int64         `json:"author_id"`
	CountryID   sql.NullInt64 `json:"country_id,omitempty"`
	Status      string        `json:"status"`
	ReadingTime int64         `json:"reading_time"` // minutes
	ViewsCount  int64         `json:"views_count"`
	LikesCount  int64         `json:"likes_count"`
	PublishedAt sql.NullTime  `json:"published_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsPublished returns true if the post is visible on the public blog.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// Comment represents a visitor comment on a blog post. Comments are created
// unapproved and only shown publicly after moderation.
type Comment struct {
	ID          int64     `json:"id"`
	PostID      int64     `json:"post_id"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	Body        string    `json:"body"`
	Approved    bool      `json:"approved"`
	IPAddress   string    `json:"-"`
	CountryCode string    `json:"-"` // GeoIP tag, empty when lookup unavailable
	CreatedAt   time.Time `json:"created_at"`
}
