// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/thepilgrim/pilgrim-go/internal/model"
)

// GetLike fetches the like row for an exact (user, item, type) tuple.
func (q *Queries) GetLike(ctx context.Context, userKey string, itemID int64, itemType string) (model.Like, error) {
	var l model.Like
	err := q.db.QueryRowContext(ctx,
		`SELECT id, user_key, item_id, item_type, created_at
		 FROM likes WHERE user_key = ? AND item_id = ? AND item_type = ?`,
		userKey, itemID, itemType).
		Scan(&l.ID, &l.UserKey, &l.ItemID, &l.ItemType, &l.CreatedAt)
	return l, err
}

// CreateLike inserts a like row. The UNIQUE(user_key, item_id, item_type)
// constraint rejects duplicates at the database level.
func (q *Queries) CreateLike(ctx context.Context, userKey string, itemID int64, itemType string) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO likes (user_key, item_id, item_type, created_at) VALUES (?, ?, ?, ?)`,
		userKey, itemID, itemType, time.Now())
	return err
}

// DeleteLike removes a like row.
func (q *Queries) DeleteLike(ctx context.Context, userKey string, itemID int64, itemType string) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM likes WHERE user_key = ? AND item_id = ? AND item_type = ?`,
		userKey, itemID, itemType)
	return err
}

// CountLikesForItem counts like rows for a target entity. This is the source
// of truth for the denormalized counters.
func (q *Queries) CountLikesForItem(ctx context.Context, itemID int64, itemType string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE item_id = ? AND item_type = ?`,
		itemID, itemType).Scan(&n)
	return n, err
}

// SetItemLikesCount writes the denormalized counter on the target entity.
func (q *Queries) SetItemLikesCount(ctx context.Context, itemID int64, itemType string, count int64) error {
	table := "countries"
	if itemType == model.ItemTypePost {
		table = "posts"
	}
	_, err := q.db.ExecContext(ctx,
		`UPDATE `+table+` SET likes_count = ? WHERE id = ?`, count, itemID)
	return err
}

// ListLikedItemIDs returns the ids of items a user has liked, newest first.
func (q *Queries) ListLikedItemIDs(ctx context.Context, userKey, itemType string) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT item_id FROM likes WHERE user_key = ? AND item_type = ? ORDER BY created_at DESC`,
		userKey, itemType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountLikes returns the total number of like rows.
func (q *Queries) CountLikes(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes`).Scan(&n)
	return n, err
}

// LikedItemCount pairs a target entity with its like total.
type LikedItemCount struct {
	ItemID   int64  `json:"item_id"`
	ItemType string `json:"item_type"`
	Count    int64  `json:"count"`
}

// TopLikedItems returns the most liked items across both entity types.
func (q *Queries) TopLikedItems(ctx context.Context, limit int64) ([]LikedItemCount, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT item_id, item_type, COUNT(*) AS n FROM likes
		 GROUP BY item_id, item_type ORDER BY n DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LikedItemCount, 0)
	for rows.Next() {
		var c LikedItemCount
		if err := rows.Scan(&c.ItemID, &c.ItemType, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
