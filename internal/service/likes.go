// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/store"
)

// ErrUnknownItem is returned when a like targets a missing or hidden item.
var ErrUnknownItem = errors.New("unknown item")

// ErrInvalidItemType is returned for item types other than country or post.
var ErrInvalidItemType = errors.New("invalid item type")

// LikeResult is the outcome of a toggle: the new state and the authoritative
// count after the change.
type LikeResult struct {
	Liked bool  `json:"liked"`
	Count int64 `json:"count"`
}

// LikeService toggles visitor likes on countries and posts.
type LikeService struct {
	db     *sql.DB
	events *EventService
}

// NewLikeService creates a new LikeService.
func NewLikeService(db *sql.DB, events *EventService) *LikeService {
	return &LikeService{db: db, events: events}
}

// Toggle flips the like state for (userKey, itemID, itemType) and returns
// the new state with the recomputed count. The row flip and the counter
// update happen in one transaction so the denormalized count can never
// drift from the like rows.
func (s *LikeService) Toggle(ctx context.Context, userKey string, itemID int64, itemType string) (LikeResult, error) {
	if !model.ValidItemType(itemType) {
		return LikeResult{}, ErrInvalidItemType
	}
	if userKey == "" {
		return LikeResult{}, fmt.Errorf("missing user key")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LikeResult{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := store.New(tx)

	if err := s.itemVisible(ctx, q, itemID, itemType); err != nil {
		return LikeResult{}, err
	}

	var liked bool
	_, err = q.GetLike(ctx, userKey, itemID, itemType)
	switch {
	case err == nil:
		if err := q.DeleteLike(ctx, userKey, itemID, itemType); err != nil {
			return LikeResult{}, fmt.Errorf("removing like: %w", err)
		}
		liked = false
	case errors.Is(err, sql.ErrNoRows):
		if err := q.CreateLike(ctx, userKey, itemID, itemType); err != nil {
			return LikeResult{}, fmt.Errorf("adding like: %w", err)
		}
		liked = true
	default:
		return LikeResult{}, fmt.Errorf("checking like: %w", err)
	}

	count, err := q.CountLikesForItem(ctx, itemID, itemType)
	if err != nil {
		return LikeResult{}, fmt.Errorf("counting likes: %w", err)
	}
	if err := q.SetItemLikesCount(ctx, itemID, itemType, count); err != nil {
		return LikeResult{}, fmt.Errorf("updating like count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return LikeResult{}, fmt.Errorf("committing like toggle: %w", err)
	}

	return LikeResult{Liked: liked, Count: count}, nil
}

// ListLiked returns the item ids a visitor has liked for one item type.
func (s *LikeService) ListLiked(ctx context.Context, userKey, itemType string) ([]int64, error) {
	if !model.ValidItemType(itemType) {
		return nil, ErrInvalidItemType
	}
	return store.New(s.db).ListLikedItemIDs(ctx, userKey, itemType)
}

// itemVisible verifies the like target exists and is publicly visible.
// Hidden items reject likes so drafts cannot accumulate counts.
func (s *LikeService) itemVisible(ctx context.Context, q *store.Queries, itemID int64, itemType string) error {
	switch itemType {
	case model.ItemTypeCountry:
		c, err := q.GetCountryByID(ctx, itemID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && !c.Active) {
			return ErrUnknownItem
		}
		return err
	case model.ItemTypePost:
		p, err := q.GetPostByID(ctx, itemID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && !p.IsPublished()) {
			return ErrUnknownItem
		}
		return err
	default:
		return ErrInvalidItemType
	}
}
