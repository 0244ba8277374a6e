// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"

	"github.com/thepilgrim/pilgrim-go/internal/model"
)

// ListActiveCountries returns active countries, most liked and featured
// first, with optional flag filters.
func (p *Public) ListActiveCountries(ctx context.Context, arg ListCountriesParams) ([]model.Country, error) {
	arg.ActiveOnly = true
	return p.q.ListCountries(ctx, arg)
}

// GetActiveCountryByCode fetches one active country by its URL code.
func (p *Public) GetActiveCountryByCode(ctx context.Context, code string) (model.Country, error) {
	return p.q.GetActiveCountryByCode(ctx, code)
}

// ListPublishedPosts returns published posts newest first.
func (p *Public) ListPublishedPosts(ctx context.Context, countryID, limit, offset int64) ([]model.Post, error) {
	return p.q.ListPosts(ctx, ListPostsParams{
		Status:    model.PostStatusPublished,
		CountryID: countryID,
		Limit:     limit,
		Offset:    offset,
	})
}

// CountPublishedPosts counts published posts, optionally for one country.
func (p *Public) CountPublishedPosts(ctx context.Context, countryID int64) (int64, error) {
	return p.q.CountPosts(ctx, model.PostStatusPublished, countryID)
}

// GetPublishedPostBySlug fetches one published post by slug.
func (p *Public) GetPublishedPostBySlug(ctx context.Context, slug string) (model.Post, error) {
	return p.q.GetPublishedPostBySlug(ctx, slug)
}

// IncrementPostViews bumps the view counter on a post.
func (p *Public) IncrementPostViews(ctx context.Context, id int64) error {
	return p.q.IncrementPostViews(ctx, id)
}

// ListApprovedComments returns the approved comments on a post, oldest first.
func (p *Public) ListApprovedComments(ctx context.Context, postID int64) ([]model.Comment, error) {
	return p.q.ListApprovedComments(ctx, postID)
}

// CreateComment records a visitor comment. It enters the moderation queue
// unapproved regardless of the caller.
func (p *Public) CreateComment(ctx context.Context, arg CreateCommentParams) (model.Comment, error) {
	return p.q.CreateComment(ctx, arg)
}

// CreateContactMessage persists a contact-form submission.
func (p *Public) CreateContactMessage(ctx context.Context, arg CreateContactMessageParams) (model.ContactMessage, error) {
	return p.q.CreateContactMessage(ctx, arg)
}

// ListLikedItemIDs returns the ids of items a visitor has liked.
func (p *Public) ListLikedItemIDs(ctx context.Context, userKey, itemType string) ([]int64, error) {
	return p.q.ListLikedItemIDs(ctx, userKey, itemType)
}

// ListActiveServices returns the purchasable service catalog.
func (p *Public) ListActiveServices(ctx context.Context) ([]model.Service, error) {
	return p.q.ListServices(ctx, true)
}
