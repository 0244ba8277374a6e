// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"testing"

	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/service"
)

func TestToggleLikeRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	country := env.createCountry(t, "PT", true)

	body := LikeRequest{ItemID: country.ID, ItemType: model.ItemTypeCountry, UserID: "visitor-1"}

	rec := env.do(t, http.MethodPost, "/api/likes", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var got service.LikeResult
	decodeData(t, rec, &got)
	if !got.Liked || got.Count != 1 {
		t.Errorf("first toggle = %+v, want liked with count 1", got)
	}

	rec = env.do(t, http.MethodPost, "/api/likes", body)
	decodeData(t, rec, &got)
	if got.Liked || got.Count != 0 {
		t.Errorf("second toggle = %+v, want unliked with count 0", got)
	}
}

func TestToggleLikeDistinctVisitors(t *testing.T) {
	env := newTestEnv(t)
	country := env.createCountry(t, "PT", true)

	for i, key := range []string{"visitor-1", "visitor-2"} {
		rec := env.do(t, http.MethodPost, "/api/likes", LikeRequest{
			ItemID: country.ID, ItemType: model.ItemTypeCountry, UserID: key,
		})
		var got service.LikeResult
		decodeData(t, rec, &got)
		if got.Count != int64(i+1) {
			t.Errorf("count after visitor %d = %d, want %d", i+1, got.Count, i+1)
		}
	}
}

func TestToggleLikeRejectsHiddenItems(t *testing.T) {
	env := newTestEnv(t)
	hidden := env.createCountry(t, "XX", false)
	author := env.createUser(t)
	draft := env.createPost(t, author.ID, "draft", model.PostStatusDraft, "x")

	tests := []struct {
		name string
		body LikeRequest
		want int
	}{
		{"inactive country", LikeRequest{ItemID: hidden.ID, ItemType: model.ItemTypeCountry, UserID: "v"}, http.StatusNotFound},
		{"draft post", LikeRequest{ItemID: draft.ID, ItemType: model.ItemTypePost, UserID: "v"}, http.StatusNotFound},
		{"missing item", LikeRequest{ItemID: 9999, ItemType: model.ItemTypeCountry, UserID: "v"}, http.StatusNotFound},
		{"bad item type", LikeRequest{ItemID: 1, ItemType: "city", UserID: "v"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/likes", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestListLiked(t *testing.T) {
	env := newTestEnv(t)
	pt := env.createCountry(t, "PT", true)
	de := env.createCountry(t, "DE", true)

	for _, c := range []int64{pt.ID, de.ID} {
		rec := env.do(t, http.MethodPost, "/api/likes", LikeRequest{
			ItemID: c, ItemType: model.ItemTypeCountry, UserID: "visitor-1",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("toggle status = %d", rec.Code)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/likes?user_id=visitor-1&item_type=country", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got struct {
		LikedItems []int64 `json:"liked_items"`
	}
	decodeData(t, rec, &got)
	if len(got.LikedItems) != 2 {
		t.Errorf("got %d liked items, want 2", len(got.LikedItems))
	}

	rec = env.do(t, http.MethodGet, "/api/likes?user_id=visitor-2&item_type=country", nil)
	decodeData(t, rec, &got)
	if len(got.LikedItems) != 0 {
		t.Errorf("fresh visitor has %d liked items, want 0", len(got.LikedItems))
	}
}
