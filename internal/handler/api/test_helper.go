// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/service"
	"github.com/thepilgrim/pilgrim-go/internal/store"
)

// testEnv bundles a migrated database with a routed API handler.
type testEnv struct {
	db      *sql.DB
	queries *store.Queries
	handler *Handler
	router  chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	f, err := os.CreateTemp("", "pilgrim-api-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	})

	queries := store.New(db)
	for _, svc := range model.Catalog() {
		if err := queries.UpsertService(context.Background(), svc); err != nil {
			t.Fatalf("UpsertService: %v", err)
		}
	}

	events := service.NewEventService(db)
	likes := service.NewLikeService(db, events)
	checkout := service.NewCheckoutService(db, events, service.CheckoutConfig{})
	sm := scs.New()

	h := NewHandler(db, nil, likes, checkout, nil, nil, sm)

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Get("/api/status", h.Status)
	r.Get("/api/countries", h.ListCountries)
	r.Get("/api/countries/{code}", h.GetCountry)
	r.Get("/api/blog", h.ListPosts)
	r.Get("/api/blog/{slug}", h.GetPost)
	r.Get("/api/blog/{slug}/comments", h.ListComments)
	r.Post("/api/comments", h.CreateComment)
	r.Post("/api/likes", h.ToggleLike)
	r.Get("/api/likes", h.ListLiked)
	r.Get("/api/services", h.ListServices)
	r.Post("/api/checkout", h.CreateCheckout)
	r.Post("/api/webhook/stripe", h.StripeWebhook)
	r.Post("/api/contact", h.SubmitContact)

	return &testEnv{db: db, queries: queries, handler: h, router: r}
}

// do runs a request through the router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// decodeData unmarshals the "data" field of a wrapped API response.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if err := json.Unmarshal(resp.Data, dest); err != nil {
		t.Fatalf("decoding data: %v", err)
	}
}

func (e *testEnv) createCountry(t *testing.T, code string, active bool) model.Country {
	t.Helper()
	c, err := e.queries.CreateCountry(context.Background(), store.CountryParams{
		Code:      code,
		NameEn:    "Country " + code,
		NameLocal: "Country " + code,
		Active:    active,
	})
	if err != nil {
		t.Fatalf("CreateCountry: %v", err)
	}
	return c
}

// countryParams rebuilds write params from an existing row for updates.
func countryParams(c model.Country) store.CountryParams {
	return store.CountryParams{
		Code:          c.Code,
		NameEn:        c.NameEn,
		NameLocal:     c.NameLocal,
		NomadVisa:     c.NomadVisa,
		EuPath:        c.EuPath,
		TaxAdvantages: c.TaxAdvantages,
		Featured:      c.Featured,
		Active:        c.Active,
		VisaInfo:      c.VisaInfo,
		CostOfLiving:  c.CostOfLiving,
		Climate:       c.Climate,
		CulturalTips:  c.CulturalTips,
		JobMarket:     c.JobMarket,
		ImageURL:      c.ImageURL,
	}
}

func (e *testEnv) createUser(t *testing.T) model.User {
	t.Helper()
	now := time.Now()
	u, err := e.queries.CreateUser(context.Background(), store.CreateUserParams{
		Email:        "author@example.com",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$x$y",
		Name:         "Author",
		Role:         model.RoleEditor,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func (e *testEnv) createPost(t *testing.T, authorID int64, slug, status, content string) model.Post {
	t.Helper()
	now := time.Now()
	publishedAt := sql.NullTime{}
	if status == model.PostStatusPublished {
		publishedAt = sql.NullTime{Time: now, Valid: true}
	}
	p, err := e.queries.CreatePost(context.Background(), store.CreatePostParams{
		Title:       "Post " + slug,
		Slug:        slug,
		Content:     content,
		AuthorID:    authorID,
		Status:      status,
		ReadingTime: 1,
		PublishedAt: publishedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return p
}
