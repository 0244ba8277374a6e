// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/store"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "pilgrim-service-test-*.db")
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
	return db
}

func createTestCountry(t *testing.T, db *sql.DB, code string, active bool) model.Country {
	t.Helper()
	c, err := store.New(db).CreateCountry(context.Background(), store.CountryParams{
		Code:   code,
		NameEn: "Country " + code,
		Active: active,
	})
	if err != nil {
		t.Fatalf("CreateCountry: %v", err)
	}
	return c
}

func createTestPost(t *testing.T, db *sql.DB, slug, status string) model.Post {
	t.Helper()
	q := store.New(db)
	user, err := q.CreateUser(context.Background(), store.CreateUserParams{
		Email:        slug + "@example.com",
		PasswordHash: "x",
		Role:         model.RoleEditor,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	var publishedAt sql.NullTime
	if status == model.PostStatusPublished {
		publishedAt = sql.NullTime{Time: time.Now(), Valid: true}
	}
	p, err := q.CreatePost(context.Background(), store.CreatePostParams{
		Title:       "Post " + slug,
		Slug:        slug,
		Content:     "some words here",
		AuthorID:    user.ID,
		Status:      status,
		ReadingTime: 1,
		PublishedAt: publishedAt,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return p
}
