package cache

import (
	"context"
	"testing"
	"time"
)

type cachedCountry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func TestManager_JSONRoundTrip(t *testing.T) {
	m := NewManager(Options{TTL: time.Minute})
	defer func() { _ = m.Close() }()
	ctx := context.Background()

	in := []cachedCountry{{Code: "pt", Name: "Portugal"}, {Code: "es", Name: "Spain"}}
	m.SetJSON(ctx, PrefixCountries+"list", in)

	var out []cachedCountry
	if !m.GetJSON(ctx, PrefixCountries+"list", &out) {
		t.Fatal("expected cache hit")
	}
	if len(out) != 2 || out[0].Code != "pt" {
		t.Errorf("unexpected cached value: %+v", out)
	}
}

func TestManager_Miss(t *testing.T) {
	m := NewManager(Options{TTL: time.Minute})
	defer func() { _ = m.Close() }()

	var out cachedCountry
	if m.GetJSON(context.Background(), "missing", &out) {
		t.Error("expected cache miss")
	}
}

func TestManager_InvalidateCountries(t *testing.T) {
	m := NewManager(Options{TTL: time.Minute})
	defer func() { _ = m.Close() }()
	ctx := context.Background()

	m.SetJSON(ctx, PrefixCountries+"pt", cachedCountry{Code: "pt"})
	m.SetJSON(ctx, PrefixPosts+"list", []cachedCountry{})

	m.InvalidateCountries(ctx)

	var out cachedCountry
	if m.GetJSON(ctx, PrefixCountries+"pt", &out) {
		t.Error("expected country entry to be invalidated")
	}
	var posts []cachedCountry
	if !m.GetJSON(ctx, PrefixPosts+"list", &posts) {
		t.Error("expected posts entry to survive")
	}
}

func TestManager_FallsBackToMemory(t *testing.T) {
	// Unreachable Redis must not fail manager construction.
	m := NewManager(Options{RedisURL: "redis://127.0.0.1:1/0", TTL: time.Minute})
	defer func() { _ = m.Close() }()
	ctx := context.Background()

	m.SetJSON(ctx, "key", cachedCountry{Code: "pt"})
	var out cachedCountry
	if !m.GetJSON(ctx, "key", &out) {
		t.Error("expected memory fallback to work")
	}
}
