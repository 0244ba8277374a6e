// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDefaultCSRFConfigOrigins(t *testing.T) {
	key := []byte("12345678901234567890123456789012")

	t.Run("production trusts only the frontend host", func(t *testing.T) {
		cfg := DefaultCSRFConfig(key, "https://frontend.example.com", false)
		if len(cfg.TrustedOrigins) != 1 || cfg.TrustedOrigins[0] != "frontend.example.com" {
			t.Errorf("TrustedOrigins = %v, want [frontend.example.com]", cfg.TrustedOrigins)
		}
	})

	t.Run("development adds local hosts", func(t *testing.T) {
		cfg := DefaultCSRFConfig(key, "http://localhost:5173", true)
		if len(cfg.TrustedOrigins) != 4 {
			t.Fatalf("TrustedOrigins = %v, want 4 entries", cfg.TrustedOrigins)
		}
		if cfg.TrustedOrigins[0] != "localhost:5173" {
			t.Errorf("frontend host = %q", cfg.TrustedOrigins[0])
		}
	})

	// Host-only values. Full URLs make the csrf library reject the origin.
	t.Run("origins are host:port, never URLs", func(t *testing.T) {
		cfg := DefaultCSRFConfig(key, "https://frontend.example.com", true)
		for _, origin := range cfg.TrustedOrigins {
			if strings.Contains(origin, "://") {
				t.Errorf("TrustedOrigin %q must be host:port, not a URL", origin)
			}
		}
	})

	t.Run("empty frontend URL trusts nothing in production", func(t *testing.T) {
		cfg := DefaultCSRFConfig(key, "", false)
		if len(cfg.TrustedOrigins) != 0 {
			t.Errorf("TrustedOrigins = %v, want empty", cfg.TrustedOrigins)
		}
	})
}

func TestCSRFCrossSiteAdminWrite(t *testing.T) {
	key := []byte("12345678901234567890123456789012")
	cfg := DefaultCSRFConfig(key, "https://frontend.example.com", false)
	handler := CSRF(cfg)(okHandler())

	crossSiteReq := func(origin string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "https://api.example.com/api/admin/countries", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Sec-Fetch-Site", "cross-site")
		return req
	}

	t.Run("frontend origin passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, crossSiteReq("https://frontend.example.com"))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 (body %q)", rec.Code, rec.Body.String())
		}
	})

	t.Run("unknown origin gets 403 json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, crossSiteReq("https://evil.example.com"))
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "csrf_failed") {
			t.Errorf("body = %q, want csrf_failed error", rec.Body.String())
		}
	})

	t.Run("same-origin write passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "https://api.example.com/api/admin/countries", nil)
		req.Header.Set("Sec-Fetch-Site", "same-origin")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestOriginHost(t *testing.T) {
	tests := []struct {
		rawURL string
		want   string
	}{
		{"https://frontend.example.com", "frontend.example.com"},
		{"http://localhost:5173", "localhost:5173"},
		{"", ""},
		{"://bad", ""},
	}
	for _, tt := range tests {
		if got := originHost(tt.rawURL); got != tt.want {
			t.Errorf("originHost(%q) = %q, want %q", tt.rawURL, got, tt.want)
		}
	}
}
