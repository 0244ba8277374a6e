// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/thepilgrim/pilgrim-go/internal/model"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithUser(role string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/countries", nil)
	user := model.User{ID: 1, Email: "u@example.com", Role: role, IsActive: true}
	return req.WithContext(context.WithValue(req.Context(), ContextKeyUser, user))
}

func TestGetUser(t *testing.T) {
	t.Run("no user in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if user := GetUser(req); user != nil {
			t.Errorf("GetUser() = %v, want nil", user)
		}
	})

	t.Run("user in context", func(t *testing.T) {
		req := requestWithUser(model.RoleAdmin)
		user := GetUser(req)
		if user == nil {
			t.Fatal("GetUser() = nil, want user")
		}
		if user.ID != 1 || user.Email != "u@example.com" {
			t.Errorf("GetUser() = %+v", user)
		}
	})
}

func TestGetUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := GetUserID(req); id != 0 {
		t.Errorf("GetUserID() = %d, want 0", id)
	}
	if id := GetUserID(requestWithUser(model.RoleEditor)); id != 1 {
		t.Errorf("GetUserID() = %d, want 1", id)
	}
}

func TestRoleLevel(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{model.RoleAdmin, 3},
		{model.RoleEditor, 2},
		{model.RoleModerator, 1},
		{"", 0},
		{"superuser", 0},
	}
	for _, tt := range tests {
		if got := roleLevel(tt.role); got != tt.want {
			t.Errorf("roleLevel(%q) = %d, want %d", tt.role, got, tt.want)
		}
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		userRole   string
		minRole    string
		wantStatus int
	}{
		{"admin passes admin gate", model.RoleAdmin, model.RoleAdmin, http.StatusOK},
		{"admin passes editor gate", model.RoleAdmin, model.RoleEditor, http.StatusOK},
		{"editor passes moderator gate", model.RoleEditor, model.RoleModerator, http.StatusOK},
		{"editor blocked at admin gate", model.RoleEditor, model.RoleAdmin, http.StatusForbidden},
		{"moderator blocked at editor gate", model.RoleModerator, model.RoleEditor, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(tt.minRole, nil)(okHandler())
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestWithUser(tt.userRole))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusForbidden {
				if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
					t.Errorf("Content-Type = %q, want application/json", ct)
				}
			}
		})
	}
}

func TestRequireRoleNoUser(t *testing.T) {
	handler := RequireAdmin(nil)(okHandler())

	t.Run("api request gets 401 json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/verify", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "unauthorized") {
			t.Errorf("body = %q", rec.Body.String())
		}
	})

	t.Run("browser request redirects to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusSeeOther {
			t.Errorf("status = %d, want 303", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/admin/login" {
			t.Errorf("Location = %q", loc)
		}
	})
}

func TestWriteAPIError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteAPIError(rec, http.StatusNotFound, "not_found", "Country not found", map[string]string{"code": "XX"})

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"not_found", "Country not found", `"code":"XX"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body %q missing %q", body, want)
		}
	}
}

func TestGlobalRateLimiter(t *testing.T) {
	rl := NewGlobalRateLimiter(1, 2)
	handler := rl.Middleware()(okHandler())

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/countries", nil)
		req.RemoteAddr = "10.1.2.3:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Errorf("burst requests = %v, want first two OK", statuses)
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", statuses[2])
	}

	// A different IP has its own budget.
	req := httptest.NewRequest(http.MethodGet, "/api/countries", nil)
	req.RemoteAddr = "10.9.9.9:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("fresh IP = %d, want 200", rec.Code)
	}
}

func TestLimiterCacheClearIfExceeds(t *testing.T) {
	lc := newLimiterCache[string](1, 1)
	for _, k := range []string{"a", "b", "c"} {
		lc.get(k)
	}
	if cleared := lc.clearIfExceeds(10); cleared {
		t.Error("cleared below threshold")
	}
	if cleared := lc.clearIfExceeds(2); !cleared {
		t.Error("did not clear above threshold")
	}
}

func TestLoginProtectionLockout(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       100,
		IPBurst:           100,
		MaxFailedAttempts: 3,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})

	email := "admin@example.com"
	for i := 0; i < 2; i++ {
		if locked, _ := lp.RecordFailedAttempt(email); locked {
			t.Fatalf("locked after %d attempts", i+1)
		}
	}
	locked, dur := lp.RecordFailedAttempt(email)
	if !locked {
		t.Fatal("expected lockout after third failure")
	}
	if dur != time.Minute {
		t.Errorf("lock duration = %v, want 1m", dur)
	}

	isLocked, remaining := lp.IsAccountLocked(email)
	if !isLocked || remaining <= 0 {
		t.Errorf("IsAccountLocked = (%v, %v)", isLocked, remaining)
	}

	lp.RecordSuccessfulLogin(email)
	if isLocked, _ := lp.IsAccountLocked(email); isLocked {
		t.Error("still locked after RecordSuccessfulLogin")
	}
}

func TestLoginProtectionRemainingAttempts(t *testing.T) {
	lp := NewLoginProtection(DefaultLoginProtectionConfig())

	if got := lp.GetRemainingAttempts("fresh@example.com"); got != 5 {
		t.Errorf("fresh account remaining = %d, want 5", got)
	}
	lp.RecordFailedAttempt("x@example.com")
	lp.RecordFailedAttempt("x@example.com")
	if got := lp.GetRemainingAttempts("x@example.com"); got != 3 {
		t.Errorf("remaining = %d, want 3", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name     string
		isDev    bool
		wantHSTS bool
	}{
		{"production enables HSTS", false, true},
		{"development disables HSTS", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := SecurityHeaders(DefaultSecurityHeadersConfig(tt.isDev))(okHandler())
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			hsts := rec.Header().Get("Strict-Transport-Security")
			if tt.wantHSTS && !strings.Contains(hsts, "max-age=31536000") {
				t.Errorf("HSTS = %q", hsts)
			}
			if !tt.wantHSTS && hsts != "" {
				t.Errorf("HSTS = %q, want empty in dev", hsts)
			}
			if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("missing nosniff")
			}
			if !strings.Contains(rec.Header().Get("Content-Security-Policy"), "default-src 'self'") {
				t.Errorf("CSP = %q", rec.Header().Get("Content-Security-Policy"))
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	t.Run("fast handler passes through", func(t *testing.T) {
		handler := Timeout(time.Second)(okHandler())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("slow handler gets 503", func(t *testing.T) {
		slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		})
		handler := Timeout(20 * time.Millisecond)(slow)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})
}
