// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"testing"

	"github.com/thepilgrim/pilgrim-go/internal/model"
)

func TestListServices(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/services", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []model.Service
	decodeData(t, rec, &got)
	if len(got) != len(model.Catalog()) {
		t.Errorf("got %d services, want %d", len(got), len(model.Catalog()))
	}
	for _, svc := range got {
		if !svc.Active {
			t.Errorf("inactive service %s leaked into catalog", svc.ID)
		}
	}
}

func TestCreateCheckoutUnconfigured(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/checkout", CheckoutRequest{
		ServiceID:     "basic",
		CustomerName:  "Ana",
		CustomerEmail: "ana@example.com",
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestCreateCheckoutValidation(t *testing.T) {
	env := newTestEnv(t)

	// Validation errors must not depend on Stripe configuration, but the
	// unconfigured gate runs first for everyone.
	rec := env.do(t, http.MethodPost, "/api/checkout", CheckoutRequest{})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestStripeWebhookUnconfigured(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/webhook/stripe", map[string]string{"type": "checkout.session.completed"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestCheckoutRequestValidate(t *testing.T) {
	tests := []struct {
		name  string
		req   CheckoutRequest
		field string
	}{
		{"valid", CheckoutRequest{ServiceID: "basic", CustomerName: "Ana", CustomerEmail: "ana@example.com"}, ""},
		{"missing service", CheckoutRequest{CustomerName: "Ana", CustomerEmail: "ana@example.com"}, "service_id"},
		{"missing name", CheckoutRequest{ServiceID: "basic", CustomerEmail: "ana@example.com"}, "customer_name"},
		{"missing email", CheckoutRequest{ServiceID: "basic", CustomerName: "Ana"}, "customer_email"},
		{"bad email", CheckoutRequest{ServiceID: "basic", CustomerName: "Ana", CustomerEmail: "nope"}, "customer_email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := tt.req.validate()
			if tt.field == "" {
				if problems != nil {
					t.Errorf("validate() = %v, want nil", problems)
				}
				return
			}
			if _, ok := problems[tt.field]; !ok {
				t.Errorf("validate() = %v, want problem for %s", problems, tt.field)
			}
		})
	}
}
