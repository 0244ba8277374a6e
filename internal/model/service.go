// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Reservation statuses. Allowed transitions:
// pending -> paid -> completed, and pending -> cancelled.
// A reservation never moves backward.
const (
	ReservationStatusPending   = "pending"
	ReservationStatusPaid      = "paid"
	ReservationStatusCompleted = "completed"
	ReservationStatusCancelled = "cancelled"
)

// CanTransition reports whether a reservation may move from one status to
// another. Repeating the current status is allowed so that replayed webhook
// deliveries stay no-ops.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	switch from {
	case ReservationStatusPending:
		return to == ReservationStatusPaid || to == ReservationStatusCancelled
	case ReservationStatusPaid:
		return to == ReservationStatusCompleted
	default:
		return false
	}
}

// Service is a fixed-price catalog entry. The catalog is defined in code
// (see Catalog) and mirrored into the database at seed time for reporting.
type Service struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PriceCents  int64    `json:"price_cents"`
	Currency    string   `json:"currency"`
	Features    []string `json:"features"`
	Active      bool     `json:"active"`
}

// catalog is the fixed service catalog. Prices are in cents.
var catalog = []Service{
	{
		ID:          "basic",
		Name:        "Relocation Starter",
		Description: "Country shortlist, visa checklist and a 30-minute call.",
		PriceCents:  9900,
		Currency:    "eur",
		Features:    []string{"Country shortlist", "Visa checklist", "30-minute call"},
		Active:      true,
	},
	{
		ID:          "premium",
		Name:        "Relocation Plan",
		Description: "Full relocation plan with document review and two calls.",
		PriceCents:  24900,
		Currency:    "eur",
		Features:    []string{"Everything in Starter", "Document review", "Two strategy calls", "Housing guide"},
		Active:      true,
	},
	{
		ID:          "concierge",
		Name:        "Relocation Concierge",
		Description: "End-to-end support from first call to your first month abroad.",
		PriceCents:  79900,
		Currency:    "eur",
		Features:    []string{"Everything in Plan", "Application support", "Local partner introductions", "30 days of chat support"},
		Active:      true,
	},
}

// Catalog returns a copy of the fixed service catalog.
func Catalog() []Service {
	out := make([]Service, len(catalog))
	copy(out, catalog)
	return out
}

// CatalogService looks up a catalog entry by id.
func CatalogService(id string) (Service, bool) {
	for _, s := range catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// Reservation binds a customer to a service purchase. Created pending before
// the payment provider is contacted; the Stripe session id stored on the row
// is the correlation key for webhook reconciliation.
type Reservation struct {
	ID              int64          `json:"id"`
	ServiceID       string         `json:"service_id"`
	CustomerName    string         `json:"customer_name"`
	CustomerEmail   string         `json:"customer_email"`
	CustomerPhone   string         `json:"customer_phone,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	Status          string         `json:"status"`
	StripeSessionID sql.NullString `json:"stripe_session_id,omitempty"`
	AmountCents     int64          `json:"amount_cents"`
	Currency        string         `json:"currency"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
