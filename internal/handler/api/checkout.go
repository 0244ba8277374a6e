// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/service"
)

// ListServices handles GET /api/services: the purchasable catalog.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.public.ListActiveServices(r.Context())
	if err != nil {
		WriteInternalError(w, "Failed to list services")
		return
	}
	if services == nil {
		services = []model.Service{}
	}
	WriteSuccess(w, services, &Meta{Total: int64(len(services))})
}

// CheckoutRequest starts a paid-service purchase.
type CheckoutRequest struct {
	ServiceID     string `json:"service_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	Notes         string `json:"notes"`
}

func (req *CheckoutRequest) validate() map[string]string {
	problems := make(map[string]string)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)

	if req.ServiceID == "" {
		problems["service_id"] = "Service is required"
	}
	if req.CustomerName == "" {
		problems["customer_name"] = "Name is required"
	}
	if req.CustomerEmail == "" {
		problems["customer_email"] = "Email is required"
	} else if _, err := mail.ParseAddress(req.CustomerEmail); err != nil {
		problems["customer_email"] = "Invalid email address"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// CheckoutResponse carries the Stripe redirect for the storefront.
type CheckoutResponse struct {
	ReservationID int64  `json:"reservation_id"`
	SessionID     string `json:"session_id"`
	URL           string `json:"url"`
}

// CreateCheckout handles POST /api/checkout. The reservation row exists
// before the Stripe session does, so every later webhook has something to
// correlate against.
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	if !h.checkout.Enabled() {
		WriteServiceUnavailable(w, "Checkout is not available")
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if problems := req.validate(); problems != nil {
		WriteValidationError(w, problems)
		return
	}

	result, err := h.checkout.CreateSession(r.Context(), service.CheckoutParams{
		ServiceID:     req.ServiceID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCheckoutDisabled):
			WriteServiceUnavailable(w, "Checkout is not available")
		case errors.Is(err, service.ErrUnknownService):
			WriteNotFound(w, "Service not found")
		default:
			WriteInternalError(w, "Failed to start checkout")
		}
		return
	}

	WriteCreated(w, CheckoutResponse{
		ReservationID: result.Reservation.ID,
		SessionID:     result.Reservation.StripeSessionID.String,
		URL:           result.CheckoutURL,
	})
}
