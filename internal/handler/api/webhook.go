// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/thepilgrim/pilgrim-go/internal/service"
	"github.com/thepilgrim/pilgrim-go/internal/util"
)

// maxWebhookBody caps Stripe webhook payloads. Stripe events are small;
// anything larger is not a legitimate delivery.
const maxWebhookBody = 64 * 1024

// StripeWebhook handles POST /api/webhook/stripe. A bad signature is a 400
// with no state touched; a storage failure after a valid signature is a 500
// so Stripe retries the delivery. Everything else acknowledges with 200.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.checkout.WebhookEnabled() {
		WriteServiceUnavailable(w, "Webhooks are not configured")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		WriteBadRequest(w, "Failed to read request body", nil)
		return
	}
	if len(payload) > maxWebhookBody {
		WriteBadRequest(w, "Payload too large", nil)
		return
	}

	err = h.checkout.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBadSignature):
			slog.Warn("webhook signature rejected", "category", "payment", "ip", util.ClientIP(r))
			WriteBadRequest(w, "Invalid signature", nil)
		case errors.Is(err, service.ErrCheckoutDisabled):
			WriteServiceUnavailable(w, "Webhooks are not configured")
		default:
			WriteInternalError(w, "Failed to process event")
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
