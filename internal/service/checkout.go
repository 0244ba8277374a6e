// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/store"
)

// Checkout errors mapped to HTTP statuses by the handlers.
var (
	ErrCheckoutDisabled = errors.New("checkout is not configured")
	ErrUnknownService   = errors.New("unknown service")
	ErrBadSignature     = errors.New("invalid webhook signature")
)

// CheckoutParams describes a purchase request from the services page.
type CheckoutParams struct {
	ServiceID     string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Notes         string
}

// CheckoutResult carries the reservation and the Stripe redirect URL.
type CheckoutResult struct {
	Reservation model.Reservation
	CheckoutURL string
}

// createSessionFunc creates a Stripe checkout session. Swappable in tests.
type createSessionFunc func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)

// verifySignatureFunc verifies a webhook payload. Swappable in tests.
type verifySignatureFunc func(payload []byte, sigHeader, secret string) (stripe.Event, error)

// ReceiptSender emails the customer after a successful payment.
type ReceiptSender interface {
	SendReceipt(reservation model.Reservation, svc model.Service)
}

// CheckoutService drives the paid-services flow: reservation rows are the
// local source of truth, correlated to Stripe sessions by session id.
type CheckoutService struct {
	db            *sql.DB
	events        *EventService
	secretKey     string
	webhookSecret string
	successURL    string
	cancelURL     string

	createSession   createSessionFunc
	verifySignature verifySignatureFunc
	receipts        ReceiptSender
}

// CheckoutConfig holds the Stripe keys and redirect URLs.
type CheckoutConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

// NewCheckoutService creates a CheckoutService. Empty keys leave the flow
// disabled; CreateSession and HandleWebhook then fail with
// ErrCheckoutDisabled instead of panicking at boot.
func NewCheckoutService(db *sql.DB, events *EventService, cfg CheckoutConfig) *CheckoutService {
	if cfg.SecretKey != "" {
		stripe.Key = cfg.SecretKey
	}
	return &CheckoutService{
		db:              db,
		events:          events,
		secretKey:       cfg.SecretKey,
		webhookSecret:   cfg.WebhookSecret,
		successURL:      cfg.SuccessURL,
		cancelURL:       cfg.CancelURL,
		createSession:   session.New,
		verifySignature: webhook.ConstructEvent,
	}
}

// SetReceiptSender wires an optional mailer for payment receipts.
func (s *CheckoutService) SetReceiptSender(r ReceiptSender) {
	s.receipts = r
}

// Enabled reports whether checkout sessions can be created.
func (s *CheckoutService) Enabled() bool {
	return s.secretKey != ""
}

// WebhookEnabled reports whether inbound webhooks can be verified.
func (s *CheckoutService) WebhookEnabled() bool {
	return s.webhookSecret != ""
}

// CreateSession validates the service, records a pending reservation and
// creates the Stripe checkout session. The reservation exists before Stripe
// is contacted so a webhook can never arrive for an unknown purchase.
func (s *CheckoutService) CreateSession(ctx context.Context, params CheckoutParams) (CheckoutResult, error) {
	if !s.Enabled() {
		return CheckoutResult{}, ErrCheckoutDisabled
	}

	svc, ok := model.CatalogService(params.ServiceID)
	if !ok || !svc.Active {
		return CheckoutResult{}, ErrUnknownService
	}

	queries := store.New(s.db)
	reservation, err := queries.CreateReservation(ctx, store.CreateReservationParams{
		ServiceID:     svc.ID,
		CustomerName:  params.CustomerName,
		CustomerEmail: params.CustomerEmail,
		CustomerPhone: params.CustomerPhone,
		Notes:         params.Notes,
		Status:        model.ReservationStatusPending,
		AmountCents:   svc.PriceCents,
		Currency:      svc.Currency,
	})
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("creating reservation: %w", err)
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(svc.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(svc.Name),
					Description: stripe.String(svc.Description),
				},
				UnitAmount: stripe.Int64(svc.PriceCents),
			},
			Quantity: stripe.Int64(1),
		}},
		CustomerEmail:     stripe.String(params.CustomerEmail),
		ClientReferenceID: stripe.String(fmt.Sprint(reservation.ID)),
		SuccessURL:        stripe.String(s.successURL),
		CancelURL:         stripe.String(s.cancelURL),
	}

	stripeSession, err := s.createSession(sessionParams)
	if err != nil {
		// Leave the reservation pending; the expiry sweep cancels it.
		s.events.LogError(ctx, model.EventCategoryPayment, "stripe session creation failed",
			0, "", map[string]any{"reservation_id": reservation.ID, "error": err.Error()})
		return CheckoutResult{}, fmt.Errorf("creating checkout session: %w", err)
	}

	if err := queries.SetReservationStripeSession(ctx, reservation.ID, stripeSession.ID); err != nil {
		return CheckoutResult{}, fmt.Errorf("storing session id: %w", err)
	}
	reservation.StripeSessionID = sql.NullString{String: stripeSession.ID, Valid: true}

	s.events.LogInfo(ctx, model.EventCategoryPayment, "checkout session created",
		0, "", map[string]any{
			"reservation_id": reservation.ID,
			"service_id":     svc.ID,
			"session_id":     stripeSession.ID,
		})

	return CheckoutResult{Reservation: reservation, CheckoutURL: stripeSession.URL}, nil
}

// HandleWebhook verifies and applies one Stripe webhook delivery.
// Signature failures return ErrBadSignature with no state change; replayed
// deliveries are no-ops because status transitions are idempotent.
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	if !s.WebhookEnabled() {
		return ErrCheckoutDisabled
	}

	event, err := s.verifySignature(payload, sigHeader, s.webhookSecret)
	if err != nil {
		s.events.LogWarning(ctx, model.EventCategoryPayment, "webhook signature verification failed",
			0, "", map[string]any{"error": err.Error()})
		return ErrBadSignature
	}

	switch event.Type {
	case "checkout.session.completed":
		return s.applySessionStatus(ctx, event, model.ReservationStatusPaid)
	case "checkout.session.expired":
		return s.applySessionStatus(ctx, event, model.ReservationStatusCancelled)
	default:
		slog.Debug("ignoring webhook event", "type", event.Type)
		return nil
	}
}

// applySessionStatus moves the reservation correlated with the event's
// session to the target status, if the transition is allowed.
func (s *CheckoutService) applySessionStatus(ctx context.Context, event stripe.Event, target string) error {
	var checkoutSession stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &checkoutSession); err != nil {
		return fmt.Errorf("parsing webhook payload: %w", err)
	}

	queries := store.New(s.db)
	reservation, err := queries.GetReservationByStripeSession(ctx, checkoutSession.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Stripe retries unknown sessions forever otherwise.
			slog.Warn("webhook for unknown checkout session", "category", "payment", "session_id", checkoutSession.ID)
			return nil
		}
		return fmt.Errorf("loading reservation: %w", err)
	}

	if reservation.Status == target {
		return nil
	}
	if !model.CanTransition(reservation.Status, target) {
		slog.Warn("ignoring invalid reservation transition", "category", "payment",
			"reservation_id", reservation.ID, "from", reservation.Status, "to", target)
		return nil
	}

	if err := queries.UpdateReservationStatus(ctx, reservation.ID, target); err != nil {
		return fmt.Errorf("updating reservation status: %w", err)
	}

	s.events.LogInfo(ctx, model.EventCategoryPayment, "reservation "+target,
		0, "", map[string]any{
			"reservation_id": reservation.ID,
			"service_id":     reservation.ServiceID,
			"session_id":     checkoutSession.ID,
		})

	if target == model.ReservationStatusPaid && s.receipts != nil {
		if svc, ok := model.CatalogService(reservation.ServiceID); ok {
			reservation.Status = target
			s.receipts.SendReceipt(reservation, svc)
		}
	}
	return nil
}

// ExpireStaleReservations cancels pending reservations older than the given
// age. Returns how many were cancelled.
func (s *CheckoutService) ExpireStaleReservations(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	return store.New(s.db).ExpireStalePendingReservations(ctx, cutoff)
}
