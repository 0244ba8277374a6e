// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v82"

	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/store"
)

func newTestCheckout(t *testing.T) *CheckoutService {
	t.Helper()
	db := testDB(t)

	// Reservations reference the services table.
	queries := store.New(db)
	for _, entry := range model.Catalog() {
		if err := queries.UpsertService(context.Background(), entry); err != nil {
			t.Fatalf("UpsertService(%s): %v", entry.ID, err)
		}
	}

	svc := NewCheckoutService(db, NewEventService(db), CheckoutConfig{
		SecretKey:     "sk_test_x",
		WebhookSecret: "whsec_test",
		SuccessURL:    "http://localhost:5173/services/thanks",
		CancelURL:     "http://localhost:5173/services",
	})
	svc.createSession = func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		return &stripe.CheckoutSession{
			ID:  "cs_test_" + *params.ClientReferenceID,
			URL: "https://checkout.stripe.com/pay/cs_test_" + *params.ClientReferenceID,
		}, nil
	}
	svc.verifySignature = func(payload []byte, sigHeader, secret string) (stripe.Event, error) {
		if sigHeader != "valid" {
			return stripe.Event{}, fmt.Errorf("signature mismatch")
		}
		var event stripe.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return stripe.Event{}, err
		}
		return event, nil
	}
	return svc
}

func webhookPayload(t *testing.T, eventType, sessionID string) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"id": sessionID})
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	payload, err := json.Marshal(map[string]any{
		"type": eventType,
		"data": map[string]any{"object": json.RawMessage(raw)},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload
}

func TestCheckout_CreateSession(t *testing.T) {
	svc := newTestCheckout(t)
	ctx := context.Background()

	res, err := svc.CreateSession(ctx, CheckoutParams{
		ServiceID:     "premium",
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if res.Reservation.Status != model.ReservationStatusPending {
		t.Errorf("Status = %q, want pending", res.Reservation.Status)
	}
	if res.Reservation.AmountCents != 24900 {
		t.Errorf("AmountCents = %d, want 24900", res.Reservation.AmountCents)
	}
	if !res.Reservation.StripeSessionID.Valid {
		t.Error("expected stripe session id to be stored")
	}
	if res.CheckoutURL == "" {
		t.Error("expected checkout URL")
	}
}

func TestCheckout_UnknownService(t *testing.T) {
	svc := newTestCheckout(t)

	if _, err := svc.CreateSession(context.Background(), CheckoutParams{ServiceID: "platinum"}); !errors.Is(err, ErrUnknownService) {
		t.Errorf("err = %v, want ErrUnknownService", err)
	}
}

func TestCheckout_Disabled(t *testing.T) {
	db := testDB(t)
	svc := NewCheckoutService(db, NewEventService(db), CheckoutConfig{})

	if _, err := svc.CreateSession(context.Background(), CheckoutParams{ServiceID: "basic"}); !errors.Is(err, ErrCheckoutDisabled) {
		t.Errorf("CreateSession err = %v, want ErrCheckoutDisabled", err)
	}
	if err := svc.HandleWebhook(context.Background(), nil, ""); !errors.Is(err, ErrCheckoutDisabled) {
		t.Errorf("HandleWebhook err = %v, want ErrCheckoutDisabled", err)
	}
}

func TestCheckout_WebhookCompletes(t *testing.T) {
	svc := newTestCheckout(t)
	ctx := context.Background()

	res, err := svc.CreateSession(ctx, CheckoutParams{ServiceID: "basic", CustomerName: "Ada", CustomerEmail: "ada@example.com"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	sessionID := res.Reservation.StripeSessionID.String

	payload := webhookPayload(t, "checkout.session.completed", sessionID)
	if err := svc.HandleWebhook(ctx, payload, "valid"); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	got, err := store.New(svc.db).GetReservationByID(ctx, res.Reservation.ID)
	if err != nil {
		t.Fatalf("GetReservationByID: %v", err)
	}
	if got.Status != model.ReservationStatusPaid {
		t.Errorf("Status = %q, want paid", got.Status)
	}
}

type receiptRecorder struct {
	reservations []model.Reservation
}

func (r *receiptRecorder) SendReceipt(reservation model.Reservation, svc model.Service) {
	r.reservations = append(r.reservations, reservation)
}

func TestCheckout_PaidSendsReceipt(t *testing.T) {
	svc := newTestCheckout(t)
	recorder := &receiptRecorder{}
	svc.SetReceiptSender(recorder)
	ctx := context.Background()

	res, err := svc.CreateSession(ctx, CheckoutParams{ServiceID: "basic", CustomerName: "Ada", CustomerEmail: "ada@example.com"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	sessionID := res.Reservation.StripeSessionID.String
	payload := webhookPayload(t, "checkout.session.completed", sessionID)

	if err := svc.HandleWebhook(ctx, payload, "valid"); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	// Replay must not send a second receipt.
	if err := svc.HandleWebhook(ctx, payload, "valid"); err != nil {
		t.Fatalf("replay: %v", err)
	}

	if len(recorder.reservations) != 1 {
		t.Fatalf("receipts = %d, want 1", len(recorder.reservations))
	}
	if recorder.reservations[0].CustomerEmail != "ada@example.com" {
		t.Errorf("receipt email = %q", recorder.reservations[0].CustomerEmail)
	}
}

func TestCheckout_WebhookIdempotentReplay(t *testing.T) {
	svc := newTestCheckout(t)
	ctx := context.Background()

	res, err := svc.CreateSession(ctx, CheckoutParams{ServiceID: "basic", CustomerName: "Ada", CustomerEmail: "ada@example.com"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	sessionID := res.Reservation.StripeSessionID.String
	payload := webhookPayload(t, "checkout.session.completed", sessionID)

	for i := 0; i < 3; i++ {
		if err := svc.HandleWebhook(ctx, payload, "valid"); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}

	got, err := store.New(svc.db).GetReservationByID(ctx, res.Reservation.ID)
	if err != nil {
		t.Fatalf("GetReservationByID: %v", err)
	}
	if got.Status != model.ReservationStatusPaid {
		t.Errorf("Status = %q, want paid after replays", got.Status)
	}
}

func TestCheckout_WebhookBadSignature(t *testing.T) {
	svc := newTestCheckout(t)
	ctx := context.Background()

	res, err := svc.CreateSession(ctx, CheckoutParams{ServiceID: "basic", CustomerName: "Ada", CustomerEmail: "ada@example.com"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	payload := webhookPayload(t, "checkout.session.completed", res.Reservation.StripeSessionID.String)

	if err := svc.HandleWebhook(ctx, payload, "forged"); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("err = %v, want ErrBadSignature", err)
	}

	// Reservation state untouched.
	got, err := store.New(svc.db).GetReservationByID(ctx, res.Reservation.ID)
	if err != nil {
		t.Fatalf("GetReservationByID: %v", err)
	}
	if got.Status != model.ReservationStatusPending {
		t.Errorf("Status = %q, want pending after rejected webhook", got.Status)
	}
}

func TestCheckout_WebhookExpiredCancels(t *testing.T) {
	svc := newTestCheckout(t)
	ctx := context.Background()

	res, err := svc.CreateSession(ctx, CheckoutParams{ServiceID: "basic", CustomerName: "Ada", CustomerEmail: "ada@example.com"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	payload := webhookPayload(t, "checkout.session.expired", res.Reservation.StripeSessionID.String)

	if err := svc.HandleWebhook(ctx, payload, "valid"); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	got, err := store.New(svc.db).GetReservationByID(ctx, res.Reservation.ID)
	if err != nil {
		t.Fatalf("GetReservationByID: %v", err)
	}
	if got.Status != model.ReservationStatusCancelled {
		t.Errorf("Status = %q, want cancelled", got.Status)
	}
}

func TestCheckout_WebhookExpiredAfterPaidIgnored(t *testing.T) {
	svc := newTestCheckout(t)
	ctx := context.Background()

	res, err := svc.CreateSession(ctx, CheckoutParams{ServiceID: "basic", CustomerName: "Ada", CustomerEmail: "ada@example.com"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	sessionID := res.Reservation.StripeSessionID.String

	if err := svc.HandleWebhook(ctx, webhookPayload(t, "checkout.session.completed", sessionID), "valid"); err != nil {
		t.Fatalf("completed: %v", err)
	}
	// Out-of-order expiry delivery must not demote a paid reservation.
	if err := svc.HandleWebhook(ctx, webhookPayload(t, "checkout.session.expired", sessionID), "valid"); err != nil {
		t.Fatalf("expired: %v", err)
	}

	got, err := store.New(svc.db).GetReservationByID(ctx, res.Reservation.ID)
	if err != nil {
		t.Fatalf("GetReservationByID: %v", err)
	}
	if got.Status != model.ReservationStatusPaid {
		t.Errorf("Status = %q, want paid", got.Status)
	}
}

func TestCheckout_WebhookUnknownSessionIgnored(t *testing.T) {
	svc := newTestCheckout(t)

	payload := webhookPayload(t, "checkout.session.completed", "cs_unknown")
	if err := svc.HandleWebhook(context.Background(), payload, "valid"); err != nil {
		t.Errorf("unknown session should be acknowledged, got %v", err)
	}
}

func TestCheckout_ExpireStaleReservations(t *testing.T) {
	svc := newTestCheckout(t)
	ctx := context.Background()

	res, err := svc.CreateSession(ctx, CheckoutParams{ServiceID: "basic", CustomerName: "Ada", CustomerEmail: "ada@example.com"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	// Nothing is older than an hour yet.
	n, err := svc.ExpireStaleReservations(ctx, time.Hour)
	if err != nil {
		t.Fatalf("ExpireStaleReservations: %v", err)
	}
	if n != 0 {
		t.Errorf("expired %d, want 0", n)
	}

	// With a zero cutoff everything pending is stale.
	n, err = svc.ExpireStaleReservations(ctx, -time.Minute)
	if err != nil {
		t.Fatalf("ExpireStaleReservations: %v", err)
	}
	if n != 1 {
		t.Errorf("expired %d, want 1", n)
	}

	got, err := store.New(svc.db).GetReservationByID(ctx, res.Reservation.ID)
	if err != nil {
		t.Fatalf("GetReservationByID: %v", err)
	}
	if got.Status != model.ReservationStatusCancelled {
		t.Errorf("Status = %q, want cancelled", got.Status)
	}
}
