// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/service"
	"github.com/thepilgrim/pilgrim-go/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "pilgrim-scheduler-test-*.db")
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

func TestSchedulerStartStop(t *testing.T) {
	db := testDB(t)
	events := service.NewEventService(db)
	checkout := service.NewCheckoutService(db, events, service.CheckoutConfig{})

	s := New(checkout, events, nil, testLogger())
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := len(s.cron.Entries()); got != 2 {
		t.Errorf("registered %d jobs without geoip, want 2", got)
	}
	s.Stop()
}

func TestExpireReservationsJob(t *testing.T) {
	db := testDB(t)
	events := service.NewEventService(db)
	checkout := service.NewCheckoutService(db, events, service.CheckoutConfig{})
	queries := store.New(db)

	ctx := context.Background()
	for _, svc := range model.Catalog() {
		if err := queries.UpsertService(ctx, svc); err != nil {
			t.Fatalf("UpsertService: %v", err)
		}
	}
	res, err := queries.CreateReservation(ctx, store.CreateReservationParams{
		ServiceID:     "basic",
		CustomerName:  "Ana",
		CustomerEmail: "ana@example.com",
		Status:        model.ReservationStatusPending,
		AmountCents:   9900,
		Currency:      "eur",
	})
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	// Age the row past the retention window.
	if _, err := db.ExecContext(ctx,
		`UPDATE reservations SET created_at = ?, updated_at = ? WHERE id = ?`,
		time.Now().Add(-2*ReservationMaxAge), time.Now().Add(-2*ReservationMaxAge), res.ID); err != nil {
		t.Fatalf("aging reservation: %v", err)
	}

	s := New(checkout, events, nil, testLogger())
	s.expireReservations()

	got, err := queries.GetReservationByID(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetReservationByID: %v", err)
	}
	if got.Status != model.ReservationStatusCancelled {
		t.Errorf("status = %q, want cancelled", got.Status)
	}
}

func TestPruneEventsJob(t *testing.T) {
	db := testDB(t)
	events := service.NewEventService(db)
	checkout := service.NewCheckoutService(db, events, service.CheckoutConfig{})
	queries := store.New(db)

	ctx := context.Background()
	events.LogInfo(ctx, model.EventCategorySystem, "old event", 0, "", nil)
	if _, err := db.ExecContext(ctx,
		`UPDATE audit_events SET created_at = ?`,
		time.Now().Add(-2*EventRetention)); err != nil {
		t.Fatalf("aging events: %v", err)
	}
	events.LogInfo(ctx, model.EventCategorySystem, "fresh event", 0, "", nil)

	s := New(checkout, events, nil, testLogger())
	s.pruneEvents()

	n, err := queries.CountEvents(ctx, "")
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if n != 1 {
		t.Errorf("events after prune = %d, want 1", n)
	}
}
