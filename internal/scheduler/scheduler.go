// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance: abandoned checkout cleanup,
// audit log pruning and GeoIP database reloads.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/thepilgrim/pilgrim-go/internal/geoip"
	"github.com/thepilgrim/pilgrim-go/internal/service"
)

// Retention windows for the periodic jobs.
const (
	// ReservationMaxAge is how long a pending reservation may wait for its
	// Stripe session before being cancelled.
	ReservationMaxAge = 24 * time.Hour

	// EventRetention is how long audit events are kept.
	EventRetention = 90 * 24 * time.Hour
)

// Scheduler owns the cron loop for background maintenance.
type Scheduler struct {
	checkout *service.CheckoutService
	events   *service.EventService
	geo      *geoip.Lookup
	cron     *cron.Cron
	logger   *slog.Logger
}

// New creates a scheduler. The geo lookup may be nil when GeoIP is not
// configured.
func New(checkout *service.CheckoutService, events *service.EventService, geo *geoip.Lookup, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		checkout: checkout,
		events:   events,
		geo:      geo,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start registers the maintenance jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	// Hourly: cancel reservations whose checkout was never completed.
	if _, err := s.cron.AddFunc("0 * * * *", s.expireReservations); err != nil {
		return err
	}

	// Daily at 03:30: prune old audit events.
	if _, err := s.cron.AddFunc("30 3 * * *", s.pruneEvents); err != nil {
		return err
	}

	// Weekly: pick up a refreshed GeoIP database without a restart.
	if s.geo != nil {
		if _, err := s.cron.AddFunc("0 4 * * 1", s.reloadGeoIP); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) expireReservations() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.checkout.ExpireStaleReservations(ctx, ReservationMaxAge)
	if err != nil {
		s.logger.Error("reservation cleanup failed", "category", "payment", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("cancelled stale reservations", "category", "payment", "count", n)
	}
}

func (s *Scheduler) pruneEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.events.DeleteOldEvents(ctx, EventRetention)
	if err != nil {
		s.logger.Error("audit log pruning failed", "category", "system", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("pruned audit events", "category", "system", "count", n)
	}
}

func (s *Scheduler) reloadGeoIP() {
	if err := s.geo.Reload(); err != nil {
		s.logger.Error("geoip reload failed", "category", "system", "error", err)
	}
}
