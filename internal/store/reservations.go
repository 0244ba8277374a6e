// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/thepilgrim/pilgrim-go/internal/model"
)

const reservationColumns = `id, service_id, customer_name, customer_email, customer_phone,
	notes, status, stripe_session_id, amount_cents, currency, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (model.Reservation, error) {
	var r model.Reservation
	err := row.Scan(&r.ID, &r.ServiceID, &r.CustomerName, &r.CustomerEmail, &r.CustomerPhone,
		&r.Notes, &r.Status, &r.StripeSessionID, &r.AmountCents, &r.Currency,
		&r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// GetReservationByID fetches a reservation by primary key.
func (q *Queries) GetReservationByID(ctx context.Context, id int64) (model.Reservation, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	return scanReservation(row)
}

// GetReservationByStripeSession fetches the reservation correlated with a
// Stripe checkout session. Webhook handlers use this for reconciliation.
func (q *Queries) GetReservationByStripeSession(ctx context.Context, sessionID string) (model.Reservation, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE stripe_session_id = ?`, sessionID)
	return scanReservation(row)
}

// ListReservationsParams filters the admin reservation list.
type ListReservationsParams struct {
	Status string // empty means all
	Limit  int64
	Offset int64
}

// ListReservations returns reservations newest first.
func (q *Queries) ListReservations(ctx context.Context, arg ListReservationsParams) ([]model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations`
	args := []any{}
	if arg.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, arg.Status)
	}
	query += ` ORDER BY created_at DESC`
	if arg.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, arg.Limit, arg.Offset)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Reservation, 0)
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountReservations counts reservations, optionally by status.
func (q *Queries) CountReservations(ctx context.Context, status string) (int64, error) {
	var n int64
	var err error
	if status == "" {
		err = q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations`).Scan(&n)
	} else {
		err = q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE status = ?`, status).Scan(&n)
	}
	return n, err
}

// CreateReservationParams holds fields for a new reservation row.
type CreateReservationParams struct {
	ServiceID     string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Notes         string
	Status        string
	AmountCents   int64
	Currency      string
}

// CreateReservation inserts a reservation, normally in status pending.
func (q *Queries) CreateReservation(ctx context.Context, arg CreateReservationParams) (model.Reservation, error) {
	now := time.Now()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO reservations (service_id, customer_name, customer_email, customer_phone,
			notes, status, amount_cents, currency, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.ServiceID, arg.CustomerName, arg.CustomerEmail, arg.CustomerPhone,
		arg.Notes, arg.Status, arg.AmountCents, arg.Currency, now, now)
	if err != nil {
		return model.Reservation{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Reservation{}, err
	}
	return q.GetReservationByID(ctx, id)
}

// SetReservationStripeSession records the checkout session id after the
// session has been created with Stripe.
func (q *Queries) SetReservationStripeSession(ctx context.Context, id int64, sessionID string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE reservations SET stripe_session_id = ?, updated_at = ? WHERE id = ?`,
		sessionID, time.Now(), id)
	return err
}

// UpdateReservationStatus moves a reservation to a new status.
func (q *Queries) UpdateReservationStatus(ctx context.Context, id int64, status string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now(), id)
	return err
}

// ExpireStalePendingReservations cancels pending reservations older than
// cutoff. Returns the number of rows affected.
func (q *Queries) ExpireStalePendingReservations(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ?
		 WHERE status = ? AND created_at < ?`,
		model.ReservationStatusCancelled, time.Now(), model.ReservationStatusPending, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanService(row interface{ Scan(...any) error }) (model.Service, error) {
	var s model.Service
	var features string
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &s.PriceCents, &s.Currency,
		&features, &s.Active); err != nil {
		return model.Service{}, err
	}
	if err := json.Unmarshal([]byte(features), &s.Features); err != nil {
		s.Features = nil
	}
	return s, nil
}

// GetService fetches one service row.
func (q *Queries) GetService(ctx context.Context, id string) (model.Service, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, name, description, price_cents, currency, features, active
		 FROM services WHERE id = ?`, id)
	return scanService(row)
}

// ListServices returns all services ordered by price.
func (q *Queries) ListServices(ctx context.Context, activeOnly bool) ([]model.Service, error) {
	query := `SELECT id, name, description, price_cents, currency, features, active FROM services`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY price_cents, id`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Service, 0)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpsertService writes a catalog entry, keyed by id.
func (q *Queries) UpsertService(ctx context.Context, s model.Service) error {
	features, err := json.Marshal(s.Features)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO services (id, name, description, price_cents, currency, features, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, description = excluded.description,
			price_cents = excluded.price_cents, currency = excluded.currency,
			features = excluded.features, active = excluded.active`,
		s.ID, s.Name, s.Description, s.PriceCents, s.Currency, string(features), s.Active)
	return err
}
