// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/thepilgrim/pilgrim-go/internal/model"
)

const eventColumns = `id, level, category, message, user_id, metadata, ip_address, user_agent, created_at`

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID,
		&e.Metadata, &e.IPAddress, &e.UserAgent, &e.CreatedAt)
	return e, err
}

// CreateEventParams holds fields for a new audit event.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    int64 // 0 means anonymous
	Metadata  string
	IPAddress string
	UserAgent string
}

// CreateEvent appends an audit event. Metadata defaults to an empty JSON
// object when omitted.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	var userID any
	if arg.UserID > 0 {
		userID = arg.UserID
	}
	metadata := arg.Metadata
	if metadata == "" {
		metadata = "{}"
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO audit_events (level, category, message, user_id, metadata, ip_address, user_agent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Level, arg.Category, arg.Message, userID, metadata, arg.IPAddress, arg.UserAgent, time.Now())
	return err
}

// ListEventsParams filters the admin event log.
type ListEventsParams struct {
	Level    string
	Category string
	Limit    int64
	Offset   int64
}

// ListEvents returns audit events newest first.
func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM audit_events`
	where := ""
	args := []any{}
	if arg.Level != "" {
		where = ` WHERE level = ?`
		args = append(args, arg.Level)
	}
	if arg.Category != "" {
		if where == "" {
			where = ` WHERE category = ?`
		} else {
			where += ` AND category = ?`
		}
		args = append(args, arg.Category)
	}
	query += where + ` ORDER BY created_at DESC, id DESC`
	if arg.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, arg.Limit, arg.Offset)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountEvents counts audit events, optionally filtered by level.
func (q *Queries) CountEvents(ctx context.Context, level string) (int64, error) {
	var n int64
	var err error
	if level == "" {
		err = q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_events`).Scan(&n)
	} else {
		err = q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_events WHERE level = ?`, level).Scan(&n)
	}
	return n, err
}

// DeleteOldEvents prunes audit events older than cutoff. Returns the number
// of rows removed.
func (q *Queries) DeleteOldEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM audit_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
