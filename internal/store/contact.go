// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/thepilgrim/pilgrim-go/internal/model"
)

// CreateContactMessageParams holds fields for a contact-form submission.
type CreateContactMessageParams struct {
	Name      string
	Email     string
	Subject   string
	Message   string
	IPAddress string
}

// CreateContactMessage persists a contact-form submission.
func (q *Queries) CreateContactMessage(ctx context.Context, arg CreateContactMessageParams) (model.ContactMessage, error) {
	now := time.Now()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO contact_messages (name, email, subject, message, ip_address, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Name, arg.Email, arg.Subject, arg.Message, arg.IPAddress, now)
	if err != nil {
		return model.ContactMessage{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ContactMessage{}, err
	}
	return model.ContactMessage{
		ID: id, Name: arg.Name, Email: arg.Email, Subject: arg.Subject,
		Message: arg.Message, IPAddress: arg.IPAddress, CreatedAt: now,
	}, nil
}

// ListContactMessages returns contact messages newest first.
func (q *Queries) ListContactMessages(ctx context.Context, limit, offset int64) ([]model.ContactMessage, error) {
	query := `SELECT id, name, email, subject, message, ip_address, created_at
		 FROM contact_messages ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.ContactMessage, 0)
	for rows.Next() {
		var m model.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message,
			&m.IPAddress, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountContactMessages counts contact messages.
func (q *Queries) CountContactMessages(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_messages`).Scan(&n)
	return n, err
}

// DeleteContactMessage removes one contact message.
func (q *Queries) DeleteContactMessage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM contact_messages WHERE id = ?`, id)
	return err
}
