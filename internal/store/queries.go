// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
)

// DBTX is the subset of *sql.DB / *sql.Tx used by the query layer.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries is the privileged query layer with full read/write access to every
// table. Hand it only to trusted server-side code (admin handlers, webhook
// processing, scheduler jobs). Public handlers receive the restricted
// Public wrapper instead.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to a database or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Public is the restricted query tier handed to public (unauthenticated)
// handlers: read access to active/published content plus the self-service
// writes a visitor may perform (comments, likes, contact messages). It is
// the in-process equivalent of the row-level-security credential split.
type Public struct {
	q *Queries
}

// NewPublic creates the restricted public tier over a database handle.
func NewPublic(db DBTX) *Public {
	return &Public{q: New(db)}
}
