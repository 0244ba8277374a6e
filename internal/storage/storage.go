// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package storage abstracts where processed images end up: an S3-compatible
// bucket in production, the local uploads directory otherwise.
package storage

import (
	"context"
	"io"
)

// ObjectStorage stores uploaded objects and returns a public URL.
type ObjectStorage interface {
	Upload(ctx context.Context, objectName, contentType string, reader io.Reader, size int64) (string, error)
	Delete(ctx context.Context, objectName string) error
}
