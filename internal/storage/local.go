// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage stores objects under the uploads directory and serves them
// from the application's /uploads route. Used when no S3 endpoint is
// configured.
type LocalStorage struct {
	baseDir string
	baseURL string
}

// NewLocalStorage creates a filesystem-backed storage rooted at baseDir.
func NewLocalStorage(baseDir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}
	return &LocalStorage{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Upload writes the object under the uploads directory. The object name is
// validated to stay inside the base directory.
func (s *LocalStorage) Upload(_ context.Context, objectName, _ string, reader io.Reader, _ int64) (string, error) {
	path, err := s.resolve(objectName)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, reader); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return s.baseURL + "/uploads/" + strings.TrimLeft(objectName, "/"), nil
}

// Delete removes a stored object. Missing files are not an error.
func (s *LocalStorage) Delete(_ context.Context, objectName string) error {
	path, err := s.resolve(objectName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// resolve maps an object name to a filesystem path, rejecting traversal.
func (s *LocalStorage) resolve(objectName string) (string, error) {
	clean := filepath.Clean(objectName)
	if strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object name %q", objectName)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("resolving base directory: %w", err)
	}

	target := filepath.Join(absBase, clean)
	rel, err := filepath.Rel(absBase, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid object name %q", objectName)
	}
	return target, nil
}
