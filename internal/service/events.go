// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the business logic: audit logging, like toggles and
// the checkout flow.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mileusna/useragent"

	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/store"
	"github.com/thepilgrim/pilgrim-go/internal/util"
)

// EventService appends audit trail entries. Writes are best-effort: a failed
// audit write is logged but never propagated to the caller's flow.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{queries: store.New(db)}
}

// LogEvent creates an audit event. userID 0 means anonymous.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, userID int64, ipAddress, userAgent string, metadata map[string]any) {
	metadataJSON := "{}"
	if metadata != nil {
		if jsonBytes, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    userID,
		Metadata:  metadataJSON,
		IPAddress: ipAddress,
		UserAgent: condenseUserAgent(userAgent),
	})
	if err != nil {
		slog.Error("failed to write audit event", "category", category, "message", message, "error", err)
	}
}

// LogRequest logs an event with IP and user agent taken from the request.
func (s *EventService) LogRequest(r *http.Request, level, category, message string, userID int64, metadata map[string]any) {
	s.LogEvent(r.Context(), level, category, message, userID, util.ClientIP(r), r.UserAgent(), metadata)
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message string, userID int64, ipAddress string, metadata map[string]any) {
	s.LogEvent(ctx, model.EventLevelInfo, category, message, userID, ipAddress, "", metadata)
}

// LogWarning logs a warning-level event.
func (s *EventService) LogWarning(ctx context.Context, category, message string, userID int64, ipAddress string, metadata map[string]any) {
	s.LogEvent(ctx, model.EventLevelWarning, category, message, userID, ipAddress, "", metadata)
}

// LogError logs an error-level event.
func (s *EventService) LogError(ctx context.Context, category, message string, userID int64, ipAddress string, metadata map[string]any) {
	s.LogEvent(ctx, model.EventLevelError, category, message, userID, ipAddress, "", metadata)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	return s.queries.DeleteOldEvents(ctx, cutoff)
}

// condenseUserAgent reduces a raw User-Agent header to "Browser ver (OS)"
// so the audit table stays readable.
func condenseUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.Parse(raw)
	if ua.Name == "" {
		if len(raw) > 120 {
			return raw[:120]
		}
		return raw
	}
	if ua.OS != "" {
		return fmt.Sprintf("%s %s (%s)", ua.Name, ua.Version, ua.OS)
	}
	return fmt.Sprintf("%s %s", ua.Name, ua.Version)
}
