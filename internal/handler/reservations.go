// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/thepilgrim/pilgrim-go/internal/middleware"
	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/store"
)

// ListReservations handles GET /api/admin/reservations with an optional
// status filter.
func (h *AdminHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	page := ParsePageParam(r)
	perPage := ParsePerPageParam(r, 20, 100)
	status := r.URL.Query().Get("status")

	switch status {
	case "", model.ReservationStatusPending, model.ReservationStatusPaid,
		model.ReservationStatusCompleted, model.ReservationStatusCancelled:
	default:
		writeJSONError(w, http.StatusBadRequest, "Unknown reservation status")
		return
	}

	reservations, err := h.queries.ListReservations(r.Context(), store.ListReservationsParams{
		Status: status,
		Limit:  int64(perPage),
		Offset: int64((page - 1) * perPage),
	})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to list reservations")
		return
	}
	total, err := h.queries.CountReservations(r.Context(), status)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to count reservations")
		return
	}

	writeJSONSuccess(w, map[string]any{
		"reservations": reservations,
		"total":        total,
		"page":         page,
		"per_page":     perPage,
	})
}

// GetReservation handles GET /api/admin/reservations/{id}.
func (h *AdminHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	reservation, ok := h.reservationByID(w, r)
	if !ok {
		return
	}
	writeJSONSuccess(w, map[string]any{"reservation": reservation})
}

// UpdateReservationStatus handles PUT /api/admin/reservations/{id}/status.
// Only transitions the lifecycle allows are accepted; an operator cannot
// cancel a paid reservation or re-open a completed one.
func (h *AdminHandler) UpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	reservation, ok := h.reservationByID(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Status == reservation.Status {
		writeJSONSuccess(w, map[string]any{"reservation": reservation})
		return
	}
	if !model.CanTransition(reservation.Status, req.Status) {
		writeJSONError(w, http.StatusUnprocessableEntity,
			"Cannot move a "+reservation.Status+" reservation to "+req.Status)
		return
	}

	if err := h.queries.UpdateReservationStatus(r.Context(), reservation.ID, req.Status); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to update reservation")
		return
	}

	h.events.LogRequest(r, model.EventLevelInfo, model.EventCategoryPayment,
		"reservation status changed", middleware.GetUserID(r), map[string]any{
			"reservation_id": reservation.ID,
			"from":           reservation.Status,
			"to":             req.Status,
		})

	updated, err := h.queries.GetReservationByID(r.Context(), reservation.ID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to load reservation")
		return
	}
	writeJSONSuccess(w, map[string]any{"reservation": updated})
}

func (h *AdminHandler) reservationByID(w http.ResponseWriter, r *http.Request) (model.Reservation, bool) {
	id, err := ParseIDParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid reservation ID")
		return model.Reservation{}, false
	}
	reservation, err := h.queries.GetReservationByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "Reservation not found")
		} else {
			writeJSONError(w, http.StatusInternalServerError, "Failed to load reservation")
		}
		return model.Reservation{}, false
	}
	return reservation, true
}
