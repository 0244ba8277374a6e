// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"github.com/thepilgrim/pilgrim-go/internal/store"
	"github.com/thepilgrim/pilgrim-go/internal/util"
)

// ContactRequest is a contact-form submission.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (req *ContactRequest) validate() map[string]string {
	problems := make(map[string]string)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)

	if req.Name == "" {
		problems["name"] = "Name is required"
	}
	if req.Email == "" {
		problems["email"] = "Email is required"
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		problems["email"] = "Invalid email address"
	}
	if req.Message == "" {
		problems["message"] = "Message is required"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// SubmitContact handles POST /api/contact. The row always persists; the
// admin notification email is best effort and queued asynchronously, so a
// down SMTP server never turns away a lead.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if problems := req.validate(); problems != nil {
		WriteValidationError(w, problems)
		return
	}

	msg, err := h.public.CreateContactMessage(r.Context(), store.CreateContactMessageParams{
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		IPAddress: util.ClientIP(r),
	})
	if err != nil {
		WriteInternalError(w, "Failed to save message")
		return
	}

	if h.notifier != nil {
		h.notifier.NotifyContactMessage(msg)
	}

	WriteCreated(w, map[string]any{"id": msg.ID, "received": true})
}
