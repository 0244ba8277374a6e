// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/thepilgrim/pilgrim-go/internal/cache"
	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/store"
)

// parseBoolFlag reads an optional boolean query parameter. Absent or
// unrecognized values mean "no filter".
func parseBoolFlag(r *http.Request, name string) *bool {
	switch r.URL.Query().Get(name) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}

// flagKey contributes a filter's state to a cache key.
func flagKey(v *bool) string {
	if v == nil {
		return "-"
	}
	if *v {
		return "1"
	}
	return "0"
}

// ListCountries handles GET /api/countries. Only active countries are
// returned, most liked first. Supports featured, nomad_visa, eu_path and
// tax_advantages filters. List results are cached per filter combination.
func (h *Handler) ListCountries(w http.ResponseWriter, r *http.Request) {
	params := store.ListCountriesParams{
		ActiveOnly:    true,
		Featured:      parseBoolFlag(r, "featured"),
		NomadVisa:     parseBoolFlag(r, "nomad_visa"),
		EuPath:        parseBoolFlag(r, "eu_path"),
		TaxAdvantages: parseBoolFlag(r, "tax_advantages"),
	}

	cacheKey := cache.PrefixCountries + "list:" + strings.Join([]string{
		flagKey(params.Featured),
		flagKey(params.NomadVisa),
		flagKey(params.EuPath),
		flagKey(params.TaxAdvantages),
	}, "")

	if h.cache != nil {
		var cached []model.Country
		if h.cache.GetJSON(r.Context(), cacheKey, &cached) {
			WriteSuccess(w, cached, &Meta{Total: int64(len(cached))})
			return
		}
	}

	countries, err := h.public.ListActiveCountries(r.Context(), params)
	if err != nil {
		WriteInternalError(w, "Failed to list countries")
		return
	}
	if countries == nil {
		countries = []model.Country{}
	}

	if h.cache != nil {
		h.cache.SetJSON(r.Context(), cacheKey, countries)
	}
	WriteSuccess(w, countries, &Meta{Total: int64(len(countries))})
}

// GetCountry handles GET /api/countries/{code}. Inactive countries are
// indistinguishable from missing ones.
func (h *Handler) GetCountry(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	if code == "" {
		WriteBadRequest(w, "Missing country code", nil)
		return
	}

	cacheKey := cache.PrefixCountries + "detail:" + code
	if h.cache != nil {
		var cached model.Country
		if h.cache.GetJSON(r.Context(), cacheKey, &cached) {
			WriteSuccess(w, cached, nil)
			return
		}
	}

	country, err := h.public.GetActiveCountryByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Country not found")
		} else {
			WriteInternalError(w, "Failed to retrieve country")
		}
		return
	}

	if h.cache != nil {
		h.cache.SetJSON(r.Context(), cacheKey, country)
	}
	WriteSuccess(w, country, nil)
}
