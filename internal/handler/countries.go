// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/thepilgrim/pilgrim-go/internal/imaging"
	"github.com/thepilgrim/pilgrim-go/internal/middleware"
	"github.com/thepilgrim/pilgrim-go/internal/model"
	"github.com/thepilgrim/pilgrim-go/internal/store"
)

// CountryRequest is the request body for creating or updating a country.
type CountryRequest struct {
	Code            string  `json:"code"`
	NameEn          string  `json:"name_en"`
	NameLocal       string  `json:"name_local"`
	Temperature     float64 `json:"temperature"`
	QualityOfLife   float64 `json:"quality_of_life"`
	AvgSalary       float64 `json:"avg_salary"`
	SalaryCostRatio float64 `json:"salary_cost_ratio"`
	SocialIndex     float64 `json:"social_index"`
	BureaucracyEase float64 `json:"bureaucracy_ease"`
	InternetSpeed   float64 `json:"internet_speed"`
	GdpPerCapita    float64 `json:"gdp_per_capita"`
	Population      int64   `json:"population"`
	NomadVisa       bool    `json:"nomad_visa"`
	EuPath          bool    `json:"eu_path"`
	TaxAdvantages   bool    `json:"tax_advantages"`
	Featured        bool    `json:"featured"`
	Active          bool    `json:"active"`
	VisaInfo        string  `json:"visa_info"`
	CostOfLiving    string  `json:"cost_of_living"`
	Climate         string  `json:"climate"`
	CulturalTips    string  `json:"cultural_tips"`
	JobMarket       string  `json:"job_market"`
	ImageURL        string  `json:"image_url"`
}

// validate checks required fields and JSON section syntax.
func (req *CountryRequest) validate() map[string]string {
	problems := make(map[string]string)
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if len(req.Code) != 2 {
		problems["code"] = "Country code must be two letters"
	}
	if strings.TrimSpace(req.NameEn) == "" {
		problems["name_en"] = "English name is required"
	}
	for field, value := range map[string]string{
		"visa_info":      req.VisaInfo,
		"cost_of_living": req.CostOfLiving,
		"climate":        req.Climate,
		"cultural_tips":  req.CulturalTips,
		"job_market":     req.JobMarket,
	} {
		if value == "" {
			continue
		}
		if !isJSONObject(value) {
			problems[field] = "Section must be a valid JSON object"
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// isJSONObject reports whether s is a JSON object. Arrays, scalars and
// null are valid JSON but not acceptable section values.
func isJSONObject(s string) bool {
	t := strings.TrimSpace(s)
	return strings.HasPrefix(t, "{") && json.Valid([]byte(t))
}

func (req *CountryRequest) toParams() store.CountryParams {
	return store.CountryParams{
		Code:            req.Code,
		NameEn:          req.NameEn,
		NameLocal:       req.NameLocal,
		Temperature:     req.Temperature,
		QualityOfLife:   req.QualityOfLife,
		AvgSalary:       req.AvgSalary,
		SalaryCostRatio: req.SalaryCostRatio,
		SocialIndex:     req.SocialIndex,
		BureaucracyEase: req.BureaucracyEase,
		InternetSpeed:   req.InternetSpeed,
		GdpPerCapita:    req.GdpPerCapita,
		Population:      req.Population,
		NomadVisa:       req.NomadVisa,
		EuPath:          req.EuPath,
		TaxAdvantages:   req.TaxAdvantages,
		Featured:        req.Featured,
		Active:          req.Active,
		VisaInfo:        req.VisaInfo,
		CostOfLiving:    req.CostOfLiving,
		Climate:         req.Climate,
		CulturalTips:    req.CulturalTips,
		JobMarket:       req.JobMarket,
		ImageURL:        req.ImageURL,
	}
}

// ListCountries handles GET /api/admin/countries. Inactive countries are
// included; the admin sees everything.
func (h *AdminHandler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.queries.ListCountries(r.Context(), store.ListCountriesParams{})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to list countries")
		return
	}
	writeJSONSuccess(w, map[string]any{"countries": countries})
}

// GetCountry handles GET /api/admin/countries/{id}.
func (h *AdminHandler) GetCountry(w http.ResponseWriter, r *http.Request) {
	country, ok := h.countryByID(w, r)
	if !ok {
		return
	}
	writeJSONSuccess(w, map[string]any{"country": country})
}

// CreateCountry handles POST /api/admin/countries.
func (h *AdminHandler) CreateCountry(w http.ResponseWriter, r *http.Request) {
	var req CountryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if problems := req.validate(); problems != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, firstProblem(problems))
		return
	}

	if _, err := h.queries.GetCountryByCode(r.Context(), req.Code); err == nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "A country with this code already exists")
		return
	}

	country, err := h.queries.CreateCountry(r.Context(), req.toParams())
	if err != nil {
		slog.Error("failed to create country", "error", err, "code", req.Code)
		writeJSONError(w, http.StatusInternalServerError, "Failed to create country")
		return
	}

	h.invalidateCountries(r)
	h.events.LogRequest(r, model.EventLevelInfo, model.EventCategoryCountry,
		"country created", middleware.GetUserID(r), map[string]any{"country_id": country.ID, "code": country.Code})

	w.WriteHeader(http.StatusCreated)
	writeJSONSuccess(w, map[string]any{"country": country})
}

// UpdateCountry handles PUT /api/admin/countries/{id}.
func (h *AdminHandler) UpdateCountry(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.countryByID(w, r)
	if !ok {
		return
	}

	var req CountryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if problems := req.validate(); problems != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, firstProblem(problems))
		return
	}

	if req.Code != existing.Code {
		if _, err := h.queries.GetCountryByCode(r.Context(), req.Code); err == nil {
			writeJSONError(w, http.StatusUnprocessableEntity, "A country with this code already exists")
			return
		}
	}

	country, err := h.queries.UpdateCountry(r.Context(), existing.ID, req.toParams())
	if err != nil {
		slog.Error("failed to update country", "error", err, "country_id", existing.ID)
		writeJSONError(w, http.StatusInternalServerError, "Failed to update country")
		return
	}

	h.invalidateCountries(r)
	h.events.LogRequest(r, model.EventLevelInfo, model.EventCategoryCountry,
		"country updated", middleware.GetUserID(r), map[string]any{"country_id": country.ID, "code": country.Code})

	writeJSONSuccess(w, map[string]any{"country": country})
}

// SetCountryActive handles PUT /api/admin/countries/{id}/active.
// Deactivating hides the country from all public endpoints without losing data.
func (h *AdminHandler) SetCountryActive(w http.ResponseWriter, r *http.Request) {
	country, ok := h.countryByID(w, r)
	if !ok {
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.queries.SetCountryActive(r.Context(), country.ID, req.Active); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to update country")
		return
	}

	h.invalidateCountries(r)
	h.events.LogRequest(r, model.EventLevelInfo, model.EventCategoryCountry,
		"country visibility changed", middleware.GetUserID(r),
		map[string]any{"country_id": country.ID, "active": req.Active})

	writeJSONSuccess(w, nil)
}

// UploadCountryImage handles POST /api/admin/countries/{id}/image.
// The image is re-encoded, downscaled and stored in object storage.
func (h *AdminHandler) UploadCountryImage(w http.ResponseWriter, r *http.Request) {
	country, ok := h.countryByID(w, r)
	if !ok {
		return
	}
	if h.storage == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "Image storage not configured")
		return
	}

	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Missing image file")
		return
	}
	defer file.Close()

	if header.Size > imaging.MaxUploadBytes {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "Image exceeds the upload limit")
		return
	}

	result, err := h.processor.Process(file)
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "Unsupported or corrupt image")
		return
	}

	objectName := fmt.Sprintf("countries/%s-%s.jpg", strings.ToLower(country.Code), uuid.NewString())
	url, err := h.storage.Upload(r.Context(), objectName, result.MimeType,
		bytes.NewReader(result.Data), int64(len(result.Data)))
	if err != nil {
		slog.Error("image upload failed", "error", err, "country_id", country.ID)
		writeJSONError(w, http.StatusInternalServerError, "Failed to store image")
		return
	}

	if err := h.queries.SetCountryImageURL(r.Context(), country.ID, url); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to save image URL")
		return
	}

	h.invalidateCountries(r)
	h.events.LogRequest(r, model.EventLevelInfo, model.EventCategoryCountry,
		"country image uploaded", middleware.GetUserID(r),
		map[string]any{"country_id": country.ID, "object": objectName})

	writeJSONSuccess(w, map[string]any{
		"image_url": url,
		"width":     result.Width,
		"height":    result.Height,
	})
}

func (h *AdminHandler) countryByID(w http.ResponseWriter, r *http.Request) (model.Country, bool) {
	id, err := ParseIDParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid country ID")
		return model.Country{}, false
	}
	country, err := h.queries.GetCountryByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "Country not found")
		} else {
			writeJSONError(w, http.StatusInternalServerError, "Failed to load country")
		}
		return model.Country{}, false
	}
	return country, true
}

func (h *AdminHandler) invalidateCountries(r *http.Request) {
	if h.cache != nil {
		h.cache.InvalidateCountries(r.Context())
	}
}

func (h *AdminHandler) invalidatePosts(r *http.Request) {
	if h.cache != nil {
		h.cache.InvalidatePosts(r.Context())
	}
}

// firstProblem returns one validation message for the flat error format.
func firstProblem(problems map[string]string) string {
	for _, msg := range problems {
		return msg
	}
	return "Validation failed"
}
