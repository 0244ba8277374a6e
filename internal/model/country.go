// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Country item type for likes. Kept as the historical value used by the
// public explorer pages.
const ItemTypeCountry = "country"

// Country represents a destination country shown on the explorer.
// The free-form sections (VisaInfo, CostOfLiving, Climate, CulturalTips,
// JobMarket) are open-ended JSON documents. They are never NULL: the write
// path coerces an absent section to "{}".
type Country struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"` // ISO 3166-1 alpha-2, uppercase, e.g. "PT"
	NameEn    string `json:"name_en"`
	NameLocal string `json:"name_local"`

	// Metrics
	Temperature      float64 `json:"temperature"`
	QualityOfLife    float64 `json:"quality_of_life"`
	AvgSalary        float64 `json:"avg_salary"`
	SalaryCostRatio  float64 `json:"salary_cost_ratio"`
	SocialIndex      float64 `json:"social_index"`
	BureaucracyEase  float64 `json:"bureaucracy_ease"`
	InternetSpeed    float64 `json:"internet_speed"`
	GdpPerCapita     float64 `json:"gdp_per_capita"`
	Population       int64   `json:"population"`

	// Feature flags
	NomadVisa     bool `json:"nomad_visa"`
	EuPath        bool `json:"eu_path"`
	TaxAdvantages bool `json:"tax_advantages"`
	Featured      bool `json:"featured"`
	Active        bool `json:"active"` // soft-disable; countries are never hard-deleted

	// Structured sections (JSON documents, never NULL)
	VisaInfo     string `json:"visa_info"`
	CostOfLiving string `json:"cost_of_living"`
	Climate      string `json:"climate"`
	CulturalTips string `json:"cultural_tips"`
	JobMarket    string `json:"job_market"`

	ImageURL   string    `json:"image_url,omitempty"`
	LikesCount int64     `json:"likes_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
