// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/thepilgrim/pilgrim-go/internal/model"
)

const countryColumns = `id, code, name_en, name_local,
	temperature, quality_of_life, avg_salary, salary_cost_ratio, social_index,
	bureaucracy_ease, internet_speed, gdp_per_capita, population,
	nomad_visa, eu_path, tax_advantages, featured, active,
	visa_info, cost_of_living, climate, cultural_tips, job_market,
	image_url, likes_count, created_at, updated_at`

func scanCountry(row interface{ Scan(...any) error }) (model.Country, error) {
	var c model.Country
	err := row.Scan(&c.ID, &c.Code, &c.NameEn, &c.NameLocal,
		&c.Temperature, &c.QualityOfLife, &c.AvgSalary, &c.SalaryCostRatio, &c.SocialIndex,
		&c.BureaucracyEase, &c.InternetSpeed, &c.GdpPerCapita, &c.Population,
		&c.NomadVisa, &c.EuPath, &c.TaxAdvantages, &c.Featured, &c.Active,
		&c.VisaInfo, &c.CostOfLiving, &c.Climate, &c.CulturalTips, &c.JobMarket,
		&c.ImageURL, &c.LikesCount, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanCountries(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]model.Country, error) {
	var countries []model.Country
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, err
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

// GetCountryByID fetches a country by primary key.
func (q *Queries) GetCountryByID(ctx context.Context, id int64) (model.Country, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+countryColumns+` FROM countries WHERE id = ?`, id)
	return scanCountry(row)
}

// GetCountryByCode fetches a country by its unique URL code.
func (q *Queries) GetCountryByCode(ctx context.Context, code string) (model.Country, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+countryColumns+` FROM countries WHERE code = ?`, code)
	return scanCountry(row)
}

// GetActiveCountryByCode fetches an active country by code (public read path).
func (q *Queries) GetActiveCountryByCode(ctx context.Context, code string) (model.Country, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+countryColumns+` FROM countries WHERE code = ? AND active = 1`, code)
	return scanCountry(row)
}

// ListCountriesParams filters the country listing. Nil booleans mean "any".
type ListCountriesParams struct {
	ActiveOnly    bool
	Featured      *bool
	NomadVisa     *bool
	EuPath        *bool
	TaxAdvantages *bool
}

// ListCountries returns countries matching the filters, most liked first.
func (q *Queries) ListCountries(ctx context.Context, arg ListCountriesParams) ([]model.Country, error) {
	query := `SELECT ` + countryColumns + ` FROM countries WHERE 1=1`
	var args []any
	if arg.ActiveOnly {
		query += ` AND active = 1`
	}
	if arg.Featured != nil {
		query += ` AND featured = ?`
		args = append(args, *arg.Featured)
	}
	if arg.NomadVisa != nil {
		query += ` AND nomad_visa = ?`
		args = append(args, *arg.NomadVisa)
	}
	if arg.EuPath != nil {
		query += ` AND eu_path = ?`
		args = append(args, *arg.EuPath)
	}
	if arg.TaxAdvantages != nil {
		query += ` AND tax_advantages = ?`
		args = append(args, *arg.TaxAdvantages)
	}
	query += ` ORDER BY featured DESC, likes_count DESC, name_en`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCountries(rows)
}

// CountryParams holds the writable country fields. JSON sections are coerced
// to "{}" when empty: the columns are NOT NULL and readers rely on always
// receiving a JSON object.
type CountryParams struct {
	Code            string
	NameEn          string
	NameLocal       string
	Temperature     float64
	QualityOfLife   float64
	AvgSalary       float64
	SalaryCostRatio float64
	SocialIndex     float64
	BureaucracyEase float64
	InternetSpeed   float64
	GdpPerCapita    float64
	Population      int64
	NomadVisa       bool
	EuPath          bool
	TaxAdvantages   bool
	Featured        bool
	Active          bool
	VisaInfo        string
	CostOfLiving    string
	Climate         string
	CulturalTips    string
	JobMarket       string
	ImageURL        string
}

func coerceJSON(s string) string {
	if s == "" {
		return "{}"
	}
	return s
}

// CreateCountry inserts a country and returns the created row.
func (q *Queries) CreateCountry(ctx context.Context, arg CountryParams) (model.Country, error) {
	now := time.Now()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO countries (code, name_en, name_local,
			temperature, quality_of_life, avg_salary, salary_cost_ratio, social_index,
			bureaucracy_ease, internet_speed, gdp_per_capita, population,
			nomad_visa, eu_path, tax_advantages, featured, active,
			visa_info, cost_of_living, climate, cultural_tips, job_market,
			image_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Code, arg.NameEn, arg.NameLocal,
		arg.Temperature, arg.QualityOfLife, arg.AvgSalary, arg.SalaryCostRatio, arg.SocialIndex,
		arg.BureaucracyEase, arg.InternetSpeed, arg.GdpPerCapita, arg.Population,
		arg.NomadVisa, arg.EuPath, arg.TaxAdvantages, arg.Featured, arg.Active,
		coerceJSON(arg.VisaInfo), coerceJSON(arg.CostOfLiving), coerceJSON(arg.Climate),
		coerceJSON(arg.CulturalTips), coerceJSON(arg.JobMarket),
		arg.ImageURL, now, now)
	if err != nil {
		return model.Country{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Country{}, err
	}
	return q.GetCountryByID(ctx, id)
}

// UpdateCountry rewrites the writable fields of a country.
func (q *Queries) UpdateCountry(ctx context.Context, id int64, arg CountryParams) (model.Country, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE countries SET code = ?, name_en = ?, name_local = ?,
			temperature = ?, quality_of_life = ?, avg_salary = ?, salary_cost_ratio = ?, social_index = ?,
			bureaucracy_ease = ?, internet_speed = ?, gdp_per_capita = ?, population = ?,
			nomad_visa = ?, eu_path = ?, tax_advantages = ?, featured = ?, active = ?,
			visa_info = ?, cost_of_living = ?, climate = ?, cultural_tips = ?, job_market = ?,
			image_url = ?, updated_at = ?
		 WHERE id = ?`,
		arg.Code, arg.NameEn, arg.NameLocal,
		arg.Temperature, arg.QualityOfLife, arg.AvgSalary, arg.SalaryCostRatio, arg.SocialIndex,
		arg.BureaucracyEase, arg.InternetSpeed, arg.GdpPerCapita, arg.Population,
		arg.NomadVisa, arg.EuPath, arg.TaxAdvantages, arg.Featured, arg.Active,
		coerceJSON(arg.VisaInfo), coerceJSON(arg.CostOfLiving), coerceJSON(arg.Climate),
		coerceJSON(arg.CulturalTips), coerceJSON(arg.JobMarket),
		arg.ImageURL, time.Now(), id)
	if err != nil {
		return model.Country{}, err
	}
	return q.GetCountryByID(ctx, id)
}

// SetCountryActive toggles the soft-disable flag.
func (q *Queries) SetCountryActive(ctx context.Context, id int64, active bool) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE countries SET active = ?, updated_at = ? WHERE id = ?`, active, time.Now(), id)
	return err
}

// SetCountryImageURL updates the uploaded image URL.
func (q *Queries) SetCountryImageURL(ctx context.Context, id int64, url string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE countries SET image_url = ?, updated_at = ? WHERE id = ?`, url, time.Now(), id)
	return err
}

// CountCountries returns the number of countries, optionally active only.
func (q *Queries) CountCountries(ctx context.Context, activeOnly bool) (int64, error) {
	query := `SELECT COUNT(*) FROM countries`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	var n int64
	err := q.db.QueryRowContext(ctx, query).Scan(&n)
	return n, err
}
