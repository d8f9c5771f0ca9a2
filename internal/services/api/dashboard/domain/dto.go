// Package domain holds DTOs for dashboard http and service contracts
package domain

import (
	"time"

	"crimedash/internal/core/aggregate"
	"crimedash/internal/core/dataset"
	"crimedash/internal/core/forecast"
)

// Source kinds accepted by LoadInput
const (
	SourceFile   = "file"
	SourceURL    = "url"
	SourceInline = "inline"
	SourcePG     = "pg"
	SourceCH     = "ch"
)

// TableRef names a database table for pg and ch sources
type TableRef struct {
	Schema  string   `json:"schema,omitempty" validate:"omitempty,max=63" example:"public"`
	Name    string   `json:"name" validate:"required,max=63" example:"crimes"`
	Columns []string `json:"columns,omitempty" validate:"omitempty,max=64,dive,required,max=63"`
	Limit   int      `json:"limit,omitempty" validate:"omitempty,min=1,max=5000000" example:"100000"`
}

// SourceSpec says where the records come from, exactly one location field matches Kind
type SourceSpec struct {
	Kind   string    `json:"kind" validate:"required,oneof=file url inline pg ch" example:"inline"`
	Path   string    `json:"path,omitempty" validate:"required_if=Kind file" example:"crimes.csv"`
	URL    string    `json:"url,omitempty" validate:"required_if=Kind url" example:"https://data.example.org/crimes.csv.gz"`
	Inline string    `json:"inline,omitempty" validate:"required_if=Kind inline" example:"Date,Unit,Theft\n2024-01-01,North,3"`
	Table  *TableRef `json:"table,omitempty" validate:"required_if=Kind pg,required_if=Kind ch"`
}

// LoadInput creates a dataset session
type LoadInput struct {
	Name        string          `json:"name,omitempty" validate:"omitempty,max=120" example:"city-2024"`
	Source      SourceSpec      `json:"source"`
	Layout      string          `json:"layout,omitempty" validate:"omitempty,oneof=long wide auto" example:"wide"`
	Policy      string          `json:"policy,omitempty" validate:"omitempty,oneof=fail drop" example:"drop"`
	Columns     dataset.Columns `json:"columns,omitempty"`
	DateFormats []string        `json:"date_formats,omitempty" validate:"omitempty,max=16,dive,required"`
}

// LoadOutput describes the new session
type LoadOutput struct {
	ID        string             `json:"id" example:"5b0c3f3e-8a36-4c4c-9d57-1b0e0b7f5f11"`
	Overview  aggregate.Overview `json:"overview"`
	Report    dataset.Report     `json:"report"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// DatasetOutput describes a resident session
type DatasetOutput struct {
	ID         string             `json:"id"`
	Overview   aggregate.Overview `json:"overview"`
	CrimeTypes []string           `json:"crime_types"`
	Units      []string           `json:"units"`
	CreatedAt  time.Time          `json:"created_at"`
	ExpiresAt  time.Time          `json:"expires_at"`
}

// FilterInput narrows the dataset before any view, empty fields keep everything
type FilterInput struct {
	From       string   `json:"from,omitempty" validate:"omitempty,period" example:"2023-01"`
	To         string   `json:"to,omitempty" validate:"omitempty,period" example:"2024-12"`
	Units      []string `json:"units,omitempty" validate:"omitempty,dive,label"`
	CrimeTypes []string `json:"crime_types,omitempty" validate:"omitempty,dive,label"`
}

// Query is embedded by every view request
type Query struct {
	Dataset string      `json:"dataset" validate:"required,uuid" example:"5b0c3f3e-8a36-4c4c-9d57-1b0e0b7f5f11"`
	Filter  FilterInput `json:"filter"`
}

// AggregateInput asks for one zero filled series per key
type AggregateInput struct {
	Query
	Keys []string `json:"keys" validate:"required,min=1,max=2,unique,dive,oneof=crime_type unit" example:"crime_type"`
}

// ForecastInput asks for per crime type forecasts, per unit when Unit is set
type ForecastInput struct {
	Query
	CrimeTypes []string `json:"crime_types,omitempty" validate:"omitempty,dive,label"`
	Unit       string   `json:"unit,omitempty" validate:"omitempty,label" example:"North"`
	Horizon    int      `json:"horizon,omitempty" validate:"omitempty,min=1,max=120" example:"12"`
}

// ForecastOutput is the forecast batch plus the horizon it was built for
type ForecastOutput struct {
	Horizon int `json:"horizon"`
	forecast.Batch
}

// TotalsInput asks for totals per crime type or unit
type TotalsInput struct {
	Query
	By string `json:"by" validate:"required,oneof=crime_type unit" example:"crime_type"`
}

// YearlyInput asks for the year by crime type matrix
type YearlyInput struct {
	Query
}

// HeatmapInput asks for a row by year matrix of one crime type, all types when blank
type HeatmapInput struct {
	Query
	Rows      string `json:"rows,omitempty" validate:"omitempty,oneof=unit crime_type" example:"unit"`
	CrimeType string `json:"crime_type,omitempty" example:"Theft"`
}

// CorrelationInput asks for the correlation between crime types, all types when empty
type CorrelationInput struct {
	Query
	CrimeTypes []string `json:"crime_types,omitempty" validate:"omitempty,dive,label"`
}

// CompareInput asks for unit by crime type totals
type CompareInput struct {
	Query
	Units      []string `json:"units" validate:"required,min=1,dive,label"`
	CrimeTypes []string `json:"crime_types,omitempty" validate:"omitempty,dive,label"`
}

// OutlookInput asks for the ranked predictions of one unit at a target month
type OutlookInput struct {
	Query
	Unit   string `json:"unit" validate:"required,label" example:"North"`
	Target string `json:"target" validate:"required,period" example:"2025-06"`
	Top    int    `json:"top,omitempty" validate:"omitempty,min=1,max=50" example:"5"`
}
