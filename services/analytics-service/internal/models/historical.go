package models

import "github.com/shopspring/decimal"

// HistoricalDailyPresenze is one imported edition/day aggregate
type HistoricalDailyPresenze struct {
	EditionKey    string `json:"edition_key" db:"edition_key"`
	SaleDate      string `json:"sale_date" db:"sale_date"`
	PresenzeDelta int64  `json:"presenze_delta" db:"presenze_delta"`
	TicketsDelta  int64  `json:"tickets_delta" db:"tickets_delta"`
}

// ImportResult summarises one historical CSV import
type ImportResult struct {
	Processed  int      `json:"processed"`
	Skipped    int      `json:"skipped"`
	UniqueDays int      `json:"unique_days"`
	Editions   []string `json:"editions"`
}

// EditionComparison is one edition's sales over the year-shifted period
type EditionComparison struct {
	Key         string           `json:"key"`
	Label       string           `json:"label"`
	Year        int              `json:"year"`
	Color       string           `json:"color,omitempty"`
	From        string           `json:"from"`
	To          string           `json:"to"`
	PeriodLabel string           `json:"period_label"`
	Source      string           `json:"source"`
	Tickets     int64            `json:"tickets"`
	Presenze    int64            `json:"presenze"`
	Events      []EventSales     `json:"events"`
	DiffPct     *decimal.Decimal `json:"diff_pct,omitempty"`
	DiffLabel   string           `json:"diff_label,omitempty"`
}

// Comparison sources
const (
	SourceSnapshots  = "snapshots"
	SourceHistorical = "historical"
	SourceNone       = "none"
)
