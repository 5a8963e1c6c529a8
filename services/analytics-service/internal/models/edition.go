package models

import "github.com/shopspring/decimal"

// EditionIdentity names the festival edition an event belongs to
type EditionIdentity struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Year  int    `json:"year"`
}

// Edition groups the events sharing one identity. Rebuilt on every fetch.
type Edition struct {
	EditionIdentity
	Events []RawEvent `json:"events"`
}

// EventDetail is a single upstream event with its attribution
type EventDetail struct {
	Event     RawEvent        `json:"event"`
	Edition   EditionIdentity `json:"edition"`
	Active    bool            `json:"active"`
	Pass      bool            `json:"pass"`
	Dates     []string        `json:"dates"`
	DayLabels []string        `json:"day_labels"`
}

// EditionSummary is the list view of an edition
type EditionSummary struct {
	EditionIdentity
	EventCount int  `json:"event_count"`
	IsLatest   bool `json:"is_latest"`
}

// DayDistribution is the attendance of one covered day
type DayDistribution struct {
	Day   string `json:"day"`
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// TicketRow is one event line of the edition ticket table
type TicketRow struct {
	EventID   string          `json:"event_id"`
	EventName string          `json:"event_name"`
	Sold      int64           `json:"sold"`
	Days      []string        `json:"days"`
	Dates     []string        `json:"dates"`
	SharePct  decimal.Decimal `json:"share_pct"`
}

// EventSales is a sold count attributed to one event
type EventSales struct {
	EventID   string `json:"event_id,omitempty"`
	EventName string `json:"event_name"`
	Sold      int64  `json:"sold"`
}

// DailySales lists the events covering one day
type DailySales struct {
	Day    string       `json:"day"`
	Date   string       `json:"date"`
	Total  int64        `json:"total"`
	Events []EventSales `json:"events"`
}

// Settings are caller-owned dashboard preferences
type Settings struct {
	Goal           int64 `json:"goal"`
	CapacityPerDay int64 `json:"capacity_per_day"`
}

// GoalProgress tracks presenze against the sales goal
type GoalProgress struct {
	Goal      int64           `json:"goal"`
	Presenze  int64           `json:"presenze"`
	Pct       decimal.Decimal `json:"pct"`
	Remaining int64           `json:"remaining"`
	Label     string          `json:"label"`
}

// DayCapacity is the utilisation of one day against the per-day capacity
type DayCapacity struct {
	Day            string          `json:"day"`
	Date           string          `json:"date"`
	Count          int64           `json:"count"`
	Capacity       int64           `json:"capacity"`
	Available      int64           `json:"available"`
	UtilisationPct decimal.Decimal `json:"utilisation_pct"`
}
