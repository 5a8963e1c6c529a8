package models

import "time"

// TodayOverlay carries the sold-today figures of the latest edition
type TodayOverlay struct {
	BaselineDate      string          `json:"baseline_date"`
	PerDay            []DaySales      `json:"per_day"`
	Total             DayOverDay      `json:"total"`
	Breakdown         []EventDelta    `json:"breakdown"`
	PresenzeBreakdown []PresenzeDelta `json:"presenze_breakdown"`
}

// Dashboard is everything the UI renders for one edition
type Dashboard struct {
	Edition       EditionIdentity   `json:"edition"`
	IsLatest      bool              `json:"is_latest"`
	Days          []string          `json:"days"`
	Attendance    []DayDistribution `json:"attendance"`
	Tickets       []TicketRow       `json:"tickets"`
	TotalTickets  int64             `json:"total_tickets"`
	TotalPresenze int64             `json:"total_presenze"`
	Goal          GoalProgress      `json:"goal"`
	Capacity      []DayCapacity     `json:"capacity,omitempty"`
	DailySales    []DailySales      `json:"daily_sales,omitempty"`
	Today         *TodayOverlay     `json:"today,omitempty"`
	RefreshedAt   *time.Time        `json:"refreshed_at,omitempty"`
}

// Status describes the live fetch state
type Status struct {
	Loading     bool       `json:"loading"`
	LastRefresh *time.Time `json:"last_refresh,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	EventCount  int        `json:"event_count"`
	FromCache   bool       `json:"from_cache"`
	BaselineOK  bool       `json:"baseline_ok"`
}
