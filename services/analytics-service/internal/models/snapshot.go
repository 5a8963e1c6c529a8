package models

import "time"

// SnapshotEntry is the first-of-day sold count of one event
type SnapshotEntry struct {
	ID           uint64    `json:"id" db:"id"`
	EventID      string    `json:"event_id" db:"event_id"`
	EventName    string    `json:"event_name" db:"event_name"`
	TicketType   *string   `json:"ticket_type,omitempty" db:"ticket_type"`
	TicketsSold  int64     `json:"tickets_sold" db:"tickets_sold"`
	SnapshotDate string    `json:"snapshot_date" db:"snapshot_date"`
	CreatedAt    time.Time `json:"created_at,omitempty" db:"created_at"`
}

// Baseline is the frozen per-event floor for one date. A nil *Baseline means
// the store could not be read.
type Baseline struct {
	Date    string           `json:"date"`
	Entries map[string]int64 `json:"entries"`
}

// NewBaseline indexes snapshot rows by event ID
func NewBaseline(date string, rows []SnapshotEntry) *Baseline {
	b := &Baseline{Date: date, Entries: make(map[string]int64, len(rows))}
	for _, r := range rows {
		b.Entries[r.EventID] = r.TicketsSold
	}
	return b
}

// Sold returns the baseline count for eventID, zero when absent
func (b *Baseline) Sold(eventID string) int64 {
	if b == nil {
		return 0
	}
	return b.Entries[eventID]
}

// EventDelta is the sold-since-baseline count of one event
type EventDelta struct {
	EventID   string `json:"event_id"`
	EventName string `json:"event_name"`
	Current   int64  `json:"current"`
	Baseline  int64  `json:"baseline"`
	Sold      int64  `json:"sold"`
}

// DeltaResult is the per-event and total delta against one baseline
type DeltaResult struct {
	Events []EventDelta `json:"events"`
	Total  int64        `json:"total"`
}

// DayOverDay compares today's and yesterday's sales. PctChange is nil when
// yesterday sold nothing.
type DayOverDay struct {
	Today     int64  `json:"today"`
	Yesterday int64  `json:"yesterday"`
	PctChange *int64 `json:"pct_change,omitempty"`
}

// DaySales is today's and yesterday's sales for one covered day
type DaySales struct {
	Day           string `json:"day"`
	Date          string `json:"date"`
	SoldToday     int64  `json:"sold_today"`
	SoldYesterday int64  `json:"sold_yesterday"`
	PctChange     *int64 `json:"pct_change,omitempty"`
}

// PresenzeDelta is today's ticket delta of one event weighted by covered days
type PresenzeDelta struct {
	EventID   string `json:"event_id"`
	EventName string `json:"event_name"`
	Tickets   int64  `json:"tickets"`
	Days      int    `json:"days"`
	Presenze  int64  `json:"presenze"`
}
