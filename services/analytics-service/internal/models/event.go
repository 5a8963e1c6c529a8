package models

import "time"

// StateCancelled marks events that must never reach classification
const StateCancelled = "CANCELLED"

// TicketType is one sellable ticket category of an event
type TicketType struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	AllocatedQty int64  `json:"allocated_qty"`
}

// RawEvent is one event as returned by the ticketing feed. TicketsSold only
// ever grows over the life of the event.
type RawEvent struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	State         string       `json:"state"`
	StartDatetime time.Time    `json:"start_datetime"`
	EndDatetime   time.Time    `json:"end_datetime"`
	TicketTypes   []TicketType `json:"ticket_types"`
	TicketsSold   int64        `json:"tickets_sold"`
}

// Active reports whether the event is still on sale or completed
func (e RawEvent) Active() bool {
	return e.State != StateCancelled
}

// ActiveEvents drops cancelled events, preserving order
func ActiveEvents(events []RawEvent) []RawEvent {
	active := make([]RawEvent, 0, len(events))
	for _, e := range events {
		if e.Active() {
			active = append(active, e)
		}
	}
	return active
}
