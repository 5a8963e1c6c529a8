package attribution

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"colorfest/services/analytics-service/internal/models"
	"colorfest/shared/pkg/helpers"
)

// DefaultGoal is the presenze target used when settings carry none
const DefaultGoal int64 = 6000

// officialDays returns the fixed calendar of key, if any
func (e *Engine) officialDays(key string) []string {
	if e.lookup == nil {
		return nil
	}
	return e.lookup.OfficialDays(key)
}

// Coverage resolves every member event of ed against the edition calendar,
// keyed by event index
func (e *Engine) Coverage(ed models.Edition) [][]string {
	official := e.officialDays(ed.Key)
	out := make([][]string, len(ed.Events))
	for i, ev := range ed.Events {
		out[i] = e.ResolveDays(ev, official)
	}
	return out
}

// EditionDays is the official calendar of ed when one exists, otherwise the
// union of its events' coverage
func (e *Engine) EditionDays(ed models.Edition) []string {
	if official := e.officialDays(ed.Key); len(official) > 0 {
		return official
	}
	var all []string
	for _, days := range e.Coverage(ed) {
		all = append(all, days...)
	}
	return normalize(all)
}

// DailyAttendance sums, for each edition day, the sold count of every event
// covering it. A multi-day pass counts once per day.
func (e *Engine) DailyAttendance(ed models.Edition) []models.DayDistribution {
	coverage := e.Coverage(ed)
	days := e.EditionDays(ed)

	counts := make(map[string]int64, len(days))
	for i, ev := range ed.Events {
		for _, d := range coverage[i] {
			counts[d] += ev.TicketsSold
		}
	}

	out := make([]models.DayDistribution, 0, len(days))
	for _, d := range days {
		out = append(out, models.DayDistribution{Day: FormatDayLabel(d), Date: d, Count: counts[d]})
	}
	return out
}

// TicketRows lists the member events by sold count, highest first
func (e *Engine) TicketRows(ed models.Edition) []models.TicketRow {
	coverage := e.Coverage(ed)
	total := TotalTickets(ed)

	rows := make([]models.TicketRow, 0, len(ed.Events))
	for i, ev := range ed.Events {
		labels := make([]string, 0, len(coverage[i]))
		for _, d := range coverage[i] {
			labels = append(labels, FormatDayLabel(d))
		}
		rows = append(rows, models.TicketRow{
			EventID:   ev.ID,
			EventName: ev.Name,
			Sold:      ev.TicketsSold,
			Days:      labels,
			Dates:     coverage[i],
			SharePct:  helpers.Percent(ev.TicketsSold, total),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Sold != rows[j].Sold {
			return rows[i].Sold > rows[j].Sold
		}
		return rows[i].EventName < rows[j].EventName
	})
	return rows
}

// TotalTickets is the raw ticket count of ed
func TotalTickets(ed models.Edition) int64 {
	var total int64
	for _, ev := range ed.Events {
		total += ev.TicketsSold
	}
	return total
}

// TotalPresenze sums a daily attendance distribution
func TotalPresenze(dist []models.DayDistribution) int64 {
	var total int64
	for _, d := range dist {
		total += d.Count
	}
	return total
}

// DailySalesBreakdown lists, per edition day, the events covering it
func (e *Engine) DailySalesBreakdown(ed models.Edition) []models.DailySales {
	coverage := e.Coverage(ed)
	days := e.EditionDays(ed)

	out := make([]models.DailySales, 0, len(days))
	for _, d := range days {
		row := models.DailySales{Day: FormatDayLabel(d), Date: d, Events: []models.EventSales{}}
		for i, ev := range ed.Events {
			if !contains(coverage[i], d) {
				continue
			}
			row.Events = append(row.Events, models.EventSales{EventID: ev.ID, EventName: ev.Name, Sold: ev.TicketsSold})
			row.Total += ev.TicketsSold
		}
		sort.SliceStable(row.Events, func(a, b int) bool { return row.Events[a].Sold > row.Events[b].Sold })
		out = append(out, row)
	}
	return out
}

// ShareOfTotal returns part as a one-decimal percentage of total
func ShareOfTotal(part, total int64) decimal.Decimal {
	return helpers.Percent(part, total)
}

// GoalProgress measures presenze against goal, capped at 100%
func GoalProgress(presenze, goal int64) models.GoalProgress {
	if goal <= 0 {
		goal = DefaultGoal
	}
	pct := helpers.Percent(presenze, goal)
	if ceiling := decimal.NewFromInt(100); pct.GreaterThan(ceiling) {
		pct = ceiling
	}
	remaining := goal - presenze
	if remaining < 0 {
		remaining = 0
	}
	return models.GoalProgress{
		Goal:      goal,
		Presenze:  presenze,
		Pct:       pct,
		Remaining: remaining,
		Label:     fmt.Sprintf("%s / %s presenze (%s)", helpers.FormatNumber(presenze), helpers.FormatNumber(goal), helpers.FormatPercent(pct)),
	}
}

// DayCapacity reports per-day utilisation. No capacity means no rows.
func DayCapacity(dist []models.DayDistribution, capacity int64) []models.DayCapacity {
	if capacity <= 0 {
		return nil
	}
	out := make([]models.DayCapacity, 0, len(dist))
	for _, d := range dist {
		available := capacity - d.Count
		if available < 0 {
			available = 0
		}
		out = append(out, models.DayCapacity{
			Day:            d.Day,
			Date:           d.Date,
			Count:          d.Count,
			Capacity:       capacity,
			Available:      available,
			UtilisationPct: helpers.Percent(d.Count, capacity),
		})
	}
	return out
}

func contains(days []string, day string) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
