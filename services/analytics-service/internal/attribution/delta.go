package attribution

import (
	"sort"

	"colorfest/services/analytics-service/internal/models"
	"colorfest/shared/pkg/helpers"
)

// Delta computes sold-since-baseline per event. Events missing from the
// baseline count in full and no delta is ever negative.
func Delta(current []models.RawEvent, baseline *models.Baseline) models.DeltaResult {
	res := models.DeltaResult{Events: make([]models.EventDelta, 0, len(current))}
	for _, ev := range current {
		base := baseline.Sold(ev.ID)
		sold := nonNegative(ev.TicketsSold - base)
		res.Events = append(res.Events, models.EventDelta{
			EventID:   ev.ID,
			EventName: ev.Name,
			Current:   ev.TicketsSold,
			Baseline:  base,
			Sold:      sold,
		})
		res.Total += sold
	}
	return res
}

// DayOverDay compares today's sales with yesterday's
func DayOverDay(today, yesterday int64) models.DayOverDay {
	out := models.DayOverDay{Today: today, Yesterday: yesterday}
	if pct, ok := helpers.PercentChange(today, yesterday, 0); ok {
		v := pct.IntPart()
		out.PctChange = &v
	}
	return out
}

// TodaySalesPerDay splits today's and yesterday's sales across the edition
// days. soldYesterday needs both baselines; a nil today baseline yields nil.
func (e *Engine) TodaySalesPerDay(ed models.Edition, todayBaseline, yesterdayBaseline *models.Baseline) []models.DaySales {
	if todayBaseline == nil {
		return nil
	}
	coverage := e.Coverage(ed)
	days := e.EditionDays(ed)

	out := make([]models.DaySales, 0, len(days))
	for _, d := range days {
		row := models.DaySales{Day: FormatDayLabel(d), Date: d}
		for i, ev := range ed.Events {
			if !contains(coverage[i], d) {
				continue
			}
			row.SoldToday += nonNegative(ev.TicketsSold - todayBaseline.Sold(ev.ID))
			if yesterdayBaseline != nil {
				row.SoldYesterday += nonNegative(todayBaseline.Sold(ev.ID) - yesterdayBaseline.Sold(ev.ID))
			}
		}
		if yesterdayBaseline != nil {
			row.PctChange = DayOverDay(row.SoldToday, row.SoldYesterday).PctChange
		}
		out = append(out, row)
	}
	return out
}

// TodayBreakdown lists the events that sold since the baseline, highest first
func TodayBreakdown(ed models.Edition, todayBaseline *models.Baseline) []models.EventDelta {
	if todayBaseline == nil {
		return nil
	}
	var out []models.EventDelta
	for _, d := range Delta(ed.Events, todayBaseline).Events {
		if d.Sold > 0 {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sold > out[j].Sold })
	return out
}

// TodayPresenzeBreakdown weights each event's delta by its covered days
func (e *Engine) TodayPresenzeBreakdown(ed models.Edition, todayBaseline *models.Baseline) []models.PresenzeDelta {
	if todayBaseline == nil {
		return nil
	}
	coverage := e.Coverage(ed)
	var out []models.PresenzeDelta
	for i, ev := range ed.Events {
		sold := nonNegative(ev.TicketsSold - todayBaseline.Sold(ev.ID))
		if sold == 0 {
			continue
		}
		out = append(out, models.PresenzeDelta{
			EventID:   ev.ID,
			EventName: ev.Name,
			Tickets:   sold,
			Days:      len(coverage[i]),
			Presenze:  sold * int64(len(coverage[i])),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Presenze > out[j].Presenze })
	return out
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
