package attribution

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"colorfest/services/analytics-service/internal/models"
	"colorfest/shared/pkg/helpers"
)

var monthNames = map[string]time.Month{
	"gennaio": time.January, "febbraio": time.February, "marzo": time.March,
	"aprile": time.April, "maggio": time.May, "giugno": time.June,
	"luglio": time.July, "agosto": time.August, "settembre": time.September,
	"ottobre": time.October, "novembre": time.November, "dicembre": time.December,
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

var (
	// A run of day numbers directly followed by a month name, e.g. "11 - 12 - 13 Agosto".
	namedDaysPattern = regexp.MustCompile(`(?i)\b(\d{1,2}(?:\s*(?:-|–|,|/|&|\be\b|\band\b)\s*\d{1,2})*)\s*(` + monthAlternation() + `)\b`)
	dayNumberPattern = regexp.MustCompile(`\d{1,2}`)
	passPattern      = regexp.MustCompile(`(?i)full|abbonamento|early\s*bird|\bpass\b|subscription`)
)

func monthAlternation() string {
	names := make([]string, 0, len(monthNames))
	for name := range monthNames {
		names = append(names, name)
	}
	// Longest first so no name is shadowed by a prefix.
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return strings.Join(names, "|")
}

type namedDay struct {
	day   int
	month time.Month
}

// namedDays extracts every "<days> <month>" reference in text. The edition
// number of "Color Fest <N>" is never a day.
func namedDays(text string) []namedDay {
	text = numberedFestPattern.ReplaceAllString(text, " ")
	var out []namedDay
	for _, m := range namedDaysPattern.FindAllStringSubmatch(text, -1) {
		month := monthNames[strings.ToLower(m[2])]
		for _, num := range dayNumberPattern.FindAllString(m[1], -1) {
			d, _ := strconv.Atoi(num)
			out = append(out, namedDay{day: d, month: month})
		}
	}
	return out
}

// IsPass reports whether the event name looks like a multi-day pass
func IsPass(name string) bool {
	return passPattern.MatchString(name)
}

// coversOfficialCalendar reports whether an event without day numbers spans
// every official day: passes and the bare edition ticket ("Color Fest 14").
func coversOfficialCalendar(name string) bool {
	if IsPass(name) {
		return true
	}
	_, numbered := EditionNumber(name)
	return numbered
}

// eventNamedDays applies name extraction with the ticket-type fallback for passes
func eventNamedDays(event models.RawEvent) []namedDay {
	if found := namedDays(event.Name); len(found) > 0 {
		return found
	}
	if !IsPass(event.Name) {
		return nil
	}
	for _, tt := range event.TicketTypes {
		if found := namedDays(tt.Name); len(found) > 0 {
			return found
		}
	}
	return nil
}

// ResolveDays returns the ascending, deduplicated ISO dates event covers. When
// officialDays is non-empty the result is drawn from that calendar wherever the
// name carries day information. The result is never empty.
func (e *Engine) ResolveDays(event models.RawEvent, officialDays []string) []string {
	named := eventNamedDays(event)

	if len(officialDays) > 0 {
		if len(named) > 0 {
			wanted := make(map[int]bool, len(named))
			for _, nd := range named {
				wanted[nd.day] = true
			}
			var days []string
			for _, iso := range officialDays {
				t, err := time.Parse(helpers.ISODate, iso)
				if err == nil && wanted[t.Day()] {
					days = append(days, iso)
				}
			}
			if len(days) > 0 {
				return normalize(days)
			}
		} else if coversOfficialCalendar(event.Name) {
			return normalize(officialDays)
		}
	} else if len(named) > 0 {
		year := event.StartDatetime.In(e.loc).Year()
		var days []string
		for _, nd := range named {
			t := time.Date(year, nd.month, nd.day, 0, 0, 0, 0, time.UTC)
			// time.Date normalises 31 Feb into March; such dates are dropped.
			if t.Day() != nd.day || t.Month() != nd.month {
				continue
			}
			days = append(days, t.Format(helpers.ISODate))
		}
		if len(days) > 0 {
			return normalize(days)
		}
	}

	return e.rangeDays(event, officialDays)
}

// rangeDays derives coverage from the event's start and end datetimes
func (e *Engine) rangeDays(event models.RawEvent, officialDays []string) []string {
	start := event.StartDatetime.In(e.loc)
	end := event.EndDatetime.In(e.loc)
	if event.EndDatetime.IsZero() {
		end = start
	}

	startDate := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDate := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	// A session ending before noon belongs to the previous night.
	if end.Hour() < 12 && endDate.After(startDate) {
		endDate = endDate.AddDate(0, 0, -1)
	}
	if endDate.Before(startDate) {
		endDate = startDate
	}

	var days []string
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(helpers.ISODate))
	}

	if len(officialDays) > 0 {
		official := make(map[string]bool, len(officialDays))
		for _, d := range officialDays {
			official[d] = true
		}
		var inside []string
		for _, d := range days {
			if official[d] {
				inside = append(inside, d)
			}
		}
		if len(inside) > 0 {
			return inside
		}
	}
	return days
}

func normalize(days []string) []string {
	seen := make(map[string]bool, len(days))
	out := make([]string, 0, len(days))
	for _, d := range days {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

// FormatDayLabel renders an ISO date as "11 Ago"
func FormatDayLabel(iso string) string {
	return helpers.FormatDayLabel(iso)
}
