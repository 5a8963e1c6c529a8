package helpers

import (
	"strconv"
	"time"
)

// ISODate is the layout used for every calendar date crossing an API or
// storage boundary
const ISODate = "2006-01-02"

var italianMonths = [12]string{"Gen", "Feb", "Mar", "Apr", "Mag", "Giu", "Lug", "Ago", "Set", "Ott", "Nov", "Dic"}

// ItalianMonth returns the three-letter Italian abbreviation for m
func ItalianMonth(m time.Month) string {
	return italianMonths[m-1]
}

// FormatDayLabel turns "2026-08-11" into "11 Ago". Unparseable input is
// returned unchanged.
func FormatDayLabel(iso string) string {
	t, err := time.Parse(ISODate, iso)
	if err != nil {
		return iso
	}
	return strconv.Itoa(t.Day()) + " " + ItalianMonth(t.Month())
}

// FormatDateLabel formats t as "11 Ago 2026"
func FormatDateLabel(t time.Time) string {
	return strconv.Itoa(t.Day()) + " " + ItalianMonth(t.Month()) + " " + strconv.Itoa(t.Year())
}

// FormatPeriodLabel renders a single date or a "from – to" range
func FormatPeriodLabel(from, to time.Time) string {
	if from.Format(ISODate) == to.Format(ISODate) {
		return FormatDateLabel(from)
	}
	return FormatDateLabel(from) + " – " + FormatDateLabel(to)
}

// ParseISODate parses a YYYY-MM-DD date in loc
func ParseISODate(iso string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(ISODate, iso, loc)
}
