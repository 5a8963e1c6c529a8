// Package csvimport turns the ticketing platform's transaction export into
// per-edition per-day presenze and ticket deltas.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"colorfest/services/analytics-service/internal/attribution"
	"colorfest/services/analytics-service/internal/catalog"
	"colorfest/services/analytics-service/internal/models"
	"colorfest/shared/pkg/helpers"
)

// Positional columns of the export
const (
	colType            = 4
	colTransactionDate = 5
	colQuantity        = 8
	colEventDate       = 27
	colEventName       = 28
)

const chargeType = "Charge"

var (
	factoryPattern     = regexp.MustCompile(`(?i)factory`)
	twoDaysPattern     = regexp.MustCompile(`(?i)2\s*days?`)
	fullPattern        = regexp.MustCompile(`(?i)abbonamento|full`)
	abbonamentoPattern = regexp.MustCompile(`(?i)abbonamento`)
	singleDayPattern   = regexp.MustCompile(`(?i)1\s*day|one\s*day`)
)

var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	helpers.ISODate,
}

// Editions resolves historical rows to catalogued editions
type Editions interface {
	EditionForYear(year int) (catalog.Edition, bool)
	LegacyEdition(year int) (string, bool)
}

// Aggregate is the outcome of parsing one export
type Aggregate struct {
	Rows   []models.HistoricalDailyPresenze
	Result models.ImportResult
}

// Parser aggregates transaction exports
type Parser struct {
	editions Editions
}

// NewParser creates a parser resolving editions through editions
func NewParser(editions Editions) *Parser {
	return &Parser{editions: editions}
}

type dayKey struct {
	edition string
	date    string
}

// Parse reads the whole export. Malformed, non-Charge and unclassifiable rows
// are counted as skipped; only a read failure aborts.
func (p *Parser) Parse(r io.Reader) (*Aggregate, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	totals := make(map[dayKey]*models.HistoricalDailyPresenze)
	var res models.ImportResult
	header := true

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				header = false
				res.Skipped++
				continue
			}
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if header {
			header = false
			continue
		}

		key, quantity, multiplier, ok := p.row(record)
		if !ok {
			res.Skipped++
			continue
		}

		agg, exists := totals[key]
		if !exists {
			agg = &models.HistoricalDailyPresenze{EditionKey: key.edition, SaleDate: key.date}
			totals[key] = agg
		}
		agg.PresenzeDelta += quantity * multiplier
		agg.TicketsDelta += quantity
		res.Processed++
	}

	rows := make([]models.HistoricalDailyPresenze, 0, len(totals))
	editionSet := make(map[string]bool)
	for _, agg := range totals {
		rows = append(rows, *agg)
		editionSet[agg.EditionKey] = true
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].EditionKey != rows[j].EditionKey {
			return rows[i].EditionKey < rows[j].EditionKey
		}
		return rows[i].SaleDate < rows[j].SaleDate
	})

	res.UniqueDays = len(rows)
	res.Editions = make([]string, 0, len(editionSet))
	for key := range editionSet {
		res.Editions = append(res.Editions, key)
	}
	sort.Strings(res.Editions)

	return &Aggregate{Rows: rows, Result: res}, nil
}

func (p *Parser) row(record []string) (dayKey, int64, int64, bool) {
	field := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	if field(colType) != chargeType {
		return dayKey{}, 0, 0, false
	}
	transactionDate := field(colTransactionDate)
	eventName := field(colEventName)
	if transactionDate == "" || eventName == "" {
		return dayKey{}, 0, 0, false
	}

	saleDate, ok := saleDay(transactionDate)
	if !ok {
		return dayKey{}, 0, 0, false
	}
	edition, ok := p.EditionKey(eventName, field(colEventDate))
	if !ok {
		return dayKey{}, 0, 0, false
	}

	return dayKey{edition: edition, date: saleDate}, helpers.ParseInt(field(colQuantity)), Multiplier(eventName), true
}

// saleDay keeps the date part of a transaction timestamp
func saleDay(ts string) (string, bool) {
	day := strings.Fields(ts)[0]
	if i := strings.IndexByte(day, 'T'); i >= 0 {
		day = day[:i]
	}
	if !helpers.IsISODate(day) {
		return "", false
	}
	return day, true
}

// EditionKey maps an export row to its cf-N edition. Ancillary series sold
// from September on belong to the following summer's edition.
func (p *Parser) EditionKey(eventName, eventDate string) (string, bool) {
	if n, ok := attribution.EditionNumber(eventName); ok {
		return fmt.Sprintf("cf-%d", n), true
	}

	if attribution.IsWinter(eventName) || attribution.IsPasquetta(eventName) || factoryPattern.MatchString(eventName) {
		date, ok := parseEventDate(eventDate)
		if !ok {
			return "", false
		}
		year := date.Year()
		if date.Month() >= time.September {
			year++
		}
		e, ok := p.editions.EditionForYear(year)
		if !ok {
			return "", false
		}
		return e.Key, true
	}

	if attribution.IsColorFest(eventName) {
		date, ok := parseEventDate(eventDate)
		if !ok {
			return "", false
		}
		return p.editions.LegacyEdition(date.Year())
	}

	return "", false
}

// Multiplier is the number of presenze one ticket of eventName is worth
func Multiplier(eventName string) int64 {
	switch {
	case attribution.IsWinter(eventName):
		if abbonamentoPattern.MatchString(eventName) {
			return 2
		}
		return 1
	case attribution.IsPasquetta(eventName):
		return 1
	case twoDaysPattern.MatchString(eventName):
		return 2
	case fullPattern.MatchString(eventName) && !singleDayPattern.MatchString(eventName):
		return 3
	default:
		return 1
	}
}

func parseEventDate(value string) (time.Time, bool) {
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
