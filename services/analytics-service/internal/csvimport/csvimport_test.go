package csvimport

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colorfest/services/analytics-service/internal/catalog"
	"colorfest/services/analytics-service/internal/models"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return NewParser(c)
}

// row builds an export line with the positional columns filled in
func row(txType, txDate, qty, eventDate, eventName string) string {
	cols := make([]string, 30)
	for i := range cols {
		cols[i] = "x"
	}
	cols[colType] = txType
	cols[colTransactionDate] = txDate
	cols[colQuantity] = qty
	cols[colEventDate] = eventDate
	cols[colEventName] = `"` + strings.ReplaceAll(eventName, `"`, `""`) + `"`
	return strings.Join(cols, ",")
}

func export(lines ...string) string {
	header := strings.Repeat("col,", 29) + "col"
	return header + "\n" + strings.Join(lines, "\n") + "\n"
}

func TestParse(t *testing.T) {
	p := newTestParser(t)
	data := export(
		row("Charge", "2026-03-01 10:00:00", "2", "2026-08-11 14:00:00", "Color Fest 14 - Abbonamento Full"),
		row("Charge", "2026-03-01 18:30:00", "1", "2026-08-11 14:00:00", "Color Fest 14 - 1 Day (11 Agosto)"),
		row("Refund", "2026-03-01 19:00:00", "5", "2026-08-11 14:00:00", "Color Fest 14 - Abbonamento Full"),
		"",
		row("Charge", "2026-03-02 09:00:00", "3", "2026-08-11 14:00:00", "Color Fest 14 - 2 Days (12-13 Agosto)"),
		row("Charge", "2025-12-20 09:00:00", "4", "2025-12-27 21:00:00", "Winter Session, Abbonamento"),
		row("Charge", "", "1", "2026-08-11 14:00:00", "Color Fest 14"),
		row("Charge", "2026-03-02 10:00:00", "1", "2026-08-11 14:00:00", "Aperitivo in terrazza"),
	)

	agg, err := p.Parse(strings.NewReader(data))
	require.NoError(t, err)

	want := []models.HistoricalDailyPresenze{
		{EditionKey: "cf-14", SaleDate: "2025-12-20", PresenzeDelta: 8, TicketsDelta: 4},
		{EditionKey: "cf-14", SaleDate: "2026-03-01", PresenzeDelta: 7, TicketsDelta: 3},
		{EditionKey: "cf-14", SaleDate: "2026-03-02", PresenzeDelta: 6, TicketsDelta: 3},
	}
	if diff := cmp.Diff(want, agg.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, models.ImportResult{Processed: 4, Skipped: 3, UniqueDays: 3, Editions: []string{"cf-14"}}, agg.Result)
}

func TestParse_RefundNeverContributes(t *testing.T) {
	p := newTestParser(t)
	agg, err := p.Parse(strings.NewReader(export(
		row("Refund", "2025-06-01 10:00:00", "10", "2025-08-11 14:00:00", "Color Fest 13 - Abbonamento"),
		row("Refund", "2025-06-02 10:00:00", "1", "2025-08-11 14:00:00", "Color Fest 13"),
	)))
	require.NoError(t, err)
	assert.Empty(t, agg.Rows)
	assert.Equal(t, 2, agg.Result.Skipped)
	assert.Empty(t, agg.Result.Editions)
}

func TestParse_Idempotent(t *testing.T) {
	p := newTestParser(t)
	data := export(
		row("Charge", "2024-07-01 10:00:00", "2", "2024-08-11 14:00:00", "Color Fest 12 - 2 Days"),
		row("Charge", "2023-07-01 10:00:00", "1", "2023-08-11 14:00:00", "Color Fest - Abbonamento"),
	)
	first, err := p.Parse(strings.NewReader(data))
	require.NoError(t, err)
	second, err := p.Parse(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"cf-11", "cf-12"}, first.Result.Editions)
}

func TestParse_HeaderOnly(t *testing.T) {
	p := newTestParser(t)
	agg, err := p.Parse(strings.NewReader(export()))
	require.NoError(t, err)
	assert.Equal(t, 0, agg.Result.Processed)
	assert.Equal(t, 0, agg.Result.Skipped)
	assert.NotNil(t, agg.Result.Editions)
}

func TestEditionKey(t *testing.T) {
	p := newTestParser(t)

	tests := []struct {
		name      string
		eventName string
		eventDate string
		want      string
		ok        bool
	}{
		{"numbered", "Color Fest 13 - 1 Day", "2025-08-12 14:00:00", "cf-13", true},
		{"numbered outside catalog", "Color Fest 9", "2021-08-12", "cf-9", true},
		{"winter before september", "Winter Session", "2025-02-15 21:00:00", "cf-13", true},
		{"winter from september rolls over", "Winter Session", "2024-12-14 21:00:00", "cf-13", true},
		{"pasquetta", "Pasquetta 2024", "2024-04-01T12:00:00Z", "cf-12", true},
		{"factory", "Color Factory", "2023-10-07", "cf-12", true},
		{"ancillary outside catalog", "Winter Session", "2019-01-10", "", false},
		{"ancillary with bad date", "Pasquetta", "lunedì", "", false},
		{"legacy unnumbered", "Color Fest - Early Bird", "2022-08-13 14:00:00", "cf-10", true},
		{"legacy unnumbered 2023", "COLOR FEST", "2023-08-12", "cf-11", true},
		{"unnumbered without legacy year", "Color Fest", "2024-08-12", "", false},
		{"unrelated", "Aperitivo", "2024-08-12", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.EditionKey(tt.eventName, tt.eventDate)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMultiplier(t *testing.T) {
	tests := []struct {
		name string
		want int64
	}{
		{"Winter Session Abbonamento", 2},
		{"Winter Session - Serata", 1},
		{"Pasquetta Full Day", 1},
		{"Color Fest 14 - 2 Days (12-13 Agosto)", 2},
		{"Color Fest 14 - 2Day", 2},
		{"Color Fest 14 - Abbonamento Full", 3},
		{"Color Fest 14 - FULL PASS", 3},
		{"Color Fest 14 - Full 1 Day", 1},
		{"Color Fest 14 - Abbonamento One Day", 1},
		{"Color Fest 14 - 1 Day (11 Agosto)", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Multiplier(tt.name))
		})
	}
}

func TestSaleDay(t *testing.T) {
	day, ok := saleDay("2025-06-01 10:11:12")
	require.True(t, ok)
	assert.Equal(t, "2025-06-01", day)

	day, ok = saleDay("2025-06-01T10:11:12Z")
	require.True(t, ok)
	assert.Equal(t, "2025-06-01", day)

	_, ok = saleDay("01/06/2025 10:11")
	assert.False(t, ok)
}
