package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"

	"colorfest/services/analytics-service/internal/attribution"
	"colorfest/services/analytics-service/internal/catalog"
	"colorfest/services/analytics-service/internal/models"
	"colorfest/services/analytics-service/internal/repository"
	"colorfest/shared/pkg/logger"
	"colorfest/shared/pkg/metrics"
)

type mockFetcher struct {
	fetchEventsFunc func(ctx context.Context) ([]models.RawEvent, error)
}

func (m *mockFetcher) FetchEvents(ctx context.Context) ([]models.RawEvent, error) {
	if m.fetchEventsFunc != nil {
		return m.fetchEventsFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

type mockBaselineStore struct {
	captureBaselineFunc func(ctx context.Context, events []models.RawEvent, today string) (int64, error)
	getBaselineFunc     func(ctx context.Context, date string) (*models.Baseline, error)
}

func (m *mockBaselineStore) CaptureBaseline(ctx context.Context, events []models.RawEvent, today string) (int64, error) {
	if m.captureBaselineFunc != nil {
		return m.captureBaselineFunc(ctx, events, today)
	}
	return 0, errors.New("not implemented")
}

func (m *mockBaselineStore) GetBaseline(ctx context.Context, date string) (*models.Baseline, error) {
	if m.getBaselineFunc != nil {
		return m.getBaselineFunc(ctx, date)
	}
	return nil, errors.New("not implemented")
}

type mockSnapshotRepository struct {
	insertIfAbsentFunc func(ctx context.Context, entries []models.SnapshotEntry) (int64, error)
	getByDateFunc      func(ctx context.Context, date string) ([]models.SnapshotEntry, error)
	getRangeFunc       func(ctx context.Context, from, to string) ([]models.SnapshotEntry, error)
	listDatesFunc      func(ctx context.Context, limit int) ([]string, error)
}

func (m *mockSnapshotRepository) InsertIfAbsent(ctx context.Context, entries []models.SnapshotEntry) (int64, error) {
	if m.insertIfAbsentFunc != nil {
		return m.insertIfAbsentFunc(ctx, entries)
	}
	return 0, errors.New("not implemented")
}

func (m *mockSnapshotRepository) GetByDate(ctx context.Context, date string) ([]models.SnapshotEntry, error) {
	if m.getByDateFunc != nil {
		return m.getByDateFunc(ctx, date)
	}
	return nil, errors.New("not implemented")
}

func (m *mockSnapshotRepository) GetRange(ctx context.Context, from, to string) ([]models.SnapshotEntry, error) {
	if m.getRangeFunc != nil {
		return m.getRangeFunc(ctx, from, to)
	}
	return nil, errors.New("not implemented")
}

func (m *mockSnapshotRepository) ListDates(ctx context.Context, limit int) ([]string, error) {
	if m.listDatesFunc != nil {
		return m.listDatesFunc(ctx, limit)
	}
	return nil, errors.New("not implemented")
}

type mockHistoricalRepository struct {
	replaceAllFunc   func(ctx context.Context, rows []models.HistoricalDailyPresenze, batchSize int) error
	getByEditionFunc func(ctx context.Context, editionKey string) ([]models.HistoricalDailyPresenze, error)
	sumUpToFunc      func(ctx context.Context, editionKey, until string) (int64, int64, error)
}

func (m *mockHistoricalRepository) ReplaceAll(ctx context.Context, rows []models.HistoricalDailyPresenze, batchSize int) error {
	if m.replaceAllFunc != nil {
		return m.replaceAllFunc(ctx, rows, batchSize)
	}
	return errors.New("not implemented")
}

func (m *mockHistoricalRepository) GetByEdition(ctx context.Context, editionKey string) ([]models.HistoricalDailyPresenze, error) {
	if m.getByEditionFunc != nil {
		return m.getByEditionFunc(ctx, editionKey)
	}
	return nil, errors.New("not implemented")
}

func (m *mockHistoricalRepository) SumUpTo(ctx context.Context, editionKey, until string) (int64, int64, error) {
	if m.sumUpToFunc != nil {
		return m.sumUpToFunc(ctx, editionKey, until)
	}
	return 0, 0, errors.New("not implemented")
}

type mockFeedCache struct {
	saveFunc func(ctx context.Context, feed repository.CachedFeed) error
	loadFunc func(ctx context.Context) (*repository.CachedFeed, error)
}

func (m *mockFeedCache) Save(ctx context.Context, feed repository.CachedFeed) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, feed)
	}
	return errors.New("not implemented")
}

func (m *mockFeedCache) Load(ctx context.Context) (*repository.CachedFeed, error) {
	if m.loadFunc != nil {
		return m.loadFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

func testLogger() *logger.Logger {
	return logger.NewLoggerWithOutput("analytics", io.Discard)
}

func testMetrics() *metrics.Metrics {
	return metrics.NewMetrics("analytics", prometheus.NewRegistry())
}

func rome(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	return loc
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("embedded catalog: %v", err)
	}
	return cat
}

func testEngine(t *testing.T) *attribution.Engine {
	return attribution.NewEngine(testCatalog(t), rome(t))
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02T15:04", value, rome(t))
	if err != nil {
		t.Fatalf("bad time %q: %v", value, err)
	}
	return ts
}

// feed is a cf-14 line-up plus one winter event and one cancelled event
func feed(t *testing.T) []models.RawEvent {
	start := at(t, "2026-08-11T14:00")
	end := at(t, "2026-08-14T02:00")
	return []models.RawEvent{
		{ID: "ev-full", Name: "Color Fest 14", StartDatetime: start, EndDatetime: end, TicketsSold: 500,
			TicketTypes: []models.TicketType{{ID: "tt-1", Name: "Full Pass"}}},
		{ID: "ev-d11", Name: "Color Fest 14 - 1 Day (11 Agosto)", StartDatetime: start, EndDatetime: end, TicketsSold: 120},
		{ID: "ev-d1213", Name: "Color Fest 14 - 2 Days (12-13 Agosto)", StartDatetime: start, EndDatetime: end, TicketsSold: 80},
		{ID: "ev-winter", Name: "Winter Session", StartDatetime: at(t, "2026-01-17T22:00"), EndDatetime: at(t, "2026-01-18T05:00"), TicketsSold: 40},
		{ID: "ev-gone", Name: "Color Fest 14 - VIP", State: models.StateCancelled, StartDatetime: start, EndDatetime: end, TicketsSold: 9},
	}
}
