package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colorfest/services/analytics-service/internal/models"
)

func TestComparisonService_Compare(t *testing.T) {
	var ranges [][2]string
	snapshots := &mockSnapshotRepository{
		getRangeFunc: func(ctx context.Context, from, to string) ([]models.SnapshotEntry, error) {
			ranges = append(ranges, [2]string{from, to})
			if from != "2026-06-01" {
				return nil, nil
			}
			// newest first
			return []models.SnapshotEntry{
				{EventID: "ev-full", EventName: "Color Fest 14 - Full", TicketsSold: 300, SnapshotDate: "2026-07-31"},
				{EventID: "ev-d11", EventName: "Color Fest 14 - 1 Day", TicketsSold: 100, SnapshotDate: "2026-07-31"},
				{EventID: "ev-old", EventName: "Color Fest 13 - Full", TicketsSold: 700, SnapshotDate: "2026-07-31"},
				{EventID: "ev-full", EventName: "Color Fest 14 - Full", TicketsSold: 250, SnapshotDate: "2026-07-30"},
			}, nil
		},
	}
	historical := &mockHistoricalRepository{
		sumUpToFunc: func(ctx context.Context, editionKey, until string) (int64, int64, error) {
			if editionKey == "cf-13" {
				assert.Equal(t, "2025-07-31", until)
				return 800, 300, nil
			}
			return 0, 0, nil
		},
	}
	svc := NewComparisonService(snapshots, historical, testCatalog(t), rome(t), testLogger())

	rows, err := svc.Compare(context.Background(), "2026-06-01", "2026-07-31")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, [2]string{"2025-06-01", "2025-07-31"}, ranges[1])

	ref := rows[0]
	assert.Equal(t, "cf-14", ref.Key)
	assert.Equal(t, models.SourceSnapshots, ref.Source)
	assert.Equal(t, int64(400), ref.Tickets)
	assert.Equal(t, int64(1000), ref.Presenze)
	assert.Nil(t, ref.DiffPct)
	require.Len(t, ref.Events, 2)
	assert.Equal(t, "ev-full", ref.Events[0].EventID)
	assert.Equal(t, int64(300), ref.Events[0].Sold)
	assert.Equal(t, "1 Giu 2026 – 31 Lug 2026", ref.PeriodLabel)

	prev := rows[1]
	assert.Equal(t, "cf-13", prev.Key)
	assert.Equal(t, models.SourceHistorical, prev.Source)
	assert.Equal(t, int64(800), prev.Presenze)
	require.NotNil(t, prev.DiffPct)
	assert.Equal(t, "25", prev.DiffPct.String())
	assert.Equal(t, "+25,0%", prev.DiffLabel)

	assert.Equal(t, models.SourceNone, rows[2].Source)
	assert.Nil(t, rows[2].DiffPct)
}

func TestComparisonService_InvalidPeriod(t *testing.T) {
	svc := NewComparisonService(&mockSnapshotRepository{}, &mockHistoricalRepository{}, testCatalog(t), rome(t), testLogger())

	_, err := svc.Compare(context.Background(), "2026-07-31", "2026-06-01")
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = svc.Compare(context.Background(), "31/07/2026", "2026-08-01")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestComparisonService_RepositoryError(t *testing.T) {
	snapshots := &mockSnapshotRepository{
		getRangeFunc: func(ctx context.Context, from, to string) ([]models.SnapshotEntry, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewComparisonService(snapshots, &mockHistoricalRepository{}, testCatalog(t), rome(t), testLogger())

	_, err := svc.Compare(context.Background(), "2026-06-01", "2026-07-31")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read snapshots for cf-14")
}
