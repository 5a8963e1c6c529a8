package service

import (
	"context"
	"fmt"

	"colorfest/services/analytics-service/internal/models"
	"colorfest/services/analytics-service/internal/repository"
	"colorfest/shared/pkg/logger"
)

// SnapshotService captures and reads the daily baselines
type SnapshotService struct {
	repo repository.SnapshotRepositoryInterface
	log  *logger.Logger
}

func NewSnapshotService(repo repository.SnapshotRepositoryInterface, log *logger.Logger) *SnapshotService {
	return &SnapshotService{repo: repo, log: log}
}

// CaptureBaseline stores today's first-seen count of every active event.
// Rows already present for today are left untouched.
func (s *SnapshotService) CaptureBaseline(ctx context.Context, events []models.RawEvent, today string) (int64, error) {
	entries := make([]models.SnapshotEntry, 0, len(events))
	for _, ev := range events {
		if !ev.Active() {
			continue
		}
		entry := models.SnapshotEntry{
			EventID:      ev.ID,
			EventName:    ev.Name,
			TicketsSold:  ev.TicketsSold,
			SnapshotDate: today,
		}
		if len(ev.TicketTypes) == 1 {
			name := ev.TicketTypes[0].Name
			entry.TicketType = &name
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	inserted, err := s.repo.InsertIfAbsent(ctx, entries)
	if err != nil {
		return 0, fmt.Errorf("failed to capture baseline for %s: %w", today, err)
	}
	if inserted > 0 {
		s.log.Entry().WithField("date", today).WithField("inserted", inserted).Info("Baseline captured")
	}
	return inserted, nil
}

// GetBaseline returns the baseline of date, empty when nothing was captured
func (s *SnapshotService) GetBaseline(ctx context.Context, date string) (*models.Baseline, error) {
	rows, err := s.repo.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return models.NewBaseline(date, rows), nil
}

// Snapshots returns the raw rows of date
func (s *SnapshotService) Snapshots(ctx context.Context, date string) ([]models.SnapshotEntry, error) {
	return s.repo.GetByDate(ctx, date)
}

// SnapshotDates lists the dates holding snapshots, newest first
func (s *SnapshotService) SnapshotDates(ctx context.Context) ([]string, error) {
	return s.repo.ListDates(ctx, 1000)
}
