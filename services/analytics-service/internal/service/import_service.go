package service

import (
	"context"
	"fmt"
	"io"

	"colorfest/services/analytics-service/internal/csvimport"
	"colorfest/services/analytics-service/internal/models"
	"colorfest/services/analytics-service/internal/repository"
	"colorfest/shared/pkg/logger"
	"colorfest/shared/pkg/metrics"
)

// ImportService replaces the historical table from a transaction export
type ImportService struct {
	parser    *csvimport.Parser
	repo      repository.HistoricalRepositoryInterface
	batchSize int
	log       *logger.Logger
	metrics   *metrics.Metrics
}

func NewImportService(
	editions csvimport.Editions,
	repo repository.HistoricalRepositoryInterface,
	batchSize int,
	log *logger.Logger,
	m *metrics.Metrics,
) *ImportService {
	if batchSize <= 0 {
		batchSize = repository.DefaultHistoricalBatchSize
	}
	return &ImportService{
		parser:    csvimport.NewParser(editions),
		repo:      repo,
		batchSize: batchSize,
		log:       log,
		metrics:   m,
	}
}

// Import parses r and replaces every stored historical row with the result
func (s *ImportService) Import(ctx context.Context, r io.Reader) (*models.ImportResult, error) {
	agg, err := s.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse historical export: %w", err)
	}

	if err := s.repo.ReplaceAll(ctx, agg.Rows, s.batchSize); err != nil {
		s.metrics.ImportRows.WithLabelValues("failed").Add(float64(agg.Result.Processed))
		return nil, fmt.Errorf("failed to store historical presenze: %w", err)
	}

	s.metrics.ImportRows.WithLabelValues("processed").Add(float64(agg.Result.Processed))
	s.metrics.ImportRows.WithLabelValues("skipped").Add(float64(agg.Result.Skipped))
	s.log.Entry().
		WithField("processed", agg.Result.Processed).
		WithField("skipped", agg.Result.Skipped).
		WithField("days", agg.Result.UniqueDays).
		WithField("editions", agg.Result.Editions).
		Info("Historical import completed")

	result := agg.Result
	return &result, nil
}

// History returns the stored daily rows of one edition
func (s *ImportService) History(ctx context.Context, editionKey string) ([]models.HistoricalDailyPresenze, error) {
	return s.repo.GetByEdition(ctx, editionKey)
}
