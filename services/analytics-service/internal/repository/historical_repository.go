package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"colorfest/services/analytics-service/internal/models"
)

// DefaultHistoricalBatchSize is the number of rows per upsert statement
const DefaultHistoricalBatchSize = 500

// HistoricalRepositoryInterface defines the historical_daily_presenze operations
type HistoricalRepositoryInterface interface {
	ReplaceAll(ctx context.Context, rows []models.HistoricalDailyPresenze, batchSize int) error
	GetByEdition(ctx context.Context, editionKey string) ([]models.HistoricalDailyPresenze, error)
	SumUpTo(ctx context.Context, editionKey, until string) (presenze int64, tickets int64, err error)
}

type HistoricalRepository struct {
	db *sql.DB
}

func NewHistoricalRepository(db *sql.DB) *HistoricalRepository {
	return &HistoricalRepository{db: db}
}

// ReplaceAll deletes every row and upserts rows in batches. A failed batch
// aborts and leaves the table with whatever was written before it.
func (r *HistoricalRepository) ReplaceAll(ctx context.Context, rows []models.HistoricalDailyPresenze, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultHistoricalBatchSize
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM historical_daily_presenze"); err != nil {
		return fmt.Errorf("failed to clear historical presenze: %w", err)
	}

	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		placeholders := make([]string, 0, len(batch))
		args := make([]interface{}, 0, len(batch)*4)
		for _, row := range batch {
			placeholders = append(placeholders, "(?, ?, ?, ?)")
			args = append(args, row.EditionKey, row.SaleDate, row.PresenzeDelta, row.TicketsDelta)
		}

		query := "INSERT INTO historical_daily_presenze (edition_key, sale_date, presenze_delta, tickets_delta) VALUES " +
			strings.Join(placeholders, ", ") +
			" ON DUPLICATE KEY UPDATE presenze_delta = VALUES(presenze_delta), tickets_delta = VALUES(tickets_delta)"
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert historical batch at row %d: %w", start, err)
		}
	}
	return nil
}

// GetByEdition returns the daily rows of an edition in date order
func (r *HistoricalRepository) GetByEdition(ctx context.Context, editionKey string) ([]models.HistoricalDailyPresenze, error) {
	query := `
		SELECT edition_key, sale_date, presenze_delta, tickets_delta
		FROM historical_daily_presenze
		WHERE edition_key = ?
		ORDER BY sale_date
	`
	rows, err := r.db.QueryContext(ctx, query, editionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get historical presenze for %s: %w", editionKey, err)
	}
	defer rows.Close()

	out := []models.HistoricalDailyPresenze{}
	for rows.Next() {
		var h models.HistoricalDailyPresenze
		if err := rows.Scan(&h.EditionKey, &h.SaleDate, &h.PresenzeDelta, &h.TicketsDelta); err != nil {
			return nil, fmt.Errorf("failed to scan historical presenze: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read historical presenze: %w", err)
	}
	return out, nil
}

// SumUpTo returns the cumulative deltas of an edition sold on or before until
func (r *HistoricalRepository) SumUpTo(ctx context.Context, editionKey, until string) (int64, int64, error) {
	query := `
		SELECT COALESCE(SUM(presenze_delta), 0), COALESCE(SUM(tickets_delta), 0)
		FROM historical_daily_presenze
		WHERE edition_key = ? AND sale_date <= ?
	`
	var presenze, tickets int64
	if err := r.db.QueryRowContext(ctx, query, editionKey, until).Scan(&presenze, &tickets); err != nil {
		return 0, 0, fmt.Errorf("failed to sum historical presenze for %s: %w", editionKey, err)
	}
	return presenze, tickets, nil
}
