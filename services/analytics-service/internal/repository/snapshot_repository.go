package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"colorfest/services/analytics-service/internal/models"
)

const snapshotInsertChunk = 500

// SnapshotRepositoryInterface defines the ticket_snapshots operations
type SnapshotRepositoryInterface interface {
	InsertIfAbsent(ctx context.Context, entries []models.SnapshotEntry) (int64, error)
	GetByDate(ctx context.Context, date string) ([]models.SnapshotEntry, error)
	GetRange(ctx context.Context, from, to string) ([]models.SnapshotEntry, error)
	ListDates(ctx context.Context, limit int) ([]string, error)
}

type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// InsertIfAbsent writes entries with INSERT IGNORE so the first row stored
// for an (event_id, snapshot_date) pair is never overwritten. It returns the
// number of rows actually inserted.
func (r *SnapshotRepository) InsertIfAbsent(ctx context.Context, entries []models.SnapshotEntry) (int64, error) {
	var inserted int64
	for start := 0; start < len(entries); start += snapshotInsertChunk {
		end := start + snapshotInsertChunk
		if end > len(entries) {
			end = len(entries)
		}
		chunk := entries[start:end]

		placeholders := make([]string, 0, len(chunk))
		args := make([]interface{}, 0, len(chunk)*5)
		for _, e := range chunk {
			placeholders = append(placeholders, "(?, ?, ?, ?, ?)")
			args = append(args, e.EventID, e.EventName, e.TicketType, e.TicketsSold, e.SnapshotDate)
		}

		query := "INSERT IGNORE INTO ticket_snapshots (event_id, event_name, ticket_type, tickets_sold, snapshot_date) VALUES " +
			strings.Join(placeholders, ", ")
		result, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert snapshots: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("failed to read inserted snapshot count: %w", err)
		}
		inserted += n
	}
	return inserted, nil
}

// GetByDate returns every snapshot row of date
func (r *SnapshotRepository) GetByDate(ctx context.Context, date string) ([]models.SnapshotEntry, error) {
	query := `
		SELECT id, event_id, event_name, ticket_type, tickets_sold, snapshot_date
		FROM ticket_snapshots
		WHERE snapshot_date = ?
		ORDER BY event_id
	`
	rows, err := r.db.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots for %s: %w", date, err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetRange returns rows with from <= snapshot_date <= to, newest first
func (r *SnapshotRepository) GetRange(ctx context.Context, from, to string) ([]models.SnapshotEntry, error) {
	query := `
		SELECT id, event_id, event_name, ticket_type, tickets_sold, snapshot_date
		FROM ticket_snapshots
		WHERE snapshot_date >= ? AND snapshot_date <= ?
		ORDER BY snapshot_date DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots between %s and %s: %w", from, to, err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// ListDates returns the distinct snapshot dates, newest first
func (r *SnapshotRepository) ListDates(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT snapshot_date FROM ticket_snapshots ORDER BY snapshot_date DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot dates: %w", err)
	}
	defer rows.Close()

	dates := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot dates: %w", err)
	}
	return dates, nil
}

func scanSnapshots(rows *sql.Rows) ([]models.SnapshotEntry, error) {
	entries := []models.SnapshotEntry{}
	for rows.Next() {
		var (
			e          models.SnapshotEntry
			ticketType sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.EventID, &e.EventName, &ticketType, &e.TicketsSold, &e.SnapshotDate); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if ticketType.Valid {
			tt := ticketType.String
			e.TicketType = &tt
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}
	return entries, nil
}
