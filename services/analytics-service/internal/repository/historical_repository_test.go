package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colorfest/services/analytics-service/internal/models"
)

func historicalRows(n int) []models.HistoricalDailyPresenze {
	rows := make([]models.HistoricalDailyPresenze, n)
	for i := range rows {
		rows[i] = models.HistoricalDailyPresenze{EditionKey: "cf-13", SaleDate: "2025-06-01", PresenzeDelta: int64(i), TicketsDelta: 1}
	}
	return rows
}

func TestHistoricalRepository_ReplaceAll(t *testing.T) {
	ctx := context.Background()

	t.Run("delete then batched upsert", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("DELETE FROM historical_daily_presenze").WillReturnResult(sqlmock.NewResult(0, 12))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO historical_daily_presenze (edition_key, sale_date, presenze_delta, tickets_delta) VALUES (?, ?, ?, ?), (?, ?, ?, ?) ON DUPLICATE KEY UPDATE")).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(regexp.QuoteMeta("VALUES (?, ?, ?, ?) ON DUPLICATE KEY UPDATE presenze_delta = VALUES(presenze_delta)")).
			WithArgs("cf-13", "2025-06-01", int64(2), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewHistoricalRepository(db).ReplaceAll(ctx, historicalRows(3), 2))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("default batch size", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("DELETE FROM historical_daily_presenze").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO historical_daily_presenze").WillReturnResult(sqlmock.NewResult(0, DefaultHistoricalBatchSize))
		mock.ExpectExec("INSERT INTO historical_daily_presenze").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewHistoricalRepository(db).ReplaceAll(ctx, historicalRows(DefaultHistoricalBatchSize+1), 0))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("batch error aborts", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("DELETE FROM historical_daily_presenze").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO historical_daily_presenze").WillReturnError(errors.New("deadlock"))

		err = NewHistoricalRepository(db).ReplaceAll(ctx, historicalRows(4), 2)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert historical batch at row 0")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("DELETE FROM historical_daily_presenze").WillReturnError(errors.New("read only"))

		err = NewHistoricalRepository(db).ReplaceAll(ctx, historicalRows(1), 2)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to clear historical presenze")
	})
}

func TestHistoricalRepository_GetByEdition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM historical_daily_presenze WHERE edition_key = \\?").
		WithArgs("cf-12").
		WillReturnRows(sqlmock.NewRows([]string{"edition_key", "sale_date", "presenze_delta", "tickets_delta"}).
			AddRow("cf-12", "2024-05-01", 30, 10).
			AddRow("cf-12", "2024-05-02", 9, 3))

	got, err := NewHistoricalRepository(db).GetByEdition(context.Background(), "cf-12")
	require.NoError(t, err)
	assert.Equal(t, []models.HistoricalDailyPresenze{
		{EditionKey: "cf-12", SaleDate: "2024-05-01", PresenzeDelta: 30, TicketsDelta: 10},
		{EditionKey: "cf-12", SaleDate: "2024-05-02", PresenzeDelta: 9, TicketsDelta: 3},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoricalRepository_SumUpTo(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(presenze_delta\\), 0\\)").
		WithArgs("cf-11", "2023-08-07").
		WillReturnRows(sqlmock.NewRows([]string{"p", "t"}).AddRow(4200, 1900))

	presenze, tickets, err := NewHistoricalRepository(db).SumUpTo(context.Background(), "cf-11", "2023-08-07")
	require.NoError(t, err)
	assert.Equal(t, int64(4200), presenze)
	assert.Equal(t, int64(1900), tickets)
	assert.NoError(t, mock.ExpectationsWereMet())
}
