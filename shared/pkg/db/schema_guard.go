package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ColumnType represents expected column schema
type ColumnType struct {
	Name     string
	DataType string
	Nullable bool
}

// TableSchema represents expected table structure
type TableSchema struct {
	Name    string
	Columns []ColumnType
}

// SnapshotTables are the tables written by the analytics service
var SnapshotTables = []TableSchema{
	{
		Name: "ticket_snapshots",
		Columns: []ColumnType{
			{Name: "event_id", DataType: "varchar"},
			{Name: "event_name", DataType: "varchar"},
			{Name: "ticket_type", DataType: "varchar", Nullable: true},
			{Name: "tickets_sold", DataType: "bigint"},
			{Name: "snapshot_date", DataType: "date"},
		},
	},
	{
		Name: "historical_daily_presenze",
		Columns: []ColumnType{
			{Name: "edition_key", DataType: "varchar"},
			{Name: "sale_date", DataType: "date"},
			{Name: "presenze_delta", DataType: "bigint"},
			{Name: "tickets_delta", DataType: "bigint"},
		},
	},
}

// schemaDDL creates the tables when missing. The unique keys are what make
// baseline capture first-write-wins and historical upserts idempotent.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS ticket_snapshots (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		event_id VARCHAR(64) NOT NULL,
		event_name VARCHAR(255) NOT NULL,
		ticket_type VARCHAR(255) NULL,
		tickets_sold BIGINT NOT NULL DEFAULT 0,
		snapshot_date DATE NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_ticket_snapshots_event_date (event_id, snapshot_date),
		KEY idx_ticket_snapshots_date (snapshot_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS historical_daily_presenze (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		edition_key VARCHAR(32) NOT NULL,
		sale_date DATE NOT NULL,
		presenze_delta BIGINT NOT NULL DEFAULT 0,
		tickets_delta BIGINT NOT NULL DEFAULT 0,
		UNIQUE KEY uq_historical_edition_date (edition_key, sale_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
}

// SchemaGuard validates database schema matches expectations
type SchemaGuard struct {
	db *sql.DB
}

// NewSchemaGuard creates a new schema guard
func NewSchemaGuard(db *sql.DB) *SchemaGuard {
	return &SchemaGuard{db: db}
}

// EnsureSchema creates missing tables
func (sg *SchemaGuard) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaDDL {
		if _, err := sg.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// ValidateTable validates a table's schema
func (sg *SchemaGuard) ValidateTable(ctx context.Context, schema TableSchema) error {
	query := `
		SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE()
		AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`

	rows, err := sg.db.QueryContext(ctx, query, schema.Name)
	if err != nil {
		return fmt.Errorf("failed to query table schema for %s: %w", schema.Name, err)
	}
	defer rows.Close()

	actualColumns := make(map[string]ColumnType)
	for rows.Next() {
		var colName, dataType, isNullable string
		if err := rows.Scan(&colName, &dataType, &isNullable); err != nil {
			return fmt.Errorf("failed to scan column info: %w", err)
		}
		actualColumns[colName] = ColumnType{
			Name:     colName,
			DataType: dataType,
			Nullable: isNullable == "YES",
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read column info: %w", err)
	}

	if len(actualColumns) == 0 {
		return fmt.Errorf("table %s does not exist or has no columns", schema.Name)
	}

	for _, expectedCol := range schema.Columns {
		actualCol, exists := actualColumns[expectedCol.Name]
		if !exists {
			return fmt.Errorf("table %s missing expected column: %s", schema.Name, expectedCol.Name)
		}

		if !matchesDataType(actualCol.DataType, expectedCol.DataType) {
			return fmt.Errorf("table %s column %s has type %s, expected %s",
				schema.Name, expectedCol.Name, actualCol.DataType, expectedCol.DataType)
		}
	}

	return nil
}

// matchesDataType checks if data types are compatible (varchar matches varchar(191))
func matchesDataType(actual, expected string) bool {
	return strings.HasPrefix(strings.ToLower(actual), strings.ToLower(expected))
}

// ValidateTables validates multiple tables
func (sg *SchemaGuard) ValidateTables(ctx context.Context, schemas []TableSchema) error {
	for _, schema := range schemas {
		if err := sg.ValidateTable(ctx, schema); err != nil {
			return err
		}
	}
	return nil
}
