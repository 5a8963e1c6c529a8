package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportLine(txType, txDate, qty, eventDate, eventName string) string {
	fields := make([]string, 29)
	fields[4] = txType
	fields[5] = txDate
	fields[8] = qty
	fields[27] = eventDate
	fields[28] = eventName
	return strings.Join(fields, ",")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		editionsFile, batchSize, dryRun = "", 0, false
	})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestImportDryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	export := strings.Join([]string{
		exportLine("Type", "Date", "Qty", "Event date", "Event"),
		exportLine("Charge", "2025-06-02T10:00:00Z", "2", "2025-08-11 14:00", "Color Fest 13 - Full"),
		exportLine("Refund", "2025-06-02T11:00:00Z", "2", "2025-08-11 14:00", "Color Fest 13 - Full"),
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(export), 0o600))

	out, err := execute(t, "import", "--dry-run", path)
	require.NoError(t, err)

	var agg struct {
		Rows []struct {
			EditionKey    string `json:"edition_key"`
			PresenzeDelta int64  `json:"presenze_delta"`
		}
		Result struct {
			Processed int `json:"processed"`
			Skipped   int `json:"skipped"`
		}
	}
	require.NoError(t, json.Unmarshal([]byte(out), &agg), out)
	require.Len(t, agg.Rows, 1)
	assert.Equal(t, "cf-13", agg.Rows[0].EditionKey)
	assert.Equal(t, int64(6), agg.Rows[0].PresenzeDelta)
	assert.Equal(t, 1, agg.Result.Processed)
	assert.Equal(t, 1, agg.Result.Skipped)
}

func TestImportMissingFile(t *testing.T) {
	_, err := execute(t, "import", "--dry-run", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open export")
}

func TestEditions(t *testing.T) {
	out, err := execute(t, "editions")
	require.NoError(t, err)
	assert.Contains(t, out, "cf-14")
}
