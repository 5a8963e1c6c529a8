package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"colorfest/services/analytics-service/internal/catalog"
	"colorfest/services/analytics-service/internal/config"
	"colorfest/services/analytics-service/internal/csvimport"
	"colorfest/services/analytics-service/internal/repository"
	"colorfest/services/analytics-service/internal/service"
	"colorfest/shared/pkg/db"
	"colorfest/shared/pkg/logger"
	"colorfest/shared/pkg/metrics"
)

var (
	editionsFile string
	batchSize    int
	dryRun       bool
)

var rootCmd = &cobra.Command{
	Use:          "importer",
	Short:        "Color Fest historical sales tools",
	SilenceUsage: true,
}

var importCmd = &cobra.Command{
	Use:   "import <export.csv>",
	Short: "Replace the historical presenze table from a transaction export",
	Long: `Aggregates the Charge rows of a ticketing transaction export into per-edition
per-day presenze and tickets, then replaces every stored historical row.
Use --dry-run to print the aggregate without touching the database.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var editionsCmd = &cobra.Command{
	Use:   "editions",
	Short: "Print the edition catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(editionsFile)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), cat.Editions)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&editionsFile, "editions-file", "", "Edition catalog YAML (defaults to EDITIONS_FILE or the built-in catalog)")

	rootCmd.AddCommand(importCmd)
	importCmd.Flags().IntVar(&batchSize, "batch-size", 0, "Rows per upsert statement (defaults to HISTORICAL_BATCH_SIZE)")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and aggregate only")

	rootCmd.AddCommand(editionsCmd)
}

func main() {
	config.LoadEnvFiles("config.env", "services/analytics-service/config.env")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if editionsFile == "" {
		editionsFile = cfg.EditionsFile
	}
	if batchSize <= 0 {
		batchSize = cfg.Import.BatchSize
	}

	cat, err := catalog.Load(editionsFile)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	if dryRun {
		agg, err := csvimport.NewParser(cat).Parse(f)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), agg)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewLoggerWithOutput("analytics-importer", cmd.ErrOrStderr())
	conn, err := db.NewConnection(ctx, cfg.DB())
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.NewSchemaGuard(conn.DB).EnsureSchema(ctx); err != nil {
		return err
	}

	importer := service.NewImportService(
		cat,
		repository.NewHistoricalRepository(conn.DB),
		batchSize,
		log,
		metrics.NewMetrics("analytics_importer", prometheus.NewRegistry()),
	)
	res, err := importer.Import(ctx, f)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
