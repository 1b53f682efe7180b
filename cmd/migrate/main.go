package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/financas-pro/internal/config"
	"github.com/dvloznov/financas-pro/internal/export"
	"github.com/dvloznov/financas-pro/internal/persist"
	"google.golang.org/api/option"
)

var (
	target = flag.String("target", "", "What to migrate: sqlite, postgres or bigquery (defaults to STORE_BACKEND)")
	steps  = flag.Int("steps", 1, "Number of migrations to roll back with 'down'")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: migrate [-target sqlite|postgres|bigquery] [up|down|version]")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Load()

	action := "up"
	if flag.NArg() > 0 {
		action = flag.Arg(0)
	}
	t := *target
	if t == "" {
		t = cfg.StoreBackend
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if t == "bigquery" {
		if action != "up" {
			log.Fatalf("Error: the bigquery target only supports 'up'")
		}
		if err := ensureExportTable(ctx, cfg); err != nil {
			log.Fatalf("Failed to prepare export table: %v", err)
		}
		return
	}

	dialect, dsn, err := sqlTarget(t, cfg)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	switch action {
	case "up":
		if err := persist.MigrateUp(dialect, dsn); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		log.Printf("Migrations applied (%s)", dialect)
	case "down":
		if err := persist.MigrateDown(dialect, dsn, *steps); err != nil {
			log.Fatalf("Failed to roll back migrations: %v", err)
		}
		log.Printf("Rolled back %d migration(s) (%s)", *steps, dialect)
	case "version":
		v, dirty, ok, err := persist.MigrationVersion(dialect, dsn)
		if err != nil {
			log.Fatalf("Failed to read version: %v", err)
		}
		if !ok {
			fmt.Println("No migrations applied")
			return
		}
		fmt.Printf("Version %d (dirty: %v)\n", v, dirty)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// sqlTarget returns the dialect and connection string for a SQL target.
func sqlTarget(target string, cfg *config.Config) (persist.Dialect, string, error) {
	switch target {
	case string(persist.BackendSQLite):
		if cfg.SQLiteDBPath == "" {
			return "", "", fmt.Errorf("SQLITE_DB_PATH is required")
		}
		return persist.DialectSQLite, cfg.SQLiteDBPath, nil
	case string(persist.BackendPostgres):
		if cfg.PostgresDSN == "" {
			return "", "", fmt.Errorf("POSTGRES_DSN is required")
		}
		return persist.DialectPostgres, cfg.PostgresDSN, nil
	default:
		return "", "", fmt.Errorf("target %q has no SQL schema", target)
	}
}

// ensureExportTable creates the BigQuery table used by CSV exports.
func ensureExportTable(ctx context.Context, cfg *config.Config) error {
	if cfg.ExportBigQueryProject == "" || cfg.ExportBigQueryDataset == "" {
		return fmt.Errorf("EXPORT_BIGQUERY_PROJECT and EXPORT_BIGQUERY_DATASET are required")
	}

	var opts []option.ClientOption
	if cfg.GoogleCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
	}
	client, err := bigquery.NewClient(ctx, cfg.ExportBigQueryProject, opts...)
	if err != nil {
		return fmt.Errorf("create BigQuery client: %w", err)
	}
	defer client.Close()

	log.Printf("Connected to BigQuery project: %s, dataset: %s", cfg.ExportBigQueryProject, cfg.ExportBigQueryDataset)

	created, err := export.NewBigQueryDestination(client, cfg.ExportBigQueryDataset, cfg.ExportBigQueryTable).EnsureTable(ctx)
	if err != nil {
		return err
	}
	if created {
		log.Printf("  [OK]   created table %s", cfg.ExportBigQueryTable)
	} else {
		log.Printf("  [SKIP] table %s already exists", cfg.ExportBigQueryTable)
	}
	return nil
}
