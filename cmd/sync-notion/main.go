package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/financas-pro/internal/config"
	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/dvloznov/financas-pro/internal/export"
	"github.com/dvloznov/financas-pro/internal/logger"
	"github.com/dvloznov/financas-pro/internal/persist"
)

func main() {
	// Initialize structured logger
	log := logger.New()
	cfg := config.Load()

	// Parse CLI flags
	startDateStr := flag.String("start-date", "", "Start date in YYYY-MM-DD format (required)")
	endDateStr := flag.String("end-date", "", "End date in YYYY-MM-DD format (required)")
	notionToken := flag.String("notion-token", cfg.NotionToken, "Notion API token (or set NOTION_TOKEN)")
	notionDBID := flag.String("notion-db-id", cfg.NotionDatabaseID, "Notion database ID (or set NOTION_DATABASE_ID)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	// Validate required flags
	if *startDateStr == "" {
		log.Fatal().Msg("Error: --start-date is required")
	}
	if *endDateStr == "" {
		log.Fatal().Msg("Error: --end-date is required")
	}
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}

	startDate, endDate, err := parseRange(*startDateStr, *endDateStr)
	if err != nil {
		log.Fatal().Err(err).Msg("Error: invalid date range")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("start_date", startDate.String()).
		Str("end_date", endDate.String()).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	kv, err := persist.Open(ctx, persist.Options{
		Backend:         persist.Backend(cfg.StoreBackend),
		Dir:             cfg.StoreDir,
		SQLitePath:      cfg.SQLiteDBPath,
		PostgresDSN:     cfg.PostgresDSN,
		GCSBucket:       cfg.GCSBucket,
		GCSPrefix:       cfg.GCSPrefix,
		CredentialsFile: cfg.GoogleCredentialsFile,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	defer kv.Close()

	txs, cats := persist.NewLedger(kv, logger.Component(log, "persist")).Load(ctx)
	if cats == nil {
		cats = domain.DefaultCategories()
	}
	txs = domain.Between(txs, startDate, endDate)

	dest := export.NewNotionDestination(export.NewNotionClient(*notionToken), *notionDBID)

	if *dryRun {
		missing, err := dest.Missing(ctx, txs)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to query Notion")
		}
		for _, t := range missing {
			log.Info().
				Str("transaction_id", t.ID).
				Str("date", t.Date.String()).
				Str("description", t.Description).
				Str("amount", t.Amount.String()).
				Msg("[DRY RUN] Would create page")
		}
		fmt.Printf("Dry run: %d of %d transactions would be created.\n", len(missing), len(txs))
		return
	}

	if err := dest.Deliver(ctx, export.Document{Transactions: txs, Categories: cats}); err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Println("Sync completed successfully.")
}

// parseRange parses an inclusive date range.
func parseRange(start, end string) (civil.Date, civil.Date, error) {
	startDate, err := civil.ParseDate(start)
	if err != nil {
		return civil.Date{}, civil.Date{}, fmt.Errorf("invalid start-date %q, expected YYYY-MM-DD: %w", start, err)
	}
	endDate, err := civil.ParseDate(end)
	if err != nil {
		return civil.Date{}, civil.Date{}, fmt.Errorf("invalid end-date %q, expected YYYY-MM-DD: %w", end, err)
	}
	if endDate.Before(startDate) {
		return civil.Date{}, civil.Date{}, fmt.Errorf("end-date %s must not be before start-date %s", endDate, startDate)
	}
	return startDate, endDate, nil
}
