// Package app assembles the application from configuration. Both the API
// server and the CLI start from here.
package app

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/financas-pro/internal/chat"
	"github.com/dvloznov/financas-pro/internal/config"
	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/dvloznov/financas-pro/internal/events"
	"github.com/dvloznov/financas-pro/internal/export"
	"github.com/dvloznov/financas-pro/internal/intent"
	"github.com/dvloznov/financas-pro/internal/jobs/inmemory"
	"github.com/dvloznov/financas-pro/internal/ledger"
	"github.com/dvloznov/financas-pro/internal/logger"
	"github.com/dvloznov/financas-pro/internal/nlu"
	"github.com/dvloznov/financas-pro/internal/persist"
	"github.com/dvloznov/financas-pro/internal/reconcile"
	"github.com/dvloznov/financas-pro/internal/tracker"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// App holds the running components.
type App struct {
	Service *tracker.Service
	Store   *ledger.Store
	Session *chat.Session
	Turns   *inmemory.Store

	log     zerolog.Logger
	closers []func() error
}

// New builds every component described by cfg. Call Close when done.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{log: log}

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
		return nil, fmt.Errorf("New: open store: %w", err)
	}
	a.closers = append(a.closers, kv.Close)

	publisher, err := newPublisher(cfg)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("New: %w", err)
	}
	a.closers = append(a.closers, publisher.Close)

	persister := persist.NewLedger(kv, logger.Component(log, "persist"))
	txs, cats := persister.Load(ctx)
	a.Store = ledger.New(txs, cats,
		ledger.WithPersister(persister),
		ledger.WithPublisher(publisher),
		ledger.WithLogger(logger.Component(log, "ledger")),
	)

	exporter, err := a.newExporter(ctx, cfg)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("New: %w", err)
	}

	interpreter := a.newInterpreter(ctx, cfg)
	reconciler := reconcile.New(a.Store, exporter, logger.Component(log, "reconcile"))

	a.Turns = inmemory.NewStore()
	queue := inmemory.NewQueue(cfg.ChatQueueSize, a.Turns)
	a.Session = chat.NewSession(a.Store, interpreter, reconciler, queue, logger.Component(log, "chat"),
		chat.WithTimeout(cfg.NLUTimeout),
	)

	a.Service = tracker.NewService(a.Store, a.Session, exporter, logger.Component(log, "tracker"))
	return a, nil
}

// Start launches the chat worker.
func (a *App) Start(ctx context.Context) error {
	return a.Session.Start(ctx)
}

// Close stops the chat worker and releases every resource, newest first.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Session != nil {
		if err := a.Session.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newPublisher(cfg *config.Config) (events.Publisher, error) {
	switch cfg.EventsBackend {
	case config.EventsKafka:
		return events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.EventsAMQP:
		p, err := events.NewAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, fmt.Errorf("connect to AMQP: %w", err)
		}
		return p, nil
	default:
		return events.Noop{}, nil
	}
}

// newExporter always writes to the local export directory and adds every
// remote destination that is configured.
func (a *App) newExporter(ctx context.Context, cfg *config.Config) (*export.Exporter, error) {
	dests := []export.Destination{export.FileDestination{Dir: cfg.ExportDir}}

	var clientOpts []option.ClientOption
	if cfg.GoogleCredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
	}

	if cfg.ExportGCSBucket != "" {
		client, err := persist.NewStorageClient(ctx, cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("export storage client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		dests = append(dests, export.NewGCSDestination(client, cfg.ExportGCSBucket, cfg.GCSPrefix))
	}

	if cfg.ExportBigQueryProject != "" {
		client, err := bigquery.NewClient(ctx, cfg.ExportBigQueryProject, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("export bigquery client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		dests = append(dests, export.NewBigQueryDestination(client, cfg.ExportBigQueryDataset, cfg.ExportBigQueryTable))
	}

	if cfg.NotionToken != "" {
		dests = append(dests, export.NewNotionDestination(export.NewNotionClient(cfg.NotionToken), cfg.NotionDatabaseID))
	}

	names := make([]string, 0, len(dests))
	for _, d := range dests {
		names = append(names, d.Name())
	}
	a.log.Info().Strs("destinations", names).Msg("Export destinations configured")

	return export.NewExporter(logger.Component(a.log, "export"), dests...), nil
}

// newInterpreter returns the Gemini interpreter, or one that always fails
// when no API key is configured so the rest of the app keeps working.
func (a *App) newInterpreter(ctx context.Context, cfg *config.Config) nlu.Interpreter {
	unavailable := func(cause error) nlu.Interpreter {
		return nlu.InterpreterFunc(func(context.Context, string, []domain.Category, []domain.Transaction) (intent.Intent, error) {
			return nil, &nlu.UnavailableError{Err: cause}
		})
	}

	if err := cfg.ValidateInterpreter(); err != nil {
		a.log.Warn().Err(err).Msg("Chat assistant disabled")
		return unavailable(err)
	}

	g, err := nlu.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger.Component(a.log, "nlu"))
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to create Gemini client, chat assistant disabled")
		return unavailable(err)
	}
	return g
}
