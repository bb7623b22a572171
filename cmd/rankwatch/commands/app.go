package commands

import (
	"context"
	"fmt"
	"log/slog"

	"rankwatch/internal/components/chrono"
	"rankwatch/internal/components/telemetry"
	"rankwatch/lib/fetcher"
	"rankwatch/lib/notify"
	"rankwatch/lib/tablestore"
	"rankwatch/lib/tablestore/sheets"
	"rankwatch/lib/tablestore/sqlitestore"
	"rankwatch/lib/util/serviceutil"
	"rankwatch/services/rankwatch"
)

// app holds everything that lives for the whole process, the page fetcher is
// created per run.
type app struct {
	config   Config
	clock    chrono.StandardImpl
	store    tablestore.Store
	notifier notify.Notifier
	tel      telemetry.API
	close    func()
}

func openStore(ctx context.Context, config Config) (tablestore.Store, func(), error) {
	switch config.Sink {
	case SINK_SQLITE:
		db, err := config.Sqlite.OpenDB()
		if err != nil {
			return nil, nil, err
		}
		store, err := sqlitestore.NewStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil
	default:
		credentials, err := config.Sheets.credentials()
		if err != nil {
			return nil, nil, err
		}
		store, err := sheets.NewStore(
			ctx,
			config.Sheets.SpreadsheetId,
			sheets.CredentialsOption(credentials),
			sheets.Scopes(),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to spreadsheet: %w", err)
		}
		return store, func() {}, nil
	}
}

// setup loads the config and opens the store, any failure here happens before
// a single page is fetched and ends the process.
func setup(ctx context.Context) app {
	config, err := loadConfig(*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	clock, err := chrono.NewStandardImpl(config.TimeZone)
	if err != nil {
		serviceutil.Fatal("failed to load time zone", err)
	}

	store, closeStore, err := openStore(ctx, config)
	if err != nil {
		serviceutil.Fatal("failed to open table store", err)
	}

	var notifier notify.Notifier = notify.Noop{}
	if config.Smtp.Enabled() {
		notifier = notify.NewSmtp(config.Smtp)
	}

	slog.Debug(
		"configured",
		"sink", config.Sink,
		"fetcher", config.Fetcher.Kind,
		"sources", len(config.Sources),
	)

	return app{
		config:   config,
		clock:    clock,
		store:    store,
		notifier: notifier,
		tel:      telemetry.SlogAPI{},
		close:    closeStore,
	}
}

func (a app) openFetcher(ctx context.Context) (fetcher.Fetcher, error) {
	if a.config.Fetcher.Kind == FETCHER_HTTP {
		f, err := fetcher.NewHTTPFetcher(a.config.Fetcher.options(), a.tel)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	f, err := fetcher.NewBrowserFetcher(ctx, a.config.Fetcher.browserOptions(), a.tel)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// service opens a fetcher and returns a service using it, the caller closes
// the fetcher.
func (a app) service(ctx context.Context) (rankwatch.Service, fetcher.Fetcher, error) {
	f, err := a.openFetcher(ctx)
	if err != nil {
		return rankwatch.Service{}, nil, fmt.Errorf("open page fetcher: %w", err)
	}
	service := rankwatch.NewService(
		f,
		a.store,
		a.clock,
		a.config.serviceOptions(),
		rankwatch.WithTelemetryAPI(a.tel),
		rankwatch.WithNotifier(a.notifier),
	)
	return service, f, nil
}

func (a app) runOnce(ctx context.Context) (rankwatch.RunReport, error) {
	service, f, err := a.service(ctx)
	if err != nil {
		return rankwatch.RunReport{}, err
	}
	defer f.Close()
	return service.Run(ctx)
}

// reportLine picks the summary line of a run and its attributes.
func reportLine(report rankwatch.RunReport, err error) (string, []any) {
	attrs := []any{
		"date", report.Date,
		"targets", report.Targets,
		"scraped", report.Scraped,
		"matched", report.Matched,
		"failed_sources", len(report.Failures),
	}
	switch {
	case err != nil:
		return "run failed", append(attrs, "range", report.Range, "err", err)
	case !report.Written:
		return "nothing to write", attrs
	}
	return "rows written", append(
		attrs,
		"range", report.Range,
		"rows", len(report.Rows),
		"created_sheet", report.CreatedSheet,
	)
}

func logReport(report rankwatch.RunReport, err error) {
	for _, failure := range report.Failures {
		slog.Warn("source skipped", "source", failure.Source.Label, "err", failure.Err)
	}
	msg, attrs := reportLine(report, err)
	if err != nil {
		slog.Error(msg, attrs...)
		return
	}
	slog.Info(msg, attrs...)
}
