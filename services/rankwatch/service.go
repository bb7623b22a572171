// Package rankwatch runs the daily ranking job: fetch every source, match the
// watch list, and append the formatted rows to the month's sheet.
package rankwatch

import (
	"time"

	"rankwatch/internal/assert"
	"rankwatch/internal/components/chrono"
	"rankwatch/internal/components/telemetry"
	"rankwatch/internal/ranking"
	"rankwatch/lib/fetcher"
	"rankwatch/lib/notify"
	"rankwatch/lib/tablestore"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/rankwatch")

const (
	report_targets_load  = "targets.load"
	report_targets_count = "targets.count"
	report_source_fetch  = "source.fetch"
	report_source_parse  = "source.parse"
	report_source_count  = "source.records"
	report_near_miss     = "match.near-miss"
	report_match_count   = "match.count"
	report_sheet_create  = "sheet.create"
	report_sheet_append  = "sheet.append"
	report_rows_count    = "rows.count"
	report_nothing_to_do = "run.nothing-to-emit"
	report_notify        = "run.notify"
)

// DEFAULT_TARGET_RANGE is the watch list, names in column B and override
// categories in column C.
const DEFAULT_TARGET_RANGE = "検索リスト!B:C"

// DEFAULT_OUTPUT_COLUMNS are the columns output rows are appended to on the
// month's sheet.
const DEFAULT_OUTPUT_COLUMNS = "A:E"

type Options struct {
	Sources       []ranking.Source
	TargetRange   string
	OutputColumns string
	// SourceTimeout bounds the fetch of a single source.
	SourceTimeout     time.Duration
	NearMissThreshold float64
	Pipeline          ranking.Options
}

// DefaultSources are the live chat character rankings, one per category.
func DefaultSources() []ranking.Source {
	const base = "https://www.dmm.co.jp/live/chat/-/character-ranking/=/"
	return []ranking.Source{
		{Label: "あちゃ", Url: base + "genre=popular/group=acha/"},
		{Label: "まちゃ", Url: base + "genre=popular/group=macha/"},
		{Label: "おちゃ", Url: base + "genre=popular/group=ocha/"},
		{Label: ranking.LABEL_NEWCOMER, Url: base + "genre=newface/"},
		{Label: ranking.LABEL_TIMESLOT, Url: base + "genre=timezone/"},
	}
}

func DefaultOptions() Options {
	return Options{
		Sources:           DefaultSources(),
		TargetRange:       DEFAULT_TARGET_RANGE,
		OutputColumns:     DEFAULT_OUTPUT_COLUMNS,
		SourceTimeout:     3 * time.Minute,
		NearMissThreshold: 0.9,
		Pipeline:          ranking.DefaultOptions(),
	}
}

type Service struct {
	fetcher  fetcher.Fetcher
	store    tablestore.Store
	clock    chrono.API
	tel      telemetry.API
	notifier notify.Notifier
	opts     Options
}

type serviceConfig struct {
	tel      telemetry.API
	notifier notify.Notifier
}

type ServiceOption func(cfg *serviceConfig)

func WithTelemetryAPI(tel telemetry.API) ServiceOption {
	return func(cfg *serviceConfig) {
		cfg.tel = tel
	}
}

func WithNotifier(notifier notify.Notifier) ServiceOption {
	return func(cfg *serviceConfig) {
		cfg.notifier = notifier
	}
}

func NewService(
	f fetcher.Fetcher,
	store tablestore.Store,
	clock chrono.API,
	opts Options,
	options ...ServiceOption,
) Service {
	assert.NotNil(f, "page fetcher")
	assert.NotNil(store, "table store")
	assert.NotNil(clock, "clock")
	assert.NotEmptyStr(opts.TargetRange, "target range")
	assert.NotEmptyStr(opts.OutputColumns, "output columns")

	cfg := serviceConfig{
		tel:      telemetry.SlogAPI{},
		notifier: notify.Noop{},
	}
	for _, opt := range options {
		opt(&cfg)
	}

	return Service{
		fetcher:  f,
		store:    store,
		clock:    clock,
		tel:      telemetry.NewScopedAPI("rankwatch", cfg.tel),
		notifier: cfg.notifier,
		opts:     opts,
	}
}
