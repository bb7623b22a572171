package rankwatch

import (
	"context"
	"errors"
	"fmt"

	"rankwatch/internal/ranking"
	"rankwatch/lib/notify"
	"rankwatch/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RunReport describes what a run saw and did.
type RunReport struct {
	Date         string
	Sheet        string
	Range        string
	Targets      int
	Scraped      int
	Matched      int
	Failures     []ranking.SourceError
	NearMisses   []ranking.NearMiss
	Rows         []ranking.OutputRow
	CreatedSheet bool
	Written      bool
}

// FailureError joins every per-source failure, nil if all sources succeeded.
func (r RunReport) FailureError() error {
	errs := make([]error, len(r.Failures))
	for i, failure := range r.Failures {
		errs[i] = failure
	}
	return errors.Join(errs...)
}

func (r RunReport) summary(err error) notify.Summary {
	failures := make([]string, len(r.Failures))
	for i, failure := range r.Failures {
		failures[i] = failure.Error()
	}
	return notify.Summary{
		Date:     r.Date,
		Sheet:    r.Sheet,
		Rows:     len(r.Rows),
		Failures: failures,
		Err:      err,
	}
}

// LoadTargets reads the watch list. The first row is a header, rows with a
// blank name are skipped.
func (s Service) LoadTargets(ctx context.Context) ([]ranking.TargetEntry, error) {
	rows, err := s.store.ReadRange(ctx, s.opts.TargetRange)
	if err != nil {
		s.tel.ReportBroken(report_targets_load, err, s.opts.TargetRange)
		return nil, err
	}

	var targets []ranking.TargetEntry
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		if textutil.TrimKey(row[0]) == "" {
			continue
		}
		target := ranking.TargetEntry{Name: row[0]}
		if len(row) > 1 {
			target.OverrideCategory = row[1]
		}
		targets = append(targets, target)
	}
	s.tel.ReportCount(report_targets_count, int64(len(targets)))
	return targets, nil
}

func (s Service) collectSource(ctx context.Context, source ranking.Source) ranking.SourceResult {
	ctx, span := tracer.Start(ctx, "collectSource")
	defer span.End()
	span.SetAttributes(attribute.String("source", source.Label))

	if s.opts.SourceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.SourceTimeout)
		defer cancel()
	}

	markup, err := s.fetcher.Fetch(ctx, source.Url)
	if err != nil {
		s.tel.ReportWarning(report_source_fetch, source.Label, err)
		span.SetStatus(codes.Error, err.Error())
		return ranking.SourceResult{Source: source, Err: fmt.Errorf("fetch: %w", err)}
	}

	result := ranking.ProcessPage(source, markup, s.opts.Pipeline)
	if result.Err != nil {
		s.tel.ReportWarning(report_source_parse, source.Label, result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
		return result
	}
	s.tel.ReportCount(
		fmt.Sprintf("%s.%s", report_source_count, source.Label),
		int64(len(result.Records)),
	)
	return result
}

// Collect fetches and parses every source one after another, a source that
// fails is recorded and skipped.
func (s Service) Collect(ctx context.Context) ranking.Aggregation {
	results := make([]ranking.SourceResult, 0, len(s.opts.Sources))
	for _, source := range s.opts.Sources {
		results = append(results, s.collectSource(ctx, source))
	}
	return ranking.Aggregate(results)
}

// Prepare runs everything up to, but excluding, the write. It returns
// ranking.ErrNothingToEmit when no record matched the watch list.
func (s Service) Prepare(ctx context.Context) (RunReport, ranking.Batch, error) {
	ctx, span := tracer.Start(ctx, "Prepare")
	defer span.End()

	now := s.clock.Now()
	report := RunReport{Date: ranking.DateLabel(now)}

	targets, err := s.LoadTargets(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return report, ranking.Batch{}, fmt.Errorf("load targets: %w", err)
	}
	report.Targets = len(targets)

	agg := s.Collect(ctx)
	report.Scraped = len(agg.Records)
	report.Failures = agg.Failures

	if s.opts.NearMissThreshold > 0 {
		report.NearMisses = ranking.NearMisses(agg.Records, targets, s.opts.NearMissThreshold)
		for _, miss := range report.NearMisses {
			s.tel.ReportWarning(
				report_near_miss,
				miss.Target,
				miss.Candidate,
				fmt.Sprintf("%.3f", miss.Similarity),
			)
		}
	}

	batch, err := ranking.Build(agg, targets, now, s.opts.Pipeline)
	report.Sheet = batch.Sheet()
	report.Range = fmt.Sprintf("%s!%s", report.Sheet, s.opts.OutputColumns)
	report.Matched = len(batch.Matched)
	s.tel.ReportCount(report_match_count, int64(report.Matched))
	if err != nil {
		return report, batch, err
	}
	report.Rows = batch.Rows
	return report, batch, nil
}

func (s Service) write(ctx context.Context, report *RunReport, batch ranking.Batch) error {
	ctx, span := tracer.Start(ctx, "write")
	defer span.End()

	exists, err := s.store.SheetExists(ctx, report.Sheet)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("check sheet %s: %w", report.Sheet, err)
	}
	if !exists {
		err = s.store.CreateSheet(ctx, report.Sheet)
		if err != nil {
			s.tel.ReportBroken(report_sheet_create, err, report.Sheet)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		report.CreatedSheet = true
	}

	err = s.store.AppendRows(ctx, report.Range, batch.Values())
	if err != nil {
		s.tel.ReportBroken(report_sheet_append, err, report.Range)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	report.Written = true
	s.tel.ReportCount(report_rows_count, int64(len(batch.Rows)))
	return nil
}

func (s Service) notify(ctx context.Context, report RunReport, err error) {
	nerr := s.notifier.Notify(ctx, report.summary(err))
	if nerr != nil {
		s.tel.ReportWarning(report_notify, nerr)
	}
}

// Run performs one full run. Source failures are only reported, a run with
// nothing to emit returns without touching the sheet, and any failure to read
// the watch list or write the rows is returned.
func (s Service) Run(ctx context.Context) (RunReport, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	report, batch, err := s.Prepare(ctx)
	if errors.Is(err, ranking.ErrNothingToEmit) {
		s.tel.ReportDebug(report_nothing_to_do, report.Date, report.Scraped)
		return report, nil
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.notify(ctx, report, err)
		return report, err
	}

	err = s.write(ctx, &report, batch)
	s.notify(ctx, report, err)
	if err != nil {
		return report, err
	}
	return report, nil
}
