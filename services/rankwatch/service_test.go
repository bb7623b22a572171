package rankwatch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"rankwatch/internal/components/chrono"
	"rankwatch/internal/components/telemetry"
	"rankwatch/internal/ranking"
	"rankwatch/lib/fetcher"
	"rankwatch/lib/notify"
	"rankwatch/lib/tablestore"
	"rankwatch/lib/tablestore/sqlitestore"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

const achaPage = `<html><body>
<div class="rank_title">ランキング</div><p>5/12 更新</p>
<table>
<tr class="rank1">
	<td><a class="listbox-rank js-lc-i3Link"><img class="cgimg" alt="さくら★"></a></td>
	<td><a class="listbox-rank js-lc-i3Link"><img class="cgimg" alt="花"></a></td>
</tr>
<tr class="rank2">
	<td><a class="listbox-rank js-lc-i3Link"><img class="cgimg" alt="花"></a></td>
	<td><a class="listbox-rank js-lc-i3Link"><img class="cgimg" alt="ゆき"></a></td>
</tr>
</table></body></html>`

const newcomerPage = `<html><body><table>
<tr class="rank1">
	<td><a class="listbox-rank js-lc-i3Link"><img class="cgimg" alt="みか"></a></td>
	<td><a class="listbox-rank js-lc-i3Link"><img class="cgimg" alt="さくら★"></a></td>
</tr>
</table></body></html>`

type fakeFetcher struct {
	pages map[string]string
	mutex sync.Mutex
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, target string) (string, error) {
	f.mutex.Lock()
	f.calls = append(f.calls, target)
	f.mutex.Unlock()

	page, ok := f.pages[target]
	if !ok {
		<-ctx.Done()
		return "", fmt.Errorf("%w: %w", fetcher.ErrSelectorTimeout, ctx.Err())
	}
	return page, nil
}

func (f *fakeFetcher) Close() error {
	return nil
}

type recordingNotifier struct {
	summaries []notify.Summary
}

func (n *recordingNotifier) Notify(_ context.Context, summary notify.Summary) error {
	n.summaries = append(n.summaries, summary)
	return nil
}

// failingStore fails appends, everything else goes to the wrapped store.
type failingStore struct {
	tablestore.Store
	appendErr error
	appends   int
}

func (f *failingStore) AppendRows(ctx context.Context, a1 string, rows [][]any) error {
	f.appends++
	if f.appendErr != nil {
		return f.appendErr
	}
	return f.Store.AppendRows(ctx, a1, rows)
}

var testNow = time.Date(2024, time.May, 13, 10, 0, 0, 0, time.FixedZone("JST", 9*60*60))

func testSources() []ranking.Source {
	return []ranking.Source{
		{Label: "あちゃ", Url: "https://ranking.test/acha"},
		{Label: ranking.LABEL_TIMESLOT, Url: "https://ranking.test/timezone"},
		{Label: ranking.LABEL_NEWCOMER, Url: "https://ranking.test/newface"},
	}
}

func newStore(t *testing.T, targets [][]any) sqlitestore.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store, err := sqlitestore.NewStore(context.Background(), db)
	require.NoError(t, err)
	if targets != nil {
		require.NoError(t, store.Seed(context.Background(), DEFAULT_TARGET_RANGE, targets))
	}
	return store
}

type fixture struct {
	service  Service
	fetcher  *fakeFetcher
	recorder *telemetry.Recorder
	notifier *recordingNotifier
}

func setup(t *testing.T, store tablestore.Store) fixture {
	t.Helper()
	f := &fakeFetcher{pages: map[string]string{
		"https://ranking.test/acha":    achaPage,
		"https://ranking.test/newface": newcomerPage,
	}}
	recorder := &telemetry.Recorder{}
	notifier := &recordingNotifier{}

	opts := DefaultOptions()
	opts.Sources = testSources()
	opts.SourceTimeout = 50 * time.Millisecond

	service := NewService(
		f, store, chrono.FixedImpl{Time: testNow}, opts,
		WithTelemetryAPI(recorder),
		WithNotifier(notifier),
	)
	return fixture{service: service, fetcher: f, recorder: recorder, notifier: notifier}
}

func TestRun(t *testing.T) {
	store := newStore(t, [][]any{
		{"名前", "区分"},
		{"さくら★", ""},
		{" 花 ", "おちゃ"},
		{"", "まちゃ"},
		{"ゆきな"},
	})
	fix := setup(t, store)

	report, err := fix.service.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{
		"https://ranking.test/acha",
		"https://ranking.test/timezone",
		"https://ranking.test/newface",
	}, fix.fetcher.calls)
	require.Equal(t, 3, report.Targets)
	require.Equal(t, 6, report.Scraped)
	require.Equal(t, 4, report.Matched)
	require.Len(t, report.Failures, 1)
	require.Equal(t, ranking.LABEL_TIMESLOT, report.Failures[0].Source.Label)
	require.ErrorIs(t, report.FailureError(), fetcher.ErrSelectorTimeout)
	require.True(t, report.CreatedSheet)
	require.True(t, report.Written)
	require.Equal(t, "5月", report.Sheet)
	require.Equal(t, "5月!A:E", report.Range)

	rows, err := store.ReadRange(context.Background(), "5月!A:E")
	require.NoError(t, err)
	expected := [][]string{
		{"5/12(日)", "さくら", "あちゃ", "日間", "1"},
		{"", "", "新人", "新人週間", "1"},
		{"", "花", "おちゃ", "日間", "2"},
		{"", "", "おちゃ", "週間", "1"},
	}
	diff := cmp.Diff(expected, rows)
	if diff != "" {
		t.Fatal(diff)
	}

	require.Len(t, report.NearMisses, 1)
	require.Equal(t, "ゆきな", report.NearMisses[0].Target)
	require.Equal(t, "ゆき", report.NearMisses[0].Candidate)
	require.Len(t, fix.recorder.Find(telemetry.REPORT_WARNING, report_near_miss), 1)
	require.Len(t, fix.recorder.Find(telemetry.REPORT_WARNING, report_source_fetch), 1)

	counts := fix.recorder.Counts()
	require.Equal(t, int64(3), counts["rankwatch: "+report_targets_count])
	require.Equal(t, int64(4), counts["rankwatch: "+report_rows_count])

	require.Len(t, fix.notifier.summaries, 1)
	require.NoError(t, fix.notifier.summaries[0].Err)
	require.Equal(t, 4, fix.notifier.summaries[0].Rows)
	require.Len(t, fix.notifier.summaries[0].Failures, 1)
}

func TestRunAppendsToExistingSheet(t *testing.T) {
	store := newStore(t, [][]any{{"名前", "区分"}, {"みか"}})
	require.NoError(t, store.Seed(context.Background(), "5月!A:E", [][]any{
		{"5/11(土)", "みか", "新人", "新人日間", 3},
	}))
	fix := setup(t, store)

	report, err := fix.service.Run(context.Background())
	require.NoError(t, err)
	require.False(t, report.CreatedSheet)

	rows, err := store.ReadRange(context.Background(), "5月!A:E")
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"5/11(土)", "みか", "新人", "新人日間", "3"},
		{"5/12(日)", "みか", "新人", "新人日間", "1"},
	}, rows)
}

func TestRunNothingToEmit(t *testing.T) {
	wrapped := &failingStore{Store: newStore(t, [][]any{{"名前", "区分"}, {"だれでもない"}})}
	fix := setup(t, wrapped)

	report, err := fix.service.Run(context.Background())
	require.NoError(t, err)
	require.False(t, report.Written)
	require.Zero(t, report.Matched)
	require.Empty(t, report.Rows)
	require.Zero(t, wrapped.appends)
	require.Empty(t, fix.notifier.summaries)

	exists, err := wrapped.SheetExists(context.Background(), "5月")
	require.NoError(t, err)
	require.False(t, exists)
	require.NotEmpty(t, fix.recorder.Find(telemetry.REPORT_DEBUG, report_nothing_to_do))
}

func TestRunAppendFailure(t *testing.T) {
	appendErr := errors.New("quota exceeded")
	wrapped := &failingStore{
		Store:     newStore(t, [][]any{{"名前", "区分"}, {"花"}}),
		appendErr: appendErr,
	}
	fix := setup(t, wrapped)

	report, err := fix.service.Run(context.Background())
	require.ErrorIs(t, err, appendErr)
	require.False(t, report.Written)
	require.Equal(t, 1, wrapped.appends)
	require.NotEmpty(t, fix.recorder.Find(telemetry.REPORT_BROKEN, report_sheet_append))

	require.Len(t, fix.notifier.summaries, 1)
	require.ErrorIs(t, fix.notifier.summaries[0].Err, appendErr)
}

func TestRunMissingTargetList(t *testing.T) {
	fix := setup(t, newStore(t, nil))

	_, err := fix.service.Run(context.Background())
	require.Error(t, err)
	require.Empty(t, fix.fetcher.calls)
	require.NotEmpty(t, fix.recorder.Find(telemetry.REPORT_BROKEN, report_targets_load))
}

func TestPrepareMonthFallback(t *testing.T) {
	fix := setup(t, newStore(t, [][]any{{"名前", "区分"}, {"みか"}}))
	fix.service.opts.Sources = []ranking.Source{
		{Label: ranking.LABEL_NEWCOMER, Url: "https://ranking.test/newface"},
	}

	report, batch, err := fix.service.Prepare(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, batch.Month)
	require.Equal(t, "5月", report.Sheet)
	require.Len(t, report.Rows, 1)
}
