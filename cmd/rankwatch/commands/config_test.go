package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"rankwatch/internal/ranking"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT", `{"type": "service_account"}`)
	t.Setenv("RANKWATCH_SPREADSHEET_ID", "sheet-id")

	config, err := loadConfig(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)

	require.Equal(t, SINK_SHEETS, config.Sink)
	require.Equal(t, FETCHER_BROWSER, config.Fetcher.Kind)
	require.Equal(t, "sheet-id", config.Sheets.SpreadsheetId)
	require.Equal(t, "0 10 * * *", config.Schedule)
	require.Len(t, config.Sources, 5)

	opts := config.serviceOptions()
	require.Equal(t, "検索リスト!B:C", opts.TargetRange)
	require.Equal(t, 3*time.Minute, opts.SourceTimeout)

	fetchOpts := config.Fetcher.browserOptions()
	require.True(t, fetchOpts.Headless)
	require.Equal(t, 90*time.Second, fetchOpts.NavigationTimeout)
	require.Equal(t, 60*time.Second, fetchOpts.WaitTimeout)
	require.Equal(t, int64(1280), fetchOpts.ViewportWidth)

	credentials, err := config.Sheets.credentials()
	require.NoError(t, err)
	require.Contains(t, string(credentials), "service_account")
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		sink: "sqlite",
		sqlite: {file: ":memory:"},
		fetcher: {kind: "http", no_age_gate: true},
		sources: [{label: "あちゃ", url: "https://ranking.test/acha"}],
		pipeline: {priorities: {categories: {"あちゃ": 7}}},
	}`), 0600))

	config, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, SINK_SQLITE, config.Sink)
	require.Equal(t, []ranking.Source{{Label: "あちゃ", Url: "https://ranking.test/acha"}}, config.Sources)
	require.Empty(t, config.Fetcher.options().AgeGate)
	require.Equal(t, 7, config.Pipeline.Priorities.Categories["あちゃ"])
	require.Equal(t, 2, config.Pipeline.Priorities.Categories["まちゃ"])
	require.Equal(t, "a.listbox-rank", config.Pipeline.Selectors.Anchor)
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{sink: "csv"}`), 0600))

	_, err := loadConfig(path)
	require.Error(t, err)
}
