package commands

import (
	"errors"
	"testing"

	"rankwatch/internal/ranking"
	"rankwatch/services/rankwatch"

	"github.com/stretchr/testify/require"
)

func attrMap(t *testing.T, attrs []any) map[string]any {
	t.Helper()
	require.Zero(t, len(attrs)%2)
	out := map[string]any{}
	for i := 0; i < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		require.True(t, ok)
		out[key] = attrs[i+1]
	}
	return out
}

func TestReportLineWritten(t *testing.T) {
	report := rankwatch.RunReport{
		Date:    "5/12(日)",
		Range:   "5月!A:E",
		Targets: 3,
		Scraped: 6,
		Matched: 4,
		Rows:    make([]ranking.OutputRow, 4),
		Written: true,
	}
	msg, attrs := reportLine(report, nil)
	require.Equal(t, "rows written", msg)

	values := attrMap(t, attrs)
	require.Equal(t, 6, values["scraped"])
	require.Equal(t, 4, values["matched"])
	require.Equal(t, 4, values["rows"])
	require.Equal(t, "5月!A:E", values["range"])
}

func TestReportLineNothingToWrite(t *testing.T) {
	msg, attrs := reportLine(rankwatch.RunReport{Scraped: 6}, nil)
	require.Equal(t, "nothing to write", msg)
	require.Equal(t, 6, attrMap(t, attrs)["scraped"])
}

func TestReportLineFailed(t *testing.T) {
	appendErr := errors.New("quota exceeded")
	msg, attrs := reportLine(rankwatch.RunReport{Scraped: 6, Matched: 2}, appendErr)
	require.Equal(t, "run failed", msg)

	values := attrMap(t, attrs)
	require.Equal(t, appendErr, values["err"])
	require.Equal(t, 2, values["matched"])
}
