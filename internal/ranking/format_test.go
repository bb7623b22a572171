package ranking

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var jst = time.FixedZone("JST", 9*60*60)

func TestDateLabel(t *testing.T) {
	cases := []struct {
		now    time.Time
		expect string
	}{
		{now: time.Date(2024, time.May, 1, 9, 0, 0, 0, jst), expect: "4/30(火)"},
		{now: time.Date(2024, time.March, 1, 0, 30, 0, 0, jst), expect: "2/29(木)"},
		{now: time.Date(2025, time.January, 1, 23, 59, 0, 0, jst), expect: "12/31(火)"},
		{now: time.Date(2024, time.May, 13, 10, 0, 0, 0, jst), expect: "5/12(日)"},
	}
	for _, test := range cases {
		require.Equal(t, test.expect, DateLabel(test.now))
	}
}

func TestSheetLabel(t *testing.T) {
	require.Equal(t, "5月", SheetLabel(5))
	require.Equal(t, "12月", SheetLabel(12))
}

func TestFormatEmpty(t *testing.T) {
	rows, err := Format(nil, "4/30(火)")
	require.ErrorIs(t, err, ErrNothingToEmit)
	require.Nil(t, rows)
}

func TestFormatGroups(t *testing.T) {
	records := []MatchedRecord{
		matched("あちゃ", TYPE_DAILY, 1, "花"),
		matched("あちゃ", TYPE_DAILY, 2, "さくら"),
		matched("あちゃ", TYPE_WEEKLY, 4, "花"),
		matched("まちゃ", TYPE_MONTHLY, 9, "つき"),
		matched(LABEL_NEWCOMER, TYPE_NEWCOMER_DAILY, 1, "さくら"),
	}

	rows, err := Format(records, "4/30(火)")
	require.NoError(t, err)

	expected := []OutputRow{
		{Date: "4/30(火)", Name: "花", Category: "あちゃ", Type: TYPE_DAILY, Rank: 1},
		{Date: "", Name: "", Category: "あちゃ", Type: TYPE_WEEKLY, Rank: 4},
		{Date: "", Name: "さくら", Category: "あちゃ", Type: TYPE_DAILY, Rank: 2},
		{Date: "", Name: "", Category: LABEL_NEWCOMER, Type: TYPE_NEWCOMER_DAILY, Rank: 1},
		{Date: "", Name: "つき", Category: "まちゃ", Type: TYPE_MONTHLY, Rank: 9},
	}
	diff := cmp.Diff(expected, rows)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestFormatInvariants(t *testing.T) {
	names := []string{"花", "さくら", "つき", "ゆき"}
	var records []MatchedRecord
	for i := 0; i < 40; i++ {
		records = append(records, matched("あちゃ", TYPE_DAILY, i+1, names[(i*7)%len(names)]))
	}

	rows, err := Format(records, "1/1(月)")
	require.NoError(t, err)
	require.Len(t, rows, len(records))

	dated := 0
	named := map[string]int{}
	for _, row := range rows {
		if row.Date != "" {
			dated++
		}
		if row.Name != "" {
			named[row.Name]++
		}
	}
	require.Equal(t, 1, dated)
	require.Equal(t, "1/1(月)", rows[0].Date)
	require.Len(t, named, len(names))
	for _, count := range named {
		require.Equal(t, 1, count)
	}
}

func TestOutputRowCells(t *testing.T) {
	row := OutputRow{Date: "4/30(火)", Name: "花", Category: "あちゃ", Type: TYPE_DAILY, Rank: 3}
	require.Equal(t, []any{"4/30(火)", "花", "あちゃ", "日間", 3}, row.Cells())
}
