package ranking

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const primaryMarkup = `<html><body>
<div class="rank_title">ランキング</div>
<p>集計日 5/12 更新</p>
<table>
	<tr class="rank1">
		<td><a class="listbox-rank js-lc-i3Link"><img class="cgimg" alt="さくら"></a></td>
		<td><a class="listbox-rank js-lc-i3Link">  花  </a></td>
		<td><span>no anchor here</span></td>
	</tr>
	<tr class="rank2">
		<td><a class="listbox-rank js-lc-i3Link"><img class="cgimg" alt=""></a></td>
		<td><a class="listbox-rank js-lc-i3Link"><img class="cgimg" alt="月"><span>ignored</span></a></td>
	</tr>
	<tr class="rank3">
		<td><a class="listbox-rank js-lc-i3Link"><img class="cgimg" alt=" "> ゆき </a></td>
	</tr>
</table>
</body></html>`

func collect(t *testing.T, page Page) []RawRecord {
	t.Helper()
	var out []RawRecord
	for record := range page.Records() {
		out = append(out, record)
	}
	return out
}

func TestParsePagePrimary(t *testing.T) {
	page, err := ParsePage(primaryMarkup, "あちゃ", DefaultSelectors())
	require.NoError(t, err)
	require.Equal(t, 5, page.Month)

	expected := []RawRecord{
		{Rank: 1, Name: "さくら", Column: 0},
		{Rank: 1, Name: "花", Column: 1},
		{Rank: 2, Name: "月", Column: 1},
		{Rank: 3, Name: "ゆき", Column: 0},
	}
	diff := cmp.Diff(expected, collect(t, page))
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestParsePageFallback(t *testing.T) {
	markup := `<div id="ranking"><table>
		<tr><th>順位</th><th>日間</th></tr>
		<tr><td><a class="listbox-rank">ゆき</a></td><td><a class="listbox-rank">みか</a></td></tr>
		<tr><td></td><td><a class="listbox-rank">はな</a></td></tr>
	</table></div>`

	page, err := ParsePage(markup, "まちゃ", DefaultSelectors())
	require.NoError(t, err)
	require.Equal(t, 0, page.Month)

	expected := []RawRecord{
		{Rank: 1, Name: "ゆき", Column: 0},
		{Rank: 1, Name: "みか", Column: 1},
		{Rank: 2, Name: "はな", Column: 1},
	}
	diff := cmp.Diff(expected, collect(t, page))
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestParsePageSecondFallback(t *testing.T) {
	markup := `<table class="ranking"><tr><td><a class="listbox-rank">ゆき</a></td></tr></table>`
	page, err := ParsePage(markup, "おちゃ", DefaultSelectors())
	require.NoError(t, err)
	require.Equal(t, []RawRecord{{Rank: 1, Name: "ゆき", Column: 0}}, collect(t, page))
}

func TestParsePageNoContainer(t *testing.T) {
	_, err := ParsePage(`<html><body><p>maintenance</p></body></html>`, "新人", DefaultSelectors())
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNoRankingContainer))
}

func TestParsePageEmptyNamesDropped(t *testing.T) {
	markup := `<table>
		<tr class="rank1">
			<td><a class="listbox-rank"><img class="cgimg" alt=""></a></td>
			<td><a class="listbox-rank">   </a></td>
		</tr>
	</table>`
	page, err := ParsePage(markup, "あちゃ", DefaultSelectors())
	require.NoError(t, err)
	require.Empty(t, collect(t, page))

	for _, record := range Enrich(page, DefaultVocabularies()) {
		require.NotEmpty(t, record.Name)
	}
}

func TestRecordsStopsEarly(t *testing.T) {
	page, err := ParsePage(primaryMarkup, "あちゃ", DefaultSelectors())
	require.NoError(t, err)

	seen := 0
	for range page.Records() {
		seen++
		break
	}
	require.Equal(t, 1, seen)
}

func TestEnrich(t *testing.T) {
	page, err := ParsePage(primaryMarkup, LABEL_NEWCOMER, DefaultSelectors())
	require.NoError(t, err)

	expected := []EnrichedRecord{
		{Rank: 1, Name: "さくら", Type: TYPE_NEWCOMER_DAILY, Category: LABEL_NEWCOMER},
		{Rank: 1, Name: "花", Type: TYPE_NEWCOMER_WEEKLY, Category: LABEL_NEWCOMER},
		{Rank: 2, Name: "月", Type: TYPE_NEWCOMER_WEEKLY, Category: LABEL_NEWCOMER},
		{Rank: 3, Name: "ゆき", Type: TYPE_NEWCOMER_DAILY, Category: LABEL_NEWCOMER},
	}
	diff := cmp.Diff(expected, Enrich(page, DefaultVocabularies()))
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestProcessPage(t *testing.T) {
	source := Source{Label: "あちゃ", Url: "https://example.com/acha"}

	result := ProcessPage(source, primaryMarkup, DefaultOptions())
	require.NoError(t, result.Err)
	require.Equal(t, 5, result.Month)
	require.Len(t, result.Records, 4)

	result = ProcessPage(source, `<p>nothing</p>`, DefaultOptions())
	require.ErrorIs(t, result.Err, ErrNoRankingContainer)
	require.Empty(t, result.Records)
}

func TestParsePageImageWithoutClass(t *testing.T) {
	markup := `<table>
		<tr class="rank1">
			<td><a class="listbox-rank"><img alt="さくら"></a></td>
			<td><a class="listbox-rank"><img src="x.png"> 花 </a></td>
		</tr>
	</table>`
	page, err := ParsePage(markup, "あちゃ", DefaultSelectors())
	require.NoError(t, err)

	expected := []RawRecord{
		{Rank: 1, Name: "さくら", Column: 0},
		{Rank: 1, Name: "花", Column: 1},
	}
	diff := cmp.Diff(expected, collect(t, page))
	if diff != "" {
		t.Fatal(diff)
	}
}
