package ranking

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func matched(category string, rankingType RankingType, rank int, name string) MatchedRecord {
	return MatchedRecord{
		EnrichedRecord: EnrichedRecord{
			Rank:     rank,
			Name:     name,
			Type:     rankingType,
			Category: category,
		},
		DisplayName: name,
	}
}

func TestOrderPrecedence(t *testing.T) {
	records := []MatchedRecord{
		matched(LABEL_TIMESLOT, TYPE_TIMESLOT_NIGHT, 1, "よる"),
		matched("謎", TYPE_DAILY, 1, "なぞ"),
		matched("あちゃ", TYPE_MONTHLY, 1, "つき"),
		matched("あちゃ", TYPE_DAILY, 3, "さん"),
		matched("あちゃ", TYPE_DAILY, 1, "いち"),
		matched("まちゃ", "謎の種類", 1, "しゅ"),
		matched("まちゃ", TYPE_WEEKLY, 10, "じゅう"),
		matched(LABEL_NEWCOMER, TYPE_NEWCOMER_DAILY, 2, "しん"),
	}

	var names []string
	for _, record := range Order(records, DefaultPriorities()) {
		names = append(names, record.DisplayName)
	}

	expected := []string{"いち", "さん", "つき", "じゅう", "しゅ", "しん", "よる", "なぞ"}
	diff := cmp.Diff(expected, names)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestOrderCollation(t *testing.T) {
	records := []MatchedRecord{
		matched("あちゃ", TYPE_DAILY, 1, "さくら"),
		matched("あちゃ", TYPE_DAILY, 1, "カナ"),
		matched("あちゃ", TYPE_DAILY, 1, "あおい"),
	}

	ordered := Order(records, DefaultPriorities())
	require.Equal(t, "あおい", ordered[0].DisplayName)
	// katakana カ sorts with hiragana か, before さ, unlike byte order
	require.Equal(t, "カナ", ordered[1].DisplayName)
	require.Equal(t, "さくら", ordered[2].DisplayName)
}

func TestOrderStable(t *testing.T) {
	var records []MatchedRecord
	for i := 0; i < 20; i++ {
		record := matched("あちゃ", TYPE_DAILY, 1, "さくら")
		// Name differs so ties stay distinguishable, it is not a sort key.
		record.Name = string(rune('a' + i))
		records = append(records, record)
	}
	records = append(records, matched("まちゃ", TYPE_DAILY, 1, "はな"))

	shuffled := make([]MatchedRecord, len(records))
	copy(shuffled, records)
	rng := rand.New(rand.NewSource(7))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	first := Order(shuffled, DefaultPriorities())
	second := Order(first, DefaultPriorities())
	require.Equal(t, first, second)

	var tiedInput, tiedOutput []string
	for _, record := range shuffled {
		if record.DisplayName == "さくら" {
			tiedInput = append(tiedInput, record.Name)
		}
	}
	for _, record := range first {
		if record.DisplayName == "さくら" {
			tiedOutput = append(tiedOutput, record.Name)
		}
	}
	require.Equal(t, tiedInput, tiedOutput)
	require.Equal(t, "はな", first[len(first)-1].DisplayName)
}

func TestOrderDoesNotMutateInput(t *testing.T) {
	records := []MatchedRecord{
		matched("まちゃ", TYPE_DAILY, 1, "b"),
		matched("あちゃ", TYPE_DAILY, 1, "a"),
	}
	Order(records, DefaultPriorities())
	require.Equal(t, "b", records[0].DisplayName)
}

func TestOrderBadLanguageFallsBack(t *testing.T) {
	priorities := DefaultPriorities()
	priorities.Language = "not a language tag!"
	ordered := Order([]MatchedRecord{
		matched("あちゃ", TYPE_DAILY, 1, "さくら"),
		matched("あちゃ", TYPE_DAILY, 1, "あおい"),
	}, priorities)
	require.Equal(t, "あおい", ordered[0].DisplayName)
}
