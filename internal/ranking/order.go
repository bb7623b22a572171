package ranking

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// UNKNOWN_PRIORITY is the priority of any category or type missing from the
// priority tables, it sorts after every known value.
const UNKNOWN_PRIORITY = 99

type Priorities struct {
	Categories map[string]int      `json:"categories"`
	Types      map[RankingType]int `json:"types"`
	// Language selects the collation used to break ties between display names.
	Language string `json:"language"`
}

func DefaultPriorities() Priorities {
	return Priorities{
		Categories: map[string]int{
			"あちゃ":          1,
			"まちゃ":          2,
			"おちゃ":          3,
			LABEL_NEWCOMER: 4,
			LABEL_TIMESLOT: 5,
		},
		Types: map[RankingType]int{
			TYPE_DAILY:            1,
			TYPE_WEEKLY:           2,
			TYPE_MONTHLY:          3,
			TYPE_NEWCOMER_DAILY:   4,
			TYPE_NEWCOMER_WEEKLY:  5,
			TYPE_TIMESLOT_MORNING: 6,
			TYPE_TIMESLOT_MIDDAY:  7,
			TYPE_TIMESLOT_NIGHT:   8,
		},
		Language: "ja",
	}
}

func (p Priorities) category(name string) int {
	priority, ok := p.Categories[name]
	if !ok {
		return UNKNOWN_PRIORITY
	}
	return priority
}

func (p Priorities) rankingType(t RankingType) int {
	priority, ok := p.Types[t]
	if !ok {
		return UNKNOWN_PRIORITY
	}
	return priority
}

func (p Priorities) collator() *collate.Collator {
	tag, err := language.Parse(p.Language)
	if err != nil {
		tag = language.Japanese
	}
	return collate.New(tag)
}

// Order returns a copy of records sorted by category priority, type priority,
// rank and then display name collation. The sort is stable so records equal
// on all four keys keep their relative order.
func Order(records []MatchedRecord, priorities Priorities) []MatchedRecord {
	out := slices.Clone(records)
	collator := priorities.collator()

	slices.SortStableFunc(out, func(a, b MatchedRecord) int {
		if c := cmp.Compare(priorities.category(a.Category), priorities.category(b.Category)); c != 0 {
			return c
		}
		if c := cmp.Compare(priorities.rankingType(a.Type), priorities.rankingType(b.Type)); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Rank, b.Rank); c != 0 {
			return c
		}
		return collator.CompareString(a.DisplayName, b.DisplayName)
	})
	return out
}
