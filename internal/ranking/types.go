// Package ranking turns ranking page markup into ordered, compactly formatted
// output rows for the names on a watch list.
package ranking

// RankingType is the time window or cohort a rank entry belongs to.
type RankingType string

// Source is one ranking page, the label doubles as the category of every
// record it yields.
type Source struct {
	Label string `json:"label"`
	Url   string `json:"url"`
}

// RawRecord is one name-bearing cell of a ranking row.
type RawRecord struct {
	Rank   int
	Name   string
	Column int
}

type EnrichedRecord struct {
	Rank     int
	Name     string
	Type     RankingType
	Category string
}

type TargetEntry struct {
	Name             string
	OverrideCategory string
}

type MatchedRecord struct {
	EnrichedRecord
	DisplayName string
}

type OutputRow struct {
	Date     string
	Name     string
	Category string
	Type     RankingType
	Rank     int
}

// Cells returns the row in sheet column order.
func (r OutputRow) Cells() []any {
	return []any{r.Date, r.Name, r.Category, string(r.Type), r.Rank}
}
