package ranking

import "time"

// Options is everything the pipeline needs besides its inputs.
type Options struct {
	Selectors    Selectors    `json:"selectors"`
	Vocabularies Vocabularies `json:"vocabularies"`
	Priorities   Priorities   `json:"priorities"`
}

func DefaultOptions() Options {
	return Options{
		Selectors:    DefaultSelectors(),
		Vocabularies: DefaultVocabularies(),
		Priorities:   DefaultPriorities(),
	}
}

// ProcessPage runs the source adapter and type resolver over one page's markup.
func ProcessPage(source Source, markup string, opts Options) SourceResult {
	page, err := ParsePage(markup, source.Label, opts.Selectors)
	if err != nil {
		return SourceResult{Source: source, Err: err}
	}
	return SourceResult{
		Source:  source,
		Month:   page.Month,
		Records: Enrich(page, opts.Vocabularies),
	}
}

// Batch is the output of a run, ready to be appended to a sheet.
type Batch struct {
	Matched []MatchedRecord
	Rows    []OutputRow
	// Month is the reference month of the run, it names the sheet tab.
	Month int
}

// Sheet returns the label of the sheet tab this batch belongs to.
func (b Batch) Sheet() string {
	return SheetLabel(b.Month)
}

// Values returns the rows as a 2D value batch.
func (b Batch) Values() [][]any {
	out := make([][]any, len(b.Rows))
	for i, row := range b.Rows {
		out[i] = row.Cells()
	}
	return out
}

// Build matches, orders and formats an aggregation. The reference month is the
// aggregation's month, or now's month when no page carried one. It returns
// ErrNothingToEmit (with the month still set) when nothing matched.
func Build(agg Aggregation, targets []TargetEntry, now time.Time, opts Options) (Batch, error) {
	batch := Batch{Month: agg.Month}
	if batch.Month == 0 {
		batch.Month = int(now.Month())
	}

	matched := Match(agg.Records, targets)
	if len(matched) == 0 {
		return batch, ErrNothingToEmit
	}
	batch.Matched = Order(matched, opts.Priorities)

	rows, err := Format(batch.Matched, DateLabel(now))
	if err != nil {
		return batch, err
	}
	batch.Rows = rows
	return batch, nil
}
