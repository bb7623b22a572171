package ranking

import "fmt"

// SourceResult is the outcome of fetching and parsing one source, Records is
// only meaningful when Err is nil.
type SourceResult struct {
	Source  Source
	Month   int
	Records []EnrichedRecord
	Err     error
}

type SourceError struct {
	Source Source
	Err    error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("source %s: %s", e.Source.Label, e.Err.Error())
}

func (e SourceError) Unwrap() error {
	return e.Err
}

type Aggregation struct {
	Records  []EnrichedRecord
	Failures []SourceError
	// Month is the first non-zero page month in source order, 0 if no page had one.
	Month int
}

// Aggregate concatenates the records of every successful source in the order
// given, failed sources only contribute a SourceError.
func Aggregate(results []SourceResult) Aggregation {
	var out Aggregation
	for _, result := range results {
		if result.Err != nil {
			out.Failures = append(out.Failures, SourceError{
				Source: result.Source,
				Err:    result.Err,
			})
			continue
		}
		if out.Month == 0 && result.Month != 0 {
			out.Month = result.Month
		}
		out.Records = append(out.Records, result.Records...)
	}
	return out
}
