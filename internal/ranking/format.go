package ranking

import (
	"errors"
	"fmt"
	"time"
)

var ErrNothingToEmit = errors.New("nothing to emit")

var weekdays = [7]string{"日", "月", "火", "水", "木", "金", "土"}

// DateLabel formats the calendar day before now as "M/D(W)", in now's location.
func DateLabel(now time.Time) string {
	yesterday := now.AddDate(0, 0, -1)
	return fmt.Sprintf(
		"%d/%d(%s)",
		int(yesterday.Month()),
		yesterday.Day(),
		weekdays[yesterday.Weekday()],
	)
}

// SheetLabel is the name of the sheet tab that holds a month's rows.
func SheetLabel(month int) string {
	return fmt.Sprintf("%d月", month)
}

// Format groups ordered records by display name, keeping the order in which
// names first appear, and emits one row per record. The date is written on the
// first row only and each name on the first row of its group only.
func Format(records []MatchedRecord, date string) ([]OutputRow, error) {
	if len(records) == 0 {
		return nil, ErrNothingToEmit
	}

	var order []string
	groups := map[string][]MatchedRecord{}
	for _, record := range records {
		if _, ok := groups[record.DisplayName]; !ok {
			order = append(order, record.DisplayName)
		}
		groups[record.DisplayName] = append(groups[record.DisplayName], record)
	}

	rows := make([]OutputRow, 0, len(records))
	for _, name := range order {
		for i, record := range groups[name] {
			row := OutputRow{
				Category: record.Category,
				Type:     record.Type,
				Rank:     record.Rank,
			}
			if len(rows) == 0 {
				row.Date = date
			}
			if i == 0 {
				row.Name = name
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}
