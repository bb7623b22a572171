// Package tablestore abstracts the spreadsheet-like store that holds the
// watch list and receives output rows.
package tablestore

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Store reads and appends rows addressed by A1 ranges such as "5月!A:E".
type Store interface {
	ReadRange(ctx context.Context, a1 string) ([][]string, error)
	SheetExists(ctx context.Context, title string) (bool, error)
	CreateSheet(ctx context.Context, title string) error
	// AppendRows writes rows after the last non-empty row of the range.
	AppendRows(ctx context.Context, a1 string, rows [][]any) error
}

// Range is a parsed A1 range limited to whole columns, FirstColumn and
// LastColumn are 0-based and inclusive.
type Range struct {
	Sheet       string
	FirstColumn int
	LastColumn  int
}

func (r Range) String() string {
	return fmt.Sprintf("%s!%s:%s", r.Sheet, ColumnName(r.FirstColumn), ColumnName(r.LastColumn))
}

// ColumnName converts a 0-based column index into its letter name (0 -> A,
// 26 -> AA).
func ColumnName(index int) string {
	var reversed []byte
	for index >= 0 {
		reversed = append(reversed, byte('A'+index%26))
		index = index/26 - 1
	}
	slices.Reverse(reversed)
	return string(reversed)
}

func parseColumn(ref string) (int, error) {
	letters := strings.TrimRightFunc(ref, func(r rune) bool {
		return r >= '0' && r <= '9'
	})
	if letters == "" {
		return 0, fmt.Errorf("no column in %q", ref)
	}
	index := 0
	for _, r := range strings.ToUpper(letters) {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("invalid column %q", ref)
		}
		index = index*26 + int(r-'A'+1)
	}
	return index - 1, nil
}

// ParseRange parses "<sheet>!<col>[row]:<col>[row]". Row numbers are accepted
// but ignored, a single cell reference selects one column.
func ParseRange(a1 string) (Range, error) {
	sep := strings.LastIndex(a1, "!")
	if sep <= 0 {
		return Range{}, fmt.Errorf("range %q has no sheet", a1)
	}
	sheet := strings.Trim(a1[:sep], "'")
	if sheet == "" {
		return Range{}, fmt.Errorf("range %q has no sheet", a1)
	}

	from, to, ok := strings.Cut(a1[sep+1:], ":")
	if !ok {
		to = from
	}
	first, err := parseColumn(from)
	if err != nil {
		return Range{}, err
	}
	last, err := parseColumn(to)
	if err != nil {
		return Range{}, err
	}
	if last < first {
		first, last = last, first
	}
	return Range{Sheet: sheet, FirstColumn: first, LastColumn: last}, nil
}
