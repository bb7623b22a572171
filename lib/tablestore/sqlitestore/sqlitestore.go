// Package sqlitestore implements tablestore.Store on a sqlite (or libsql)
// database, it stands in for a spreadsheet when running offline.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"rankwatch/lib/tablestore"

	_ "embed"
)

//go:embed schema.sql
var Schema string

type Store struct {
	db *sql.DB
}

// NewStore creates the schema if it is missing.
func NewStore(ctx context.Context, db *sql.DB) (Store, error) {
	_, err := db.ExecContext(ctx, Schema)
	if err != nil {
		return Store{}, fmt.Errorf("create schema: %w", err)
	}
	return Store{db: db}, nil
}

func (s Store) ReadRange(ctx context.Context, a1 string) ([][]string, error) {
	r, err := tablestore.ParseRange(a1)
	if err != nil {
		return nil, err
	}
	exists, err := s.SheetExists(ctx, r.Sheet)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("read %s: no sheet named %s", a1, r.Sheet)
	}

	rows, err := s.db.QueryContext(
		ctx,
		`select row_index, col_index, value from cell
		where sheet = ? and col_index between ? and ?
		order by row_index, col_index`,
		r.Sheet, r.FirstColumn, r.LastColumn,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// rows are 0-based, blank rows inside the range come back empty and
	// trailing blank rows are dropped, as Sheets does
	var out [][]string
	for rows.Next() {
		var row, col int
		var value string
		err = rows.Scan(&row, &col, &value)
		if err != nil {
			return nil, err
		}
		for len(out) <= row {
			out = append(out, nil)
		}
		current := out[row]
		offset := col - r.FirstColumn
		for len(current) < offset {
			current = append(current, "")
		}
		out[row] = append(current, value)
	}
	return out, rows.Err()
}

func (s Store) SheetExists(ctx context.Context, title string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		"select count(*) from sheet where title = ?",
		title,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s Store) CreateSheet(ctx context.Context, title string) error {
	_, err := s.db.ExecContext(ctx, "insert into sheet(title) values (?)", title)
	if err != nil {
		return fmt.Errorf("create sheet %s: %w", title, err)
	}
	return nil
}

func cellText(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

func (s Store) AppendRows(ctx context.Context, a1 string, values [][]any) error {
	r, err := tablestore.ParseRange(a1)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "select count(*) from sheet where title = ?", r.Sheet).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("append %s: no sheet named %s", a1, r.Sheet)
	}

	var next int
	err = tx.QueryRowContext(
		ctx,
		"select coalesce(max(row_index) + 1, 0) from cell where sheet = ?",
		r.Sheet,
	).Scan(&next)
	if err != nil {
		return err
	}

	for i, row := range values {
		if len(row) > r.LastColumn-r.FirstColumn+1 {
			return fmt.Errorf("append %s: row %d has %d cells", a1, i, len(row))
		}
		for j, value := range row {
			_, err = tx.ExecContext(
				ctx,
				"insert into cell(sheet, row_index, col_index, value) values (?, ?, ?, ?)",
				r.Sheet, next+i, r.FirstColumn+j, cellText(value),
			)
			if err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Seed creates a sheet if needed and appends rows to it, it is how an offline
// watch list gets populated.
func (s Store) Seed(ctx context.Context, a1 string, values [][]any) error {
	r, err := tablestore.ParseRange(a1)
	if err != nil {
		return err
	}
	exists, err := s.SheetExists(ctx, r.Sheet)
	if err != nil {
		return err
	}
	if !exists {
		err = s.CreateSheet(ctx, r.Sheet)
		if err != nil {
			return err
		}
	}
	return s.AppendRows(ctx, a1, values)
}
