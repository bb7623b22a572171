// Package sheets implements tablestore.Store on a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

var tracer = otel.Tracer("lib/tablestore/sheets")

// VALUE_INPUT_USER_ENTERED makes the sheet parse appended values as if they
// were typed in, so ranks become numbers.
const VALUE_INPUT_USER_ENTERED = "USER_ENTERED"

type Store struct {
	service       *gsheets.Service
	spreadsheetId string
}

// NewStore connects to a spreadsheet, opts usually carry the service account
// credentials.
func NewStore(ctx context.Context, spreadsheetId string, opts ...option.ClientOption) (Store, error) {
	if spreadsheetId == "" {
		return Store{}, fmt.Errorf("spreadsheet id is empty")
	}
	service, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return Store{}, err
	}
	return Store{service: service, spreadsheetId: spreadsheetId}, nil
}

// CredentialsOption builds the client option for a service account key in
// JSON form.
func CredentialsOption(serviceAccountJson []byte) option.ClientOption {
	return option.WithCredentialsJSON(serviceAccountJson)
}

// Scopes returns the OAuth scope needed to read and append values.
func Scopes() option.ClientOption {
	return option.WithScopes(gsheets.SpreadsheetsScope)
}

func stringify(values [][]any) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			if cell == nil {
				continue
			}
			out[i][j] = fmt.Sprint(cell)
		}
	}
	return out
}

func (s Store) ReadRange(ctx context.Context, a1 string) ([][]string, error) {
	ctx, span := tracer.Start(ctx, "sheets:ReadRange")
	defer span.End()
	span.SetAttributes(attribute.String("range", a1))

	res, err := s.service.Spreadsheets.Values.
		Get(s.spreadsheetId, a1).
		Context(ctx).
		Do()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("read %s: %w", a1, err)
	}
	return stringify(res.Values), nil
}

func (s Store) SheetExists(ctx context.Context, title string) (bool, error) {
	ctx, span := tracer.Start(ctx, "sheets:SheetExists")
	defer span.End()

	res, err := s.service.Spreadsheets.
		Get(s.spreadsheetId).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	for _, sheet := range res.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (s Store) CreateSheet(ctx context.Context, title string) error {
	ctx, span := tracer.Start(ctx, "sheets:CreateSheet")
	defer span.End()
	span.SetAttributes(attribute.String("title", title))

	_, err := s.service.Spreadsheets.
		BatchUpdate(s.spreadsheetId, &gsheets.BatchUpdateSpreadsheetRequest{
			Requests: []*gsheets.Request{
				{
					AddSheet: &gsheets.AddSheetRequest{
						Properties: &gsheets.SheetProperties{Title: title},
					},
				},
			},
		}).
		Context(ctx).
		Do()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("create sheet %s: %w", title, err)
	}
	return nil
}

func (s Store) AppendRows(ctx context.Context, a1 string, rows [][]any) error {
	ctx, span := tracer.Start(ctx, "sheets:AppendRows")
	defer span.End()
	span.SetAttributes(
		attribute.String("range", a1),
		attribute.Int("rows", len(rows)),
	)

	_, err := s.service.Spreadsheets.Values.
		Append(s.spreadsheetId, a1, &gsheets.ValueRange{Values: rows}).
		ValueInputOption(VALUE_INPUT_USER_ENTERED).
		Context(ctx).
		Do()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("append %s: %w", a1, err)
	}
	return nil
}
