package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	sheetsapi "google.golang.org/api/sheets/v4"
	"google.golang.org/api/option"
)

// ErrSheetNotFound is returned when a required sheet tab is missing from the
// spreadsheet. Callers treat this as fatal setup failure.
var ErrSheetNotFound = errors.New("sheet not found")

// Service wraps the Sheets API for one spreadsheet: the purchase ledger and
// the processed-message log both live as tabs inside it.
type Service struct {
	api           *sheetsapi.Service
	spreadsheetID string
	logger        *slog.Logger
}

// NewService builds a Sheets client over an already-authenticated HTTP
// client.
func NewService(ctx context.Context, httpClient *http.Client, spreadsheetID string, logger *slog.Logger) (*Service, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet ID is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	api, err := sheetsapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	return &Service{api: api, spreadsheetID: spreadsheetID, logger: logger}, nil
}

// FindSheet verifies that a tab with the given title exists.
func (s *Service) FindSheet(ctx context.Context, title string) error {
	ok, err := s.sheetExists(ctx, title)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrSheetNotFound, title)
	}
	return nil
}

// EnsureSheet creates a hidden tab with a header row when it does not exist
// yet. Used for the processed-message log.
func (s *Service) EnsureSheet(ctx context.Context, title string, header []string) error {
	ok, err := s.sheetExists(ctx, title)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	s.logger.Info("Creating log sheet", "title", title)
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{Title: title, Hidden: true},
			},
		}},
	}
	if _, err := s.api.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", title, err)
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	return s.writeRange(ctx, fmt.Sprintf("%s!A1", quoteTitle(title)), [][]interface{}{headerRow})
}

// ReadColumn returns the trimmed non-empty values of a 1-based column,
// excluding the header row.
func (s *Service) ReadColumn(ctx context.Context, title string, col int) ([]string, error) {
	letter := columnLetter(col)
	readRange := fmt.Sprintf("%s!%s2:%s", quoteTitle(title), letter, letter)

	resp, err := s.api.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read column %s of sheet %q: %w", letter, title, err)
	}

	var values []string
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if v := strings.TrimSpace(fmt.Sprint(row[0])); v != "" {
			values = append(values, v)
		}
	}
	return values, nil
}

// AppendRow appends one data row below the sheet's current content.
func (s *Service) AppendRow(ctx context.Context, title string, values []interface{}) error {
	body := &sheetsapi.ValueRange{Values: [][]interface{}{values}}
	_, err := s.api.Spreadsheets.Values.
		Append(s.spreadsheetID, fmt.Sprintf("%s!A1", quoteTitle(title)), body).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append row to sheet %q: %w", title, err)
	}
	return nil
}

// ClearAndRewrite replaces the sheet's entire content with a header row plus
// the given data rows. This is the processed-log save: a full rewrite, not
// an append.
func (s *Service) ClearAndRewrite(ctx context.Context, title string, header []string, rows [][]interface{}) error {
	_, err := s.api.Spreadsheets.Values.
		Clear(s.spreadsheetID, quoteTitle(title), &sheetsapi.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear sheet %q: %w", title, err)
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	values := append([][]interface{}{headerRow}, rows...)
	return s.writeRange(ctx, fmt.Sprintf("%s!A1", quoteTitle(title)), values)
}

func (s *Service) writeRange(ctx context.Context, writeRange string, values [][]interface{}) error {
	body := &sheetsapi.ValueRange{Values: values}
	_, err := s.api.Spreadsheets.Values.
		Update(s.spreadsheetID, writeRange, body).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write range %s: %w", writeRange, err)
	}
	return nil
}

func (s *Service) sheetExists(ctx context.Context, title string) (bool, error) {
	resp, err := s.api.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("failed to get spreadsheet: %w", err)
	}
	for _, sheet := range resp.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return true, nil
		}
	}
	return false, nil
}

// columnLetter converts a 1-based column index to its A1-notation letters.
func columnLetter(col int) string {
	if col < 1 {
		col = 1
	}
	var letters []byte
	for col > 0 {
		col--
		letters = append([]byte{byte('A' + col%26)}, letters...)
		col /= 26
	}
	return string(letters)
}

// quoteTitle wraps a sheet title in single quotes for A1 notation, escaping
// embedded quotes.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
