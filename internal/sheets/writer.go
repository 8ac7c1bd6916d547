package sheets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/xaenox/dm-organizer/internal/models"
)

// ErrSchemaMismatch signals a header row that no longer matches the
// expected columns. Writing would scramble data, so the write stage stops.
var ErrSchemaMismatch = errors.New("sheets: header row does not match expected schema")

// Writer upserts output rows into one worksheet, keyed by the User ID
// column.
type Writer struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        *zap.Logger
}

func NewWriter(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, logger *zap.Logger) (*Writer, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating sheets service: %v", err)
	}
	return &Writer{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}, nil
}

// EnsureHeaders writes the header row when it is missing or wrong and
// formats it. Doubles as the access check before processing starts.
func (w *Writer) EnsureHeaders(ctx context.Context) error {
	resp, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, w.rangeRef("1:1")).Context(ctx).Do()
	if err != nil {
		return wrapAPIError("reading header row", err)
	}
	if len(resp.Values) > 0 && headersMatch(resp.Values[0]) {
		return nil
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{headerValues()}}
	if _, err := w.svc.Spreadsheets.Values.Update(w.spreadsheetID, w.rangeRef("1:1"), vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return wrapAPIError("writing header row", err)
	}
	if err := w.formatHeader(ctx); err != nil {
		// cosmetic only
		w.logger.Warn("Failed to format header row", zap.Error(err))
	}
	w.logger.Info("Header row written", zap.String("sheet", w.sheetName))
	return nil
}

// Clear removes every data row below the header
func (w *Writer) Clear(ctx context.Context) error {
	_, err := w.svc.Spreadsheets.Values.Clear(w.spreadsheetID, w.rangeRef("A2:K"), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return wrapAPIError("clearing sheet", err)
	}
	w.logger.Info("Cleared existing rows", zap.String("sheet", w.sheetName))
	return nil
}

// UpsertRows writes rows keyed by the User ID column: an existing key
// updates its row in place, a new key appends. Rows go one at a time, so
// a failure partway leaves the rows already written intact. The caller
// passes at most one row per counterpart.
func (w *Writer) UpsertRows(ctx context.Context, rows []models.OutputRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	resp, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, w.rangeRef("A1:K")).Context(ctx).Do()
	if err != nil {
		return 0, wrapAPIError("reading sheet", err)
	}
	if len(resp.Values) == 0 || !headersMatch(resp.Values[0]) {
		return 0, ErrSchemaMismatch
	}
	index := keyIndex(resp.Values)

	written := 0
	for _, row := range rows {
		values := &sheets.ValueRange{Values: [][]interface{}{rowValues(row)}}
		if rowNum, ok := index[row.CounterpartID]; ok {
			ref := w.rangeRef(fmt.Sprintf("A%d:K%d", rowNum, rowNum))
			_, err = w.svc.Spreadsheets.Values.Update(w.spreadsheetID, ref, values).
				ValueInputOption("USER_ENTERED").Context(ctx).Do()
		} else {
			_, err = w.svc.Spreadsheets.Values.Append(w.spreadsheetID, w.rangeRef("A1:K"), values).
				ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		}
		if err != nil {
			return written, wrapAPIError(fmt.Sprintf("writing row for counterpart %s", row.CounterpartID), err)
		}
		written++
	}
	w.logger.Info("Rows written", zap.Int("count", written), zap.String("sheet", w.sheetName))
	return written, nil
}

func (w *Writer) formatHeader(ctx context.Context) error {
	sheetID, err := w.sheetID(ctx)
	if err != nil {
		return err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:       sheetID,
					StartRowIndex: 0,
					EndRowIndex:   1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat:      &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{Red: 0.85, Green: 0.85, Blue: 0.85},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		}},
	}
	if _, err := w.svc.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return wrapAPIError("formatting header row", err)
	}
	return nil
}

func (w *Writer) sheetID(ctx context.Context) (int64, error) {
	ss, err := w.svc.Spreadsheets.Get(w.spreadsheetID).
		Fields("sheets(properties(sheetId,title))").Context(ctx).Do()
	if err != nil {
		return 0, wrapAPIError("reading spreadsheet metadata", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == w.sheetName {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", w.sheetName)
}

func (w *Writer) rangeRef(ref string) string {
	return "'" + w.sheetName + "'!" + ref
}

// keyIndex maps counterpart IDs in the User ID column to their 1-based
// sheet row
func keyIndex(values [][]interface{}) map[string]int {
	index := make(map[string]int)
	for i, row := range values {
		if i == 0 || len(row) < 2 {
			continue
		}
		if id := fmt.Sprint(row[1]); id != "" {
			index[id] = i + 1
		}
	}
	return index
}

func headersMatch(row []interface{}) bool {
	if len(row) < len(Header) {
		return false
	}
	for i, want := range Header {
		if fmt.Sprint(row[i]) != want {
			return false
		}
	}
	return true
}

func wrapAPIError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == 401 || apiErr.Code == 403) {
		return fmt.Errorf("%s: permission denied, check the service account has access to the spreadsheet: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
