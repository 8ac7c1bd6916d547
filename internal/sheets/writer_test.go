package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/xaenox/dm-organizer/internal/models"
)

type updateCall struct {
	rangeRef string
	values   [][]interface{}
}

// fakeBackend stands in for the Sheets values API: reads serve the stored
// grid, writes are recorded.
type fakeBackend struct {
	values       [][]interface{}
	updates      []updateCall
	appends      [][]interface{}
	clears       []string
	batchUpdates int
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, ":append"):
		var vr sheetsapi.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		b.appends = append(b.appends, vr.Values...)
		fmt.Fprint(w, "{}")
	case strings.HasSuffix(path, ":clear"):
		b.clears = append(b.clears, rangeFromPath(strings.TrimSuffix(path, ":clear")))
		fmt.Fprint(w, "{}")
	case strings.HasSuffix(path, ":batchUpdate"):
		b.batchUpdates++
		fmt.Fprint(w, "{}")
	case strings.Contains(path, "/values/"):
		if r.Method == http.MethodPut {
			var vr sheetsapi.ValueRange
			_ = json.NewDecoder(r.Body).Decode(&vr)
			b.updates = append(b.updates, updateCall{rangeRef: rangeFromPath(path), values: vr.Values})
			fmt.Fprint(w, "{}")
			return
		}
		vals := b.values
		if strings.HasSuffix(rangeFromPath(path), "!1:1") && len(vals) > 1 {
			vals = vals[:1]
		}
		_ = json.NewEncoder(w).Encode(&sheetsapi.ValueRange{Values: vals})
	default:
		_ = json.NewEncoder(w).Encode(&sheetsapi.Spreadsheet{
			Sheets: []*sheetsapi.Sheet{{Properties: &sheetsapi.SheetProperties{SheetId: 42, Title: "Sheet1"}}},
		})
	}
}

func rangeFromPath(path string) string {
	return path[strings.Index(path, "/values/")+len("/values/"):]
}

func testWriter(t *testing.T, backend *fakeBackend) *Writer {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	svc, err := sheetsapi.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL),
	)
	require.NoError(t, err)

	return &Writer{
		svc:           svc,
		spreadsheetID: "sheet-1",
		sheetName:     "Sheet1",
		logger:        zap.NewNop(),
	}
}

func TestUpsertRows_UpdatesExistingAndAppendsNew(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{values: [][]interface{}{
		headerValues(),
		{"bob", "100", "Bob", "", "", "", "", "FALSE", "old summary", 1, "2024-01-01 10:00:00"},
	}}
	w := testWriter(t, backend)

	rows := []models.OutputRow{
		{CounterpartID: "100", Username: "bob", SummaryText: "new summary", MessageCount: 2, LastMessageAt: "2024-03-01 10:00:00"},
		{CounterpartID: "200", Username: "ann", SummaryText: "first summary", MessageCount: 1, LastMessageAt: "2024-03-02 10:00:00"},
	}

	written, err := w.UpsertRows(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	require.Len(t, backend.updates, 1, "the existing key is updated in place")
	assert.Contains(t, backend.updates[0].rangeRef, "A2:K2")
	require.Len(t, backend.updates[0].values, 1)
	assert.Equal(t, "100", backend.updates[0].values[0][1])
	assert.Equal(t, "new summary", backend.updates[0].values[0][8])

	require.Len(t, backend.appends, 1, "the new key is appended")
	assert.Equal(t, "200", backend.appends[0][1])
}

func TestUpsertRows_SchemaMismatchWritesNothing(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{values: [][]interface{}{
		{"Name", "Email", "Phone"},
		{"bob", "b@example.com", "555"},
	}}
	w := testWriter(t, backend)

	written, err := w.UpsertRows(context.Background(), []models.OutputRow{{CounterpartID: "100"}})

	assert.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Equal(t, 0, written)
	assert.Empty(t, backend.updates)
	assert.Empty(t, backend.appends)
}

func TestUpsertRows_NoRowsIsNoop(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	w := testWriter(t, backend)

	written, err := w.UpsertRows(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, written)
	assert.Empty(t, backend.updates)
}

func TestEnsureHeaders_WritesMissingHeader(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	w := testWriter(t, backend)

	require.NoError(t, w.EnsureHeaders(context.Background()))

	require.Len(t, backend.updates, 1)
	assert.Contains(t, backend.updates[0].rangeRef, "1:1")
	require.Len(t, backend.updates[0].values, 1)
	assert.Equal(t, "Username", backend.updates[0].values[0][0])
	assert.Equal(t, 1, backend.batchUpdates, "the fresh header gets formatted")
}

func TestEnsureHeaders_LeavesMatchingHeaderAlone(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{values: [][]interface{}{headerValues()}}
	w := testWriter(t, backend)

	require.NoError(t, w.EnsureHeaders(context.Background()))
	assert.Empty(t, backend.updates)
	assert.Equal(t, 0, backend.batchUpdates)
}

func TestClear_TargetsDataRowsOnly(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	w := testWriter(t, backend)

	require.NoError(t, w.Clear(context.Background()))

	require.Len(t, backend.clears, 1)
	assert.Contains(t, backend.clears[0], "A2:K")
	assert.Contains(t, backend.clears[0], "Sheet1")
}
