package sheets

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/dm-organizer/internal/models"
)

func sampleConv() models.Conversation {
	msgs := []models.Message{
		{MessageID: "1", SenderID: "100", Text: "hi", SentAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)},
		{MessageID: "2", SenderID: "self", Text: "let's ship it", SentAt: time.Date(2024, 3, 2, 18, 5, 7, 0, time.UTC)},
	}
	return models.Conversation{
		CounterpartID: "100",
		Messages:      msgs,
		Substantive:   msgs[1:],
		MessageCount:  2,
	}
}

func TestBuildRow_AssemblesAllColumns(t *testing.T) {
	t.Parallel()

	profile := models.Profile{
		CounterpartID: "100",
		Username:      "bob",
		DisplayName:   "Bob",
		Bio:           "Builder",
		Location:      "Berlin",
		Website:       "https://example.com",
		Verified:      true,
	}
	summary := models.SummaryResult{Text: "Shipped a thing.", Source: models.SummaryAI}
	linkedIn := models.LinkedInResult{URL: "https://www.linkedin.com/in/bob", Confidence: models.ConfidenceHigh, Method: models.MethodPattern}

	row := BuildRow(profile, sampleConv(), summary, linkedIn)

	assert.Equal(t, "100", row.CounterpartID)
	assert.Equal(t, "bob", row.Username)
	assert.Equal(t, "Bob", row.DisplayName)
	assert.Equal(t, "https://www.linkedin.com/in/bob", row.LinkedInURL)
	assert.Equal(t, "Berlin", row.Location)
	assert.Equal(t, "Builder", row.Bio)
	assert.Equal(t, "https://example.com", row.Website)
	assert.True(t, row.Verified)
	assert.Equal(t, "Shipped a thing.", row.SummaryText)
	assert.Equal(t, 2, row.MessageCount)
	assert.Equal(t, "2024-03-02 18:05:07", row.LastMessageAt)

	// pure assembly: the same inputs produce the same row
	assert.Equal(t, row, BuildRow(profile, sampleConv(), summary, linkedIn))
}

func TestBuildRow_PlaceholderUsername(t *testing.T) {
	t.Parallel()

	conv := sampleConv()
	conv.CounterpartID = "1234567890"

	row := BuildRow(models.Profile{}, conv, models.SummaryResult{}, models.LinkedInResult{})
	assert.Equal(t, "User_12345678", row.Username)

	conv.CounterpartID = "42"
	row = BuildRow(models.Profile{}, conv, models.SummaryResult{}, models.LinkedInResult{})
	assert.Equal(t, "User_42", row.Username)
}

func TestBuildRow_EmptyConversation(t *testing.T) {
	t.Parallel()

	row := BuildRow(models.Profile{Username: "bob"}, models.Conversation{CounterpartID: "100"}, models.SummaryResult{}, models.LinkedInResult{})

	assert.Equal(t, 0, row.MessageCount)
	assert.Empty(t, row.LastMessageAt)
}

func TestBuildRow_TruncatesOversizedSummary(t *testing.T) {
	t.Parallel()

	summary := models.SummaryResult{Text: strings.Repeat("a", maxCellChars+100)}

	row := BuildRow(models.Profile{Username: "bob"}, sampleConv(), summary, models.LinkedInResult{})

	assert.Len(t, row.SummaryText, maxCellChars)
	assert.True(t, strings.HasSuffix(row.SummaryText, truncatedMarker))
}

func TestSortRows_NewestFirst(t *testing.T) {
	t.Parallel()

	rows := []models.OutputRow{
		{CounterpartID: "old", LastMessageAt: "2024-01-01 10:00:00"},
		{CounterpartID: "empty"},
		{CounterpartID: "new", LastMessageAt: "2024-03-01 10:00:00"},
		{CounterpartID: "mid", LastMessageAt: "2024-02-01 10:00:00"},
	}

	SortRows(rows)

	require.Len(t, rows, 4)
	assert.Equal(t, "new", rows[0].CounterpartID)
	assert.Equal(t, "mid", rows[1].CounterpartID)
	assert.Equal(t, "old", rows[2].CounterpartID)
	assert.Equal(t, "empty", rows[3].CounterpartID)
}

func TestHeadersMatch(t *testing.T) {
	t.Parallel()

	assert.True(t, headersMatch(headerValues()))

	// extra columns to the right do not break the schema
	extended := append(headerValues(), "Notes")
	assert.True(t, headersMatch(extended))

	assert.False(t, headersMatch([]interface{}{"Username", "User ID"}))

	swapped := headerValues()
	swapped[0], swapped[1] = swapped[1], swapped[0]
	assert.False(t, headersMatch(swapped))
}

func TestKeyIndex_MapsUserIDsToSheetRows(t *testing.T) {
	t.Parallel()

	values := [][]interface{}{
		headerValues(),
		{"bob", "100", "Bob"},
		{"ann", "200", "Ann"},
		{},
		{"short"},
	}

	index := keyIndex(values)

	assert.Equal(t, map[string]int{"100": 2, "200": 3}, index)
}

func TestRowValues_HeaderOrderAndRendering(t *testing.T) {
	t.Parallel()

	row := models.OutputRow{
		CounterpartID: "100",
		Username:      "bob",
		DisplayName:   "Bob",
		LinkedInURL:   "https://www.linkedin.com/in/bob",
		Location:      "Berlin",
		Bio:           "Builder",
		Website:       "https://example.com",
		Verified:      true,
		SummaryText:   "Shipped a thing.",
		MessageCount:  2,
		LastMessageAt: "2024-03-02 18:05:07",
	}

	values := rowValues(row)

	require.Len(t, values, len(Header))
	assert.Equal(t, "bob", values[0])
	assert.Equal(t, "100", values[1])
	assert.Equal(t, "TRUE", values[7])
	assert.Equal(t, 2, values[9])
	assert.Equal(t, "2024-03-02 18:05:07", values[10])

	row.Verified = false
	assert.Equal(t, "FALSE", rowValues(row)[7])
}
