package sheets

import (
	"sort"

	"github.com/xaenox/dm-organizer/internal/models"
)

// Header is the fixed column order of the sheet
var Header = []string{
	"Username",
	"User ID",
	"Real Name",
	"LinkedIn URL",
	"Location",
	"Bio",
	"Website",
	"Verified",
	"Conversation Summary",
	"Message Count",
	"Last Message Date",
}

const (
	timeFormat      = "2006-01-02 15:04:05"
	maxCellChars    = 50000
	truncatedMarker = "... [truncated]"
)

// BuildRow assembles one output row from the pipeline's pieces. Pure:
// identical inputs always produce identical rows. Optional fields become
// "" because the sheet has fixed columns.
func BuildRow(profile models.Profile, conv models.Conversation, summary models.SummaryResult, linkedIn models.LinkedInResult) models.OutputRow {
	username := profile.Username
	if username == "" {
		username = placeholderUsername(conv.CounterpartID)
	}

	lastAt := ""
	if last, ok := conv.LastMessage(); ok {
		lastAt = last.SentAt.UTC().Format(timeFormat)
	}

	return models.OutputRow{
		CounterpartID: conv.CounterpartID,
		Username:      username,
		DisplayName:   profile.DisplayName,
		LinkedInURL:   linkedIn.URL,
		Location:      profile.Location,
		Bio:           profile.Bio,
		Website:       profile.Website,
		Verified:      profile.Verified,
		SummaryText:   truncateCell(summary.Text),
		MessageCount:  conv.MessageCount,
		LastMessageAt: lastAt,
	}
}

// SortRows orders rows newest conversation first, keeping active
// counterparts at the top of the sheet. Rows without messages sort last.
func SortRows(rows []models.OutputRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].LastMessageAt > rows[j].LastMessageAt
	})
}

// placeholderUsername labels counterparts whose profile lookup failed
func placeholderUsername(counterpartID string) string {
	id := counterpartID
	if len(id) > 8 {
		id = id[:8]
	}
	return "User_" + id
}

// truncateCell keeps a value under the spreadsheet cell limit
func truncateCell(s string) string {
	if len(s) <= maxCellChars {
		return s
	}
	return s[:maxCellChars-len(truncatedMarker)] + truncatedMarker
}

// rowValues renders a row in Header order for the values API
func rowValues(row models.OutputRow) []interface{} {
	verified := "FALSE"
	if row.Verified {
		verified = "TRUE"
	}
	return []interface{}{
		row.Username,
		row.CounterpartID,
		row.DisplayName,
		row.LinkedInURL,
		row.Location,
		row.Bio,
		row.Website,
		verified,
		row.SummaryText,
		row.MessageCount,
		row.LastMessageAt,
	}
}

func headerValues() []interface{} {
	vals := make([]interface{}, len(Header))
	for i, h := range Header {
		vals[i] = h
	}
	return vals
}
