package models

// OutputRow is one spreadsheet row keyed by CounterpartID. Optional string
// fields hold "" rather than being absent, since the sheet has fixed columns.
type OutputRow struct {
	CounterpartID string `json:"counterpart_id"`
	Username      string `json:"username"`
	DisplayName   string `json:"display_name"`
	LinkedInURL   string `json:"linkedin_url"`
	Location      string `json:"location"`
	Bio           string `json:"bio"`
	Website       string `json:"website"`
	Verified      bool   `json:"verified"`
	SummaryText   string `json:"summary_text"`
	MessageCount  int    `json:"message_count"`
	LastMessageAt string `json:"last_message_at"`
}

// RunReport represents the outcome of one full run
type RunReport struct {
	RunID         string `json:"run_id"`
	Processed     int    `json:"processed"`
	Skipped       int    `json:"skipped"`
	Failed        int    `json:"failed"`
	TotalMessages int    `json:"total_messages"`
	Summarized    int    `json:"summarized"`
	Written       int    `json:"written"`
}
