package models

// SummarySource tells whether a summary came from the model or from the
// deterministic template
type SummarySource string

const (
	SummaryAI       SummarySource = "ai"
	SummaryFallback SummarySource = "fallback"
)

// SummaryResult represents the outcome of summarizing one conversation.
// Text is never empty: the fallback template fills it when the AI path
// fails or is disabled.
type SummaryResult struct {
	Text   string        `json:"text"`
	Source SummarySource `json:"source"`
}

// Confidence is the trust label attached to a discovered LinkedIn URL
type Confidence string

const (
	ConfidenceHigh     Confidence = "high"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceLow      Confidence = "low"
	ConfidenceNotFound Confidence = "not_found"
)

// ResolutionMethod records which resolver stage produced a result
type ResolutionMethod string

const (
	MethodPattern ResolutionMethod = "pattern"
	MethodAI      ResolutionMethod = "ai"
)

// LinkedInResult represents the outcome of LinkedIn resolution for one
// counterpart. A pattern result always carries a URL with high confidence;
// a result without a URL is always not_found.
type LinkedInResult struct {
	URL        string           `json:"url,omitempty"`
	Confidence Confidence       `json:"confidence"`
	Reasoning  string           `json:"reasoning,omitempty"`
	Method     ResolutionMethod `json:"method"`
}
