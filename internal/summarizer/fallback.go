package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/xaenox/dm-organizer/internal/models"
)

// Topic labels and the words that indicate them, checked in a fixed order
// so the template stays deterministic
var topicIndicators = []struct {
	topic string
	words []string
}{
	{"work", []string{"project", "deadline", "meeting", "task", "report"}},
	{"collaboration", []string{"collab", "partner", "together", "team"}},
	{"planning", []string{"plan", "schedule", "organize", "event"}},
	{"business", []string{"business", "startup", "company", "opportunity"}},
	{"technical", []string{"code", "develop", "tech", "software", "api"}},
	{"social", []string{"coffee", "lunch", "dinner", "drinks", "hangout"}},
}

var actionWords = []string{"will", "going to", "let's", "plan to", "schedule", "meet", "call", "send", "share"}

// fallbackSummarizer builds summaries without a model: counterpart name,
// detected topics, message count, and date range.
type fallbackSummarizer struct{}

func (s *fallbackSummarizer) Summarize(_ context.Context, conv models.Conversation, profile models.Profile) models.SummaryResult {
	name := counterpartName(profile, conv.CounterpartID)
	if conv.MessageCount == 0 {
		return models.SummaryResult{
			Text:   fmt.Sprintf("No messages with %s.", name),
			Source: models.SummaryFallback,
		}
	}

	var texts []string
	for _, m := range conv.Messages {
		texts = append(texts, m.Text)
	}
	joined := strings.ToLower(strings.Join(texts, " "))

	var topics []string
	for _, ti := range topicIndicators {
		for _, w := range ti.words {
			if strings.Contains(joined, w) {
				topics = append(topics, ti.topic)
				break
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Conversation with %s", name)
	if len(topics) > 0 {
		fmt.Fprintf(&b, " about %s", strings.Join(topics, ", "))
	}
	first := conv.Messages[0].SentAt.UTC().Format("2006-01-02")
	last := conv.Messages[len(conv.Messages)-1].SentAt.UTC().Format("2006-01-02")
	if first == last {
		fmt.Fprintf(&b, " (%d messages on %s)", conv.MessageCount, first)
	} else {
		fmt.Fprintf(&b, " (%d messages, %s to %s)", conv.MessageCount, first, last)
	}
	b.WriteString(".")

	for _, w := range actionWords {
		if strings.Contains(joined, w) {
			b.WriteString(" Contains agreements or planned actions.")
			break
		}
	}

	return models.SummaryResult{Text: b.String(), Source: models.SummaryFallback}
}
