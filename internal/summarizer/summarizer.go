package summarizer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/xaenox/dm-organizer/internal/ai"
	"github.com/xaenox/dm-organizer/internal/models"
)

// SystemPrompt frames every summarization call
const SystemPrompt = "You are a helpful assistant that creates concise, accurate summaries of conversations while protecting privacy."

const maxMessageChars = 500

// Summarizer produces a short natural-language summary of one
// conversation. Implementations never fail: the deterministic template
// always backs the model.
type Summarizer interface {
	Summarize(ctx context.Context, conv models.Conversation, profile models.Profile) models.SummaryResult
}

// New selects the model-backed variant when a completer is configured and
// the deterministic one otherwise.
func New(completer ai.TextCompleter, maxWords int, logger *zap.Logger) Summarizer {
	if completer == nil {
		return &fallbackSummarizer{}
	}
	return &aiSummarizer{
		completer: completer,
		maxWords:  maxWords,
		fallback:  &fallbackSummarizer{},
		logger:    logger,
	}
}

type aiSummarizer struct {
	completer ai.TextCompleter
	maxWords  int
	fallback  *fallbackSummarizer
	logger    *zap.Logger
}

func (s *aiSummarizer) Summarize(ctx context.Context, conv models.Conversation, profile models.Profile) models.SummaryResult {
	if conv.MessageCount == 0 {
		return s.fallback.Summarize(ctx, conv, profile)
	}

	text, err := s.completer.Complete(ctx, buildPrompt(conv, profile, s.maxWords))
	if err != nil || text == "" {
		s.logger.Warn("Model summary failed, using fallback",
			zap.Error(err),
			zap.String("counterpart_id", conv.CounterpartID))
		return s.fallback.Summarize(ctx, conv, profile)
	}
	return models.SummaryResult{Text: text, Source: models.SummaryAI}
}

func buildPrompt(conv models.Conversation, profile models.Profile, maxWords int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize this direct message conversation with %s.\n\n", counterpartName(profile, conv.CounterpartID))
	b.WriteString("Focus on:\n")
	b.WriteString("- Key topics discussed\n")
	b.WriteString("- Decisions or agreements reached\n")
	b.WriteString("- Action items or follow-ups\n\n")
	fmt.Fprintf(&b, "Keep the summary under %d words. Do not repeat sensitive personal details (phone numbers, addresses, financial information) verbatim.\n\n", maxWords)
	b.WriteString("Conversation, oldest first (\"me\" is the account owner, \"them\" is the counterpart):\n")
	for _, m := range conv.Substantive {
		role := "them"
		if m.SenderID != conv.CounterpartID {
			role = "me"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.SentAt.UTC().Format("2006-01-02"), role, truncate(sanitizeNewlines(m.Text), maxMessageChars))
	}
	return b.String()
}

// counterpartName picks the best available label for a counterpart
func counterpartName(profile models.Profile, counterpartID string) string {
	switch {
	case profile.DisplayName != "":
		return profile.DisplayName
	case profile.Username != "":
		return "@" + profile.Username
	case counterpartID != "":
		return "user " + counterpartID
	default:
		return "unknown user"
	}
}

func sanitizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "…"
}
