package aggregate

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/xaenox/dm-organizer/internal/models"
)

// Texts matching any of these carry nothing a summary could use
var lowValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(hi|hey|hello|thanks?|thank you|thx|ok|okay|sure|yes|no|yep|nope)\.?!?$`),
	regexp.MustCompile(`^(good|nice|cool|awesome|great)\.?!?$`),
	regexp.MustCompile(`^(morning|afternoon|evening|night)\.?!?$`),
	regexp.MustCompile(`^(lol|haha|hehe|😂|😊|👍|👎|❤️|🎉|✅)+$`),
	regexp.MustCompile(`^[[:punct:]]+$`),
}

// A short message that mentions scheduling or subject matter still counts
var keepKeywords = []string{"meet", "plan", "when", "where", "how", "what", "project", "work", "call"}

// Aggregate orders one counterpart's raw messages chronologically and
// derives the substantive view that summarization works from. Pure: the
// input slice is not modified. Empty input yields an empty Conversation
// with MessageCount 0.
func Aggregate(raw []models.Message, counterpartID string) models.Conversation {
	msgs := make([]models.Message, len(raw))
	copy(msgs, raw)

	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].SentAt.Equal(msgs[j].SentAt) {
			return msgs[i].MessageID < msgs[j].MessageID
		}
		return msgs[i].SentAt.Before(msgs[j].SentAt)
	})

	return models.Conversation{
		CounterpartID: counterpartID,
		Messages:      msgs,
		Substantive:   filterSubstantive(msgs),
		MessageCount:  len(msgs),
	}
}

// filterSubstantive drops low-information messages. If nothing would
// survive, the full sequence is kept instead: summarization needs
// non-empty input.
func filterSubstantive(msgs []models.Message) []models.Message {
	var kept []models.Message
	for _, m := range msgs {
		if isSubstantive(m.Text) {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return msgs
	}
	return kept
}

func isSubstantive(text string) bool {
	norm := strings.ToLower(strings.TrimSpace(text))
	if norm == "" {
		return false
	}

	lowValue := utf8.RuneCountInString(norm) <= 3
	if !lowValue {
		for _, p := range lowValuePatterns {
			if p.MatchString(norm) {
				lowValue = true
				break
			}
		}
	}
	if !lowValue {
		return true
	}

	for _, k := range keepKeywords {
		if strings.Contains(norm, k) {
			return true
		}
	}
	return false
}
