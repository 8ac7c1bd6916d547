package models

import "time"

// Message represents a single direct-message event, immutable once fetched
type Message struct {
	MessageID   string    `json:"message_id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Text        string    `json:"text"`
	SentAt      time.Time `json:"sent_at"`
}

// Conversation holds one counterpart's messages for the duration of a run.
// Messages is the full chronological sequence; Substantive is the same
// sequence with low-information messages removed and is what summarization
// consumes. MessageCount always counts the full sequence.
type Conversation struct {
	CounterpartID string    `json:"counterpart_id"`
	Messages      []Message `json:"messages"`
	Substantive   []Message `json:"-"`
	MessageCount  int       `json:"message_count"`
}

// LastMessage returns the newest message, if any
func (c Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// Profile represents a counterpart's public profile attributes
type Profile struct {
	CounterpartID string `json:"counterpart_id"`
	Username      string `json:"username"`
	DisplayName   string `json:"display_name"`
	Bio           string `json:"bio"`
	Location      string `json:"location"`
	Website       string `json:"website"`
	Verified      bool   `json:"verified"`
}
