package twitter

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/dm-organizer/internal/models"
)

const maxPageSize = 100

// Fetcher turns raw DM event pages into per-counterpart message history.
// It keeps an in-run profile cache; nothing survives the run.
type Fetcher struct {
	client *Client
	selfID string
	users  map[string]models.Profile
	logger *zap.Logger
}

func NewFetcher(client *Client, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		users:  make(map[string]models.Profile),
		logger: logger,
	}
}

// Verify checks the credentials and pins the authenticated user's ID,
// which sender/recipient resolution needs later
func (f *Fetcher) Verify(ctx context.Context) (models.Profile, error) {
	me, err := f.client.Me(ctx)
	if err != nil {
		return models.Profile{}, err
	}
	f.selfID = me.CounterpartID
	f.users[me.CounterpartID] = me
	f.logger.Info("Authenticated with platform",
		zap.String("user_id", me.CounterpartID),
		zap.String("username", me.Username))
	return me, nil
}

// Profile resolves a counterpart profile, serving repeats from the cache
func (f *Fetcher) Profile(ctx context.Context, counterpartID string) (models.Profile, error) {
	if p, ok := f.users[counterpartID]; ok {
		return p, nil
	}
	p, err := f.client.User(ctx, counterpartID)
	if err != nil {
		return models.Profile{}, err
	}
	f.users[counterpartID] = p
	return p, nil
}

// Conversation fetches the message history with one counterpart. The
// platform pages newest first; ordering is left to the aggregator.
func (f *Fetcher) Conversation(ctx context.Context, counterpartID string, maxMessages int, since time.Time) ([]models.Message, error) {
	var out []models.Message
	cursor := ""
	for {
		page, err := f.client.conversationEvents(ctx, counterpartID, cursor, pageSize(maxMessages-len(out)), since)
		if err != nil {
			return nil, err
		}
		for _, ev := range page.Data {
			if ev.EventType != eventMessageCreate {
				continue
			}
			out = append(out, ev.toMessage(f.selfID, counterpartID))
			if len(out) >= maxMessages {
				return out, nil
			}
		}
		cursor = page.Meta.NextToken
		if cursor == "" || len(page.Data) == 0 {
			return out, nil
		}
	}
}

// RecentParticipants returns up to n distinct counterpart IDs ordered by
// most recent DM activity
func (f *Fetcher) RecentParticipants(ctx context.Context, n int) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	cursor := ""
	for len(out) < n {
		page, err := f.client.recentEvents(ctx, cursor, maxPageSize)
		if err != nil {
			return nil, err
		}
		for _, ev := range page.Data {
			if ev.EventType != eventMessageCreate {
				continue
			}
			id := ev.counterpart(f.selfID)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
			if len(out) >= n {
				break
			}
		}
		cursor = page.Meta.NextToken
		if cursor == "" || len(page.Data) == 0 {
			break
		}
	}
	f.logger.Info("Discovered recent counterparts", zap.Int("count", len(out)))
	return out, nil
}

// counterpart extracts the other participant from a one-on-one
// conversation ID of the form "<id>-<id>". Group conversations have a
// different shape and are skipped.
func (e dmEvent) counterpart(selfID string) string {
	parts := strings.Split(e.ConversationID, "-")
	if len(parts) != 2 {
		return ""
	}
	for _, id := range parts {
		if id != selfID && id != "" {
			return id
		}
	}
	return ""
}

func pageSize(remaining int) int {
	if remaining > maxPageSize {
		return maxPageSize
	}
	if remaining < 1 {
		return 1
	}
	return remaining
}
