package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dghubble/oauth1"
	"go.uber.org/zap"

	"github.com/xaenox/dm-organizer/internal/models"
)

const (
	apiBase    = "https://api.twitter.com/2"
	userFields = "description,location,url,verified,entities"
	dmFields   = "id,text,event_type,created_at,sender_id,dm_conversation_id"

	eventMessageCreate = "MessageCreate"
)

// Client is a minimal X API v2 client over OAuth 1.0a user context. It
// never sleeps on rate limits: it surfaces RateLimitError and leaves the
// decision of when to resume to the orchestrator.
type Client struct {
	httpClient *http.Client
	baseURL    string
	budget     *RateBudget
	logger     *zap.Logger
}

func NewClient(apiKey, apiSecret, accessToken, accessTokenSecret string, timeout time.Duration, budget *RateBudget, logger *zap.Logger) *Client {
	config := oauth1.NewConfig(apiKey, apiSecret)
	token := oauth1.NewToken(accessToken, accessTokenSecret)
	httpClient := config.Client(oauth1.NoContext, token)
	httpClient.Timeout = timeout

	return &Client{
		httpClient: httpClient,
		baseURL:    apiBase,
		budget:     budget,
		logger:     logger,
	}
}

// Me returns the authenticated account, proving the credentials work
func (c *Client) Me(ctx context.Context) (models.Profile, error) {
	q := url.Values{}
	q.Set("user.fields", userFields)

	var resp userResponse
	if err := c.get(ctx, "/users/me", q, &resp); err != nil {
		return models.Profile{}, err
	}
	return resp.Data.toProfile(), nil
}

// User resolves one user ID to a profile
func (c *Client) User(ctx context.Context, id string) (models.Profile, error) {
	q := url.Values{}
	q.Set("user.fields", userFields)

	var resp userResponse
	if err := c.get(ctx, "/users/"+id, q, &resp); err != nil {
		return models.Profile{}, err
	}
	return resp.Data.toProfile(), nil
}

// conversationEvents fetches one page of DM events with a counterpart
func (c *Client) conversationEvents(ctx context.Context, counterpartID, cursor string, pageSize int, since time.Time) (dmEventsResponse, error) {
	q := url.Values{}
	q.Set("dm_event.fields", dmFields)
	q.Set("max_results", strconv.Itoa(pageSize))
	if cursor != "" {
		q.Set("pagination_token", cursor)
	}
	if !since.IsZero() {
		q.Set("start_time", since.UTC().Format(time.RFC3339))
	}

	var resp dmEventsResponse
	if err := c.get(ctx, "/dm_conversations/with/"+counterpartID+"/dm_events", q, &resp); err != nil {
		return dmEventsResponse{}, err
	}
	return resp, nil
}

// recentEvents fetches one page of DM events across all conversations
func (c *Client) recentEvents(ctx context.Context, cursor string, pageSize int) (dmEventsResponse, error) {
	q := url.Values{}
	q.Set("dm_event.fields", dmFields)
	q.Set("max_results", strconv.Itoa(pageSize))
	if cursor != "" {
		q.Set("pagination_token", cursor)
	}

	var resp dmEventsResponse
	if err := c.get(ctx, "/dm_events", q, &resp); err != nil {
		return dmEventsResponse{}, err
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if ok, resetAt := c.budget.Take(); !ok {
		return &RateLimitError{ResetAt: resetAt}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("error building request for %s: %v", path, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.observeRateHeaders(resp.Header)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{StatusCode: resp.StatusCode, Detail: readErrorDetail(resp.Body)}
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case http.StatusTooManyRequests:
		c.logger.Warn("Rate limited by platform", zap.String("path", path))
		return &RateLimitError{ResetAt: resetTime(resp.Header)}
	default:
		return fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, path, readErrorDetail(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding %s response: %v", path, err)
	}
	return nil
}

func (c *Client) observeRateHeaders(h http.Header) {
	remaining, err := strconv.Atoi(h.Get("x-rate-limit-remaining"))
	if err != nil {
		return
	}
	var resetAt time.Time
	if unix, err := strconv.ParseInt(h.Get("x-rate-limit-reset"), 10, 64); err == nil {
		resetAt = time.Unix(unix, 0)
	}
	c.budget.Observe(remaining, resetAt)
}

// resetTime reads the reset header from a 429; when the platform omits
// it, a minute is long enough for the next attempt to be worth making
func resetTime(h http.Header) time.Time {
	if unix, err := strconv.ParseInt(h.Get("x-rate-limit-reset"), 10, 64); err == nil {
		return time.Unix(unix, 0)
	}
	return time.Now().Add(time.Minute)
}

func readErrorDetail(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(body) == 0 {
		return "no detail"
	}
	return string(body)
}

type userResponse struct {
	Data apiUser `json:"data"`
}

type apiUser struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Username    string           `json:"username"`
	Description string           `json:"description"`
	Location    string           `json:"location"`
	URL         string           `json:"url"`
	Verified    bool             `json:"verified"`
	Entities    *apiUserEntities `json:"entities,omitempty"`
}

type apiUserEntities struct {
	URL struct {
		URLs []struct {
			ExpandedURL string `json:"expanded_url"`
		} `json:"urls"`
	} `json:"url"`
}

func (u apiUser) toProfile() models.Profile {
	// The url field is a t.co wrapper; the expanded form is what pattern
	// matching needs
	website := u.URL
	if u.Entities != nil && len(u.Entities.URL.URLs) > 0 && u.Entities.URL.URLs[0].ExpandedURL != "" {
		website = u.Entities.URL.URLs[0].ExpandedURL
	}
	return models.Profile{
		CounterpartID: u.ID,
		Username:      u.Username,
		DisplayName:   u.Name,
		Bio:           u.Description,
		Location:      u.Location,
		Website:       website,
		Verified:      u.Verified,
	}
}

type dmEventsResponse struct {
	Data []dmEvent `json:"data"`
	Meta struct {
		NextToken string `json:"next_token"`
	} `json:"meta"`
}

type dmEvent struct {
	ID             string    `json:"id"`
	EventType      string    `json:"event_type"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
	SenderID       string    `json:"sender_id"`
	ConversationID string    `json:"dm_conversation_id"`
}

func (e dmEvent) toMessage(selfID, counterpartID string) models.Message {
	recipient := counterpartID
	if e.SenderID != selfID {
		recipient = selfID
	}
	return models.Message{
		MessageID:   e.ID,
		SenderID:    e.SenderID,
		RecipientID: recipient,
		Text:        e.Text,
		SentAt:      e.CreatedAt,
	}
}
