// Package slackapi reads channel history and posts run summaries through the
// Slack Web API.
package slackapi

import (
	"context"
	"errors"
	"time"

	"fieldreport/internal/httpx"
	"fieldreport/internal/lookup"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
)

// API is the subset of *slack.Client used here.
type API interface {
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
	GetUsersContext(ctx context.Context, options ...slack.GetUsersOption) ([]slack.User, error)
	OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

const (
	defaultMaxRetries = 3
	historyPageSize   = 200
	transientWait     = time.Second
)

// Client wraps API with retry handling and per-run user caches.
// It is not safe for concurrent name lookups.
type Client struct {
	api        API
	maxRetries int
	// id -> display name
	names *lookup.Cache[string, string]
	// lowercased handle, display or real name -> id
	directory       *lookup.Cache[string, string]
	directoryLoaded bool
	sleep           func(ctx context.Context, d time.Duration) error
}

func New(api API, maxRetries int) *Client {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Client{
		api:        api,
		maxRetries: maxRetries,
		names:      lookup.New[string, string](),
		directory:  lookup.New[string, string](),
		sleep:      sleepContext,
	}
}

// NewFromToken builds a client on the shared outbound HTTP client.
func NewFromToken(token string, maxRetries int) *Client {
	api := slack.New(token, slack.OptionHTTPClient(httpx.ExternalHTTPClient()))
	return New(api, maxRetries)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var errRetriesExhausted = errors.New("retries exhausted")

// withRetry calls fn until it succeeds, waiting Retry-After on rate limits
// and one second on transient errors. Slack API errors are not retried.
func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err

		var apiErr slack.SlackErrorResponse
		if errors.As(err, &apiErr) {
			return err
		}

		wait := transientWait
		var rl *slack.RateLimitedError
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			wait = rl.RetryAfter
		}
		log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Dur("wait", wait).Msg("slack call failed")
		if attempt == c.maxRetries {
			break
		}
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return errors.Join(errRetriesExhausted, lastErr)
}
