package slackapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
	"golang.org/x/sync/errgroup"
)

type Message struct {
	Channel string
	TS      string
	User    string
	Text    string
}

// FetchHistory pages through a channel's history. When a page cannot be
// fetched the messages read so far are returned along with the error.
func (c *Client) FetchHistory(ctx context.Context, channelID string) ([]Message, error) {
	var out []Message
	cursor := ""
	for {
		var resp *slack.GetConversationHistoryResponse
		err := c.withRetry(ctx, "conversations.history", func() error {
			var err error
			resp, err = c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
				ChannelID: channelID,
				Cursor:    cursor,
				Limit:     historyPageSize,
			})
			return err
		})
		if err != nil {
			return out, fmt.Errorf("channel %s: %w", channelID, err)
		}
		for _, m := range resp.Messages {
			out = append(out, Message{Channel: channelID, TS: m.Timestamp, User: m.User, Text: m.Text})
		}
		cursor = resp.ResponseMetaData.NextCursor
		if cursor == "" {
			break
		}
	}
	log.Debug().Str("channel", channelID).Int("messages", len(out)).Msg("channel history fetched")
	return out, nil
}

// FetchChannels fetches several channels with at most limit in flight. The
// result keeps the order of channelIDs; failures of individual channels are
// joined into the returned error without dropping the other channels.
func (c *Client) FetchChannels(ctx context.Context, channelIDs []string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 4
	}
	perChannel := make([][]Message, len(channelIDs))
	errs := make([]error, len(channelIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, id := range channelIDs {
		g.Go(func() error {
			msgs, err := c.FetchHistory(gctx, id)
			perChannel[i] = msgs
			if err != nil {
				log.Error().Err(err).Str("channel", id).Int("partial", len(msgs)).Msg("channel fetch failed")
				errs[i] = err
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Message
	for _, msgs := range perChannel {
		out = append(out, msgs...)
	}
	return out, errors.Join(errs...)
}
