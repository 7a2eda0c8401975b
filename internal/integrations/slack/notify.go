package slackapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
)

// Notify posts text to channelID (when set) and sends it as a direct
// message to each user. Users are ids or names; unresolved names are logged
// and skipped. Delivery errors are joined and returned after every target
// has been tried.
func (c *Client) Notify(ctx context.Context, channelID string, users []string, text string) error {
	var errs []error

	if channelID != "" {
		if _, _, err := c.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false)); err != nil {
			errs = append(errs, fmt.Errorf("post to %s: %w", channelID, err))
		} else {
			log.Info().Str("channel", channelID).Msg("run summary posted")
		}
	}

	if len(users) == 0 {
		return errors.Join(errs...)
	}

	ids, unresolved, err := c.ResolveUserIDs(ctx, users)
	if err != nil {
		errs = append(errs, fmt.Errorf("resolve users: %w", err))
	}
	if len(unresolved) > 0 {
		log.Warn().Str("users", strings.Join(unresolved, ", ")).Msg("unresolved notify users")
	}

	for _, userID := range ids {
		channel, _, _, err := c.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
			Users: []string{userID},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("open DM with %s: %w", userID, err))
			continue
		}
		if _, _, err := c.api.PostMessageContext(ctx, channel.ID, slack.MsgOptionText(text, false)); err != nil {
			errs = append(errs, fmt.Errorf("DM %s: %w", userID, err))
			continue
		}
		log.Info().Str("user", userID).Msg("run summary sent")
	}
	return errors.Join(errs...)
}
