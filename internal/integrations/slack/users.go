package slackapi

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
)

// UserName resolves a user id to a display name. Each id is looked up at
// most once per Client; when the lookup fails the id itself is cached.
func (c *Client) UserName(ctx context.Context, userID string) string {
	if userID == "" {
		return ""
	}
	return c.names.Resolve(userID, func(id string) string {
		var user *slack.User
		err := c.withRetry(ctx, "users.info", func() error {
			var err error
			user, err = c.api.GetUserInfoContext(ctx, id)
			return err
		})
		if err != nil || user == nil {
			log.Warn().Err(err).Str("user", id).Msg("user lookup failed, using id")
			return id
		}
		return displayName(user, id)
	})
}

func displayName(u *slack.User, fallback string) string {
	for _, name := range []string{u.Profile.DisplayName, u.RealName, u.Name} {
		if strings.TrimSpace(name) != "" {
			return name
		}
	}
	return fallback
}

// NameLookups reports how many user ids were resolved through the API.
func (c *Client) NameLookups() int {
	return c.names.Misses()
}

// ResolveUserIDs maps notify entries to user ids, keeping input order and
// dropping duplicates. Entries shaped like member ids pass through; anything
// else is matched against the user directory by handle, display name or real
// name, ignoring case. Names that match nobody come back as unresolved.
func (c *Client) ResolveUserIDs(ctx context.Context, entries []string) (ids, unresolved []string, err error) {
	seen := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if looksLikeUserID(entry) {
			add(entry)
			continue
		}
		if err == nil {
			err = c.loadDirectory(ctx)
		}
		if id, ok := c.directory.Get(nameKey(entry)); ok {
			add(id)
		} else {
			unresolved = append(unresolved, entry)
		}
	}
	log.Debug().Int("ids", len(ids)).Int("unresolved", len(unresolved)).Msg("resolve notify users")
	return ids, unresolved, err
}

// loadDirectory fetches users.list once per Client. Every member also seeds
// the display-name cache so later UserName calls skip users.info.
func (c *Client) loadDirectory(ctx context.Context) error {
	if c.directoryLoaded {
		return nil
	}
	var users []slack.User
	err := c.withRetry(ctx, "users.list", func() error {
		var err error
		users, err = c.api.GetUsersContext(ctx)
		return err
	})
	if err != nil {
		return err
	}
	for _, u := range users {
		for _, name := range []string{u.Name, u.Profile.DisplayName, u.RealName} {
			key := nameKey(name)
			if key == "" {
				continue
			}
			// First member to claim a name keeps it.
			if _, taken := c.directory.Get(key); !taken {
				c.directory.Put(key, u.ID)
			}
		}
		if _, ok := c.names.Get(u.ID); !ok {
			c.names.Put(u.ID, displayName(&u, u.ID))
		}
	}
	c.directoryLoaded = true
	log.Debug().Int("users", len(users)).Int("names", c.directory.Len()).Msg("user directory loaded")
	return nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// looksLikeUserID matches member ids: U or W followed by at least eight
// upper-case letters or digits.
func looksLikeUserID(s string) bool {
	if len(s) < 9 || (s[0] != 'U' && s[0] != 'W') {
		return false
	}
	return strings.IndexFunc(s[1:], func(r rune) bool {
		return (r < 'A' || r > 'Z') && (r < '0' || r > '9')
	}) < 0
}
