package slackapi

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
)

var exportHeader = []string{"channel", "ts", "user", "text"}

// WriteExport writes messages as channel,ts,user,text CSV with user ids
// replaced by display names. Newlines in text are flattened to spaces.
func (c *Client) WriteExport(ctx context.Context, w io.Writer, msgs []Message) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, m := range msgs {
		record := []string{
			m.Channel,
			m.TS,
			c.UserName(ctx, m.User),
			flattenText(m.Text),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func flattenText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}
