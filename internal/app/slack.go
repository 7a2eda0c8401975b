package app

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	slackapi "fieldreport/internal/integrations/slack"
	"fieldreport/internal/report"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (c *cli) slackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slack",
		Short: "Export Slack channel history and activity reports",
	}
	cmd.AddCommand(c.slackExportCmd(), c.slackReportCmd())
	return cmd
}

type slackFlags struct {
	channels []string
	output   string
}

func (f *slackFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.channels, "channel", nil, "channel id to read (repeatable; default slack_channels)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default a timestamped file in the output dir)")
}

func (c *cli) slackSetup(f *slackFlags) (*slackapi.Client, []string, error) {
	if err := c.cfg.RequireSlack(); err != nil {
		return nil, nil, err
	}
	channels := f.channels
	if len(channels) == 0 {
		channels = c.cfg.SlackChannels
	}
	if len(channels) == 0 {
		return nil, nil, fmt.Errorf("no channels given (use --channel or slack_channels)")
	}
	return slackapi.NewFromToken(c.cfg.SlackToken, c.cfg.SlackMaxRetries), channels, nil
}

func (c *cli) slackOutput(f *slackFlags, prefix, ext string) (string, error) {
	path := f.output
	if path == "" {
		path = report.ReportPath(c.cfg.OutputDir, prefix, time.Now().In(c.cfg.Location), ext)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	return path, nil
}

func (c *cli) slackExportCmd() *cobra.Command {
	var f slackFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write channel history to CSV (channel, ts, user, text)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, channels, err := c.slackSetup(&f)
			if err != nil {
				return err
			}
			msgs, fetchErr := client.FetchChannels(cmd.Context(), channels, c.cfg.SlackConcurrency)
			if fetchErr != nil {
				log.Warn().Err(fetchErr).Msg("some channels were not fully exported")
			}

			var buf bytes.Buffer
			if err := client.WriteExport(cmd.Context(), &buf, msgs); err != nil {
				return err
			}
			path, err := c.slackOutput(&f, "slack_export", "csv")
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
				return err
			}
			log.Info().Int("messages", len(msgs)).Int("user_lookups", client.NameLookups()).Str("path", path).Msg("slack export written")
			printFiles(cmd, []string{path})
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (c *cli) slackReportCmd() *cobra.Command {
	var f slackFlags
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write an HTML report of messages per user and per day",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, channels, err := c.slackSetup(&f)
			if err != nil {
				return err
			}
			msgs, fetchErr := client.FetchChannels(cmd.Context(), channels, c.cfg.SlackConcurrency)
			if fetchErr != nil {
				log.Warn().Err(fetchErr).Msg("some channels were not fully read")
			}

			activity := client.ComputeActivity(cmd.Context(), msgs, c.cfg.Location)
			html, err := slackapi.RenderActivityHTML(activity)
			if err != nil {
				return err
			}
			path, err := c.slackOutput(&f, "slack_activity", "html")
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(html), 0644); err != nil {
				return err
			}
			log.Info().Int("messages", activity.Total).Int("users", len(activity.Users)).Str("path", path).Msg("slack report written")
			printFiles(cmd, []string{path})
			return nil
		},
	}
	f.register(cmd)
	return cmd
}
