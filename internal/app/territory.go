package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fieldreport/internal/config"
	"fieldreport/internal/domain"
	"fieldreport/internal/fetch"
	"fieldreport/internal/httpx"
	slackapi "fieldreport/internal/integrations/slack"
	"fieldreport/internal/pipeline"
	"fieldreport/internal/report"
	"fieldreport/internal/storage/sqlite"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const territoryPrefix = "territory_status_summary"

// notifier delivers a run summary; *slackapi.Client implements it.
type notifier interface {
	Notify(ctx context.Context, channelID string, users []string, text string) error
}

// territoryRunner loads a feed, summarizes it and writes the report files.
// With a database it also records the run and diffs it against the previous
// one; with a notifier it posts the summary.
type territoryRunner struct {
	cfg      config.Config
	source   fetch.Source
	client   httpx.Doer
	db       *sql.DB
	notifier notifier
	now      func() time.Time
}

type territoryResult struct {
	Districts []domain.DistrictSummary
	Changes   []report.Change
	Files     []string
	RunID     string
	Summary   string
}

func (r *territoryRunner) Run(ctx context.Context) (territoryResult, error) {
	var res territoryResult

	data, err := fetch.Load(ctx, r.client, r.source)
	if err != nil {
		return res, err
	}
	syn, err := r.cfg.Synonyms()
	if err != nil {
		return res, err
	}
	summaries, err := pipeline.Territory(data, pipeline.TerritoryOptions{Synonyms: syn})
	if err != nil {
		return res, fmt.Errorf("%s: %w", r.source, err)
	}
	res.Districts = summaries

	now := r.now()
	res.Files, err = report.WriteFiles(report.DistrictTable(summaries), r.cfg.OutputDir, territoryPrefix, now.In(r.cfg.Location), r.cfg.ReportFormats)
	if err != nil {
		return res, fmt.Errorf("write report: %w", err)
	}

	if r.db != nil {
		_, prev, err := sqlite.GetLatestDistrictRun(r.db)
		if err != nil && !errors.Is(err, sqlite.ErrNoRuns) {
			return res, fmt.Errorf("load previous run: %w", err)
		}
		run, err := sqlite.InsertDistrictRun(r.db, r.source.String(), now, summaries)
		if err != nil {
			return res, fmt.Errorf("store run: %w", err)
		}
		res.RunID = run.ID
		res.Changes = report.StatusChanges(prev, summaries)
	}
	res.Summary = report.FormatRunSummary(summaries, res.Changes)

	log.Info().
		Str("source", r.source.String()).
		Int("districts", len(summaries)).
		Int("changes", len(res.Changes)).
		Strs("files", res.Files).
		Msg("territory run complete")

	if r.notifier != nil {
		if err := r.notifier.Notify(ctx, r.cfg.ReportChannelID, r.cfg.NotifyUsers, res.Summary); err != nil {
			log.Error().Err(err).Msg("notify failed")
		}
	}
	return res, nil
}

func (c *cli) newTerritoryRunner(db *sql.DB, notify bool) (*territoryRunner, error) {
	r := &territoryRunner{
		cfg:    c.cfg,
		source: fetch.Source{URL: c.cfg.SourceURL, File: c.cfg.SourceFile},
		client: httpx.NewRetryClient(httpx.ExternalHTTPClient(), c.cfg.HTTPMaxRetries),
		db:     db,
		now:    time.Now,
	}
	if notify {
		if err := c.cfg.RequireSlack(); err != nil {
			return nil, err
		}
		r.notifier = slackapi.NewFromToken(c.cfg.SlackToken, c.cfg.SlackMaxRetries)
	}
	return r, nil
}

func (c *cli) territoryCmd() *cobra.Command {
	var (
		url, file, outDir string
		formats           []string
		store, notify     bool
	)
	cmd := &cobra.Command{
		Use:   "territory",
		Short: "Summarize a territory status feed per district",
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyOutputFlags(outDir, formats)
			if err := c.applyFormats(); err != nil {
				return err
			}
			if url != "" || file != "" {
				c.cfg.SourceURL, c.cfg.SourceFile = url, file
			}

			var db *sql.DB
			if store {
				var err error
				if db, err = sqlite.InitDB(c.cfg.DBPath); err != nil {
					return fmt.Errorf("init database: %w", err)
				}
				defer db.Close()
			}

			runner, err := c.newTerritoryRunner(db, notify)
			if err != nil {
				return err
			}
			res, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}
			printFiles(cmd, res.Files)
			if store {
				fmt.Fprintln(cmd.OutOrStdout(), res.Summary)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "feed URL (overrides source_url/source_file)")
	cmd.Flags().StringVar(&file, "file", "", "feed file (overrides source_url/source_file)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "report output directory")
	cmd.Flags().StringSliceVar(&formats, "format", nil, "report formats: xlsx, csv, md, html")
	cmd.Flags().BoolVar(&store, "store", false, "record the run in the database and report status changes")
	cmd.Flags().BoolVar(&notify, "notify", false, "post the run summary to Slack")
	return cmd
}

func (c *cli) applyOutputFlags(outDir string, formats []string) {
	if outDir != "" {
		c.cfg.OutputDir = outDir
	}
	if len(formats) > 0 {
		c.cfg.ReportFormats = formats
	}
}

func (c *cli) applyFormats() error {
	formats, err := report.ParseFormats(c.cfg.ReportFormats)
	if err != nil {
		return err
	}
	c.cfg.ReportFormats = formats
	return nil
}

func printFiles(cmd *cobra.Command, files []string) {
	for _, f := range files {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
}
