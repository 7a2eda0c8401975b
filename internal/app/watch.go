package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"fieldreport/internal/schedule"
	"fieldreport/internal/storage/sqlite"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (c *cli) watchCmd() *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the territory summary on a cron schedule and/or when the source file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.applyFormats(); err != nil {
				return err
			}
			spec := strings.TrimSpace(c.cfg.TerritorySchedule)
			watchFile := c.cfg.WatchSourceFile && c.cfg.SourceFile != "" && c.cfg.SourceURL == ""
			if spec == "" && !watchFile {
				return fmt.Errorf("nothing to watch: set territory_schedule and/or watch_source_file with source_file")
			}
			if spec != "" {
				if _, err := schedule.ParseSpec(spec); err != nil {
					return err
				}
			}

			db, err := sqlite.InitDB(c.cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init database: %w", err)
			}
			defer db.Close()

			notify := c.cfg.SlackToken != ""
			if !notify {
				log.Info().Msg("slack_token not set, run summaries are only logged")
			}
			runner, err := c.newTerritoryRunner(db, notify)
			if err != nil {
				return err
			}
			// Cron ticks and file changes share one runner and one database.
			job := schedule.Serialize(func(ctx context.Context) error {
				_, err := runner.Run(ctx)
				return err
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if runNow {
				if err := job(ctx); err != nil {
					log.Error().Err(err).Msg("initial run failed")
				}
			}

			g, gctx := errgroup.WithContext(ctx)
			if spec != "" {
				g.Go(func() error { return schedule.RunCron(gctx, spec, c.cfg.Location, job) })
			}
			if watchFile {
				g.Go(func() error { return schedule.WatchFile(gctx, c.cfg.SourceFile, 0, job) })
			}
			err = g.Wait()
			log.Info().Msg("watch stopped")
			return err
		},
	}
	cmd.Flags().BoolVar(&runNow, "run-now", false, "run once immediately before waiting")
	return cmd
}
