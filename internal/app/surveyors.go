package app

import (
	"errors"
	"fmt"
	"time"

	"fieldreport/internal/domain"
	"fieldreport/internal/pipeline"
	"fieldreport/internal/report"
	"fieldreport/internal/storage/sqlite"
	"fieldreport/internal/tabular"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const surveyorsPrefix = "poi_surveyor_summary"

func (c *cli) surveyorsCmd() *cobra.Command {
	var (
		outDir  string
		formats []string
		store   bool
	)
	cmd := &cobra.Command{
		Use:   "surveyors <poi-log.csv>",
		Short: "Rate POI surveyors by submission pace and quality tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyOutputFlags(outDir, formats)
			if err := c.applyFormats(); err != nil {
				return err
			}

			table, err := tabular.ReadFile(args[0])
			if err != nil {
				return err
			}
			if table.Skipped > 0 {
				log.Warn().Int("skipped", table.Skipped).Str("path", args[0]).Msg("rows with extra fields skipped")
			}

			summaries, err := pipeline.Surveyors(table.Rows, pipeline.SurveyorOptions{
				Columns:   c.cfg.POIColumns(),
				Location:  c.cfg.Location,
				SilverMin: c.cfg.TierSilverMin,
				GoldMin:   c.cfg.TierGoldMin,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			now := time.Now()
			files, err := report.WriteFiles(report.SurveyorTable(summaries), c.cfg.OutputDir, surveyorsPrefix, now.In(c.cfg.Location), c.cfg.ReportFormats)
			if err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			if store {
				db, err := sqlite.InitDB(c.cfg.DBPath)
				if err != nil {
					return fmt.Errorf("init database: %w", err)
				}
				defer db.Close()
				_, prev, err := sqlite.GetLatestSurveyorRun(db)
				if err != nil && !errors.Is(err, sqlite.ErrNoRuns) {
					return fmt.Errorf("load previous run: %w", err)
				}
				if _, err := sqlite.InsertSurveyorRun(db, args[0], now, summaries); err != nil {
					return fmt.Errorf("store run: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), report.FormatTierChanges(report.TierChanges(prev, summaries)))
			}

			tiers := tierCounts(summaries)
			log.Info().
				Int("surveyors", len(summaries)).
				Int("gold", tiers[domain.TierGold]).
				Int("silver", tiers[domain.TierSilver]).
				Int("bronze", tiers[domain.TierBronze]).
				Int("unrated", tiers[domain.TierUnrated]).
				Msg("surveyor run complete")
			printFiles(cmd, files)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", "", "report output directory")
	cmd.Flags().StringSliceVar(&formats, "format", nil, "report formats: xlsx, csv, md, html")
	cmd.Flags().BoolVar(&store, "store", false, "record the run in the database")
	return cmd
}

func tierCounts(summaries []domain.SurveyorSummary) map[domain.Label]int {
	out := make(map[domain.Label]int)
	for _, s := range summaries {
		out[s.Tier]++
	}
	return out
}
