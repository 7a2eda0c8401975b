package app

import (
	"fmt"
	"text/tabwriter"

	"fieldreport/internal/storage/sqlite"

	"github.com/spf13/cobra"
)

func (c *cli) historyCmd() *cobra.Command {
	var (
		kind  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind != sqlite.KindTerritory && kind != sqlite.KindSurveyors {
				return fmt.Errorf("unknown run kind %q (want %s or %s)", kind, sqlite.KindTerritory, sqlite.KindSurveyors)
			}
			db, err := sqlite.InitDB(c.cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init database: %w", err)
			}
			defer db.Close()

			runs, err := sqlite.ListRuns(db, kind, limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No stored %s runs.\n", kind)
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CREATED\tRUN ID\tSOURCE")
			for _, run := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", run.CreatedAt.In(c.cfg.Location).Format("2006-01-02 15:04:05"), run.ID, run.Source)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&kind, "kind", sqlite.KindTerritory, "run kind: territory or surveyors")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	return cmd
}
