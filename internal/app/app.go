package app

import (
	"fmt"
	"os"

	"fieldreport/internal/config"
	"fieldreport/internal/httpx"
	"fieldreport/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version and Commit are set at build time via ldflags.
	Version = "dev"
	Commit  = "none"
)

type cli struct {
	verbose    bool
	configPath string
	cfg        config.Config
}

func NewRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:   "fieldreport",
		Short: "Territory status and surveyor performance reports",
		Long: `fieldreport turns territory status feeds and POI submission logs into
classified summary reports, and exports Slack channel activity.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadPath(c.configPath)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if err := logging.Init(c.verbose, cfg.LogDir); err != nil {
				return err
			}
			c.cfg = cfg

			timeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
			log.Debug().
				Str("version", Version).
				Str("commit", Commit).
				Str("timezone", cfg.Location.String()).
				Str("output_dir", cfg.OutputDir).
				Strs("formats", cfg.ReportFormats).
				Dur("http_timeout", timeout).
				Msg("config loaded")
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "path to config.yaml (default $CONFIG_PATH or ./config.yaml)")

	rootCmd.AddCommand(
		c.territoryCmd(),
		c.surveyorsCmd(),
		c.slackCmd(),
		c.watchCmd(),
		c.historyCmd(),
	)
	return rootCmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

func Main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
