package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"condo-extract/api/internal/config"
	"condo-extract/api/internal/logging"
)

type cli struct {
	configFile string
	logLevel   string
	logFormat  string

	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "condo",
		Short: "Condominium roster extraction",
		Long: `condo turns condominium roster PDFs into a canonical list of units
with their owners and responsible parties.

Configuration comes from the environment (.env and .env.local are loaded
first) and an optional condo.yaml.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default ./condo.yaml when present)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "log format override (json, console, auto)")

	root.AddCommand(newServeCmd(c), newProcessCmd(c))
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	config.LoadEnvFiles()
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if c.logFormat != "" {
		cfg.LogFormat = c.logFormat
	}
	c.cfg = cfg
	c.log = logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, os.Stderr)
	cmd.SetContext(logging.WithLogger(cmd.Context(), c.log))
	return nil
}
