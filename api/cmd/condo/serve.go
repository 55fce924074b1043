package main

import (
	"github.com/spf13/cobra"

	"condo-extract/api/internal/app"
	"condo-extract/api/internal/httpserver"
)

func newServeCmd(c *cli) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP upload service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != "" {
				c.cfg.Port = port
			}
			a, cleanup, err := app.Build(cmd.Context(), c.cfg, c.log)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := httpserver.New(":"+c.cfg.Port, a.Handler(), c.log, c.cfg.AllowedOrigins)
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")
	return cmd
}
