package main

import (
	"github.com/spf13/cobra"
	"github.com/xhad/tendermatch/server"
)

func serveCMD() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The hub doubles as the pipeline's progress sink so scrape
			// progress streams to dashboard clients.
			hub := server.NewHub()
			app, err := newApp(cfgPath, hub.Progress)
			if err != nil {
				return err
			}
			defer app.Close()

			if addr == "" {
				addr = app.cfg.Server.Addr
			}

			return server.New(app.pipe, hub).Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
