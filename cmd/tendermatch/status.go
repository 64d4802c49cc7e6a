package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func statusCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index readiness and tender counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cfgPath, nil)
			if err != nil {
				return err
			}
			defer app.Close()

			status, err := app.pipe.Status(cmd.Context())
			if err != nil {
				return err
			}

			if status.Ready {
				color.Green("Status: Ready")
			} else {
				color.Red("Status: Not Ready — no tenders indexed, run 'tendermatch scrape' first")
			}
			fmt.Printf("Tenders in database: %d\n", status.TenderCount)
			fmt.Printf("Archived raw tenders: %d\n", status.ArchivedCount)
			fmt.Printf("Embedding model: %s (%d dimensions)\n", status.EmbeddingModel, status.Dimension)
			return nil
		},
	}
}
