package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func reindexCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Re-embed archived tenders and rebuild the index",
		Long: "Re-embeds every archived raw tender with the configured embedding " +
			"model and rebuilds the vector index from them. Run after changing " +
			"the embedding model.",
		RunE: func(cmd *cobra.Command, args []string) error {
			bars := &stageBars{}
			app, err := newApp(cfgPath, bars.update)
			if err != nil {
				return err
			}
			defer app.Close()

			color.Blue("\nReindexing archived tenders with %s\n", app.cfg.LLM.EmbeddingModel)

			report, err := app.pipe.Reindex(cmd.Context())
			bars.finish()
			if err != nil {
				return err
			}

			color.Green("\n✓ Reindexed %d tenders in %s\n", report.Stored, report.Took.Round(time.Millisecond))
			for source, count := range report.PerSource {
				fmt.Printf("  %s: %d\n", source, count)
			}
			return nil
		},
	}
}
