package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// stageBars renders one progress bar per pipeline stage, switching as the
// pipeline advances. Progress callbacks arrive from worker goroutines.
type stageBars struct {
	mu    sync.Mutex
	stage string
	bar   *progressbar.ProgressBar
}

func (b *stageBars) update(stage string, current, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if stage != b.stage {
		if b.bar != nil {
			b.bar.Finish()
			fmt.Println()
		}
		b.stage = stage
		b.bar = getProgressBar(total, stageDescription(stage))
	}
	b.bar.Set(current)
}

func (b *stageBars) finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar != nil {
		b.bar.Finish()
		fmt.Println()
	}
}

func scrapeCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Scrape government portals and index their tenders",
		RunE: func(cmd *cobra.Command, args []string) error {
			bars := &stageBars{}
			app, err := newApp(cfgPath, bars.update)
			if err != nil {
				return err
			}
			defer app.Close()

			color.Blue("\nScraping %d sources\n", len(app.cfg.Scraper.Sources))

			report, err := app.pipe.IngestTenders(cmd.Context())
			bars.finish()
			if err != nil {
				return err
			}

			color.Green("\n✓ Indexed %d tenders in %s\n", report.Stored, report.Took.Round(time.Millisecond))
			for source, count := range report.PerSource {
				fmt.Printf("  %s: %d\n", source, count)
			}
			return nil
		},
	}
}
