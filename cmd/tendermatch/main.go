package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	// Environment file is optional
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "tendermatch",
		Short:         "Match government tenders to company profiles",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches standard locations)")

	root.AddCommand(scrapeCMD(), matchCMD(), serveCMD(), statusCMD(), reindexCMD())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
