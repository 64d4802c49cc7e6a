package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xhad/tendermatch/pkg/pipeline"
)

func matchCMD() *cobra.Command {
	var req pipeline.MatchRequest

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match a company profile against the indexed tenders",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Text == "" && req.File == "" && req.URL == "" {
				return fmt.Errorf("either --text, --file or --url must be provided")
			}

			app, err := newApp(cfgPath, nil)
			if err != nil {
				return err
			}
			defer app.Close()

			spinner := getSpinner("🔍 Matching profile against tenders...")
			report, err := app.pipe.MatchProfile(cmd.Context(), req)
			spinner.Finish()
			fmt.Print("\r")
			if err != nil {
				return err
			}

			printMatchReport(report)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Text, "text", "", "company profile text")
	cmd.Flags().StringVar(&req.File, "file", "", "path to a company profile text file")
	cmd.Flags().StringVar(&req.URL, "url", "", "company web page to crawl")
	cmd.Flags().IntVar(&req.TopK, "top", 10, "number of recommendations")
	cmd.Flags().StringVar(&req.Filter.Category, "category", "", "filter by tender category")
	cmd.Flags().StringVar(&req.Filter.Source, "source", "", "filter by portal name")
	cmd.Flags().StringVar(&req.Filter.Sector, "sector", "", "filter by sector text (category, department or location)")
	cmd.Flags().BoolVar(&req.ActiveOnly, "active-only", false, "drop tenders whose deadline has passed")

	return cmd
}

func printMatchReport(report pipeline.MatchReport) {
	company := report.Company

	color.Cyan("\nCompany Profile:")
	fmt.Printf("Name: %s\n", company.Name)
	description := company.Description
	if len(description) > 100 {
		description = description[:100] + "..."
	}
	fmt.Printf("Description: %s\n", description)
	fmt.Printf("Services: %s\n", strings.Join(company.Services, ", "))
	fmt.Printf("Capabilities: %s\n", strings.Join(company.Capabilities, ", "))
	fmt.Printf("Expertise: %s\n", strings.Join(company.Expertise, ", "))

	if len(report.Recommendations) == 0 {
		color.Yellow("\nNo matching tenders found.\n")
		return
	}

	color.Cyan("\nFound %d matching tenders:", len(report.Recommendations))
	for _, rec := range report.Recommendations {
		tender := rec.Tender

		fmt.Printf("\n%d. %s\n", rec.Rank, color.GreenString(rec.Title))
		fmt.Printf("   Similarity: %.2f%%\n", rec.Score*100)
		if tender.Amount != nil {
			fmt.Printf("   Amount: ₹%.0f\n", *tender.Amount)
		} else {
			fmt.Printf("   Amount: N/A\n")
		}
		if tender.Deadline != nil {
			fmt.Printf("   Deadline: %s\n", tender.Deadline.Format("02 Jan 2006"))
		} else {
			fmt.Printf("   Deadline: N/A\n")
		}
		fmt.Printf("   Source: %s\n", tender.Source)
		if tender.URL != "" {
			fmt.Printf("   URL: %s\n", tender.URL)
		}
	}

	fmt.Printf("\nMatched in %s\n", report.Took.Round(time.Millisecond))
}
