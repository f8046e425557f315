package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/reconcile"
	"github.com/sells-group/leadgen-cli/pkg/places"
)

var (
	discoverCities     []string
	discoverCategories []string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search configured cities and categories for new leads",
	Long:  "Runs the sequential city/category search, deduplicates and ranks the results, persists new leads, and replaces the daily picks snapshot.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(discoverCities) > 0 {
			cfg.Discovery.Cities = discoverCities
		}
		if len(discoverCategories) > 0 {
			cfg.Discovery.Categories = discoverCategories
		}
		if err := cfg.Validate("discover"); err != nil {
			return err
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(cmd.Context()); err != nil {
			return err
		}

		client := places.NewClient(cfg.Places.Key,
			places.WithBaseURL(cfg.Places.BaseURL),
			places.WithPageSize(cfg.Places.PageSize),
		)
		engine := reconcile.NewEngine(st, client, cfg.Discovery)

		report, err := engine.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Searched %d city/category combinations\n", report.Searched)
		fmt.Printf("  found:      %d\n", report.Found)
		fmt.Printf("  inserted:   %d\n", report.Inserted)
		fmt.Printf("  duplicates: %d\n", report.Duplicates)
		fmt.Printf("  picks:      %d\n", report.Picks)
		if len(report.Failures) > 0 {
			fmt.Printf("  failed:     %d\n", len(report.Failures))
			for _, f := range report.Failures {
				fmt.Printf("    %s / %s: %v\n", f.City, f.Category, f.Err)
			}
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringSliceVar(&discoverCities, "cities", nil, "cities to search (default from config)")
	discoverCmd.Flags().StringSliceVar(&discoverCategories, "categories", nil, "business categories to search (default from config)")
	rootCmd.AddCommand(discoverCmd)
}
