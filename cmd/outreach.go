package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/outreach"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/textgen"
)

var (
	outreachLimit    int
	outreachMinScore int
	outreachCategory string
)

var outreachCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Draft cold emails for the top new leads",
	Long:  "Picks the highest-ranked new leads and drafts one email each through the text generator, paced to respect rate limits.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("outreach"); err != nil {
			return err
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		leads, err := st.ListLeads(cmd.Context(), store.LeadFilter{
			Status:   model.StatusNew,
			Category: outreachCategory,
			MinScore: outreachMinScore,
			Limit:    outreachLimit,
		})
		if err != nil {
			return err
		}
		if len(leads) == 0 {
			fmt.Println("No leads match")
			return nil
		}

		gen := outreach.NewGenerator(st,
			textgen.NewClient(cfg.Anthropic.Key, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens),
			cfg.Outreach,
		)
		report, err := gen.Run(cmd.Context(), leads)
		if err != nil {
			return err
		}

		for _, email := range report.Emails {
			fmt.Printf("--- %s ---\n%s\n\n", email.BusinessName, email.Text)
		}
		fmt.Printf("Generated %d drafts, %d failures\n", report.Generated, len(report.Failures))
		for _, f := range report.Failures {
			fmt.Printf("  %s: %v\n", f.BusinessName, f.Err)
		}
		return nil
	},
}

func init() {
	outreachCmd.Flags().IntVar(&outreachLimit, "limit", 10, "maximum emails to draft")
	outreachCmd.Flags().IntVar(&outreachMinScore, "min-score", 0, "minimum lead score")
	outreachCmd.Flags().StringVar(&outreachCategory, "category", "", "restrict to one category")
	rootCmd.AddCommand(outreachCmd)
}
