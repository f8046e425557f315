package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/insight"
)

var insightsCmd = &cobra.Command{
	Use:   "insights <industry>",
	Short: "Show aggregated outreach intelligence for an industry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		summary, err := insight.Aggregate(cmd.Context(), st, args[0])
		if err != nil {
			return err
		}
		if summary == nil {
			fmt.Printf("No recorded activity for %q yet\n", args[0])
			return nil
		}

		fmt.Print(summary.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}
