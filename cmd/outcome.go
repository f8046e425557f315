package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/engage"
	"github.com/sells-group/leadgen-cli/internal/scorer"
)

var outcomeCallback string

var outcomeCmd = &cobra.Command{
	Use:   "outcome <lead-id> <action>",
	Short: "Record an engagement outcome and rescore the lead",
	Long:  "Actions: interested, responded, email_opened, email_sent, call_back, no_answer, wrong_number, not_interested.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		req := engage.OutcomeRequest{
			LeadID: args[0],
			Action: scorer.EngagementAction(args[1]),
		}
		if outcomeCallback != "" {
			when, err := time.Parse("2006-01-02", outcomeCallback)
			if err != nil {
				return eris.Wrapf(err, "parse callback date %q", outcomeCallback)
			}
			req.CallbackDate = &when
		}

		lead, err := engage.NewRecorder(st).RecordOutcome(cmd.Context(), req)
		if err != nil {
			return err
		}

		fmt.Printf("%s: score %d, status %s", lead.BusinessName, lead.LeadScore, lead.Status)
		if lead.CallOutcome != "" {
			fmt.Printf(", outcome %s", lead.CallOutcome)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	outcomeCmd.Flags().StringVar(&outcomeCallback, "callback", "", "callback date for call_back outcomes (YYYY-MM-DD)")
	rootCmd.AddCommand(outcomeCmd)
}
