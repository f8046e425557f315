package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

var (
	leadsStatus   string
	leadsCity     string
	leadsCategory string
	leadsMinScore int
	leadsLimit    int
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List and export persisted leads",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads in outreach rank order",
	RunE: func(cmd *cobra.Command, args []string) error {
		leads, err := fetchLeads(cmd)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SCORE\tBUSINESS\tCITY\tPHONE\tWEBSITE\tSTATUS")
		for _, l := range leads {
			website := string(l.WebsiteQuality)
			if l.WebsiteURL != "" {
				website = l.WebsiteURL
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				l.LeadScore, l.BusinessName, l.City, l.Phone, website, l.Status)
		}
		return w.Flush()
	},
}

var leadsExportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Export leads to an XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		leads, err := fetchLeads(cmd)
		if err != nil {
			return err
		}
		if err := export.WriteLeadsXLSX(args[0], leads); err != nil {
			return err
		}
		fmt.Printf("Wrote %d leads to %s\n", len(leads), args[0])
		return nil
	},
}

func fetchLeads(cmd *cobra.Command) ([]model.Lead, error) {
	st, err := openStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck

	return st.ListLeads(cmd.Context(), store.LeadFilter{
		Status:   model.LeadStatus(leadsStatus),
		City:     leadsCity,
		Category: leadsCategory,
		MinScore: leadsMinScore,
		Limit:    leadsLimit,
	})
}

func init() {
	for _, c := range []*cobra.Command{leadsListCmd, leadsExportCmd} {
		c.Flags().StringVar(&leadsStatus, "status", "", "filter by status")
		c.Flags().StringVar(&leadsCity, "city", "", "filter by city")
		c.Flags().StringVar(&leadsCategory, "category", "", "filter by category")
		c.Flags().IntVar(&leadsMinScore, "min-score", 0, "minimum lead score")
		c.Flags().IntVar(&leadsLimit, "limit", 0, "maximum rows (0 = all)")
	}
	leadsCmd.AddCommand(leadsListCmd, leadsExportCmd)
	rootCmd.AddCommand(leadsCmd)
}
