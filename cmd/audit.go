package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/audit"
	"github.com/sells-group/leadgen-cli/internal/model"
)

var auditJSON bool

var auditCmd = &cobra.Command{
	Use:   "audit <url> [url...]",
	Short: "Audit websites for speed, mobile readiness, and structure",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		auditor := audit.NewAuditor(
			audit.WithTimeout(time.Duration(cfg.Audit.TimeoutSecs) * time.Second),
		)

		results := make([]*model.AuditResult, len(args))
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(cfg.Audit.Limit())
		for i, url := range args {
			g.Go(func() error {
				results[i] = auditor.Audit(ctx, url)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if auditJSON {
			return json.NewEncoder(os.Stdout).Encode(results)
		}
		for _, r := range results {
			printAudit(r)
		}
		return nil
	},
}

func printAudit(r *model.AuditResult) {
	fmt.Printf("%s: score %d/100\n", r.URL, r.OverallScore)
	fmt.Printf("  load %dms, ttfb %dms, %dKB, status %d\n", r.LoadTimeMs, r.TTFBMs, r.PageSizeKB, r.StatusCode)
	if len(r.Issues) > 0 {
		fmt.Printf("  issues:\n    %s\n", strings.Join(r.Issues, "\n    "))
	}
	if len(r.Positives) > 0 {
		fmt.Printf("  positives:\n    %s\n", strings.Join(r.Positives, "\n    "))
	}
}

func init() {
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "emit JSON instead of text")
	rootCmd.AddCommand(auditCmd)
}
