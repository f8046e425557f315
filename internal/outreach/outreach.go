// Package outreach drafts one cold email per lead through the text
// generator, paced to respect upstream rate limits and seeded with the
// industry's aggregated intelligence.
package outreach

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/insight"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/textgen"
)

const systemPrompt = "You write short, specific cold outreach emails for a small web design agency. " +
	"Two paragraphs maximum. No placeholder brackets, no subject line."

// Store is the persistence surface the generator needs.
type Store interface {
	insight.Store
	AppendLog(ctx context.Context, entry *model.IntelligenceLogEntry) error
}

// Email is one generated draft.
type Email struct {
	LeadID       string
	BusinessName string
	Text         string
}

// LeadFailure records one lead whose draft could not be generated.
type LeadFailure struct {
	LeadID       string
	BusinessName string
	Err          error
}

// Report summarizes one outreach run.
type Report struct {
	Generated int
	Emails    []Email
	Failures  []LeadFailure
}

// Generator drafts emails for a batch of leads.
type Generator struct {
	store   Store
	textgen textgen.Client
	limiter *rate.Limiter
	cfg     config.OutreachConfig
	retry   resilience.Policy
}

// NewGenerator creates a Generator. Calls are spaced cfg.PaceSecs apart
// with escalating pauses on 429s, capped at cfg.MaxRetries attempts per
// lead.
func NewGenerator(st Store, tg textgen.Client, cfg config.OutreachConfig) *Generator {
	pace := time.Duration(cfg.PaceSecs) * time.Second
	if pace <= 0 {
		pace = 3 * time.Second
	}
	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 3
	}
	return &Generator{
		store:   st,
		textgen: tg,
		limiter: rate.NewLimiter(rate.Every(pace), 1),
		cfg:     cfg,
		retry: resilience.Policy{
			MaxAttempts: attempts,
			Backoff:     resilience.LinearBackoff(5*time.Second, time.Minute),
			ShouldRetry: resilience.IsRateLimit,
		},
	}
}

// Run drafts one email per lead. A failing lead is recorded and skipped;
// the rest of the batch proceeds.
func (g *Generator) Run(ctx context.Context, leads []model.Lead) (*Report, error) {
	log := zap.L().With(zap.String("component", "outreach"))

	var report Report
	summaries := map[string]*insight.Summary{}

	for i := range leads {
		lead := &leads[i]
		if err := ctx.Err(); err != nil {
			return &report, eris.Wrap(err, "outreach: canceled")
		}

		summary, ok := summaries[lead.Category]
		if !ok {
			var err error
			summary, err = insight.Aggregate(ctx, g.store, lead.Category)
			if err != nil {
				log.Warn("insight lookup failed", zap.String("industry", lead.Category), zap.Error(err))
			}
			summaries[lead.Category] = summary
		}

		if err := g.limiter.Wait(ctx); err != nil {
			return &report, eris.Wrap(err, "outreach: pacing wait")
		}

		text, err := g.draft(ctx, lead, summary)
		if err != nil {
			log.Warn("draft failed", zap.String("lead_id", lead.ID), zap.Error(err))
			report.Failures = append(report.Failures, LeadFailure{
				LeadID:       lead.ID,
				BusinessName: lead.BusinessName,
				Err:          err,
			})
			continue
		}

		report.Generated++
		report.Emails = append(report.Emails, Email{
			LeadID:       lead.ID,
			BusinessName: lead.BusinessName,
			Text:         text,
		})

		entry := &model.IntelligenceLogEntry{
			ActionType: model.ActionEmailGenerated,
			Industry:   lead.Category,
			LeadID:     lead.ID,
			Metadata:   map[string]string{"tone": g.tone()},
		}
		if err := g.store.AppendLog(ctx, entry); err != nil {
			log.Warn("append log failed", zap.String("lead_id", lead.ID), zap.Error(err))
		}
	}

	log.Info("outreach run complete",
		zap.Int("generated", report.Generated),
		zap.Int("failed", len(report.Failures)),
	)
	return &report, nil
}

func (g *Generator) draft(ctx context.Context, lead *model.Lead, summary *insight.Summary) (string, error) {
	prompt := buildPrompt(lead, summary, g.tone())

	result, err := resilience.DoVal(ctx, g.retry, func(ctx context.Context) (*textgen.Result, error) {
		return g.textgen.Generate(ctx, textgen.Request{System: systemPrompt, Prompt: prompt})
	})
	if err != nil {
		return "", eris.Wrapf(err, "outreach: generate for %q", lead.BusinessName)
	}
	if strings.TrimSpace(result.Text) == "" {
		return "", eris.Errorf("outreach: empty draft for %q", lead.BusinessName)
	}
	return result.Text, nil
}

// buildPrompt assembles the per-lead prompt, appending the industry
// summary verbatim when one exists.
func buildPrompt(lead *model.Lead, summary *insight.Summary, tone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s cold email to %s, a %s in %s, %s.\n",
		tone, lead.BusinessName, lead.Category, lead.City, lead.State)

	switch lead.WebsiteQuality {
	case model.WebsiteNone:
		b.WriteString("They have no website at all; pitch building their first one.\n")
	case model.WebsitePoor:
		fmt.Fprintf(&b, "Their only web presence is a platform page (%s); pitch a proper site.\n", lead.WebsiteURL)
	default:
		fmt.Fprintf(&b, "They have a website (%s); pitch a redesign or improvements.\n", lead.WebsiteURL)
	}
	if lead.ReviewCount > 0 {
		fmt.Fprintf(&b, "They have %d Google reviews at a %.1f rating.\n", lead.ReviewCount, lead.GoogleRating)
	}

	if summary != nil {
		b.WriteString("\n")
		b.WriteString(summary.Render())
	}
	return b.String()
}

func (g *Generator) tone() string {
	if g.cfg.Tone != "" {
		return g.cfg.Tone
	}
	return "casual"
}
