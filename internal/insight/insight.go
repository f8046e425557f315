// Package insight mines the append-only intelligence log for per-industry
// outreach signal: outcome distribution, interest rate, and the email tone
// that gets used most. The rendered block is passed verbatim to the text
// generator as prompt context.
package insight

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// maxEntries bounds how much history one summary reads per action type.
const maxEntries = 50

// Store is the log-reading surface the aggregator needs.
type Store interface {
	RecentLog(ctx context.Context, action model.ActionType, industry string, limit int) ([]model.IntelligenceLogEntry, error)
}

// Summary is the aggregated signal for one industry.
type Summary struct {
	Industry     string
	Calls        int
	Emails       int
	Histogram    map[string]int
	InterestRate float64
	TopTone      string
}

// Aggregate reads recent call outcomes and generated emails for a fuzzily
// matched industry. It returns nil when there is no history at all: zero
// data must not produce fabricated signal.
func Aggregate(ctx context.Context, st Store, industry string) (*Summary, error) {
	industry = strings.ToLower(strings.TrimSpace(industry))

	calls, err := st.RecentLog(ctx, model.ActionCallOutcome, industry, maxEntries)
	if err != nil {
		return nil, eris.Wrap(err, "insight: read call outcomes")
	}
	emails, err := st.RecentLog(ctx, model.ActionEmailGenerated, industry, maxEntries)
	if err != nil {
		return nil, eris.Wrap(err, "insight: read generated emails")
	}
	if len(calls) == 0 && len(emails) == 0 {
		return nil, nil
	}

	s := &Summary{
		Industry:  industry,
		Calls:     len(calls),
		Emails:    len(emails),
		Histogram: make(map[string]int),
	}

	interested := 0
	for _, c := range calls {
		outcome := c.Outcome
		if outcome == "" {
			outcome = "unknown"
		}
		s.Histogram[outcome]++
		if outcome == string(model.OutcomeInterested) {
			interested++
		}
	}
	if s.Calls > 0 {
		s.InterestRate = float64(interested) / float64(s.Calls)
	}

	s.TopTone = topTone(emails)
	return s, nil
}

// topTone returns the most frequent "tone" metadata tag, ties broken
// alphabetically for determinism.
func topTone(emails []model.IntelligenceLogEntry) string {
	counts := make(map[string]int)
	for _, e := range emails {
		if tone := e.Metadata["tone"]; tone != "" {
			counts[tone]++
		}
	}

	var best string
	for tone, n := range counts {
		if best == "" || n > counts[best] || (n == counts[best] && tone < best) {
			best = tone
		}
	}
	return best
}

// Render produces the fixed-format text block handed to the text
// generator.
func (s *Summary) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Industry intelligence for %s:\n", s.Industry)
	fmt.Fprintf(&b, "- %d calls logged, %d emails generated\n", s.Calls, s.Emails)

	if len(s.Histogram) > 0 {
		fmt.Fprintf(&b, "- Outcomes: %s\n", renderHistogram(s.Histogram))
	}
	if s.Calls > 0 {
		fmt.Fprintf(&b, "- Interest rate: %.0f%%\n", s.InterestRate*100)
	}
	if s.TopTone != "" {
		fmt.Fprintf(&b, "- Emails most often use a %s tone\n", s.TopTone)
	}

	switch {
	case s.Calls > 0 && s.InterestRate > 0.5:
		b.WriteString("- This industry responds well to outreach\n")
	case s.Calls >= 5 && s.InterestRate < 0.2:
		b.WriteString("- This industry is tough, lead with a stronger value proposition\n")
	}

	return b.String()
}

// renderHistogram formats outcome counts, highest first, names breaking
// ties so the block is stable across runs.
func renderHistogram(hist map[string]int) string {
	type bucket struct {
		outcome string
		count   int
	}
	buckets := make([]bucket, 0, len(hist))
	for outcome, count := range hist {
		buckets = append(buckets, bucket{outcome, count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].count != buckets[j].count {
			return buckets[i].count > buckets[j].count
		}
		return buckets[i].outcome < buckets[j].outcome
	})

	parts := make([]string, len(buckets))
	for i, bk := range buckets {
		parts[i] = fmt.Sprintf("%s %d", bk.outcome, bk.count)
	}
	return strings.Join(parts, ", ")
}
