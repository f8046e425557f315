package audit

import (
	"fmt"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Threshold constants for findings. Sizes are in KB, times in ms.
const (
	slowLoadMs     = 3000
	verySlowLoadMs = 5000
	slowTTFBMs     = 1000
	largePageKB    = 500
	hugePageKB     = 2000
	shortTitleLen  = 20
	maxImages      = 20
	maxScripts     = 10
	maxInline      = 30
)

// appendFindings evaluates fixed thresholds against the extracted signals
// and fills the issues and positives lists. Order is stable so reports
// render deterministically.
func appendFindings(result *model.AuditResult) {
	issue := func(format string, args ...any) {
		result.Issues = append(result.Issues, fmt.Sprintf(format, args...))
	}
	positive := func(format string, args ...any) {
		result.Positives = append(result.Positives, fmt.Sprintf(format, args...))
	}

	if result.LoadTimeMs > slowLoadMs {
		issue("Slow page load: %dms (aim for under %dms)", result.LoadTimeMs, slowLoadMs)
	} else {
		positive("Page loads quickly (%dms)", result.LoadTimeMs)
	}

	if result.TTFBMs > slowTTFBMs {
		issue("Slow server response: %dms to first byte", result.TTFBMs)
	}

	switch {
	case result.PageSizeKB > hugePageKB:
		issue("Very heavy page: %dKB (aim for under %dKB)", result.PageSizeKB, largePageKB)
	case result.PageSizeKB > largePageKB:
		issue("Heavy page: %dKB (aim for under %dKB)", result.PageSizeKB, largePageKB)
	}

	if !result.HasViewport {
		issue("No viewport meta tag; page will not render properly on mobile")
	} else if result.MobileReady {
		positive("Mobile-friendly viewport configured")
	}

	switch {
	case !result.HasTitle:
		issue("Missing page title")
	case len(result.Title) < shortTitleLen:
		issue("Page title too short for search results (%d chars)", len(result.Title))
	default:
		positive("Descriptive page title present")
	}

	if !result.HasDesc {
		issue("Missing meta description; search engines will improvise one")
	} else {
		positive("Meta description present")
	}

	switch {
	case result.H1Count == 0:
		issue("No H1 heading found")
	case result.H1Count > 1:
		issue("Multiple H1 headings (%d); use exactly one", result.H1Count)
	default:
		positive("Single H1 heading")
	}

	if !result.HTTPS {
		issue("Site is not served over HTTPS")
	} else {
		positive("Served over HTTPS")
	}

	if result.ImageCount > maxImages {
		issue("Heavy image count: %d images on one page", result.ImageCount)
	}
	if result.ScriptCount > maxScripts {
		issue("Heavy script count: %d script tags", result.ScriptCount)
	}
	if result.InlineStyles > maxInline {
		issue("Excessive inline styles: %d occurrences", result.InlineStyles)
	}

	secure := 0
	for _, present := range result.SecurityHeaders {
		if present {
			secure++
		}
	}
	if secure == len(result.SecurityHeaders) && secure > 0 {
		positive("All checked security headers present")
	}
}

// finishScore computes the capped composite score from the issue count and
// a load-time penalty:
//
//	overall = 100 - (min(issues,10)/10 * 80) - loadPenalty
//
// where loadPenalty is 15 above 5000ms, 8 above 3000ms, 0 otherwise.
// Adding an issue can never raise the score.
func finishScore(result *model.AuditResult) {
	issues := len(result.Issues)
	if issues > 10 {
		issues = 10
	}

	penalty := 0
	switch {
	case result.LoadTimeMs > verySlowLoadMs:
		penalty = 15
	case result.LoadTimeMs > slowLoadMs:
		penalty = 8
	}

	score := 100 - issues*80/10 - penalty
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	result.OverallScore = score
}
