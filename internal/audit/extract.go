package audit

import (
	"regexp"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
)

const (
	maxTitleChars = 120
	maxDescChars  = 200
)

var (
	viewportRe = regexp.MustCompile(`(?is)<meta[^>]*name=["']viewport["'][^>]*>`)
	titleRe    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

	// The description meta tag appears with name before content or the
	// reverse; both orders are checked.
	descNameFirstRe    = regexp.MustCompile(`(?is)<meta[^>]*name=["']description["'][^>]*content=["']([^"']*)["']`)
	descContentFirstRe = regexp.MustCompile(`(?is)<meta[^>]*content=["']([^"']*)["'][^>]*name=["']description["']`)

	h1Re         = regexp.MustCompile(`(?i)<h1[\s>]`)
	imgRe        = regexp.MustCompile(`(?i)<img[\s>]`)
	scriptRe     = regexp.MustCompile(`(?i)<script[\s>]`)
	stylesheetRe = regexp.MustCompile(`(?is)<link[^>]*rel=["']stylesheet["'][^>]*>`)
	inlineRe     = regexp.MustCompile(`(?i)\sstyle=`)
)

// extractSignals pattern-matches structural signals out of the raw HTML.
func extractSignals(result *model.AuditResult, html string) {
	if m := viewportRe.FindString(html); m != "" {
		result.HasViewport = true
		result.MobileReady = strings.Contains(strings.ToLower(m), "width=device-width")
	}

	if m := titleRe.FindStringSubmatch(html); m != nil {
		title := strings.TrimSpace(m[1])
		if title != "" {
			result.HasTitle = true
			result.Title = truncate(title, maxTitleChars)
		}
	}

	if desc := findDescription(html); desc != "" {
		result.HasDesc = true
		result.Description = truncate(desc, maxDescChars)
	}

	result.H1Count = len(h1Re.FindAllString(html, -1))
	result.ImageCount = len(imgRe.FindAllString(html, -1))
	result.ScriptCount = len(scriptRe.FindAllString(html, -1))
	result.StyleSheets = len(stylesheetRe.FindAllString(html, -1))
	result.InlineStyles = len(inlineRe.FindAllString(html, -1))
}

func findDescription(html string) string {
	if m := descNameFirstRe.FindStringSubmatch(html); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := descContentFirstRe.FindStringSubmatch(html); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// truncate cuts on rune boundaries so multi-byte characters in titles
// and descriptions never yield invalid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
