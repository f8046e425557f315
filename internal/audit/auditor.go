// Package audit fetches a live web page under a hard timeout and converts
// structural and performance signals from the raw response into a capped
// composite quality score with categorized findings.
package audit

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

const (
	// defaultTimeout bounds the whole fetch, headers through body. On
	// expiry the underlying connection attempt is cancelled, not just
	// abandoned.
	defaultTimeout = 15 * time.Second

	mobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

	// maxBodyBytes caps how much of the page is read for analysis.
	maxBodyBytes = 8 * 1024 * 1024
)

// securityHeaders are the response headers checked during an audit.
var securityHeaders = []string{
	"Strict-Transport-Security",
	"Content-Security-Policy",
	"X-Content-Type-Options",
	"X-Frame-Options",
}

// Auditor performs standalone website audits. Its score is reported on its
// own and never merged into a lead score.
type Auditor struct {
	http    *http.Client
	timeout time.Duration
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithTimeout overrides the default 15-second fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Auditor) {
		a.timeout = d
	}
}

// WithHTTPClient overrides the default HTTP client. The Auditor still
// applies its own timeout via context.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *Auditor) {
		a.http = hc
	}
}

// NewAuditor creates an Auditor with a redirect-following client.
func NewAuditor(opts ...Option) *Auditor {
	a := &Auditor{
		timeout: defaultTimeout,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Audit fetches the URL with a mobile user agent and returns a complete
// result record. It never returns an error: timeouts degrade to a fixed
// worst-case load time and a single slowness issue, and any other fetch
// failure degrades to a "could not load" issue, with the score computed
// from whatever fields remain at their defaults.
func (a *Auditor) Audit(ctx context.Context, rawURL string) *model.AuditResult {
	rawURL = normalizeAuditURL(rawURL)
	result := &model.AuditResult{
		URL:   rawURL,
		HTTPS: strings.HasPrefix(strings.ToLower(rawURL), "https://"),
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	body, err := a.fetch(ctx, rawURL, result)
	if err != nil {
		if isTimeout(err) {
			result.LoadTimeMs = a.timeout.Milliseconds()
			result.Issues = append(result.Issues, "Site is extremely slow or unresponsive (request timed out)")
		} else {
			result.Issues = append(result.Issues, "Could not load website: "+err.Error())
		}
		finishScore(result)
		zap.L().Debug("audit: fetch failed",
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return result
	}

	extractSignals(result, body)
	appendFindings(result)
	finishScore(result)

	zap.L().Info("audit: complete",
		zap.String("url", rawURL),
		zap.Int64("load_ms", result.LoadTimeMs),
		zap.Int("issues", len(result.Issues)),
		zap.Int("score", result.OverallScore),
	)
	return result
}

// fetch issues the GET and fills in timing, size, status, and security
// header fields. The returned body is the page HTML.
func (a *Auditor) fetch(ctx context.Context, rawURL string, result *model.AuditResult) (string, error) {
	start := time.Now()
	var firstByte time.Time

	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() {
			firstByte = time.Now()
		},
	}
	ctx = httptrace.WithClientTrace(ctx, trace)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", mobileUserAgent)

	resp, err := a.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	result.StatusCode = resp.StatusCode
	// Redirects may land on a different scheme than the input.
	result.HTTPS = resp.Request.URL.Scheme == "https"

	result.SecurityHeaders = make(map[string]bool, len(securityHeaders))
	for _, h := range securityHeaders {
		result.SecurityHeaders[h] = resp.Header.Get(h) != ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}

	if firstByte.IsZero() {
		firstByte = time.Now()
	}
	result.TTFBMs = firstByte.Sub(start).Milliseconds()
	result.LoadTimeMs = time.Since(start).Milliseconds()
	result.PageSizeKB = int64(len(body)) / 1024

	return string(body), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func normalizeAuditURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "https://" + raw
	}
	return raw
}
