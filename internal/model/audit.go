package model

// AuditResult is the outcome of a standalone website audit. It is not
// persisted by the pipeline itself; callers may store it alongside an
// externally generated pitch.
type AuditResult struct {
	URL          string `json:"url"`
	LoadTimeMs   int64  `json:"load_time_ms"`
	TTFBMs       int64  `json:"ttfb_ms"`
	PageSizeKB   int64  `json:"page_size_kb"`
	StatusCode   int    `json:"status_code,omitempty"`
	HTTPS        bool   `json:"https"`
	HasViewport  bool   `json:"has_viewport"`
	MobileReady  bool   `json:"mobile_ready"`
	Title        string `json:"title,omitempty"`
	HasTitle     bool   `json:"has_title"`
	Description  string `json:"description,omitempty"`
	HasDesc      bool   `json:"has_description"`
	H1Count      int    `json:"h1_count"`
	ImageCount   int    `json:"image_count"`
	ScriptCount  int    `json:"script_count"`
	StyleSheets  int    `json:"stylesheets"`
	InlineStyles int    `json:"inline_styles"`

	// SecurityHeaders maps each checked response header to its presence.
	SecurityHeaders map[string]bool `json:"security_headers,omitempty"`

	Issues       []string `json:"issues"`
	Positives    []string `json:"positives"`
	OverallScore int      `json:"overall_score"`
}
