package model

import "time"

// ActionType identifies the kind of event recorded in the intelligence log.
type ActionType string

const (
	ActionEmailGenerated     ActionType = "email_generated"
	ActionEmailSent          ActionType = "email_sent"
	ActionScriptGenerated    ActionType = "script_generated"
	ActionCallOutcome        ActionType = "call_outcome"
	ActionCaseStudyGenerated ActionType = "case_study_generated"
	ActionCaseStudySaved     ActionType = "case_study_saved"
	ActionLeadScraped        ActionType = "lead_scraped"
)

// IntelligenceLogEntry is one append-only event in the intelligence log.
// Entries are never mutated or deleted; they are read back in aggregate to
// derive per-industry outreach insight.
type IntelligenceLogEntry struct {
	ID         string            `json:"id"`
	ActionType ActionType        `json:"action_type"`
	Industry   string            `json:"industry,omitempty"`
	LeadID     string            `json:"lead_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Outcome    string            `json:"outcome,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
