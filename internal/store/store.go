// Package store persists leads, daily picks, and the append-only
// intelligence log behind a driver-agnostic interface with Postgres and
// SQLite implementations.
package store

import (
	"context"
	"errors"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var (
	// ErrDuplicateLead reports an insert whose (name, city) dedup key
	// matches a persisted lead. Callers treat it as a skip, not a failure.
	ErrDuplicateLead = errors.New("store: duplicate lead")

	// ErrVersionConflict reports a lost optimistic-lock race on a lead
	// update. Callers re-read and retry.
	ErrVersionConflict = errors.New("store: lead version conflict")

	// ErrNotFound reports a missing record.
	ErrNotFound = errors.New("store: not found")
)

// LeadFilter narrows ListLeads. Zero values mean "no constraint".
type LeadFilter struct {
	Status   model.LeadStatus `json:"status,omitempty"`
	City     string           `json:"city,omitempty"`
	Category string           `json:"category,omitempty"`
	MinScore int              `json:"min_score,omitempty"`
	Limit    int              `json:"limit,omitempty"`
	Offset   int              `json:"offset,omitempty"`
}

// Store defines the persistence operations used by the pipeline.
type Store interface {
	// Leads. InsertLead assigns ID and timestamps; a dedup-key match
	// returns ErrDuplicateLead. UpdateLeadEngagement writes score,
	// status, outcome, and callback date guarded by the lead's version,
	// returning ErrVersionConflict when the row moved underneath.
	InsertLead(ctx context.Context, lead *model.Lead) error
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	GetLeadByKey(ctx context.Context, dedupKey string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	ExistingKeys(ctx context.Context, dedupKeys []string) (map[string]bool, error)
	UpdateLeadEngagement(ctx context.Context, lead *model.Lead) error

	// Daily picks are replaced wholesale on each discovery run.
	ReplaceDailyPicks(ctx context.Context, picks []model.DailyPick) error
	ListDailyPicks(ctx context.Context) ([]model.DailyPick, error)

	// Intelligence log: append-only, read back newest-first.
	AppendLog(ctx context.Context, entry *model.IntelligenceLogEntry) error
	RecentLog(ctx context.Context, action model.ActionType, industry string, limit int) ([]model.IntelligenceLogEntry, error)

	Migrate(ctx context.Context) error
	Close() error
}
