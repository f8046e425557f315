// Package engage applies UI-triggered engagement events to persisted
// leads: rescoring, status transitions, and the intelligence log trail.
package engage

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/scorer"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// maxConflictRetries bounds how often one event re-reads a lead after
// losing a version race to a concurrent writer.
const maxConflictRetries = 3

// Store is the persistence surface the recorder needs.
type Store interface {
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	UpdateLeadEngagement(ctx context.Context, lead *model.Lead) error
	AppendLog(ctx context.Context, entry *model.IntelligenceLogEntry) error
}

// Recorder records engagement events against leads.
type Recorder struct {
	store Store
}

// NewRecorder creates a Recorder backed by the given store.
func NewRecorder(st Store) *Recorder {
	return &Recorder{store: st}
}

// OutcomeRequest is one engagement event.
type OutcomeRequest struct {
	LeadID       string
	Action       scorer.EngagementAction
	CallbackDate *time.Time
}

// RecordOutcome rescores the lead for the action, persists the updated
// engagement state, and appends a call_outcome log entry. The write is
// guarded by the lead's version; losing the race re-reads and reapplies,
// so concurrent events on one lead serialize instead of clobbering.
func (r *Recorder) RecordOutcome(ctx context.Context, req OutcomeRequest) (*model.Lead, error) {
	if !scorer.KnownAction(req.Action) {
		return nil, eris.Errorf("engage: unknown action %q", req.Action)
	}

	var lead *model.Lead
	for attempt := 0; ; attempt++ {
		var err error
		lead, err = r.store.GetLead(ctx, req.LeadID)
		if err != nil {
			return nil, eris.Wrapf(err, "engage: load lead %s", req.LeadID)
		}

		// Only call outcomes replace one another; email events stack on
		// top of whatever outcome is recorded.
		var previous scorer.EngagementAction
		if isCallOutcome(model.CallOutcome(req.Action)) {
			previous = scorer.EngagementAction(lead.CallOutcome)
		}
		lead.LeadScore = scorer.Rescore(lead.LeadScore, req.Action, previous)
		applyTransition(lead, req)

		err = r.store.UpdateLeadEngagement(ctx, lead)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrVersionConflict) || attempt == maxConflictRetries {
			return nil, eris.Wrapf(err, "engage: update lead %s", req.LeadID)
		}
		zap.L().Debug("engage: version conflict, retrying",
			zap.String("lead_id", req.LeadID),
			zap.Int("attempt", attempt+1),
		)
	}

	entry := &model.IntelligenceLogEntry{
		ActionType: model.ActionCallOutcome,
		Industry:   lead.Category,
		LeadID:     lead.ID,
		Outcome:    string(req.Action),
	}
	if err := r.store.AppendLog(ctx, entry); err != nil {
		// The rescore is already durable; a lost log entry degrades
		// insight, not correctness.
		zap.L().Warn("engage: append log failed", zap.String("lead_id", lead.ID), zap.Error(err))
	}

	return lead, nil
}

// applyTransition mutates status and call outcome for the action.
func applyTransition(lead *model.Lead, req OutcomeRequest) {
	switch req.Action {
	case scorer.ActionResponded:
		lead.Status = model.StatusResponded
	case scorer.ActionNotInterested:
		lead.Status = model.StatusDead
	case scorer.ActionEmailSent, scorer.ActionEmailOpened:
		if lead.Status == model.StatusNew || lead.Status == model.StatusSaved {
			lead.Status = model.StatusContacted
		}
	default:
		if lead.Status == model.StatusNew || lead.Status == model.StatusSaved {
			lead.Status = model.StatusContacted
		}
	}

	if outcome := model.CallOutcome(req.Action); isCallOutcome(outcome) {
		lead.CallOutcome = outcome
	}
	if req.Action == scorer.ActionCallBack && req.CallbackDate != nil {
		lead.CallbackDate = req.CallbackDate
	}
}

func isCallOutcome(o model.CallOutcome) bool {
	switch o {
	case model.OutcomeInterested, model.OutcomeCallBack, model.OutcomeVoicemail,
		model.OutcomeNotInterested, model.OutcomeNoAnswer, model.OutcomeWrongNumber:
		return true
	default:
		return false
	}
}
