package scorer

// EngagementAction is a UI-triggered engagement event that adjusts a
// lead's score after creation. The set is wider than CallOutcome: email
// events and a generic "responded" adjust scores too.
type EngagementAction string

const (
	ActionInterested    EngagementAction = "interested"
	ActionResponded     EngagementAction = "responded"
	ActionEmailOpened   EngagementAction = "email_opened"
	ActionEmailSent     EngagementAction = "email_sent"
	ActionCallBack      EngagementAction = "call_back"
	ActionVoicemail     EngagementAction = "voicemail"
	ActionNoAnswer      EngagementAction = "no_answer"
	ActionWrongNumber   EngagementAction = "wrong_number"
	ActionNotInterested EngagementAction = "not_interested"
)

// engagementDeltas maps each action to its fixed signed score delta.
var engagementDeltas = map[EngagementAction]int{
	ActionInterested:    20,
	ActionResponded:     25,
	ActionEmailOpened:   10,
	ActionEmailSent:     5,
	ActionCallBack:      10,
	ActionVoicemail:     0,
	ActionNoAnswer:      0,
	ActionWrongNumber:   -10,
	ActionNotInterested: -15,
}

// Delta returns the signed score delta for an action. Unknown actions
// contribute nothing.
func Delta(action EngagementAction) int {
	return engagementDeltas[action]
}

// KnownAction reports whether the action has a defined delta.
func KnownAction(action EngagementAction) bool {
	_, ok := engagementDeltas[action]
	return ok
}

// Rescore applies an engagement action to a lead's current score.
//
// Re-logging the same outcome is a no-op, so repeated identical events
// never double-count. When the outcome changes, the previous outcome's
// delta is subtracted before the new one is added, making the adjustment
// a reversible transition on an accumulator rather than a monotonic
// counter. The result is clamped to [0, 100].
func Rescore(current int, action, previous EngagementAction) int {
	if action == previous {
		return current
	}

	score := current
	if previous != "" {
		score -= Delta(previous)
	}
	score += Delta(action)

	return clamp(score)
}
