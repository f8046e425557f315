package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRescoreDeltas(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		action   EngagementAction
		previous EngagementAction
		want     int
	}{
		{"interested adds 20", 50, ActionInterested, "", 70},
		{"responded adds 25", 50, ActionResponded, "", 75},
		{"email opened adds 10", 50, ActionEmailOpened, "", 60},
		{"email sent adds 5", 50, ActionEmailSent, "", 55},
		{"call back adds 10", 50, ActionCallBack, "", 60},
		{"voicemail is neutral", 50, ActionVoicemail, "", 50},
		{"no answer is neutral", 50, ActionNoAnswer, "", 50},
		{"wrong number subtracts 10", 50, ActionWrongNumber, "", 40},
		{"not interested subtracts 15", 50, ActionNotInterested, "", 35},
		{"clamped at 100", 95, ActionResponded, "", 100},
		{"clamped at 0", 5, ActionNotInterested, "", 0},
		{"outcome change reverses previous", 70, ActionCallBack, ActionInterested, 60}, // 70-20+10
		{"downgrade to not interested", 70, ActionNotInterested, ActionInterested, 35}, // 70-20-15
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rescore(tt.current, tt.action, tt.previous))
		})
	}
}

// Re-logging the same outcome must not change the score.
func TestRescoreIdempotence(t *testing.T) {
	for action := range engagementDeltas {
		first := Rescore(50, action, "")
		again := Rescore(first, action, action)
		assert.Equal(t, first, again, "action=%s", action)
	}
}

// Applying an action and then reverting it restores the original score,
// as long as no clamp was hit in between.
func TestRescoreReversibility(t *testing.T) {
	for action := range engagementDeltas {
		start := 50
		adjusted := Rescore(start, action, "")
		back := Rescore(adjusted, "", action)
		assert.Equal(t, start, back, "action=%s", action)
	}
}

func TestKnownAction(t *testing.T) {
	assert.True(t, KnownAction(ActionInterested))
	assert.True(t, KnownAction(ActionVoicemail))
	assert.False(t, KnownAction("meeting_booked"))
}
