package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func TestScoreScenarios(t *testing.T) {
	tests := []struct {
		name string
		lead model.Lead
		want int
	}{
		{
			name: "no website strong reviews phone",
			lead: model.Lead{
				WebsiteQuality: model.WebsiteNone,
				ReviewCount:    250,
				GoogleRating:   4.8,
				Phone:          "305-555-0100",
			},
			want: 85, // 40+20+15+10
		},
		{
			name: "decent website modest reviews full contact",
			lead: model.Lead{
				WebsiteQuality: model.WebsiteDecent,
				WebsiteURL:     "https://example.com",
				HasWebsite:     true,
				ReviewCount:    30,
				GoogleRating:   3.8,
				Phone:          "305-555-0100",
				Email:          "owner@example.com",
			},
			want: 46, // 5+8+8+10+15
		},
		{
			name: "maximum only at full stack",
			lead: model.Lead{
				WebsiteQuality: model.WebsiteNone,
				ReviewCount:    500,
				GoogleRating:   5.0,
				Phone:          "305-555-0100",
				Email:          "owner@example.com",
			},
			want: 100, // 40+20+15+10+15
		},
		{
			name: "empty lead scores website bucket only",
			lead: model.Lead{WebsiteQuality: model.WebsiteDecent},
			want: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(&tt.lead))
		})
	}
}

func TestScoreBounds(t *testing.T) {
	qualities := []model.WebsiteQuality{model.WebsiteNone, model.WebsitePoor, model.WebsiteDecent}
	reviews := []int{0, 4, 5, 19, 20, 49, 50, 99, 100, 199, 200, 10000}
	ratings := []float64{0, 2.9, 3.0, 3.4, 3.5, 3.9, 4.0, 4.4, 4.5, 5.0}

	for _, q := range qualities {
		for _, rc := range reviews {
			for _, r := range ratings {
				lead := model.Lead{
					WebsiteQuality: q,
					ReviewCount:    rc,
					GoogleRating:   r,
					Phone:          "x",
					Email:          "y",
				}
				s := Score(&lead)
				assert.GreaterOrEqual(t, s, 0)
				assert.LessOrEqual(t, s, 100)
			}
		}
	}
}

// A missing or worse website must never score below a better one, all
// other attributes held equal.
func TestScoreWebsiteOrdering(t *testing.T) {
	base := model.Lead{ReviewCount: 75, GoogleRating: 4.2, Phone: "p", Email: "e"}

	none, poor, decent := base, base, base
	none.WebsiteQuality = model.WebsiteNone
	poor.WebsiteQuality = model.WebsitePoor
	decent.WebsiteQuality = model.WebsiteDecent

	assert.GreaterOrEqual(t, Score(&none), Score(&poor))
	assert.GreaterOrEqual(t, Score(&poor), Score(&decent))
}

func TestScoreReviewTiers(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{0, 0}, {4, 0}, {5, 4}, {19, 4}, {20, 8}, {49, 8},
		{50, 12}, {99, 12}, {100, 16}, {199, 16}, {200, 20}, {5000, 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scoreReviews(tt.count), "count=%d", tt.count)
	}
}

func TestScoreRatingTiers(t *testing.T) {
	tests := []struct {
		rating float64
		want   int
	}{
		{0, 0}, {2.9, 0}, {3.0, 4}, {3.4, 4}, {3.5, 8}, {3.9, 8},
		{4.0, 12}, {4.4, 12}, {4.5, 15}, {5.0, 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scoreRating(tt.rating), "rating=%.1f", tt.rating)
	}
}
