// Package scorer computes the 0-100 lead score used for ranking and tiering,
// and applies reversible engagement-based adjustments to it.
package scorer

import (
	"github.com/sells-group/leadgen-cli/internal/model"
)

// Score maps a lead's attributes to an integer in [0, 100]. Each bucket
// contributes its single highest matching tier; buckets never stack
// internally. Leads without a usable website score highest because they
// are the best outreach targets.
func Score(lead *model.Lead) int {
	score := scoreWebsite(lead.WebsiteQuality)
	score += scoreReviews(lead.ReviewCount)
	score += scoreRating(lead.GoogleRating)
	score += scoreContact(lead.Phone, lead.Email)

	return clamp(score)
}

func scoreWebsite(q model.WebsiteQuality) int {
	switch q {
	case model.WebsiteNone:
		return 40
	case model.WebsitePoor:
		return 25
	default:
		return 5
	}
}

func scoreReviews(count int) int {
	switch {
	case count >= 200:
		return 20
	case count >= 100:
		return 16
	case count >= 50:
		return 12
	case count >= 20:
		return 8
	case count >= 5:
		return 4
	default:
		return 0
	}
}

func scoreRating(rating float64) int {
	switch {
	case rating >= 4.5:
		return 15
	case rating >= 4.0:
		return 12
	case rating >= 3.5:
		return 8
	case rating >= 3.0:
		return 4
	default:
		return 0
	}
}

func scoreContact(phone, email string) int {
	score := 0
	if phone != "" {
		score += 10
	}
	if email != "" {
		score += 15
	}
	return score
}

// clamp bounds a score to [0, 100]. The bucket sums top out at exactly 100
// so the upper clamp is a safety bound rather than a normal code path.
func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
