package scorer

import (
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// nonCustomPlatforms flags URLs that are social profiles, review-aggregator
// profile pages, or default site-builder subdomains rather than a real
// business website.
var nonCustomPlatforms = []string{
	"facebook.com",
	"instagram.com",
	"linkedin.com",
	"yelp.com",
	"tripadvisor.com",
	"linktr.ee",
	"business.site",
	"godaddysites.com",
	"wixsite.com",
	"weebly.com",
	"wordpress.com",
	"blogspot.com",
	"squarespace.com",
}

// ClassifyWebsite buckets a website URL into none/poor/decent from
// superficial platform heuristics. Total over all inputs; never fails.
func ClassifyWebsite(url string) model.WebsiteQuality {
	url = strings.TrimSpace(url)
	if url == "" {
		return model.WebsiteNone
	}

	lower := strings.ToLower(url)
	for _, platform := range nonCustomPlatforms {
		if strings.Contains(lower, platform) {
			return model.WebsitePoor
		}
	}
	return model.WebsiteDecent
}
