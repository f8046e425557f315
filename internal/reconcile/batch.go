// Package reconcile merges raw search batches into a deduplicated,
// ranked lead set and cross-references the store.
package reconcile

import (
	"sort"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/normalize"
)

// Dedupe removes within-batch duplicates by full dedup key. The first
// occurrence wins.
func Dedupe(leads []model.Lead) []model.Lead {
	seen := make(map[string]bool, len(leads))
	out := leads[:0:0]
	for _, lead := range leads {
		key := normalize.DedupKey(lead.BusinessName, lead.City)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, lead)
	}
	return out
}

// SeenNames tracks case-insensitive business names across batches of one
// discovery run.
type SeenNames map[string]bool

// FilterSeen drops leads whose name was already produced by an earlier
// batch, then records the survivors. Name-only matching is deliberately
// broader than the dedup key: the same chain appearing in two adjacent
// city searches is one lead.
func FilterSeen(leads []model.Lead, seen SeenNames) []model.Lead {
	out := leads[:0:0]
	for _, lead := range leads {
		key := normalize.NameKey(lead.BusinessName)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, lead)
	}
	return out
}

// Rank orders leads for outreach: businesses without a website strictly
// first, then by score descending. The sort is stable so equal leads keep
// their batch order.
func Rank(leads []model.Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		if leads[i].HasWebsite != leads[j].HasWebsite {
			return !leads[i].HasWebsite
		}
		return leads[i].LeadScore > leads[j].LeadScore
	})
}

// MarkSaved flags leads whose dedup key is already persisted.
func MarkSaved(leads []model.Lead, existing map[string]bool) {
	for i := range leads {
		key := normalize.DedupKey(leads[i].BusinessName, leads[i].City)
		leads[i].AlreadySaved = existing[key]
	}
}

// Keys returns the dedup keys of the given leads, in order.
func Keys(leads []model.Lead) []string {
	keys := make([]string, len(leads))
	for i, lead := range leads {
		keys[i] = normalize.DedupKey(lead.BusinessName, lead.City)
	}
	return keys
}
