// Package normalize canonicalizes business names and postal addresses so
// that deduplication sees the same key everywhere: within a search batch,
// across city batches, and against persisted leads.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CityState is the best-effort parse of a free-text postal address.
type CityState struct {
	City  string
	State string
}

// ParseCityState splits a raw comma-separated address into city and state.
//
// The split is positional: with four or more segments the third-from-last
// is the city and the second-from-last (minus any trailing ZIP) the state;
// with exactly three the first is the city; with two the first is the city
// and the state is unknown. Anything shorter falls back to the caller's
// city hint. Addresses with unexpected segment counts (suite numbers and
// the like) will mis-split; treat the result as a hint, not ground truth.
func ParseCityState(raw, cityHint string) CityState {
	segs := splitTrim(raw)

	switch {
	case len(segs) >= 4:
		return CityState{
			City:  segs[len(segs)-3],
			State: stripZIP(segs[len(segs)-2]),
		}
	case len(segs) == 3:
		return CityState{City: segs[0], State: stripZIP(segs[1])}
	case len(segs) == 2:
		return CityState{City: segs[0]}
	default:
		return CityState{City: cityHint}
	}
}

// DedupKey builds the canonical identity key for a lead from its business
// name and city: lowercased, whitespace-trimmed, accents folded, joined
// with "::". Every dedup site must use this exact key.
func DedupKey(name, city string) string {
	return fold(name) + "::" + fold(city)
}

// NameKey is the case-insensitive name-only key used when merging results
// across city batches, where the same business may surface under more
// than one city.
func NameKey(name string) string {
	return fold(name)
}

// fold lowercases, trims, and strips combining accents so "Café" and
// "cafe" produce the same key.
func fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func splitTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// stripZIP removes a trailing ZIP or ZIP+4 from a state segment such as
// "FL 33101" or "FL 33101-4321".
func stripZIP(seg string) string {
	fields := strings.Fields(seg)
	for len(fields) > 0 && isZIP(fields[len(fields)-1]) {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

func isZIP(s string) bool {
	if len(s) == 10 && s[5] == '-' {
		s = s[:5] + s[6:]
	}
	if len(s) != 5 && len(s) != 9 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
