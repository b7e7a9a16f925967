// Package relevance scores candidate case text against a fact pattern.
//
// The score is plain lexical overlap: both strings are lowercased and split
// on whitespace into sets, and the share of query tokens found in the text
// plus a fixed boost is returned, capped at 1.
package relevance

import "strings"

// Boost is added to every score computed over non-empty text.
const Boost = 0.1

// Score returns a value in [0, 1]. Empty or whitespace-only text scores 0.
func Score(query, text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	queryTokens := tokenSet(query)
	textTokens := tokenSet(text)

	common := 0
	for tok := range queryTokens {
		if _, ok := textTokens[tok]; ok {
			common++
		}
	}

	overlap := float64(common) / float64(max(len(queryTokens), 1))
	return min(overlap+Boost, 1.0)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
