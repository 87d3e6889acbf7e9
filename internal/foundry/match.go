package foundry

import (
	"sort"
	"strings"
)

// MatchStrategyKind tags how a fuzzy spec lookup resolved.
type MatchStrategyKind int

const (
	MatchNone MatchStrategyKind = iota
	MatchExact
	MatchFeatureExact
	MatchFeatureFuzzy
	MatchNameFuzzy
	MatchMultiple
)

// MatchStrategy is the result of FindSpecMatch: exactly one of Name or
// Candidates is meaningful, selected by Kind.
type MatchStrategy struct {
	Kind       MatchStrategyKind
	Name       string
	Candidates []string
}

// fuzzyConfidenceThreshold is the normalised-Levenshtein cutoff above which
// a similarity hit counts as a match, per §4.2 step 4/5.
const fuzzyConfidenceThreshold = 0.8

// FindSpecMatch resolves query against a project's specs using an ordered
// strategy: exact canonical name, exact feature name, case-insensitive
// feature substring, normalised-Levenshtein over feature names,
// normalised-Levenshtein over canonical names, then None.
func FindSpecMatch(query string, specs []SpecMetadata) (MatchStrategy, error) {
	if strings.TrimSpace(query) == "" {
		return MatchStrategy{}, InvalidInput("cannot search for empty spec name; provide a spec name or feature name to search for")
	}
	if len(specs) == 0 {
		return MatchStrategy{Kind: MatchNone}, nil
	}

	// 1. Exact canonical-name match.
	for _, s := range specs {
		if s.Name == query {
			return MatchStrategy{Kind: MatchExact, Name: s.Name}, nil
		}
	}

	// 2. Exact feature-name match.
	for _, s := range specs {
		if s.FeatureName == query {
			return MatchStrategy{Kind: MatchFeatureExact, Name: s.Name}, nil
		}
	}

	// 3. Case-insensitive feature-name substring match.
	lowerQuery := strings.ToLower(query)
	var substringHits []string
	for _, s := range specs {
		if strings.Contains(strings.ToLower(s.FeatureName), lowerQuery) {
			substringHits = append(substringHits, s.Name)
		}
	}
	if len(substringHits) == 1 {
		return MatchStrategy{Kind: MatchFeatureFuzzy, Name: substringHits[0]}, nil
	}
	if len(substringHits) > 1 {
		sort.Strings(substringHits)
		return MatchStrategy{Kind: MatchMultiple, Candidates: substringHits}, nil
	}

	// 4. Normalised-Levenshtein over feature names.
	if hits := similarityHits(query, specs, func(s SpecMetadata) string { return s.FeatureName }); len(hits) == 1 {
		return MatchStrategy{Kind: MatchFeatureFuzzy, Name: hits[0]}, nil
	} else if len(hits) > 1 {
		sort.Strings(hits)
		return MatchStrategy{Kind: MatchMultiple, Candidates: hits}, nil
	}

	// 5. Normalised-Levenshtein over canonical names.
	if hits := similarityHits(query, specs, func(s SpecMetadata) string { return s.Name }); len(hits) == 1 {
		return MatchStrategy{Kind: MatchNameFuzzy, Name: hits[0]}, nil
	} else if len(hits) > 1 {
		sort.Strings(hits)
		return MatchStrategy{Kind: MatchMultiple, Candidates: hits}, nil
	}

	return MatchStrategy{Kind: MatchNone}, nil
}

func similarityHits(query string, specs []SpecMetadata, key func(SpecMetadata) string) []string {
	var hits []string
	for _, s := range specs {
		if normalizedLevenshtein(query, key(s)) > fuzzyConfidenceThreshold {
			hits = append(hits, s.Name)
		}
	}
	return hits
}

// normalizedLevenshtein returns 1 - (editDistance / max(len(a), len(b))),
// matching strsim::normalized_levenshtein's contract: 1.0 for identical
// strings, 0.0 for maximally dissimilar ones of the same length. Comparison
// is case-sensitive, matching the upstream reference.
func normalizedLevenshtein(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	dist := levenshteinDistance(ra, rb)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(dist)/float64(maxLen)
}

func levenshteinDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = minInt(del, minInt(ins, sub))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
