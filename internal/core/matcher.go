package core

import (
	"sort"
	"strings"

	"github.com/valter-silva-au/toolbrain/pkg/models"
)

// maxMatches caps how many capability matches are returned for one need.
const maxMatches = 3

// CapabilityMatch is one scored match of a need against a capability. Score
// is the count of the capability's keywords occurring in the need text.
type CapabilityMatch struct {
	Capability models.Capability
	Score      int
}

// MatchNeed scores free text against every capability in the registry and
// returns up to the top three matches, highest score first. Scoring is a
// bag-of-keywords heuristic: case-insensitive substring hits, nothing
// smarter. Ties keep registry document order, so results are reproducible.
// Empty text or zero keyword overlap returns an empty list, never an error.
func MatchNeed(text string, reg *Registry) []CapabilityMatch {
	if reg == nil || strings.TrimSpace(text) == "" {
		return nil
	}

	needle := strings.ToLower(text)

	var matches []CapabilityMatch
	for _, cap := range reg.Capabilities() {
		score := 0
		for _, kw := range cap.Keywords {
			if strings.Contains(needle, kw) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, CapabilityMatch{Capability: cap, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	return matches
}

// Profile names returned by ClassifyProfile.
const (
	ProfileCode      = "code"
	ProfileReasoning = "reasoning"
	ProfileMath      = "math"
	ProfileGeneral   = "general"
)

// profileOrder lists profiles in evaluation order. Specialists come before
// the generic profile so ties resolve in their favor.
var profileOrder = []string{ProfileCode, ProfileReasoning, ProfileMath, ProfileGeneral}

// profileTriggers maps each profile to its trigger words.
var profileTriggers = map[string][]string{
	ProfileCode: {
		"code", "coding", "script", "python", "javascript", "typescript",
		"function", "refactor", "implement", "write a", "create a",
		"cli", "api", "infrastructure",
	},
	ProfileReasoning: {
		"reason", "reasoning", "think", "strategy", "evaluate", "analyze",
		"triage", "complex", "multi-step", "pattern", "decide", "compare",
		"tradeoff", "pros and cons", "should i", "which is better",
	},
	ProfileMath: {
		"math", "calculate", "numeric", "metrics", "finance",
		"table", "numbers", "statistics", "percentage", "ratio",
		"compound", "interest", "roi", "budget",
	},
	ProfileGeneral: {
		"summarize", "summary", "draft", "explain", "describe",
	},
}

// ClassifyProfile scores text against the fixed trigger-word groups and
// returns the best-matching profile name, or "" when nothing triggers.
// The result is advisory only; it never gates the primary match.
func ClassifyProfile(text string) string {
	needle := strings.ToLower(text)

	best := ""
	bestScore := 0
	for _, profile := range profileOrder {
		score := 0
		for _, trigger := range profileTriggers[profile] {
			if strings.Contains(needle, trigger) {
				score++
			}
		}
		if score > bestScore {
			best = profile
			bestScore = score
		}
	}
	return best
}
