// Package needs classifies free-text answers about upcoming cash needs.
//
// The rules are plain substring matching and are kept exactly as deployed because
// portfolio outcomes depend on them. Text that matches nothing counts as no need.
package needs

import "strings"

// Verdict is the classification of a foreseeable-needs answer.
type Verdict string

const (
	NoNeed  Verdict = "no_need"
	HasNeed Verdict = "has_need"
)

var negationAnswers = []string{"no", "none", "nope", "not really"}

var negationPrefixes = []string{"no,", "no "}

var negationPhrases = []string{
	"no foreseeable", "don't have any", "do not have any", "nothing planned",
}

var needIndicators = []string{
	"yes", "need", "buy", "purchase", "house", "home", "car",
	"wedding", "tuition", "college", "university", "medical",
	"surgery", "renovation", "down payment", "emergency",
	"within", "next year", "next 2", "next 3", "next two", "next three",
	"soon", "upcoming", "planning to", "saving for",
}

// Classify returns HasNeed when text signals a near-term cash need.
func Classify(text string) Verdict {
	normalized := strings.ToLower(strings.TrimSpace(text))

	if isNegation(normalized) {
		return NoNeed
	}
	for _, word := range needIndicators {
		if strings.Contains(normalized, word) {
			return HasNeed
		}
	}
	return NoNeed
}

// HasNearTermNeed is Classify reduced to a bool.
func HasNearTermNeed(text string) bool {
	return Classify(text) == HasNeed
}

func isNegation(normalized string) bool {
	for _, answer := range negationAnswers {
		if normalized == answer {
			return true
		}
	}
	for _, prefix := range negationPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return true
		}
	}
	for _, phrase := range negationPhrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}
