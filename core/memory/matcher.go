package memory

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Matcher scores how similar two normalized questions are, as a ratio
// in [0, 1].
type Matcher interface {
	Ratio(a, b string) float64
}

// SequenceMatcher is the default Matcher. It compares the two strings
// character by character with difflib's longest-matching-subsequence
// ratio, so small wording changes still score high.
type SequenceMatcher struct{}

func (SequenceMatcher) Ratio(a, b string) float64 {
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

// Normalize maps a question to its comparison form. Both the stored
// question and the incoming one go through this before matching.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
