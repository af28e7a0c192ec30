package dedup

import "strings"

// DefaultSoftThreshold is the significant-word overlap ratio at which two
// texts count as near-duplicates. The comparison is inclusive.
const DefaultSoftThreshold = 0.6

// SoftMatcher flags near-duplicates by containment or word overlap
type SoftMatcher struct {
	threshold float64
}

// NewSoftMatcher creates a soft matcher; a non-positive threshold selects the default
func NewSoftMatcher(threshold float64) *SoftMatcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSoftThreshold
	}
	return &SoftMatcher{threshold: threshold}
}

// Threshold returns the configured overlap ratio
func (m *SoftMatcher) Threshold() float64 {
	return m.threshold
}

// Match reports whether candidate is a near-duplicate of other
func (m *SoftMatcher) Match(candidate, other string) bool {
	a := newEntryText(candidate)
	b := newEntryText(other)
	return m.match(a, b)
}

// entryText caches the normalized form and significant words of a text
type entryText struct {
	normalized  string
	significant map[string]struct{}
}

func newEntryText(s string) entryText {
	n := Normalize(s)
	return entryText{normalized: n, significant: significantWords(n)}
}

func (m *SoftMatcher) match(candidate, other entryText) bool {
	if candidate.normalized == "" || other.normalized == "" {
		return false
	}
	if candidate.normalized == other.normalized {
		return true
	}
	if strings.Contains(candidate.normalized, other.normalized) ||
		strings.Contains(other.normalized, candidate.normalized) {
		return true
	}
	return m.overlapRatio(candidate, other) >= m.threshold
}

// overlapRatio is the share of the candidate's significant words found in other.
// A candidate without significant words has ratio 0.
func (m *SoftMatcher) overlapRatio(candidate, other entryText) float64 {
	total := len(candidate.significant)
	if total == 0 {
		return 0
	}
	shared := sharedWords(candidate.significant, other.significant)
	// Nudge to absorb float rounding at exact boundaries like 3/5.
	return float64(shared)/float64(total) + 1e-9
}

func sharedWords(a, b map[string]struct{}) int {
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}
