package feedback

import (
	"strings"
	"unicode"

	"silo-planner/domain/core/valueobjects"
)

// Matcher tries to map a free-form reference onto one of the known keys
type Matcher interface {
	Name() string
	Match(ref string, keys []string) (string, bool)
}

// Resolver runs matchers in priority order and returns the first hit
type Resolver struct {
	matchers []Matcher
}

// NewResolver creates a resolver; with no matchers it uses DefaultMatchers
func NewResolver(matchers ...Matcher) *Resolver {
	if len(matchers) == 0 {
		matchers = DefaultMatchers()
	}
	return &Resolver{matchers: matchers}
}

// DefaultMatchers returns exact, then id suffix, then normalized name matching
func DefaultMatchers() []Matcher {
	return []Matcher{ExactMatcher{}, SuffixMatcher{}, NormalizedMatcher{}}
}

// Resolve returns the matched key and the name of the matcher that found it
func (r *Resolver) Resolve(ref string, keys []string) (key string, matchedBy string, ok bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "", false
	}
	for _, m := range r.matchers {
		if key, ok := m.Match(ref, keys); ok {
			return key, m.Name(), true
		}
	}
	return "", "", false
}

// ExactMatcher matches a full annotation key
type ExactMatcher struct{}

func (ExactMatcher) Name() string { return "exact" }

func (ExactMatcher) Match(ref string, keys []string) (string, bool) {
	for _, k := range keys {
		if k == ref {
			return k, true
		}
	}
	return "", false
}

// SuffixMatcher matches a bare id against the id part of each key
type SuffixMatcher struct{}

func (SuffixMatcher) Name() string { return "suffix" }

func (SuffixMatcher) Match(ref string, keys []string) (string, bool) {
	suffix := valueobjects.KeySeparator + ref
	for _, k := range keys {
		if strings.HasSuffix(k, suffix) {
			return k, true
		}
	}
	return "", false
}

// NormalizedMatcher compares ids with case, spacing and punctuation removed
type NormalizedMatcher struct{}

func (NormalizedMatcher) Name() string { return "normalized" }

func (NormalizedMatcher) Match(ref string, keys []string) (string, bool) {
	want := normalize(ref)
	if want == "" {
		return "", false
	}
	for _, k := range keys {
		_, id, err := valueobjects.ParseKey(k)
		if err != nil {
			continue
		}
		if normalize(id) == want {
			return k, true
		}
	}
	return "", false
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
