// Package filter implements the subscription parser and the feed entry
// matching engine.
package filter

import (
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"

	"dmhy/internal/model"
)

// MatcherOptions controls how titles and tokens are compared.
type MatcherOptions struct {
	CaseSensitive bool
	// FoldWidth maps full-width and half-width forms to their canonical
	// width before comparing, so "１０８０ｐ" matches "1080p".
	FoldWidth bool
	// QualityMarker wrapping is removed from tokens before comparison.
	QualityMarker string
}

// DefaultMatcherOptions returns case-insensitive, width-folding options.
func DefaultMatcherOptions() MatcherOptions {
	return MatcherOptions{
		FoldWidth:     true,
		QualityMarker: "~",
	}
}

// Episode is the installment identifier extracted from a title.
type Episode struct {
	Token string
	// Number holds the first decimal number found in Token when Numeric is set.
	Number  float64
	Numeric bool
}

// Result is a match verdict. The zero value means no match.
type Result struct {
	Matched bool
	// Episode is nil when the subscription has no episode parser or the
	// parser found nothing in the title.
	Episode *Episode
}

// Matcher evaluates subscriptions against feed entry titles.
// It is safe for concurrent use.
type Matcher struct {
	opts MatcherOptions

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// NewMatcher creates a Matcher with the given options.
func NewMatcher(opts MatcherOptions) *Matcher {
	return &Matcher{
		opts:     opts,
		patterns: make(map[string]*regexp.Regexp),
	}
}

// Match checks whether candidate satisfies sub.
// All keywords must occur in the candidate (or the title, when there are no
// keywords) and no unkeyword may occur. A failed episode extraction never
// turns a match into a non-match.
func (m *Matcher) Match(sub model.Subscription, candidate string) Result {
	text := m.fold(candidate)

	if len(sub.Keywords) > 0 {
		for _, k := range sub.Keywords {
			if !m.contains(text, k) {
				return Result{}
			}
		}
	} else if !m.contains(text, sub.Title) {
		return Result{}
	}

	for _, u := range sub.Unkeywords {
		if m.contains(text, u) {
			return Result{}
		}
	}

	if strings.TrimSpace(sub.EpisodeParser) == "" {
		return Result{Matched: true}
	}
	ep, ok := m.extract(sub.EpisodeParser, candidate)
	if !ok {
		return Result{Matched: true}
	}
	return Result{Matched: true, Episode: &ep}
}

// First returns the index of the first subscription in subs matching
// candidate along with its result, or -1 and the zero Result.
func (m *Matcher) First(subs []model.Subscription, candidate string) (int, Result) {
	for i, sub := range subs {
		if res := m.Match(sub, candidate); res.Matched {
			return i, res
		}
	}
	return -1, Result{}
}

// contains reports whether the folded text holds token. An empty token
// matches nothing.
func (m *Matcher) contains(text, token string) bool {
	token = strings.TrimSpace(token)
	if inner, ok := unwrap(token, m.opts.QualityMarker); ok {
		if inner = strings.TrimSpace(inner); inner != "" {
			token = inner
		}
	}
	if token == "" {
		return false
	}
	return strings.Contains(text, m.fold(token))
}

func (m *Matcher) fold(s string) string {
	if m.opts.FoldWidth {
		s = width.Fold.String(s)
	}
	if !m.opts.CaseSensitive {
		s = cases.Fold().String(s)
	}
	return s
}
