package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

var numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// extract applies the episode parser to candidate. The token is the "ep"
// group when the pattern names one, else the first non-empty capturing
// group, else the whole match.
func (m *Matcher) extract(pattern, candidate string) (Episode, bool) {
	re := m.compile(pattern)
	if re == nil {
		return Episode{}, false
	}
	if m.opts.FoldWidth {
		candidate = width.Fold.String(candidate)
	}

	groups := re.FindStringSubmatch(candidate)
	if groups == nil {
		return Episode{}, false
	}

	token := groups[0]
	if i := re.SubexpIndex("ep"); i > 0 {
		token = groups[i]
	} else {
		for _, g := range groups[1:] {
			if g != "" {
				token = g
				break
			}
		}
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return Episode{}, false
	}
	ep := Episode{Token: token}
	ep.Number, ep.Numeric = parseNumber(token)
	return ep, true
}

// compile returns the cached regexp for pattern, or nil if it is invalid.
func (m *Matcher) compile(pattern string) *regexp.Regexp {
	m.mu.Lock()
	defer m.mu.Unlock()

	if re, ok := m.patterns[pattern]; ok {
		return re
	}
	re, err := compilePattern(pattern)
	if err != nil {
		re = nil
	}
	m.patterns[pattern] = re
	return re
}

// compilePattern accepts a bare Go regexp, compiled as written, or the
// "/expr/flags" form, where flags is any of i, m, s and U.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	expr := pattern
	if slashed := strings.TrimSpace(pattern); len(slashed) >= 2 && slashed[0] == '/' {
		if end := strings.LastIndexByte(slashed, '/'); end > 0 {
			flags := slashed[end+1:]
			if strings.Trim(flags, "imsU") == "" {
				body := slashed[1:end]
				if flags != "" {
					body = "(?" + flags + ")" + body
				}
				expr = body
			}
		}
	}
	return regexp.Compile(expr)
}

func parseNumber(token string) (float64, bool) {
	s := numberRe.FindString(width.Fold.String(token))
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ValidateEpisodeParser checks whether pattern compiles. An empty pattern is
// valid and disables episode extraction.
func ValidateEpisodeParser(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return nil
	}
	if _, err := compilePattern(pattern); err != nil {
		return fmt.Errorf("invalid episode parser: %w", err)
	}
	return nil
}
