package predicate

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dlclark/regexp2"
)

// matchTimeout bounds a single regex evaluation against pathological
// backtracking on large cell outputs.
const matchTimeout = 250 * time.Millisecond

// StringMatcher is either an exact-equality literal or a compiled regex.
// The zero value matches only the empty string.
type StringMatcher struct {
	literal string
	pattern string
	flags   string
	re      *regexp2.Regexp
}

// Literal returns a matcher that tests exact string equality.
func Literal(s string) StringMatcher {
	return StringMatcher{literal: s}
}

// Regex compiles pattern with ECMAScript-style flags. Matching is a
// containment search unless the pattern anchors itself.
func Regex(pattern, flags string) (StringMatcher, error) {
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'u':
			opts |= regexp2.Unicode
		case 'g', 'y':
			// Global and sticky only affect iteration; a boolean test ignores them.
		default:
			return StringMatcher{}, fmt.Errorf("%w: unsupported flag %q in %q", ErrInvalidPattern, f, flags)
		}
	}

	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return StringMatcher{}, fmt.Errorf("%w: /%s/%s: %v", ErrInvalidPattern, pattern, flags, err)
	}
	re.MatchTimeout = matchTimeout

	return StringMatcher{pattern: pattern, flags: flags, re: re}, nil
}

// MustRegex is like Regex but panics on error. Intended for tests and
// package-level defaults.
func MustRegex(pattern, flags string) StringMatcher {
	m, err := Regex(pattern, flags)
	if err != nil {
		panic(err)
	}
	return m
}

// IsRegex reports whether the matcher is a regex matcher.
func (m StringMatcher) IsRegex() bool {
	return m.re != nil
}

// Match tests s. A regex that fails to finish within the match timeout
// counts as no match and is logged at debug level.
func (m StringMatcher) Match(s string) bool {
	ok, err := m.TryMatch(s)
	if err != nil {
		slog.Debug("regex match timed out, treating as no match",
			"pattern", m.String(),
			"input_len", len(s),
			"timeout", matchTimeout,
		)
		return false
	}
	return ok
}

// TryMatch is like Match but reports a timed-out regex as ErrMatchTimeout.
func (m StringMatcher) TryMatch(s string) (bool, error) {
	if m.re == nil {
		return s == m.literal, nil
	}
	ok, err := m.re.MatchString(s)
	if err != nil {
		return false, fmt.Errorf("%w: %s after %s: %v", ErrMatchTimeout, m, matchTimeout, err)
	}
	return ok, nil
}

// String renders the matcher in a compact, human-readable form.
func (m StringMatcher) String() string {
	if m.re == nil {
		return strconv.Quote(m.literal)
	}
	return "/" + m.pattern + "/" + m.flags
}
