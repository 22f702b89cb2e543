// Package pathmatch implements find -path matching semantics.
//
// It follows fnmatch(3) without FNM_PATHNAME:
//   - * matches any characters including /
//   - ? matches exactly one character including /
//   - [...] matches one character from the set, [!...] negates it
//   - \ escapes the next character
//
// This differs from Go's filepath.Match where * does not cross directory separators.
package pathmatch

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

var (
	// ErrTrailingEscape is returned for a pattern ending in a lone backslash.
	ErrTrailingEscape = errors.New("trailing backslash")
	// ErrUnclosedClass is returned for a [ without a matching ].
	ErrUnclosedClass = errors.New("unclosed character class")
)

// Pattern is a compiled find -path glob.
type Pattern struct {
	glob string
	re   *regexp.Regexp
}

//nolint:gochecknoglobals // compiled patterns are shared across walks
var compiled sync.Map

// Compile translates a glob into a Pattern. Compiled patterns are cached.
func Compile(glob string) (*Pattern, error) {
	if v, ok := compiled.Load(glob); ok {
		pattern, _ := v.(*Pattern) //nolint:errcheck // only *Pattern is stored

		return pattern, nil
	}

	expr, err := translate(glob)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", glob, err)
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", glob, err)
	}

	pattern := &Pattern{glob: glob, re: re}

	compiled.Store(glob, pattern)

	return pattern, nil
}

// Match reports whether path matches glob.
func Match(glob, path string) (bool, error) {
	pattern, err := Compile(glob)
	if err != nil {
		return false, err
	}

	return pattern.Match(path), nil
}

// Match reports whether the whole of path matches the pattern.
func (p *Pattern) Match(path string) bool {
	return p.re.MatchString(path)
}

// String returns the glob the pattern was compiled from.
func (p *Pattern) String() string {
	return p.glob
}

// Set is a list of patterns where any one matching is enough.
type Set []*Pattern

// NewSet compiles all globs.
func NewSet(globs ...string) (Set, error) {
	set := make(Set, 0, len(globs))

	for _, glob := range globs {
		pattern, err := Compile(glob)
		if err != nil {
			return nil, err
		}

		set = append(set, pattern)
	}

	return set, nil
}

// MatchAny reports whether path matches at least one pattern of the set.
func (s Set) MatchAny(path string) bool {
	for _, pattern := range s {
		if pattern.Match(path) {
			return true
		}
	}

	return false
}

// Escape quotes the glob metacharacters in s so it matches literally.
func Escape(s string) string {
	var buf strings.Builder

	for _, r := range s {
		if strings.ContainsRune(`*?[]\`, r) {
			buf.WriteByte('\\')
		}

		buf.WriteRune(r)
	}

	return buf.String()
}

// translate turns a glob into an anchored regular expression.
func translate(glob string) (string, error) {
	var buf strings.Builder

	buf.WriteString("^")

	for i := 0; i < len(glob); i++ {
		switch c := glob[i]; c {
		case '*':
			buf.WriteString(".*")
		case '?':
			buf.WriteString(".")
		case '\\':
			if i+1 == len(glob) {
				return "", ErrTrailingEscape
			}

			i++
			buf.WriteString(regexp.QuoteMeta(glob[i : i+1]))
		case '[':
			end, err := classEnd(glob, i)
			if err != nil {
				return "", err
			}

			buf.WriteString(class(glob[i+1 : end]))

			i = end
		default:
			buf.WriteString(regexp.QuoteMeta(glob[i : i+1]))
		}
	}

	buf.WriteString("$")

	return buf.String(), nil
}

// classEnd returns the index of the ] closing the class opened at start.
// A ] right after the opening [ or [! is a literal member.
func classEnd(glob string, start int) (int, error) {
	i := start + 1

	if i < len(glob) && glob[i] == '!' {
		i++
	}

	if i < len(glob) && glob[i] == ']' {
		i++
	}

	if end := strings.IndexByte(glob[i:], ']'); end >= 0 {
		return i + end, nil
	}

	return 0, ErrUnclosedClass
}

// class converts the body of a glob bracket expression into a regexp class.
func class(body string) string {
	negate := strings.HasPrefix(body, "!")
	if negate {
		body = body[1:]
	}

	var buf strings.Builder

	buf.WriteString("[")

	if negate {
		buf.WriteString("^")
	}

	for _, r := range body {
		switch r {
		case '\\', ']', '[', '^':
			buf.WriteByte('\\')
		}

		buf.WriteRune(r)
	}

	buf.WriteString("]")

	return buf.String()
}
