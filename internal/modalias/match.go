// Package modalias matches device modaliases against the modalias patterns
// that driver packages declare, and maintains the per-snapshot index of
// those declarations.
package modalias

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// ErrBadPattern is returned by Match for patterns that are not valid globs.
var ErrBadPattern = errors.New("malformed modalias pattern")

// Bus returns the bus prefix of a modalias, the part before the first ':'.
func Bus(alias string) string {
	bus, _, _ := strings.Cut(alias, ":")
	return bus
}

// Match reports whether the concrete modalias matches pattern.
//
// The bus prefixes must be equal byte for byte; the rest is compared with
// fnmatch semantics: '*', '?', '[...]' and '[!...]'. Wildcards match any
// character including '/', which DMI modaliases contain.
func Match(pattern, concrete string) (bool, error) {
	patternBus, patternRest, _ := strings.Cut(pattern, ":")
	concreteBus, concreteRest, _ := strings.Cut(concrete, ":")
	if patternBus != concreteBus {
		return false, nil
	}

	// No separators: '*' spans the whole modalias.
	g, err := glob.Compile(quoteGlob(patternRest))
	if err != nil {
		return false, fmt.Errorf("%w %q: %v", ErrBadPattern, pattern, err)
	}
	return g.Match(concreteRest), nil
}

// quoteGlob escapes the characters glob.Compile treats specially but fnmatch
// takes literally: backslashes and braces outside of character classes.
func quoteGlob(pattern string) string {
	var sb strings.Builder
	inClass := false
	for _, r := range pattern {
		switch {
		case inClass:
			if r == ']' {
				inClass = false
			}
		case r == '[':
			inClass = true
		case r == '\\' || r == '{' || r == '}':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
