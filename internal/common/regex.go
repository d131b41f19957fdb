package common

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// regexCache memoizes compiled patterns. Rule patterns repeat across every
// message in a batch, so compiling once per pattern matters for large scans.
var regexCache = struct {
	sync.RWMutex
	compiled map[string]*regexp.Regexp
}{compiled: make(map[string]*regexp.Regexp)}

// CompileCached compiles a regex pattern, returning a cached instance when
// the same pattern was compiled before.
func CompileCached(pattern string) (*regexp.Regexp, error) {
	regexCache.RLock()
	re, ok := regexCache.compiled[pattern]
	regexCache.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	regexCache.Lock()
	regexCache.compiled[pattern] = re
	regexCache.Unlock()

	return re, nil
}

// MatchRegex compiles and matches a regex pattern against a string.
// Returns true if the pattern matches, false otherwise.
// Returns an error if the pattern is invalid.
func MatchRegex(pattern, text string) (bool, error) {
	re, err := CompileCached(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(text), nil
}

// slashLiteral matches patterns written as /body/flags.
var slashLiteral = regexp.MustCompile(`^/(.+)/([a-z]*)$`)

// ParseSlashPattern recognizes a /body/flags regex literal and converts it
// to Go regexp syntax. Supported flags are i, m and s; a literal with no
// flags defaults to case-insensitive. Returns ok=false when the pattern is
// not a slash literal.
func ParseSlashPattern(pattern string) (converted string, ok bool) {
	m := slashLiteral.FindStringSubmatch(pattern)
	if m == nil {
		return "", false
	}

	body, flags := m[1], m[2]
	if flags == "" {
		flags = "i"
	}

	var inline strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			inline.WriteRune(f)
		}
	}
	if inline.Len() == 0 {
		return body, true
	}
	return fmt.Sprintf("(?%s)%s", inline.String(), body), true
}

// MatchPattern tests text against a plain-or-regex pattern: a /body/flags
// literal is evaluated as a regex with those flags, anything else as a
// case-insensitive substring containment check.
func MatchPattern(pattern, text string) (bool, error) {
	if converted, ok := ParseSlashPattern(pattern); ok {
		return MatchRegex(converted, text)
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(pattern)), nil
}
