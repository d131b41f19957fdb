// Package match implements the rule-matching engine that turns raw message
// text into extracted transactions.
package match

import (
	"log/slog"

	"github.com/msgledger/msgledger/internal/common"
)

// ShouldSkip reports whether a message is vetoed by any of the given skip
// patterns. A pattern is either a case-insensitive substring or a
// /body/flags regex literal. A malformed regex never vetoes; it is logged
// and evaluation continues with the next pattern.
func ShouldSkip(text string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := common.MatchPattern(pattern, text)
		if err != nil {
			slog.Warn("Invalid skip pattern",
				"pattern", pattern,
				"error", err)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// GlobalSkipPatterns collects the skip conditions of every candidate rule
// for the message-level pre-check. Order follows rule order; duplicates are
// dropped.
func GlobalSkipPatterns(rules []Rule) []string {
	seen := make(map[string]struct{})
	var patterns []string
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		for _, pattern := range rule.SkipConditions {
			if _, ok := seen[pattern]; ok {
				continue
			}
			seen[pattern] = struct{}{}
			patterns = append(patterns, pattern)
		}
	}
	return patterns
}
