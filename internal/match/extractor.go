package match

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/msgledger/msgledger/internal/common"
	"github.com/msgledger/msgledger/internal/model"
)

// Rule is an alias to the model.Rule type for convenience.
type Rule = model.Rule

// ExtractAmount tries each of the rule's amount patterns in order and
// returns the first capture that parses to a finite number, as a
// non-negative magnitude. Pattern compile failures are collected and
// returned so the caller can record them on the rule; they never abort the
// remaining patterns.
func ExtractAmount(rule *Rule, text string) (amount float64, ok bool, patternErrs []error) {
	for _, pattern := range rule.AmountRegex {
		re, err := common.CompileCached(pattern)
		if err != nil {
			patternErrs = append(patternErrs, fmt.Errorf("amount pattern %q: %w", pattern, err))
			continue
		}

		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}

		value, parseErr := parseAmount(m[1])
		if parseErr != nil {
			continue
		}

		return value, true, patternErrs
	}

	return 0, false, patternErrs
}

// parseAmount converts a captured numeric string to a non-negative float.
// Thousand separators are stripped; NaN and infinities are rejected.
func parseAmount(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	cleaned = strings.TrimPrefix(cleaned, "+")

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("amount %q is not finite", raw)
	}

	return math.Abs(value), nil
}

// ExtractMerchant isolates the merchant name from the message text using
// the rule's anchor pairs first, then its regex conditions. Returns an
// empty string when nothing matched; the caller substitutes the
// unknown-merchant placeholder.
func ExtractMerchant(rule *Rule, text string) (name string, patternErrs []error) {
	for _, anchor := range rule.MerchantAnchors {
		if candidate := extractByAnchor(anchor, text); candidate != "" {
			return candidate, nil
		}
	}

	for _, pattern := range rule.MerchantConditions {
		re, err := common.CompileCached(pattern)
		if err != nil {
			patternErrs = append(patternErrs, fmt.Errorf("merchant pattern %q: %w", pattern, err))
			continue
		}

		m := re.FindStringSubmatch(text)
		if len(m) >= 2 && strings.TrimSpace(m[1]) != "" {
			return strings.TrimSpace(m[1]), patternErrs
		}
	}

	return "", patternErrs
}

// extractByAnchor locates the span starting at StartText and ending at the
// next occurrence of EndText (or end of string when absent), then returns
// the StartIndex-th whitespace-delimited segment of that span.
func extractByAnchor(anchor model.MerchantAnchor, text string) string {
	if anchor.StartText == "" {
		return ""
	}

	lower := strings.ToLower(text)
	start := strings.Index(lower, strings.ToLower(anchor.StartText))
	if start < 0 {
		return ""
	}

	end := len(text)
	if anchor.EndText != "" {
		searchFrom := start + len(anchor.StartText)
		if rel := strings.Index(lower[searchFrom:], strings.ToLower(anchor.EndText)); rel >= 0 {
			end = searchFrom + rel
		}
	}

	segments := strings.Fields(text[start:end])
	if anchor.StartIndex < 0 || anchor.StartIndex >= len(segments) {
		return ""
	}

	return strings.TrimSpace(segments[anchor.StartIndex])
}

// CleanupMerchant applies the rule's cleanup patterns to an extracted
// merchant name. The first pattern whose capture group matches replaces the
// name; remaining patterns are not tried.
func CleanupMerchant(rule *Rule, name string) (string, []error) {
	var patternErrs []error

	for _, pattern := range rule.MerchantCleanup {
		re, err := common.CompileCached(pattern)
		if err != nil {
			patternErrs = append(patternErrs, fmt.Errorf("cleanup pattern %q: %w", pattern, err))
			continue
		}

		m := re.FindStringSubmatch(name)
		if len(m) >= 2 && strings.TrimSpace(m[1]) != "" {
			return strings.TrimSpace(m[1]), patternErrs
		}
	}

	return name, patternErrs
}
