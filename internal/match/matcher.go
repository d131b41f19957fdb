package match

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/msgledger/msgledger/internal/common"
	"github.com/msgledger/msgledger/internal/model"
	"github.com/msgledger/msgledger/internal/service"
)

// Result carries the outcome of a successful match: the accepted rule plus
// the extracted fields.
type Result struct {
	Rule         model.Rule
	MerchantName string
	Amount       float64
}

// Matcher drives rule evaluation against a single message. Expense rules
// are always tried before income rules; within a type, higher priority
// wins, with input order breaking ties. The first rule that yields a valid
// amount is accepted.
type Matcher struct {
	ruleStore service.RuleStore
}

// NewMatcher creates a matcher that records per-rule statistics through the
// given store.
func NewMatcher(ruleStore service.RuleStore) *Matcher {
	return &Matcher{ruleStore: ruleStore}
}

// Match evaluates the candidate rules against one message. Returns the
// accepted result and true, or nil and false when no rule matched. Rule
// statistic writes are best-effort side effects; their failures are logged,
// never propagated.
func (m *Matcher) Match(ctx context.Context, msg model.RawMessage, rules []model.Rule) (*Result, bool) {
	for _, rule := range OrderRules(rules) {
		result, matched := m.tryRule(ctx, rule, msg)
		if matched {
			return result, true
		}
	}
	return nil, false
}

// tryRule runs the full per-rule pipeline: sender match, local skip veto,
// amount extraction, then merchant extraction and cleanup on acceptance.
func (m *Matcher) tryRule(ctx context.Context, rule model.Rule, msg model.RawMessage) (*Result, bool) {
	var patternErrs []error

	senderOK, senderErrs := senderMatches(&rule, msg.Sender)
	patternErrs = append(patternErrs, senderErrs...)
	if !senderOK {
		m.recordErrors(ctx, &rule, patternErrs)
		return nil, false
	}

	if ShouldSkip(msg.Text, rule.SkipConditions) {
		return nil, false
	}

	amount, ok, amountErrs := ExtractAmount(&rule, msg.Text)
	patternErrs = append(patternErrs, amountErrs...)
	if !ok {
		m.recordErrors(ctx, &rule, patternErrs)
		return nil, false
	}

	// Amount confirmed: this rule is accepted regardless of how merchant
	// extraction goes.
	name, merchantErrs := ExtractMerchant(&rule, msg.Text)
	patternErrs = append(patternErrs, merchantErrs...)

	if name == "" {
		name = model.UnknownMerchant
	} else {
		cleaned, cleanupErrs := CleanupMerchant(&rule, name)
		patternErrs = append(patternErrs, cleanupErrs...)
		name = cleaned
	}

	for _, err := range patternErrs {
		slog.Warn("Pattern error during accepted match",
			"rule", rule.Name,
			"error", err)
	}

	if err := m.ruleStore.RecordRuleSuccess(ctx, rule.ID); err != nil {
		slog.Warn("Failed to record rule success",
			"rule_id", rule.ID,
			"error", err)
	}

	return &Result{
		Rule:         rule,
		MerchantName: name,
		Amount:       amount,
	}, true
}

// recordErrors persists the first pattern error seen while a rule failed to
// match, so a broken pattern is visible for later inspection.
func (m *Matcher) recordErrors(ctx context.Context, rule *model.Rule, patternErrs []error) {
	if len(patternErrs) == 0 {
		return
	}

	for _, err := range patternErrs {
		slog.Warn("Pattern error",
			"rule", rule.Name,
			"error", err)
	}

	if err := m.ruleStore.RecordRuleError(ctx, rule.ID, patternErrs[0].Error()); err != nil {
		slog.Warn("Failed to record rule error",
			"rule_id", rule.ID,
			"error", err)
	}
}

// senderMatches tests the message sender against the rule's sender
// patterns: case-insensitive substring containment first, then as a
// case-insensitive regex.
func senderMatches(rule *Rule, sender string) (bool, []error) {
	var patternErrs []error

	for _, pattern := range rule.SenderMatch {
		if strings.Contains(strings.ToLower(sender), strings.ToLower(pattern)) {
			return true, patternErrs
		}

		matched, err := common.MatchRegex("(?i)"+pattern, sender)
		if err != nil {
			patternErrs = append(patternErrs, err)
			continue
		}
		if matched {
			return true, patternErrs
		}
	}

	return false, patternErrs
}

// OrderRules returns the enabled rules in evaluation order: all expense
// rules before all income rules, each partition sorted by priority
// descending with input order preserved for ties.
func OrderRules(rules []model.Rule) []model.Rule {
	var expense, income []model.Rule
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		switch rule.Type {
		case model.TypeIncome:
			income = append(income, rule)
		default:
			expense = append(expense, rule)
		}
	}

	sort.SliceStable(expense, func(i, j int) bool { return expense[i].Priority > expense[j].Priority })
	sort.SliceStable(income, func(i, j int) bool { return income[i].Priority > income[j].Priority })

	return append(expense, income...)
}
