package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msgledger/msgledger/internal/model"
)

// fakeRuleStore records statistic writes for assertion; the editing methods
// are never used by the matcher.
type fakeRuleStore struct {
	successIDs []int
	errorIDs   []int
	lastErrors []string
}

func (f *fakeRuleStore) GetRules(ctx context.Context) ([]model.Rule, error)          { return nil, nil }
func (f *fakeRuleStore) GetRule(ctx context.Context, id int) (*model.Rule, error)    { return nil, nil }
func (f *fakeRuleStore) AddRule(ctx context.Context, rule *model.Rule) error         { return nil }
func (f *fakeRuleStore) UpdateRule(ctx context.Context, rule *model.Rule) error      { return nil }
func (f *fakeRuleStore) DeleteRule(ctx context.Context, id int) error                { return nil }
func (f *fakeRuleStore) SetRuleEnabled(ctx context.Context, id int, on bool) error   { return nil }

func (f *fakeRuleStore) RecordRuleSuccess(ctx context.Context, id int) error {
	f.successIDs = append(f.successIDs, id)
	return nil
}

func (f *fakeRuleStore) RecordRuleError(ctx context.Context, id int, lastError string) error {
	f.errorIDs = append(f.errorIDs, id)
	f.lastErrors = append(f.lastErrors, lastError)
	return nil
}

func expenseRule(id int, name string, priority int) model.Rule {
	return model.Rule{
		ID:          id,
		Name:        name,
		Type:        model.TypeExpense,
		Priority:    priority,
		Enabled:     true,
		SenderMatch: model.StringList{"HDFCBK"},
		AmountRegex: model.StringList{`Rs\.([\d,]+\.?\d*)`},
	}
}

func TestOrderRules(t *testing.T) {
	low := expenseRule(1, "low", 1)
	high := expenseRule(2, "high", 9)
	tieA := expenseRule(3, "tie-a", 5)
	tieB := expenseRule(4, "tie-b", 5)
	disabled := expenseRule(5, "disabled", 100)
	disabled.Enabled = false

	salary := expenseRule(6, "salary", 50)
	salary.Type = model.TypeIncome

	ordered := OrderRules([]model.Rule{low, tieA, salary, disabled, high, tieB})

	names := make([]string, 0, len(ordered))
	for _, r := range ordered {
		names = append(names, r.Name)
	}

	// Expenses first sorted by priority descending, ties in input order,
	// then income; disabled rules are dropped.
	assert.Equal(t, []string{"high", "tie-a", "tie-b", "low", "salary"}, names)
}

func TestMatcher_FirstMatchWins(t *testing.T) {
	store := &fakeRuleStore{}
	m := NewMatcher(store)

	msg := model.RawMessage{
		Sender: "VM-HDFCBK",
		Text:   "Rs.250.00 debited from a/c **1234 to Swiggy on 12-05-23",
		Source: model.SourceSMS,
	}

	first := expenseRule(1, "card", 10)
	second := expenseRule(2, "upi", 5)

	result, ok := m.Match(context.Background(), msg, []model.Rule{second, first})
	require.True(t, ok)
	assert.Equal(t, "card", result.Rule.Name)
	assert.InDelta(t, 250.0, result.Amount, 0.001)
	assert.Equal(t, []int{1}, store.successIDs)
	assert.Empty(t, store.errorIDs)
}

func TestMatcher_SkipConditionVetoesRule(t *testing.T) {
	store := &fakeRuleStore{}
	m := NewMatcher(store)

	skipping := expenseRule(1, "skipping", 10)
	skipping.SkipConditions = model.StringList{"declined"}
	fallback := expenseRule(2, "fallback", 1)

	msg := model.RawMessage{
		Sender: "HDFCBK",
		Text:   "Rs.99.00 payment DECLINED at Amazon",
	}

	result, ok := m.Match(context.Background(), msg, []model.Rule{skipping, fallback})
	require.True(t, ok)
	assert.Equal(t, "fallback", result.Rule.Name)
}

func TestMatcher_UnknownMerchantFallback(t *testing.T) {
	store := &fakeRuleStore{}
	m := NewMatcher(store)

	rule := expenseRule(1, "bare", 1)

	msg := model.RawMessage{
		Sender: "HDFCBK",
		Text:   "Rs.500.00 debited",
	}

	result, ok := m.Match(context.Background(), msg, []model.Rule{rule})
	require.True(t, ok)
	assert.Equal(t, model.UnknownMerchant, result.MerchantName)
}

func TestMatcher_MerchantCleanupApplied(t *testing.T) {
	store := &fakeRuleStore{}
	m := NewMatcher(store)

	rule := expenseRule(1, "upi", 1)
	rule.MerchantConditions = model.StringList{`to (\S+) on`}
	rule.MerchantCleanup = model.StringList{`^UPI/([A-Za-z]+)`}

	msg := model.RawMessage{
		Sender: "HDFCBK",
		Text:   "Rs.120.00 debited to UPI/Swiggy/987 on 12-05-23",
	}

	result, ok := m.Match(context.Background(), msg, []model.Rule{rule})
	require.True(t, ok)
	assert.Equal(t, "Swiggy", result.MerchantName)
}

func TestMatcher_SenderRegex(t *testing.T) {
	store := &fakeRuleStore{}
	m := NewMatcher(store)

	rule := expenseRule(1, "regex-sender", 1)
	rule.SenderMatch = model.StringList{`^[A-Z]{2}-HDFCBK$`}

	msg := model.RawMessage{
		Sender: "vm-hdfcbk",
		Text:   "Rs.10.00 debited",
	}

	result, ok := m.Match(context.Background(), msg, []model.Rule{rule})
	require.True(t, ok)
	assert.Equal(t, "regex-sender", result.Rule.Name)
}

func TestMatcher_NoMatch(t *testing.T) {
	store := &fakeRuleStore{}
	m := NewMatcher(store)

	rule := expenseRule(1, "hdfc", 1)

	msg := model.RawMessage{
		Sender: "AX-ICICIB",
		Text:   "Rs.10.00 debited",
	}

	result, ok := m.Match(context.Background(), msg, []model.Rule{rule})
	assert.False(t, ok)
	assert.Nil(t, result)
	assert.Empty(t, store.successIDs)
}

func TestMatcher_RecordsPatternErrorOnFailedRule(t *testing.T) {
	store := &fakeRuleStore{}
	m := NewMatcher(store)

	broken := expenseRule(7, "broken", 1)
	broken.AmountRegex = model.StringList{`Rs\.([`}

	msg := model.RawMessage{
		Sender: "HDFCBK",
		Text:   "Rs.10.00 debited",
	}

	_, ok := m.Match(context.Background(), msg, []model.Rule{broken})
	assert.False(t, ok)
	require.Equal(t, []int{7}, store.errorIDs)
	assert.Contains(t, store.lastErrors[0], "amount pattern")
}
