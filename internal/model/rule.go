package model

import (
	"time"
)

// TransactionType distinguishes money leaving an account from money arriving.
type TransactionType string

// Transaction type constants.
const (
	TypeExpense TransactionType = "expense"
	TypeIncome  TransactionType = "income"
)

// MerchantAnchor extracts a merchant name by locating the text between two
// anchor strings. StartIndex selects the whitespace-delimited segment of the
// anchored span, counting from zero.
type MerchantAnchor struct {
	StartText  string `json:"start_text"`
	EndText    string `json:"end_text"`
	StartIndex int    `json:"start_index"`
}

// Rule is a user-configurable template describing how to recognize and
// extract a transaction from a raw message.
type Rule struct {
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	Name               string           `json:"name"`
	Type               TransactionType  `json:"transaction_type"`
	PaymentMethod      string           `json:"payment_method"`
	LastError          string           `json:"last_error,omitempty"`
	SenderMatch        StringList       `json:"sender_match"`
	AmountRegex        StringList       `json:"amount_regex"`
	MerchantConditions StringList       `json:"merchant_conditions,omitempty"`
	MerchantCleanup    StringList       `json:"merchant_common_patterns,omitempty"`
	SkipConditions     StringList       `json:"skip_conditions,omitempty"`
	MerchantAnchors    []MerchantAnchor `json:"merchant_extraction,omitempty"`
	ID                 int              `json:"id"`
	Priority           int              `json:"priority"`
	SuccessCount       int              `json:"success_count"`
	Enabled            bool             `json:"enabled"`
}

// Validate checks the invariants an enabled rule must hold: sender patterns
// and amount patterns are never empty.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return ErrRuleMissingName
	}
	if r.Type != TypeExpense && r.Type != TypeIncome {
		return ErrRuleInvalidType
	}
	if r.Enabled {
		if r.SenderMatch.IsEmpty() {
			return ErrRuleMissingSender
		}
		if r.AmountRegex.IsEmpty() {
			return ErrRuleMissingAmount
		}
	}
	return nil
}
