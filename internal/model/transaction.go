package model

import (
	"errors"
	"strings"
	"time"
)

// TransactionSource identifies where a transaction was extracted from.
type TransactionSource string

// Transaction source constants.
const (
	SourceSMS    TransactionSource = "sms"
	SourceEmail  TransactionSource = "email"
	SourceManual TransactionSource = "manual"
)

// Placeholder values used by extraction until a user or the enricher fills
// in real data.
const (
	// DefaultCategory marks a transaction that has not been categorized yet.
	DefaultCategory = "Uncategorized"
	// UnknownMerchant is the sentinel name when no extraction pattern matched.
	UnknownMerchant = "Unknown Merchant"
	// AutoExtractedMarker tags notes written by the scanner rather than a user.
	AutoExtractedMarker = "[auto-extracted]"
)

// Model validation errors.
var (
	ErrRuleMissingName   = errors.New("rule name cannot be empty")
	ErrRuleInvalidType   = errors.New("rule transaction type must be expense or income")
	ErrRuleMissingSender = errors.New("enabled rule must have at least one sender pattern")
	ErrRuleMissingAmount = errors.New("enabled rule must have at least one amount pattern")
	ErrNegativeAmount    = errors.New("transaction amount must be non-negative")
)

// Transaction represents a single extracted financial event. Amount is
// always a non-negative magnitude; direction comes from Type.
type Transaction struct {
	Date          time.Time         `json:"date"`
	ID            string            `json:"id"`
	MerchantName  string            `json:"merchant_name"`
	Currency      string            `json:"currency"`
	Category      string            `json:"category"`
	Notes         string            `json:"notes"`
	PaymentMethod string            `json:"payment_method"`
	Type          TransactionType   `json:"type"`
	Source        TransactionSource `json:"source"`
	MessageID     string            `json:"message_id,omitempty"`
	Amount        float64           `json:"amount"`
}

// Validate checks the transaction's stored invariants.
func (t *Transaction) Validate() error {
	if t.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// IsAutoExtracted reports whether the notes carry the scanner's marker.
func (t *Transaction) IsAutoExtracted() bool {
	return strings.Contains(t.Notes, AutoExtractedMarker)
}

// NeedsEnrichment reports whether history-based enrichment should be
// attempted: the category is still the placeholder, or the notes were
// written by the scanner.
func (t *Transaction) NeedsEnrichment() bool {
	return t.Category == "" || t.Category == DefaultCategory || t.IsAutoExtracted()
}
