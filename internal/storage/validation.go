// Package storage provides the data persistence layer for the msgledger
// application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/msgledger/msgledger/internal/model"
)

// Validation errors.
var (
	ErrNilContext          = errors.New("context cannot be nil")
	ErrEmptyString         = errors.New("string parameter cannot be empty")
	ErrNilParameter        = errors.New("parameter cannot be nil")
	ErrRuleNotFound        = errors.New("rule not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRule validates a single rule, including the enabled-rule
// invariants.
func validateRule(rule *model.Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	return rule.Validate()
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if err := validateString(txn.ID, "transaction.ID"); err != nil {
		return err
	}
	if err := validateString(txn.MerchantName, "transaction.MerchantName"); err != nil {
		return err
	}
	return txn.Validate()
}
