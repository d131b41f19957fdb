// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/msgledger/msgledger/internal/model"
)

// RuleStore defines the contract for rule persistence. The scanner only
// reads rules and writes back per-rule match statistics; rule editing is
// driven by the CLI.
type RuleStore interface {
	GetRules(ctx context.Context) ([]model.Rule, error)
	GetRule(ctx context.Context, id int) (*model.Rule, error)
	AddRule(ctx context.Context, rule *model.Rule) error
	UpdateRule(ctx context.Context, rule *model.Rule) error
	DeleteRule(ctx context.Context, id int) error
	SetRuleEnabled(ctx context.Context, id int, enabled bool) error

	// Match statistics, written as a side effect of scanning.
	RecordRuleSuccess(ctx context.Context, id int) error
	RecordRuleError(ctx context.Context, id int, lastError string) error
}

// TransactionStore defines the contract for transaction persistence.
type TransactionStore interface {
	GetTransactions(ctx context.Context) ([]model.Transaction, error)
	GetTransactionsByMerchant(ctx context.Context, merchantName string) ([]model.Transaction, error)
	AddTransaction(ctx context.Context, txn *model.Transaction) error
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
}

// Storage combines both stores with database lifecycle management.
type Storage interface {
	RuleStore
	TransactionStore

	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
