// Package scan orchestrates batch extraction of transactions from raw
// messages.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/msgledger/msgledger/internal/common"
	"github.com/msgledger/msgledger/internal/dedupe"
	"github.com/msgledger/msgledger/internal/enrich"
	"github.com/msgledger/msgledger/internal/match"
	"github.com/msgledger/msgledger/internal/model"
	"github.com/msgledger/msgledger/internal/service"
)

// Config holds configuration options for the scan orchestrator.
type Config struct {
	// Currency stamped on every extracted transaction.
	Currency string
	// DedupeWindow is the heuristic duplicate timestamp tolerance.
	DedupeWindow time.Duration
	// GlobalSkipSMS and GlobalSkipEmail control whether the message-level
	// skip pre-check runs for each source.
	GlobalSkipSMS   bool
	GlobalSkipEmail bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Currency:        "INR",
		DedupeWindow:    dedupe.DefaultWindow,
		GlobalSkipSMS:   true,
		GlobalSkipEmail: true,
	}
}

// Result aggregates the outcome of one batch scan. It is the sole
// user-facing signal of partial failure.
type Result struct {
	Transactions   []model.Transaction
	Success        int
	Duplicate      int
	Skipped        int
	Failed         int
	TotalProcessed int
}

// Orchestrator iterates a batch of raw messages and drives skip filtering,
// rule matching, duplicate detection, enrichment and persistence for each
// one in input order.
type Orchestrator struct {
	ruleStore service.RuleStore
	txnStore  service.TransactionStore
	matcher   *match.Matcher
	detector  *dedupe.Detector
	progress  func(done, total int)
	cfg       Config
}

// New creates a scan orchestrator with the given stores and configuration.
func New(ruleStore service.RuleStore, txnStore service.TransactionStore, cfg Config) *Orchestrator {
	return &Orchestrator{
		ruleStore: ruleStore,
		txnStore:  txnStore,
		matcher:   match.NewMatcher(ruleStore),
		detector:  dedupe.NewDetector(dedupe.Config{Window: cfg.DedupeWindow}),
		cfg:       cfg,
	}
}

// SetProgress registers a callback invoked after every processed message.
func (o *Orchestrator) SetProgress(fn func(done, total int)) {
	o.progress = fn
}

// Scan processes the batch sequentially. Messages are awaited one at a
// time: the duplicate check for message N must observe transactions written
// for messages 1..N-1 of the same batch. A store failure aborts the scan
// and is returned alongside the partial result; everything persisted before
// it stays committed.
func (o *Orchestrator) Scan(ctx context.Context, msgs []model.RawMessage, rules []model.Rule) (*Result, error) {
	result := &Result{}

	existing, err := o.txnStore.GetTransactions(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load existing transactions: %w", err)
	}

	globalSkip := match.GlobalSkipPatterns(rules)

	slog.Info("Starting scan",
		"messages", len(msgs),
		"rules", len(rules),
		"existing_transactions", len(existing))

	for i, msg := range msgs {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		storeErr := o.processMessage(ctx, msg, rules, globalSkip, &existing, result)
		result.TotalProcessed++

		if o.progress != nil {
			o.progress(i+1, len(msgs))
		}

		if storeErr != nil {
			return result, storeErr
		}
	}

	slog.Info("Scan complete",
		"success", result.Success,
		"duplicate", result.Duplicate,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"total", result.TotalProcessed)

	return result, nil
}

// processMessage runs the full pipeline for one message. Unexpected panics
// are contained here and tallied as failures so a single malformed message
// never aborts the batch; only store errors propagate.
func (o *Orchestrator) processMessage(ctx context.Context, msg model.RawMessage, rules []model.Rule, globalSkip []string, existing *[]model.Transaction, result *Result) (storeErr error) {
	defer func() {
		if r := recover(); r != nil {
			result.Failed++
			slog.Error("Message processing panicked",
				"message_id", msg.ID,
				"sender", msg.Sender,
				"panic", r)
		}
	}()

	if o.globalSkipEnabled(msg.Source) && match.ShouldSkip(msg.Text, globalSkip) {
		result.Skipped++
		return nil
	}

	matched, ok := o.matcher.Match(ctx, msg, rules)
	if !ok {
		result.Skipped++
		return nil
	}

	txn := BuildTransaction(matched, msg, o.cfg.Currency)
	if err := txn.Validate(); err != nil {
		result.Failed++
		slog.Error("Extracted transaction failed validation",
			"message_id", msg.ID,
			"error", err)
		return nil
	}

	// The batch's own additions are part of the duplicate check.
	if o.detector.IsDuplicate(&txn, *existing) {
		result.Duplicate++
		slog.Debug("Duplicate transaction suppressed",
			"merchant", txn.MerchantName,
			"amount", txn.Amount)
		return nil
	}

	txn, enriched := enrich.Enrich(txn, *existing)
	if enriched {
		slog.Debug("Enriched transaction from history",
			"merchant", txn.MerchantName,
			"category", txn.Category)
	}

	err := common.WithRetry(ctx, func() error {
		if addErr := o.txnStore.AddTransaction(ctx, &txn); addErr != nil {
			if errors.Is(addErr, common.ErrDuplicateEntry) {
				return &common.RetryableError{Err: addErr, Retryable: false}
			}
			return addErr
		}
		return nil
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: 100 * time.Millisecond})
	if err != nil {
		// The store's idempotency index caught an insert the heuristic
		// check missed.
		if errors.Is(err, common.ErrDuplicateEntry) {
			result.Duplicate++
			return nil
		}
		result.Failed++
		return fmt.Errorf("failed to persist transaction for message %q: %w", msg.ID, err)
	}

	*existing = append(*existing, txn)
	result.Transactions = append(result.Transactions, txn)
	result.Success++

	return nil
}

// globalSkipEnabled resolves the per-source flag for the message-level skip
// pre-check.
func (o *Orchestrator) globalSkipEnabled(source model.TransactionSource) bool {
	switch source {
	case model.SourceEmail:
		return o.cfg.GlobalSkipEmail
	default:
		return o.cfg.GlobalSkipSMS
	}
}
