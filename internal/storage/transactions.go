package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/msgledger/msgledger/internal/common"
	"github.com/msgledger/msgledger/internal/model"
)

const transactionColumns = `id, merchant_name, amount, currency, date, category,
	notes, payment_method, type, source, message_id`

// GetTransactions retrieves all transactions, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM transactions ORDER BY date DESC, id ASC`, transactionColumns)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTransactions(rows)
}

// GetTransactionsByMerchant retrieves transactions for one merchant,
// matched case-insensitively, newest first.
func (s *SQLiteStorage) GetTransactionsByMerchant(ctx context.Context, merchantName string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(merchantName, "merchantName"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE merchant_name = ? COLLATE NOCASE
		ORDER BY date DESC, id ASC
	`, transactionColumns)

	rows, err := s.db.QueryContext(ctx, query, merchantName)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions by merchant: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTransactions(rows)
}

// AddTransaction persists a new transaction.
func (s *SQLiteStorage) AddTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO transactions (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, transactionColumns)

	_, err := s.db.ExecContext(ctx, query,
		txn.ID, txn.MerchantName, txn.Amount, txn.Currency, txn.Date,
		txn.Category, txn.Notes, txn.PaymentMethod,
		string(txn.Type), string(txn.Source), txn.MessageID,
	)
	if err != nil {
		if IsUniqueConstraintError(err) {
			return fmt.Errorf("%w: message %s", common.ErrDuplicateEntry, txn.MessageID)
		}
		return fmt.Errorf("failed to add transaction: %w", err)
	}

	return nil
}

// UpdateTransaction updates an existing transaction.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	query := `
		UPDATE transactions SET
			merchant_name = ?, amount = ?, currency = ?, date = ?,
			category = ?, notes = ?, payment_method = ?, type = ?,
			source = ?, message_id = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		txn.MerchantName, txn.Amount, txn.Currency, txn.Date,
		txn.Category, txn.Notes, txn.PaymentMethod, string(txn.Type),
		string(txn.Source), txn.MessageID,
		txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTransactionNotFound
	}

	return nil
}

func collectTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var txns []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		var txnType, source string
		var currency, category, notes, paymentMethod, messageID sql.NullString

		err := rows.Scan(
			&txn.ID, &txn.MerchantName, &txn.Amount, &currency, &txn.Date,
			&category, &notes, &paymentMethod, &txnType, &source, &messageID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		txn.Currency = currency.String
		txn.Category = category.String
		txn.Notes = notes.String
		txn.PaymentMethod = paymentMethod.String
		txn.MessageID = messageID.String
		txn.Type = model.TransactionType(txnType)
		txn.Source = model.TransactionSource(source)

		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txns, nil
}

// IsUniqueConstraintError reports whether an insert collided with the
// message-ID idempotency index.
func IsUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
