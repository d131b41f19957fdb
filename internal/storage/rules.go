package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/msgledger/msgledger/internal/model"
)

const ruleColumns = `id, name, enabled, transaction_type, sender_match, amount_regex,
	merchant_anchors, merchant_conditions, merchant_cleanup, skip_conditions,
	payment_method, priority, success_count, last_error, created_at, updated_at`

// GetRules retrieves all rules ordered by priority.
func (s *SQLiteStorage) GetRules(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM rules ORDER BY priority DESC, id ASC`, ruleColumns)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		rule, scanErr := scanRule(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rules, nil
}

// GetRule retrieves a rule by ID.
func (s *SQLiteStorage) GetRule(ctx context.Context, id int) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM rules WHERE id = ?`, ruleColumns)

	rule, err := scanRule(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}

	return rule, nil
}

// AddRule creates a new rule.
func (s *SQLiteStorage) AddRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	fields, err := encodeRuleFields(rule)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO rules (
			name, enabled, transaction_type, sender_match, amount_regex,
			merchant_anchors, merchant_conditions, merchant_cleanup,
			skip_conditions, payment_method, priority, success_count, last_error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		rule.Name, rule.Enabled, string(rule.Type),
		fields.senderMatch, fields.amountRegex, fields.anchors,
		fields.conditions, fields.cleanup, fields.skips,
		rule.PaymentMethod, rule.Priority, rule.SuccessCount, rule.LastError,
	)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get rule ID: %w", err)
	}
	rule.ID = int(id)

	return nil
}

// UpdateRule updates an existing rule.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	fields, err := encodeRuleFields(rule)
	if err != nil {
		return err
	}

	query := `
		UPDATE rules SET
			name = ?, enabled = ?, transaction_type = ?, sender_match = ?,
			amount_regex = ?, merchant_anchors = ?, merchant_conditions = ?,
			merchant_cleanup = ?, skip_conditions = ?, payment_method = ?,
			priority = ?, success_count = ?, last_error = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		rule.Name, rule.Enabled, string(rule.Type),
		fields.senderMatch, fields.amountRegex, fields.anchors,
		fields.conditions, fields.cleanup, fields.skips,
		rule.PaymentMethod, rule.Priority, rule.SuccessCount, rule.LastError,
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	return requireRowsAffected(result)
}

// DeleteRule deletes a rule.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	return requireRowsAffected(result)
}

// SetRuleEnabled toggles a rule on or off.
func (s *SQLiteStorage) SetRuleEnabled(ctx context.Context, id int, enabled bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	query := `UPDATE rules SET enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, enabled, id)
	if err != nil {
		return fmt.Errorf("failed to toggle rule: %w", err)
	}

	return requireRowsAffected(result)
}

// RecordRuleSuccess increments the success count and clears any recorded
// error.
func (s *SQLiteStorage) RecordRuleSuccess(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	query := `
		UPDATE rules SET
			success_count = success_count + 1,
			last_error = '',
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to record rule success: %w", err)
	}

	return requireRowsAffected(result)
}

// RecordRuleError stores the last pattern error seen for a rule.
func (s *SQLiteStorage) RecordRuleError(ctx context.Context, id int, lastError string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	query := `UPDATE rules SET last_error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, lastError, id)
	if err != nil {
		return fmt.Errorf("failed to record rule error: %w", err)
	}

	return requireRowsAffected(result)
}

// requireRowsAffected converts a zero-row update into ErrRuleNotFound.
func requireRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// encodedRule holds the JSON-serialized list columns of a rule row.
type encodedRule struct {
	senderMatch string
	amountRegex string
	anchors     string
	conditions  string
	cleanup     string
	skips       string
}

func encodeRuleFields(rule *model.Rule) (*encodedRule, error) {
	senderMatch, err := json.Marshal(rule.SenderMatch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sender patterns: %w", err)
	}
	amountRegex, err := json.Marshal(rule.AmountRegex)
	if err != nil {
		return nil, fmt.Errorf("failed to encode amount patterns: %w", err)
	}
	anchors, err := json.Marshal(rule.MerchantAnchors)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merchant anchors: %w", err)
	}
	conditions, err := json.Marshal(rule.MerchantConditions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merchant conditions: %w", err)
	}
	cleanup, err := json.Marshal(rule.MerchantCleanup)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cleanup patterns: %w", err)
	}
	skips, err := json.Marshal(rule.SkipConditions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode skip conditions: %w", err)
	}

	return &encodedRule{
		senderMatch: string(senderMatch),
		amountRegex: string(amountRegex),
		anchors:     string(anchors),
		conditions:  string(conditions),
		cleanup:     string(cleanup),
		skips:       string(skips),
	}, nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*model.Rule, error) {
	var rule model.Rule
	var ruleType string
	var senderMatch, amountRegex string
	var anchors, conditions, cleanup, skips, paymentMethod, lastError sql.NullString

	err := row.Scan(
		&rule.ID, &rule.Name, &rule.Enabled, &ruleType, &senderMatch, &amountRegex,
		&anchors, &conditions, &cleanup, &skips,
		&paymentMethod, &rule.Priority, &rule.SuccessCount, &lastError,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}

	rule.Type = model.TransactionType(ruleType)
	rule.PaymentMethod = paymentMethod.String
	rule.LastError = lastError.String

	if err := json.Unmarshal([]byte(senderMatch), &rule.SenderMatch); err != nil {
		return nil, fmt.Errorf("failed to decode sender patterns: %w", err)
	}
	if err := json.Unmarshal([]byte(amountRegex), &rule.AmountRegex); err != nil {
		return nil, fmt.Errorf("failed to decode amount patterns: %w", err)
	}
	if err := decodeNullJSON(anchors, &rule.MerchantAnchors); err != nil {
		return nil, fmt.Errorf("failed to decode merchant anchors: %w", err)
	}
	if err := decodeNullJSON(conditions, &rule.MerchantConditions); err != nil {
		return nil, fmt.Errorf("failed to decode merchant conditions: %w", err)
	}
	if err := decodeNullJSON(cleanup, &rule.MerchantCleanup); err != nil {
		return nil, fmt.Errorf("failed to decode cleanup patterns: %w", err)
	}
	if err := decodeNullJSON(skips, &rule.SkipConditions); err != nil {
		return nil, fmt.Errorf("failed to decode skip conditions: %w", err)
	}

	return &rule, nil
}

func decodeNullJSON(col sql.NullString, dest any) error {
	if !col.Valid || col.String == "" || col.String == "null" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), dest)
}
