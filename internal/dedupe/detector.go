// Package dedupe decides whether a candidate transaction already exists.
package dedupe

import (
	"strings"
	"time"

	"github.com/msgledger/msgledger/internal/model"
)

// DefaultWindow is the canonical timestamp tolerance for heuristic
// duplicate detection. Overridable through Config.
const DefaultWindow = 60 * time.Second

// Config holds duplicate detection settings.
type Config struct {
	// Window is the timestamp tolerance when no external message ID is
	// available.
	Window time.Duration
}

// Detector compares candidate transactions against existing ones.
type Detector struct {
	window time.Duration
}

// NewDetector creates a detector with the given configuration. A zero
// window falls back to DefaultWindow.
func NewDetector(cfg Config) *Detector {
	window := cfg.Window
	if window <= 0 {
		window = DefaultWindow
	}
	return &Detector{window: window}
}

// IsDuplicate reports whether the candidate already exists. When the
// candidate carries an external message ID, only that ID is compared.
// Otherwise a heuristic applies: same merchant name (case-insensitive),
// same amount, and a timestamp within the tolerance window.
func (d *Detector) IsDuplicate(candidate *model.Transaction, existing []model.Transaction) bool {
	if candidate.MessageID != "" {
		for _, txn := range existing {
			if txn.MessageID == candidate.MessageID {
				return true
			}
		}
		return false
	}

	for _, txn := range existing {
		if !strings.EqualFold(txn.MerchantName, candidate.MerchantName) {
			continue
		}
		if txn.Amount != candidate.Amount {
			continue
		}
		if withinWindow(txn.Date, candidate.Date, d.window) {
			return true
		}
	}

	return false
}

func withinWindow(a, b time.Time, window time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= window
}
