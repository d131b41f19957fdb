// Package enrich fills in missing transaction fields from the merchant's
// prior history.
package enrich

import (
	"strings"

	"github.com/msgledger/msgledger/internal/model"
)

// Enrich copies category and notes from the merchant's most recent prior
// transaction onto the candidate. It only applies when the candidate still
// carries the default category or auto-extracted notes, and only considers
// donors whose notes were written by a user (no auto-extraction marker).
// Returns the possibly updated transaction and whether anything changed.
func Enrich(txn model.Transaction, history []model.Transaction) (model.Transaction, bool) {
	if !txn.NeedsEnrichment() {
		return txn, false
	}

	var donor *model.Transaction
	for i := range history {
		candidate := &history[i]
		if !strings.EqualFold(candidate.MerchantName, txn.MerchantName) {
			continue
		}
		if candidate.IsAutoExtracted() {
			continue
		}
		if donor == nil || candidate.Date.After(donor.Date) {
			donor = candidate
		}
	}

	if donor == nil {
		return txn, false
	}

	changed := false
	if donor.Category != "" && donor.Category != txn.Category {
		txn.Category = donor.Category
		changed = true
	}
	if donor.Notes != "" && donor.Notes != txn.Notes {
		txn.Notes = donor.Notes
		changed = true
	}

	return txn, changed
}
