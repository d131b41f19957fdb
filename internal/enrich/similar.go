package enrich

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/msgledger/msgledger/internal/model"
)

// maxSimilarDistance caps how far apart two merchant names may be before a
// suggestion is considered noise.
const maxSimilarDistance = 3

// SimilarMerchant finds the known merchant name closest to the given one by
// edit distance. Used for CLI suggestions when an extracted name almost
// matches an existing merchant; it never affects Enrich itself, which
// requires an exact case-insensitive match. Returns ok=false when nothing
// is close enough.
func SimilarMerchant(name string, history []model.Transaction) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", false
	}

	best := ""
	bestDistance := maxSimilarDistance + 1

	seen := make(map[string]struct{})
	for _, txn := range history {
		merchant := strings.TrimSpace(txn.MerchantName)
		lower := strings.ToLower(merchant)
		if lower == "" || lower == needle {
			continue
		}
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}

		distance := levenshtein.ComputeDistance(needle, lower)
		if distance < bestDistance {
			bestDistance = distance
			best = merchant
		}
	}

	if best == "" {
		return "", false
	}
	return best, true
}
