package scan

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/msgledger/msgledger/internal/match"
	"github.com/msgledger/msgledger/internal/model"
)

// BuildTransaction assembles the persisted transaction record from an
// accepted match and its source message. The amount is already a
// non-negative magnitude; direction comes from the rule's type.
func BuildTransaction(result *match.Result, msg model.RawMessage, currency string) model.Transaction {
	date := msg.Date
	if date.IsZero() {
		date = time.Now()
	}

	source := msg.Source
	if source == "" {
		source = model.SourceSMS
	}

	return model.Transaction{
		ID:            uuid.NewString(),
		MerchantName:  result.MerchantName,
		Amount:        result.Amount,
		Currency:      currency,
		Date:          date,
		Category:      model.DefaultCategory,
		Notes:         fmt.Sprintf("%s rule: %s", model.AutoExtractedMarker, result.Rule.Name),
		PaymentMethod: result.Rule.PaymentMethod,
		Type:          result.Rule.Type,
		Source:        source,
		MessageID:     msg.ID,
	}
}
