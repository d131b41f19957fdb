package model

import (
	"time"
)

// RawMessage is one SMS or email body handed to the scanner by an upstream
// bridge, after any MIME or encoding structure has already been flattened to
// plain text.
type RawMessage struct {
	Date   time.Time         `json:"date"`
	ID     string            `json:"id,omitempty"`
	Sender string            `json:"sender"`
	Text   string            `json:"text"`
	Source TransactionSource `json:"source,omitempty"`
}
