// Package model defines the core data structures for the msgledger application.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StringList is a pattern field that user-supplied rule documents may encode
// as either a single string or an array of strings. It always normalizes to
// a slice internally; an empty slice means "no constraint".
type StringList []string

// UnmarshalJSON accepts a bare string, an array of strings, or null.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = normalize([]string{single})
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*l = normalize(many)
		return nil
	}

	if string(data) == "null" {
		*l = StringList{}
		return nil
	}

	return fmt.Errorf("string list must be a string or array of strings, got %s", data)
}

// MarshalJSON always emits an array, never a bare string.
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// IsEmpty reports whether the list carries no usable patterns.
func (l StringList) IsEmpty() bool {
	return len(l) == 0
}

// normalize drops blank entries so an empty string never stands in for
// "no value".
func normalize(values []string) StringList {
	out := make(StringList, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
