// Package answers implements the structured-answer handling shared by
// submission validation and grading. Answers are JSON objects carrying a
// "selections" list; grading compares the canonical (RFC 8785) form of the
// submitted and expected documents, so object key order is irrelevant while
// the order of list elements is significant.
package answers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gowebpki/jcs"
)

var (
	ErrNotObject         = errors.New(`answer must be a JSON object with "selections"`)
	ErrMissingSelections = errors.New(`answer must contain "selections" field`)
	ErrSelectionsNotList = errors.New(`"selections" must be a list`)
)

// Empty is the neutral answer stored when a task is issued before the team
// has submitted anything.
var Empty = json.RawMessage(`{}`)

// Validate checks that raw is an object carrying a "selections" list.
func Validate(raw json.RawMessage) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ErrNotObject
	}
	sel, ok := doc["selections"]
	if !ok {
		return ErrMissingSelections
	}
	var list []json.RawMessage
	if err := json.Unmarshal(sel, &list); err != nil {
		return ErrSelectionsNotList
	}
	return nil
}

// Equal reports whether two answer documents are structurally equal.
func Equal(a, b json.RawMessage) (bool, error) {
	ca, err := jcs.Transform(a)
	if err != nil {
		return false, fmt.Errorf("failed to canonicalize answer: %w", err)
	}
	cb, err := jcs.Transform(b)
	if err != nil {
		return false, fmt.Errorf("failed to canonicalize answer: %w", err)
	}
	return bytes.Equal(ca, cb), nil
}
