package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrFieldNotFound is returned when a field alias is outside the known alias table.
// It signals a configuration inconsistency upstream and is never recovered locally.
var ErrFieldNotFound = errors.New("field not found")

// ErrExtractionFormat is returned when the extractor output cannot be read as
// the expected structure. Well-formed empty answers are not format errors.
var ErrExtractionFormat = errors.New("extraction format error")

// ErrIntentMismatch signals that an utterance belongs to a different conversational flow.
var ErrIntentMismatch = errors.New("intent mismatch")

// ErrNoResults is returned by repositories when a query matches nothing.
var ErrNoResults = errors.New("no results")

// ErrInvalidState is returned when a persisted machine state is not one of the known states.
var ErrInvalidState = errors.New("invalid criteria state")

// FieldNotFoundError carries the unrecognized alias.
type FieldNotFoundError struct {
	Alias string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("field not found: %q", e.Alias)
}

func (e *FieldNotFoundError) Unwrap() error {
	return ErrFieldNotFound
}

// ExtractionFormatError describes why the extractor output was rejected.
// Raw holds the offending output, truncated for logging.
type ExtractionFormatError struct {
	Reason string
	Raw    string
}

func (e *ExtractionFormatError) Error() string {
	if e.Raw == "" {
		return fmt.Sprintf("extraction format error: %s", e.Reason)
	}
	return fmt.Sprintf("extraction format error: %s (raw: %q)", e.Reason, e.Raw)
}

func (e *ExtractionFormatError) Unwrap() error {
	return ErrExtractionFormat
}

// NewExtractionFormatError builds an ExtractionFormatError keeping at most 200 bytes of raw output.
func NewExtractionFormatError(reason, raw string) *ExtractionFormatError {
	const maxRaw = 200
	if len(raw) > maxRaw {
		raw = raw[:maxRaw] + "..."
	}
	return &ExtractionFormatError{Reason: reason, Raw: raw}
}
