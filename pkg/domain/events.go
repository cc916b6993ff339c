package domain

import (
	"context"
	"time"
)

// TurnEvent describes one processed turn.
type TurnEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	SessionID string        `json:"session_id"`
	From      CriteriaState `json:"from"`
	To        CriteriaState `json:"to"`
	Acts      []ActType     `json:"acts"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// ExtractionEvent describes one extractor call.
type ExtractionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Mode      string    `json:"mode"` // initial, criterion or confirmation
	Failed    bool      `json:"failed"`
}

// SearchEvent describes a repository query issued after confirmation.
type SearchEvent struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Filters   Filters   `json:"filters"`
	Results   int       `json:"results"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTurn       func(context.Context, *TurnEvent)
	OnExtraction func(context.Context, *ExtractionEvent)
	OnSearch     func(context.Context, *SearchEvent)
}
