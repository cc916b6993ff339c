// Package runtime drives one turn of the criteria collection conversation.
//
// The Controller dispatches on the session's CriteriaMachine state, asks the
// SlotExtractor to interpret the latest exchange, applies the result to the
// session's Criteria and returns the dialog acts the turn produced. It never
// renders text and never persists: both belong to the caller.
package runtime
