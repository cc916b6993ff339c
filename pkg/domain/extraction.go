package domain

import "strings"

// Action names the operation an extractor asks for.
type Action string

const (
	ActionSelect Action = "select"
	ActionModify Action = "modify"
)

// ExtractionResult is the interpretation of one utterance.
// The set of implementations is closed: SelectCriterion, ModifyCriterion and NoCriterion.
type ExtractionResult interface {
	extractionResult()
}

// SelectCriterion sets Field to Value. Field is in the external vocabulary.
type SelectCriterion struct {
	Field string
	Value string
}

// ModifyCriterion replaces the current value of Field with Value.
type ModifyCriterion struct {
	Field string
	Value string
}

// NoCriterion means the utterance carried no interpretable criterion.
type NoCriterion struct{}

func (SelectCriterion) extractionResult() {}
func (ModifyCriterion) extractionResult() {}
func (NoCriterion) extractionResult()     {}

// NewExtractionResult builds a result from the raw triple.
// A missing member or an unknown action yields NoCriterion.
func NewExtractionResult(action, field, value string) ExtractionResult {
	field = strings.TrimSpace(field)
	value = normalizeValue(value)
	if field == "" || value == "" {
		return NoCriterion{}
	}
	switch Action(strings.ToLower(strings.TrimSpace(action))) {
	case ActionSelect:
		return SelectCriterion{Field: field, Value: value}
	case ActionModify:
		return ModifyCriterion{Field: field, Value: value}
	default:
		return NoCriterion{}
	}
}

// Confirmation is the ternary answer to a confirmation question.
type Confirmation string

const (
	ConfirmYes     Confirmation = "yes"
	ConfirmNo      Confirmation = "no"
	ConfirmUnknown Confirmation = ""
)

// ParseConfirmation maps yes/no style answers, in English or Spanish, to a Confirmation.
func ParseConfirmation(s string) Confirmation {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "si", "sí", "true":
		return ConfirmYes
	case "no", "false":
		return ConfirmNo
	default:
		return ConfirmUnknown
	}
}
