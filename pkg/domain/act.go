package domain

import "encoding/json"

// ActType categorizes a DialogAct.
type ActType string

const (
	ActStartCriteriaSearch ActType = "start_criteria_search"
	ActAckField            ActType = "ack_field"
	ActModifyField         ActType = "modify_field"
	ActAskField            ActType = "ask_field"
	ActRejectSearch        ActType = "reject_search"
	ActConfirmSearch       ActType = "confirm_search"

	// Re-prompts and outcomes.
	ActClarifyCriterion    ActType = "clarify_criterion"
	ActClarifyConfirmation ActType = "clarify_confirmation"
	ActAskChange           ActType = "ask_change"
	ActShowResults         ActType = "show_results"
)

// ActTypes lists every act type in declaration order.
func ActTypes() []ActType {
	return []ActType{
		ActStartCriteriaSearch, ActAckField, ActModifyField, ActAskField,
		ActRejectSearch, ActConfirmSearch, ActClarifyCriterion,
		ActClarifyConfirmation, ActAskChange, ActShowResults,
	}
}

// DialogAct is one unit of conversational meaning. Values are immutable;
// use the constructors to build them.
type DialogAct struct {
	kind    ActType
	field   Field
	old     string
	new     string
	summary string
	results []Scholarship
}

// StartCriteriaSearch announces that criteria collection begins.
func StartCriteriaSearch() DialogAct {
	return DialogAct{kind: ActStartCriteriaSearch}
}

// AckField acknowledges value recorded for f.
func AckField(f Field, value string) DialogAct {
	return DialogAct{kind: ActAckField, field: f, new: value}
}

// ModifyField reports that f changed from old to value.
func ModifyField(f Field, old, value string) DialogAct {
	return DialogAct{kind: ActModifyField, field: f, old: old, new: value}
}

// AskField asks for the value of f.
func AskField(f Field) DialogAct {
	return DialogAct{kind: ActAskField, field: f}
}

// ConfirmSearch carries the printable summary of the record being confirmed.
func ConfirmSearch(summary string) DialogAct {
	return DialogAct{kind: ActConfirmSearch, summary: summary}
}

// RejectSearch reports that the confirmed filters matched nothing.
func RejectSearch(summary string) DialogAct {
	return DialogAct{kind: ActRejectSearch, summary: summary}
}

// ClarifyCriterion re-prompts for f after an uninterpretable answer. f may be empty.
func ClarifyCriterion(f Field) DialogAct {
	return DialogAct{kind: ActClarifyCriterion, field: f}
}

// ClarifyConfirmation repeats the confirmation question for summary after an
// answer that was neither yes nor no.
func ClarifyConfirmation(summary string) DialogAct {
	return DialogAct{kind: ActClarifyConfirmation, summary: summary}
}

// AskChange asks which criterion to change after a rejected confirmation.
func AskChange() DialogAct {
	return DialogAct{kind: ActAskChange}
}

// ShowResults carries the matches of a confirmed search.
func ShowResults(summary string, results []Scholarship) DialogAct {
	cp := make([]Scholarship, len(results))
	copy(cp, results)
	return DialogAct{kind: ActShowResults, summary: summary, results: cp}
}

func (a DialogAct) Type() ActType   { return a.kind }
func (a DialogAct) Field() Field    { return a.field }
func (a DialogAct) Old() string     { return a.old }
func (a DialogAct) New() string     { return a.new }
func (a DialogAct) Summary() string { return a.summary }

// Results returns a copy of the scholarships attached to a show_results act.
func (a DialogAct) Results() []Scholarship {
	if a.results == nil {
		return nil
	}
	cp := make([]Scholarship, len(a.results))
	copy(cp, a.results)
	return cp
}

type dialogActJSON struct {
	Type    ActType       `json:"type"`
	Field   Field         `json:"field,omitempty"`
	Old     string        `json:"old,omitempty"`
	New     string        `json:"new,omitempty"`
	Summary string        `json:"summary,omitempty"`
	Results []Scholarship `json:"results,omitempty"`
}

func (a DialogAct) MarshalJSON() ([]byte, error) {
	return json.Marshal(dialogActJSON{
		Type:    a.kind,
		Field:   a.field,
		Old:     a.old,
		New:     a.new,
		Summary: a.summary,
		Results: a.results,
	})
}

func (a *DialogAct) UnmarshalJSON(data []byte) error {
	var raw dialogActJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = DialogAct{
		kind:    raw.Type,
		field:   raw.Field,
		old:     raw.Old,
		new:     raw.New,
		summary: raw.Summary,
		results: raw.Results,
	}
	return nil
}
