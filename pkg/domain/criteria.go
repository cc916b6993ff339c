package domain

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NoActiveCriteria is the printable form of an empty record.
const NoActiveCriteria = "No hay criterios activos."

// Filters holds one optional value per field. Empty means unset.
type Filters struct {
	Area           string `json:"area,omitempty"`
	EducationLevel string `json:"education_level,omitempty"`
	Location       string `json:"location,omitempty"`
	Organization   string `json:"organization,omitempty"`
}

// Get returns the value of f, or "" when unset.
func (fl Filters) Get(f Field) string {
	switch f {
	case FieldArea:
		return fl.Area
	case FieldEducationLevel:
		return fl.EducationLevel
	case FieldLocation:
		return fl.Location
	case FieldOrganization:
		return fl.Organization
	}
	return ""
}

func (fl *Filters) set(f Field, value string) {
	switch f {
	case FieldArea:
		fl.Area = value
	case FieldEducationLevel:
		fl.EducationLevel = value
	case FieldLocation:
		fl.Location = value
	case FieldOrganization:
		fl.Organization = value
	}
}

// Matches reports whether a stored value satisfies the filter on f.
// Unset filters and AnyValue match everything; a stored AnyValue matches every filter.
func (fl Filters) Matches(f Field, value string) bool {
	want := fl.Get(f)
	if want == "" || want == AnyValue {
		return true
	}
	got := normalizeValue(value)
	return got == want || got == AnyValue
}

// Criteria is the per-session record of selected criteria.
// It is mutated only through Apply and Reset.
type Criteria struct {
	Filters

	// ActiveFields lists the fields in scope for this session, in precedence order.
	ActiveFields []Field `json:"active_fields,omitempty"`
}

// NewCriteria creates an empty record scoped to the given fields.
// With no fields, every criterion is in scope.
func NewCriteria(active ...Field) *Criteria {
	c := &Criteria{}
	for _, f := range Fields {
		if len(active) == 0 || slices.Contains(active, f) {
			c.ActiveFields = append(c.ActiveFields, f)
		}
	}
	return c
}

func (c *Criteria) active() []Field {
	if len(c.ActiveFields) == 0 {
		return Fields
	}
	return c.ActiveFields
}

// Apply records the extraction and returns the act describing the change.
// NoCriterion yields a nil act. Unknown field aliases fail with *FieldNotFoundError
// and leave the record untouched.
func (c *Criteria) Apply(res ExtractionResult) (*DialogAct, error) {
	switch r := res.(type) {
	case SelectCriterion:
		f, err := LookupField(r.Field)
		if err != nil {
			return nil, err
		}
		c.set(f, r.Value)
		act := AckField(f, r.Value)
		return &act, nil
	case ModifyCriterion:
		f, err := LookupField(r.Field)
		if err != nil {
			return nil, err
		}
		old := c.Get(f)
		c.set(f, r.Value)
		act := ModifyField(f, old, r.Value)
		return &act, nil
	default:
		return nil, nil
	}
}

// IsComplete reports whether every active field is set.
func (c *Criteria) IsComplete() bool {
	_, pending := c.NextPending()
	return !pending
}

// IsEmpty reports whether no field is set.
func (c *Criteria) IsEmpty() bool {
	for _, f := range Fields {
		if c.Get(f) != "" {
			return false
		}
	}
	return true
}

// NextPending returns the first unset active field in precedence order.
func (c *Criteria) NextPending() (Field, bool) {
	for _, f := range Fields {
		if !slices.Contains(c.active(), f) {
			continue
		}
		if c.Get(f) == "" {
			return f, true
		}
	}
	return "", false
}

// Printable renders the set fields as a label listing for confirmation.
func (c *Criteria) Printable() string {
	var lines []string
	for _, f := range Fields {
		v := c.Get(f)
		if v == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("**%s:** %s", f.Label(), Pretty(v)))
	}
	if len(lines) == 0 {
		return NoActiveCriteria
	}
	return strings.Join(lines, "\n")
}

// Reset clears every value, keeping the active fields.
func (c *Criteria) Reset() {
	c.Filters = Filters{}
}

// Clone returns a deep copy. A nil record clones to nil.
func (c *Criteria) Clone() *Criteria {
	if c == nil {
		return nil
	}
	cp := *c
	cp.ActiveFields = slices.Clone(c.ActiveFields)
	return &cp
}

// Pretty turns a vocabulary value into display text: underscores become
// spaces and the first letter is upper-cased.
func Pretty(value string) string {
	s := strings.TrimSpace(strings.ReplaceAll(value, "_", " "))
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
