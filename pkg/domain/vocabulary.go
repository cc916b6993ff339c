package domain

import (
	"slices"
	"strings"
)

// AnyValue is accepted for every field and matches any stored value when querying.
const AnyValue = "cualquiera"

// Vocabulary is the closed set of valid values per field.
type Vocabulary struct {
	values map[Field][]string
}

// NewVocabulary builds a vocabulary from per-field value sets.
// Values are trimmed, lower-cased and deduplicated; AnyValue is always included.
func NewVocabulary(values map[Field][]string) Vocabulary {
	v := Vocabulary{values: make(map[Field][]string, len(Fields))}
	for _, f := range Fields {
		seen := map[string]bool{}
		var out []string
		for _, raw := range values[f] {
			val := normalizeValue(raw)
			if val == "" || seen[val] {
				continue
			}
			seen[val] = true
			out = append(out, val)
		}
		if !seen[AnyValue] {
			out = append(out, AnyValue)
		}
		v.values[f] = out
	}
	return v
}

// Values returns a copy of the valid values of f.
func (v Vocabulary) Values(f Field) []string {
	return slices.Clone(v.values[f])
}

// Contains reports whether value is valid for f.
func (v Vocabulary) Contains(f Field, value string) bool {
	return slices.Contains(v.values[f], normalizeValue(value))
}

// Fields returns the fields that have at least one value, in precedence order.
func (v Vocabulary) Fields() []Field {
	out := make([]Field, 0, len(Fields))
	for _, f := range Fields {
		if len(v.values[f]) > 0 {
			out = append(out, f)
		}
	}
	return out
}

// Table renders the vocabulary keyed by external field names.
func (v Vocabulary) Table() map[string][]string {
	out := make(map[string][]string, len(v.values))
	for f, vals := range v.values {
		out[f.External()] = slices.Clone(vals)
	}
	return out
}

func normalizeValue(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
