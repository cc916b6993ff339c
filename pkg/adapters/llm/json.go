package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/aretw0/becas/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)```")

// RecoverJSON extracts the JSON object of a model answer: a fenced json
// block first, then the first balanced object, else the trimmed text.
func RecoverJSON(raw string) string {
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if obj, ok := firstObject(raw); ok {
		return obj
	}
	return strings.TrimSpace(raw)
}

// firstObject returns the first balanced {...} of s. Braces inside
// string literals do not count.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// payloadDecoder validates and decodes model answers into T.
type payloadDecoder[T any] struct {
	schema *gojsonschema.Schema
}

func newPayloadDecoder[T any]() *payloadDecoder[T] {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(GenerateSchema[T]()))
	if err != nil {
		panic("invalid payload schema: " + err.Error())
	}
	return &payloadDecoder[T]{schema: schema}
}

// decode reads raw into a T. A non-empty "error" member means the
// utterance belongs to another flow.
func (d *payloadDecoder[T]) decode(raw string) (T, error) {
	var out T

	var obj map[string]any
	if err := json.Unmarshal([]byte(RecoverJSON(raw)), &obj); err != nil {
		return out, domain.NewExtractionFormatError("answer is not a JSON object", raw)
	}
	if reason, ok := obj["error"]; ok && reason != nil && reason != "" {
		return out, &mismatchError{reason: reason}
	}
	// A null member is a well-formed "nothing understood".
	for k, v := range obj {
		if v == nil {
			obj[k] = ""
		}
	}

	result, err := d.schema.Validate(gojsonschema.NewGoLoader(obj))
	if err != nil {
		return out, domain.NewExtractionFormatError(err.Error(), raw)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return out, domain.NewExtractionFormatError(strings.Join(msgs, "; "), raw)
	}

	if err := mapstructure.Decode(obj, &out); err != nil {
		return out, domain.NewExtractionFormatError(err.Error(), raw)
	}
	return out, nil
}

type mismatchError struct {
	reason any
}

func (e *mismatchError) Error() string {
	return "intent mismatch: " + strings.TrimSpace(toString(e.reason))
}

func (e *mismatchError) Unwrap() error {
	return domain.ErrIntentMismatch
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, _ := json.Marshal(v)
	return string(b)
}
