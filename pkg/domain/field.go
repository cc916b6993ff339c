package domain

import "strings"

// Field identifies one of the searchable criteria.
type Field string

const (
	FieldArea           Field = "area"
	FieldEducationLevel Field = "education_level"
	FieldLocation       Field = "location"
	FieldOrganization   Field = "organization"
)

// Fields lists every criterion in pending-field precedence order.
var Fields = []Field{FieldArea, FieldEducationLevel, FieldLocation, FieldOrganization}

// fieldAliases maps the external vocabulary used by extractors and prompts to fields.
var fieldAliases = map[string]Field{
	"campo_estudio": FieldArea,
	"nivel":         FieldEducationLevel,
	"ubicacion":     FieldLocation,
	"organismo":     FieldOrganization,

	string(FieldArea):           FieldArea,
	string(FieldEducationLevel): FieldEducationLevel,
	string(FieldLocation):       FieldLocation,
	string(FieldOrganization):   FieldOrganization,
}

var fieldExternal = map[Field]string{
	FieldArea:           "campo_estudio",
	FieldEducationLevel: "nivel",
	FieldLocation:       "ubicacion",
	FieldOrganization:   "organismo",
}

var fieldLabels = map[Field]string{
	FieldArea:           "Área",
	FieldEducationLevel: "Nivel",
	FieldLocation:       "Ubicación",
	FieldOrganization:   "Organismo",
}

// LookupField resolves an external or canonical alias.
// Unknown aliases return a *FieldNotFoundError.
func LookupField(alias string) (Field, error) {
	f, ok := fieldAliases[strings.ToLower(strings.TrimSpace(alias))]
	if !ok {
		return "", &FieldNotFoundError{Alias: alias}
	}
	return f, nil
}

// Valid reports whether f is one of the four criteria.
func (f Field) Valid() bool {
	_, ok := fieldLabels[f]
	return ok
}

// External returns the name the extractor vocabulary uses for f.
func (f Field) External() string {
	if name, ok := fieldExternal[f]; ok {
		return name
	}
	return string(f)
}

// Label returns the human readable label of f.
func (f Field) Label() string {
	if label, ok := fieldLabels[f]; ok {
		return label
	}
	return string(f)
}

func (f Field) String() string {
	return string(f)
}
