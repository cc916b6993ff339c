package template

import (
	"fmt"
	"maps"
	"os"

	"github.com/aretw0/becas/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Flow holds the wording of the conversation: one text/template per act
// type and one question per field, keyed by the external field name.
type Flow struct {
	Templates map[domain.ActType]string `yaml:"templates"`
	Questions map[string]string         `yaml:"questions"`
}

// DefaultFlow returns the built-in Spanish wording.
func DefaultFlow() Flow {
	return Flow{
		Templates: map[domain.ActType]string{
			domain.ActStartCriteriaSearch: "¡Perfecto! Vamos a buscar becas según tus criterios.",
			domain.ActAckField:            "Anotado. {{.Label}}: {{pretty .Value}}.",
			domain.ActModifyField:         "Cambiado. {{.Label}}: {{if .Old}}{{pretty .Old}} → {{end}}{{pretty .Value}}.",
			domain.ActAskField:            "{{.Question}}{{if .Options}} Opciones: {{join .Options}}.{{end}}",
			domain.ActConfirmSearch:       "Estos son tus criterios:\n{{.Summary}}\n¿Es correcto? (sí/no)",
			domain.ActRejectSearch:        "Lo siento, no he encontrado becas con estos criterios:\n{{.Summary}}\nSi quieres, podemos empezar una nueva búsqueda.",
			domain.ActClarifyCriterion:    "No he entendido tu respuesta.{{if .Question}} {{.Question}}{{end}}",
			domain.ActClarifyConfirmation: "Perdona, necesito un sí o un no. ¿Son correctos estos criterios?\n{{.Summary}}",
			domain.ActAskChange:           "De acuerdo. ¿Qué criterio quieres cambiar y a qué valor?",
			domain.ActShowResults:         "He encontrado {{len .Results}} beca(s) con estos criterios:\n{{.Summary}}\n{{range .Results}}\n- **{{pretty .Name}}**{{if .Description}}: {{.Description}}{{end}}{{end}}",
		},
		Questions: map[string]string{
			domain.FieldArea.External():           "¿En qué área o campo de estudio te interesa la beca?",
			domain.FieldEducationLevel.External(): "¿Para qué nivel educativo buscas la beca?",
			domain.FieldLocation.External():       "¿En qué ubicación te gustaría estudiar?",
			domain.FieldOrganization.External():   "¿Tienes preferencia por algún organismo convocante?",
		},
	}
}

// ParseFlow reads a YAML flow and overlays it on DefaultFlow, so a file
// only needs the entries it changes.
func ParseFlow(data []byte) (Flow, error) {
	var f Flow
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Flow{}, fmt.Errorf("failed to parse flow: %w", err)
	}
	return DefaultFlow().Merge(f)
}

// LoadFlow reads a YAML flow file.
func LoadFlow(path string) (Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Flow{}, fmt.Errorf("failed to read flow: %w", err)
	}
	return ParseFlow(data)
}

// Merge returns f with the non-empty entries of other applied on top.
// Question keys may be any field alias and are stored under the external name.
func (f Flow) Merge(other Flow) (Flow, error) {
	out := Flow{
		Templates: maps.Clone(f.Templates),
		Questions: maps.Clone(f.Questions),
	}
	if out.Templates == nil {
		out.Templates = map[domain.ActType]string{}
	}
	if out.Questions == nil {
		out.Questions = map[string]string{}
	}
	for act, text := range other.Templates {
		if _, known := DefaultFlow().Templates[act]; !known {
			return Flow{}, fmt.Errorf("unknown act type %q in flow", act)
		}
		if text != "" {
			out.Templates[act] = text
		}
	}
	for alias, text := range other.Questions {
		field, err := domain.LookupField(alias)
		if err != nil {
			return Flow{}, fmt.Errorf("flow question: %w", err)
		}
		if text != "" {
			out.Questions[field.External()] = text
		}
	}
	return out, nil
}
