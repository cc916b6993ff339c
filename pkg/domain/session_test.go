package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/becas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Transcript(t *testing.T) {
	s := domain.NewSession("s1")
	assert.Equal(t, "", s.Transcript())

	s.AddUserMessage("hola, busco becas")
	assert.Equal(t, "Usuario: hola, busco becas", s.Transcript())

	s.AddAssistantMessage("¿Qué área te interesa?")
	s.AddUserMessage("salud")
	assert.Equal(t, "Asistente: ¿Qué área te interesa?\nUsuario: salud", s.Transcript())
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := domain.NewSession("s1")
	s.Criteria = domain.NewCriteria()
	s.AddUserMessage("hola")

	cp := s.Clone()
	cp.Criteria.Area = "salud"
	cp.History[0].Content = "changed"
	cp.Machine.Start()

	assert.Equal(t, "", s.Criteria.Area)
	assert.Equal(t, "hola", s.History[0].Content)
	assert.True(t, s.Machine.IsNotStarted())
}

func TestSession_JSONRoundTrip(t *testing.T) {
	s := domain.NewSession("s1")
	s.Intention = domain.IntentionCriteriaSearch
	s.Machine.Start()
	s.Criteria = domain.NewCriteria()
	_, err := s.Criteria.Apply(domain.SelectCriterion{Field: "nivel", Value: "grado"})
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded domain.Session
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, domain.StateCollecting, decoded.Machine.State())
	assert.Equal(t, "grado", decoded.Criteria.EducationLevel)
	assert.Equal(t, domain.Fields, decoded.Criteria.ActiveFields)
}

func TestNewExtractionResult(t *testing.T) {
	tests := []struct {
		name   string
		action string
		field  string
		value  string
		want   domain.ExtractionResult
	}{
		{"select", "select", "nivel", "Posgrado", domain.SelectCriterion{Field: "nivel", Value: "posgrado"}},
		{"modify", "MODIFY", "campo_estudio", "salud", domain.ModifyCriterion{Field: "campo_estudio", Value: "salud"}},
		{"missing field", "select", "", "salud", domain.NoCriterion{}},
		{"missing value", "select", "nivel", " ", domain.NoCriterion{}},
		{"null action", "", "nivel", "grado", domain.NoCriterion{}},
		{"unknown action", "delete", "nivel", "grado", domain.NoCriterion{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.NewExtractionResult(tt.action, tt.field, tt.value))
		})
	}
}

func TestParseConfirmation(t *testing.T) {
	assert.Equal(t, domain.ConfirmYes, domain.ParseConfirmation("sí"))
	assert.Equal(t, domain.ConfirmYes, domain.ParseConfirmation("YES"))
	assert.Equal(t, domain.ConfirmNo, domain.ParseConfirmation("no"))
	assert.Equal(t, domain.ConfirmUnknown, domain.ParseConfirmation("quizás"))
	assert.Equal(t, domain.ConfirmUnknown, domain.ParseConfirmation(""))
}

func TestLookupField(t *testing.T) {
	f, err := domain.LookupField(" Ubicacion ")
	require.NoError(t, err)
	assert.Equal(t, domain.FieldLocation, f)
	assert.Equal(t, "ubicacion", f.External())
	assert.Equal(t, "Ubicación", f.Label())

	_, err = domain.LookupField("financiamiento")
	assert.ErrorIs(t, err, domain.ErrFieldNotFound)
}

func TestVocabulary(t *testing.T) {
	v := domain.NewVocabulary(map[domain.Field][]string{
		domain.FieldEducationLevel: {"grado", "Posgrado", "posgrado", "doctorado"},
	})

	assert.Equal(t, []string{"grado", "posgrado", "doctorado", domain.AnyValue}, v.Values(domain.FieldEducationLevel))
	assert.True(t, v.Contains(domain.FieldEducationLevel, "POSGRADO"))
	assert.False(t, v.Contains(domain.FieldEducationLevel, "master"))
	assert.True(t, v.Contains(domain.FieldArea, domain.AnyValue))
	assert.False(t, v.Contains(domain.FieldArea, "salud"))
	assert.Equal(t, []string{"grado", "posgrado", "doctorado", domain.AnyValue}, v.Table()["nivel"])
}
