package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/becas/internal/runtime"
	"github.com/aretw0/becas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_StartHarvestsOpeningCriterion(t *testing.T) {
	ex := &stubExtractor{initial: selectOf("campo_estudio", "salud")}
	c := runtime.NewController(ex, &stubRepo{}, testVocabulary())

	s := domain.NewSession("s1")
	s.AddUserMessage("quiero becas de salud")

	acts, err := c.HandleTurn(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, []domain.DialogAct{
		domain.StartCriteriaSearch(),
		domain.AckField(domain.FieldArea, "salud"),
		domain.AskField(domain.FieldEducationLevel),
	}, acts)
	assert.Equal(t, domain.StateCollecting, s.Machine.State())
	assert.Equal(t, domain.IntentionCriteriaSearch, s.Intention)
	assert.Equal(t, "salud", s.Criteria.Area)
	assert.Equal(t, []string{"Usuario: quiero becas de salud"}, ex.transcripts)
}

func TestController_StartWithoutCriterion(t *testing.T) {
	ex := &stubExtractor{}
	c := runtime.NewController(ex, &stubRepo{}, testVocabulary())

	s := domain.NewSession("s1")
	s.AddUserMessage("hola")

	acts, err := c.HandleTurn(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []domain.DialogAct{domain.StartCriteriaSearch(), domain.AskField(domain.FieldArea)}, acts)
	require.NotNil(t, s.Criteria)
	assert.True(t, s.Criteria.IsEmpty())
}

func TestController_StartRecoversFromFormatError(t *testing.T) {
	ex := &stubExtractor{initial: func(string) (domain.ExtractionResult, error) {
		return nil, domain.NewExtractionFormatError("no json object", "lo siento")
	}}
	c := runtime.NewController(ex, &stubRepo{}, testVocabulary())

	s := domain.NewSession("s1")
	s.AddUserMessage("hola")

	acts, err := c.HandleTurn(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []domain.DialogAct{domain.StartCriteriaSearch(), domain.AskField(domain.FieldArea)}, acts)
	assert.Equal(t, domain.StateCollecting, s.Machine.State())
}

func TestController_StartIgnoresModify(t *testing.T) {
	ex := &stubExtractor{initial: func(string) (domain.ExtractionResult, error) {
		return domain.ModifyCriterion{Field: "nivel", Value: "grado"}, nil
	}}
	c := runtime.NewController(ex, &stubRepo{}, testVocabulary())

	s := domain.NewSession("s1")
	s.AddUserMessage("cambia el nivel a grado")

	acts, err := c.HandleTurn(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []domain.DialogAct{domain.StartCriteriaSearch(), domain.AskField(domain.FieldArea)}, acts)
	assert.Equal(t, "", s.Criteria.EducationLevel)
}

func TestController_CollectAcknowledgesAndAsksNext(t *testing.T) {
	ex := &stubExtractor{criterion: criterionOf("select", "nivel", "posgrado")}
	c := runtime.NewController(ex, &stubRepo{}, testVocabulary(),
		runtime.WithActiveFields(domain.FieldEducationLevel, domain.FieldLocation, domain.FieldOrganization))

	s := domain.NewSession("s1")
	s.Machine.Start()
	s.Criteria = domain.NewCriteria(domain.FieldEducationLevel, domain.FieldLocation, domain.FieldOrganization)
	s.AddAssistantMessage("¿Qué nivel educativo buscas?")
	s.AddUserMessage("posgrado")

	acts, err := c.HandleTurn(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, []domain.DialogAct{
		domain.AckField(domain.FieldEducationLevel, "posgrado"),
		domain.AskField(domain.FieldLocation),
	}, acts)
	assert.Equal(t, "posgrado", s.Criteria.EducationLevel)
	next, ok := s.Criteria.NextPending()
	require.True(t, ok)
	assert.Equal(t, domain.FieldLocation, next)
	assert.Equal(t, []domain.Field{domain.FieldEducationLevel}, ex.pending)
	assert.Equal(t, []string{"Asistente: ¿Qué nivel educativo buscas?\nUsuario: posgrado"}, ex.transcripts)
}

func TestController_CollectRejectsValueOutsideVocabulary(t *testing.T) {
	ex := &stubExtractor{criterion: criterionOf("select", "nivel", "master")}
	c := runtime.NewController(ex, &stubRepo{}, testVocabulary())

	s := domain.NewSession("s1")
	s.Machine.Start()
	s.Criteria = domain.NewCriteria()
	s.Criteria.Area = "salud"
	s.AddUserMessage("un master")

	acts, err := c.HandleTurn(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []domain.DialogAct{domain.ClarifyCriterion(domain.FieldEducationLevel)}, acts)
	assert.Equal(t, "", s.Criteria.EducationLevel)
	assert.Equal(t, domain.StateCollecting, s.Machine.State())
}

func TestController_CollectRecoversFromExtractorFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"format", domain.NewExtractionFormatError("missing keys", "{}")},
		{"transport", errors.New("connection refused")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &stubExtractor{criterion: func(string, domain.Field) (domain.ExtractionResult, error) {
				return nil, tt.err
			}}
			c := runtime.NewController(ex, &stubRepo{}, testVocabulary())

			s := domain.NewSession("s1")
			s.Machine.Start()
			s.Criteria = domain.NewCriteria()
			s.AddUserMessage("???")

			acts, err := c.HandleTurn(context.Background(), s)
			require.NoError(t, err)
			assert.Equal(t, []domain.DialogAct{domain.ClarifyCriterion(domain.FieldArea)}, acts)
			assert.True(t, s.Criteria.IsEmpty())
			assert.Equal(t, domain.StateCollecting, s.Machine.State())
		})
	}
}

func TestController_CollectUnknownFieldIsFatal(t *testing.T) {
	ex := &stubExtractor{criterion: criterionOf("select", "financiamiento", "total")}
	c := runtime.NewController(ex, &stubRepo{}, testVocabulary())

	s := domain.NewSession("s1")
	s.Machine.Start()
	s.Criteria = domain.NewCriteria()
	s.AddUserMessage("financiación total")

	_, err := c.HandleTurn(context.Background(), s)
	assert.ErrorIs(t, err, domain.ErrFieldNotFound)
}

func TestController_IntentMismatchPropagates(t *testing.T) {
	mismatch := func(string, domain.Field) (domain.ExtractionResult, error) {
		return nil, domain.ErrIntentMismatch
	}
	ex := &stubExtractor{
		criterion: mismatch,
		initial: func(string) (domain.ExtractionResult, error) {
			return nil, domain.ErrIntentMismatch
		},
		confirmation: func(string) (domain.Confirmation, error) {
			return domain.ConfirmUnknown, domain.ErrIntentMismatch
		},
	}
	c := runtime.NewController(ex, &stubRepo{}, testVocabulary())

	t.Run("not started", func(t *testing.T) {
		s := domain.NewSession("s1")
		s.AddUserMessage("¿qué hora es?")
		_, err := c.HandleTurn(context.Background(), s)
		assert.ErrorIs(t, err, domain.ErrIntentMismatch)
	})

	t.Run("collecting", func(t *testing.T) {
		s := domain.NewSession("s1")
		s.Machine.Start()
		s.Criteria = domain.NewCriteria()
		s.AddUserMessage("¿qué hora es?")
		_, err := c.HandleTurn(context.Background(), s)
		assert.ErrorIs(t, err, domain.ErrIntentMismatch)
	})

	t.Run("awaiting confirmation", func(t *testing.T) {
		_, err := c.HandleTurn(context.Background(), confirmingSession("¿qué hora es?"))
		assert.ErrorIs(t, err, domain.ErrIntentMismatch)
	})
}

func TestController_LastCriterionAsksForConfirmation(t *testing.T) {
	ex := &stubExtractor{criterion: criterionOf("select", "organismo", "ministerio")}
	c := runtime.NewController(ex, &stubRepo{}, testVocabulary())

	s := domain.NewSession("s1")
	s.Machine.Start()
	s.Criteria = domain.NewCriteria()
	s.Criteria.Area = "salud"
	s.Criteria.EducationLevel = "grado"
	s.Criteria.Location = "madrid"
	s.AddUserMessage("del ministerio")

	acts, err := c.HandleTurn(context.Background(), s)
	require.NoError(t, err)

	require.Len(t, acts, 2)
	assert.Equal(t, domain.AckField(domain.FieldOrganization, "ministerio"), acts[0])
	assert.Equal(t, domain.ActConfirmSearch, acts[1].Type())
	assert.Equal(t, s.Criteria.Printable(), acts[1].Summary())
	assert.Equal(t, domain.StateAwaitingConfirmation, s.Machine.State())
}

func TestController_ConfirmNoWithCorrection(t *testing.T) {
	ex := &stubExtractor{
		confirmation: confirmationOf(domain.ConfirmNo),
		criterion:    criterionOf("modify", "campo_estudio", "salud"),
	}
	c := runtime.NewController(ex, &stubRepo{}, testVocabulary())
	s := confirmingSession("no, cambia el área a salud")

	acts, err := c.HandleTurn(context.Background(), s)
	require.NoError(t, err)

	require.Len(t, acts, 2)
	assert.Equal(t, domain.ModifyField(domain.FieldArea, "ingenieria", "salud"), acts[0])
	assert.Equal(t, domain.ActConfirmSearch, acts[1].Type())
	assert.Equal(t, "salud", s.Criteria.Area)
	assert.Equal(t, domain.StateAwaitingConfirmation, s.Machine.State())
	assert.Equal(t, []domain.Field{""}, ex.pending)
}

func TestController_ConfirmNoWithoutCorrection(t *testing.T) {
	ex := &stubExtractor{confirmation: confirmationOf(domain.ConfirmNo)}
	c := runtime.NewController(ex, &stubRepo{}, testVocabulary())
	s := confirmingSession("no")

	acts, err := c.HandleTurn(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []domain.DialogAct{domain.AskChange()}, acts)
	assert.Equal(t, domain.StateCollecting, s.Machine.State())
	assert.Equal(t, "ingenieria", s.Criteria.Area)

	// The next answer is read as a correction of a complete record.
	ex.criterion = criterionOf("modify", "ubicacion", "barcelona")
	s.AddAssistantMessage("¿Qué criterio te gustaría modificar?")
	s.AddUserMessage("la ubicación, barcelona")

	acts, err = c.HandleTurn(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, domain.ModifyField(domain.FieldLocation, "madrid", "barcelona"), acts[0])
	assert.Equal(t, domain.StateAwaitingConfirmation, s.Machine.State())
}

func TestController_ConfirmAmbiguous(t *testing.T) {
	ex := &stubExtractor{confirmation: confirmationOf(domain.ConfirmUnknown)}
	c := runtime.NewController(ex, &stubRepo{}, testVocabulary())
	s := confirmingSession("mmm")

	acts, err := c.HandleTurn(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, domain.ActClarifyConfirmation, acts[0].Type())
	assert.Equal(t, domain.StateAwaitingConfirmation, s.Machine.State())
	assert.False(t, s.Criteria.IsEmpty())
}

func TestController_ConfirmYesNoResults(t *testing.T) {
	ex := &stubExtractor{confirmation: confirmationOf(domain.ConfirmYes)}
	repo := &stubRepo{}
	c := runtime.NewController(ex, repo, testVocabulary())
	s := confirmingSession("sí")

	acts, err := c.HandleTurn(context.Background(), s)
	require.NoError(t, err)

	require.Len(t, acts, 1)
	assert.Equal(t, domain.ActRejectSearch, acts[0].Type())
	assert.Equal(t, domain.StateCompleted, s.Machine.State())
	assert.Equal(t, "", s.Intention)
	assert.True(t, s.Criteria.IsEmpty())
	require.Len(t, repo.queries, 1)
	assert.Equal(t, domain.Filters{
		Area:           "ingenieria",
		EducationLevel: "grado",
		Location:       "madrid",
		Organization:   "ministerio",
	}, repo.queries[0])
}

func TestController_ConfirmYesWithResults(t *testing.T) {
	beca := domain.Scholarship{Name: "beca_general", Description: "Ayuda al estudio"}
	ex := &stubExtractor{confirmation: confirmationOf(domain.ConfirmYes)}
	c := runtime.NewController(ex, &stubRepo{results: []domain.Scholarship{beca}}, testVocabulary())
	s := confirmingSession("sí, adelante")

	acts, err := c.HandleTurn(context.Background(), s)
	require.NoError(t, err)

	require.Len(t, acts, 1)
	assert.Equal(t, domain.ActShowResults, acts[0].Type())
	assert.Equal(t, []domain.Scholarship{beca}, acts[0].Results())
	assert.Equal(t, domain.StateCompleted, s.Machine.State())
	assert.Equal(t, "", s.Intention)
}

func TestController_ConfirmYesRepositoryFailure(t *testing.T) {
	ex := &stubExtractor{confirmation: confirmationOf(domain.ConfirmYes)}
	boom := errors.New("connection reset")
	c := runtime.NewController(ex, &stubRepo{err: boom}, testVocabulary())

	_, err := c.HandleTurn(context.Background(), confirmingSession("sí"))
	assert.ErrorIs(t, err, boom)
}

func TestController_CompletedStartsOver(t *testing.T) {
	ex := &stubExtractor{initial: selectOf("nivel", "doctorado")}
	c := runtime.NewController(ex, &stubRepo{}, testVocabulary())

	s := domain.NewSession("s1")
	s.Machine.Start()
	s.Machine.CollectedAll()
	s.Machine.ConfirmYes()
	s.Machine.Finish()
	s.Criteria = domain.NewCriteria()
	s.AddUserMessage("otra búsqueda, de doctorado")

	acts, err := c.HandleTurn(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []domain.DialogAct{
		domain.StartCriteriaSearch(),
		domain.AckField(domain.FieldEducationLevel, "doctorado"),
		domain.AskField(domain.FieldArea),
	}, acts)
	assert.Equal(t, domain.StateCollecting, s.Machine.State())
}

func TestController_LifecycleHooks(t *testing.T) {
	var turns []*domain.TurnEvent
	var extractions []*domain.ExtractionEvent
	var searches []*domain.SearchEvent
	hooks := domain.LifecycleHooks{
		OnTurn:       func(_ context.Context, e *domain.TurnEvent) { turns = append(turns, e) },
		OnExtraction: func(_ context.Context, e *domain.ExtractionEvent) { extractions = append(extractions, e) },
		OnSearch:     func(_ context.Context, e *domain.SearchEvent) { searches = append(searches, e) },
	}
	ex := &stubExtractor{confirmation: confirmationOf(domain.ConfirmYes)}
	c := runtime.NewController(ex, &stubRepo{}, testVocabulary(), runtime.WithLifecycleHooks(hooks))

	_, err := c.HandleTurn(context.Background(), confirmingSession("sí"))
	require.NoError(t, err)

	require.Len(t, turns, 1)
	assert.Equal(t, domain.StateAwaitingConfirmation, turns[0].From)
	assert.Equal(t, domain.StateCompleted, turns[0].To)
	assert.Equal(t, []domain.ActType{domain.ActRejectSearch}, turns[0].Acts)

	require.Len(t, extractions, 1)
	assert.Equal(t, runtime.ModeConfirmation, extractions[0].Mode)
	assert.False(t, extractions[0].Failed)

	require.Len(t, searches, 1)
	assert.Equal(t, 0, searches[0].Results)
}
