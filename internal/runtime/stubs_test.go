package runtime_test

import (
	"context"

	"github.com/aretw0/becas/pkg/domain"
)

type stubExtractor struct {
	initial      func(transcript string) (domain.ExtractionResult, error)
	criterion    func(transcript string, pending domain.Field) (domain.ExtractionResult, error)
	confirmation func(transcript string) (domain.Confirmation, error)

	pending     []domain.Field
	transcripts []string
}

func (s *stubExtractor) ExtractInitialCriteria(ctx context.Context, transcript string, vocab domain.Vocabulary) (domain.ExtractionResult, error) {
	s.transcripts = append(s.transcripts, transcript)
	if s.initial == nil {
		return domain.NoCriterion{}, nil
	}
	return s.initial(transcript)
}

func (s *stubExtractor) ExtractCriterion(ctx context.Context, transcript string, pending domain.Field, vocab domain.Vocabulary) (domain.ExtractionResult, error) {
	s.transcripts = append(s.transcripts, transcript)
	s.pending = append(s.pending, pending)
	if s.criterion == nil {
		return domain.NoCriterion{}, nil
	}
	return s.criterion(transcript, pending)
}

func (s *stubExtractor) ExtractConfirmation(ctx context.Context, transcript string) (domain.Confirmation, error) {
	s.transcripts = append(s.transcripts, transcript)
	if s.confirmation == nil {
		return domain.ConfirmUnknown, nil
	}
	return s.confirmation(transcript)
}

type stubRepo struct {
	results []domain.Scholarship
	err     error
	queries []domain.Filters
}

func (r *stubRepo) FindByFilters(ctx context.Context, filters domain.Filters) ([]domain.Scholarship, error) {
	r.queries = append(r.queries, filters)
	if r.err != nil {
		return nil, r.err
	}
	if len(r.results) == 0 {
		return nil, domain.ErrNoResults
	}
	return r.results, nil
}

func (r *stubRepo) Criteria(ctx context.Context, field domain.Field) ([]string, error) {
	return nil, nil
}

func (r *stubRepo) Names(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (r *stubRepo) Requirements(ctx context.Context, name string) ([]domain.Requirement, error) {
	return nil, domain.ErrNoResults
}

func (r *stubRepo) Deadlines(ctx context.Context, name string) ([]domain.Deadline, error) {
	return nil, domain.ErrNoResults
}

func selectOf(field, value string) func(string) (domain.ExtractionResult, error) {
	return func(string) (domain.ExtractionResult, error) {
		return domain.NewExtractionResult("select", field, value), nil
	}
}

func criterionOf(action, field, value string) func(string, domain.Field) (domain.ExtractionResult, error) {
	return func(string, domain.Field) (domain.ExtractionResult, error) {
		return domain.NewExtractionResult(action, field, value), nil
	}
}

func confirmationOf(c domain.Confirmation) func(string) (domain.Confirmation, error) {
	return func(string) (domain.Confirmation, error) {
		return c, nil
	}
}

func testVocabulary() domain.Vocabulary {
	return domain.NewVocabulary(map[domain.Field][]string{
		domain.FieldArea:           {"ingenieria", "salud", "humanidades"},
		domain.FieldEducationLevel: {"grado", "posgrado", "doctorado"},
		domain.FieldLocation:       {"madrid", "barcelona", "internacional"},
		domain.FieldOrganization:   {"ministerio", "fundacion_carolina"},
	})
}

// confirmingSession returns a session with a complete record awaiting confirmation.
func confirmingSession(utterance string) *domain.Session {
	s := domain.NewSession("confirming")
	s.Intention = domain.IntentionCriteriaSearch
	s.Machine.Start()
	s.Criteria = domain.NewCriteria()
	s.Criteria.Area = "ingenieria"
	s.Criteria.EducationLevel = "grado"
	s.Criteria.Location = "madrid"
	s.Criteria.Organization = "ministerio"
	s.Machine.CollectedAll()
	s.AddAssistantMessage("¿Confirmas la búsqueda?")
	s.AddUserMessage(utterance)
	return s
}
