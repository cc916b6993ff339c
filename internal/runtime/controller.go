package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/becas/pkg/domain"
	"github.com/aretw0/becas/pkg/ports"
)

// Extraction modes reported to hooks and logs.
const (
	ModeInitial      = "initial"
	ModeCriterion    = "criterion"
	ModeConfirmation = "confirmation"
)

// Controller is the criteria collection state dispatcher.
type Controller struct {
	extractor    ports.SlotExtractor
	repo         ports.ScholarshipRepository
	vocab        domain.Vocabulary
	activeFields []domain.Field
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) ControllerOption {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithActiveFields restricts new searches to a subset of the criteria.
func WithActiveFields(fields ...domain.Field) ControllerOption {
	return func(c *Controller) {
		c.activeFields = fields
	}
}

// NewController creates a controller with its collaborators.
func NewController(extractor ports.SlotExtractor, repo ports.ScholarshipRepository, vocab domain.Vocabulary, opts ...ControllerOption) *Controller {
	c := &Controller{
		extractor: extractor,
		repo:      repo,
		vocab:     vocab,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Vocabulary returns the closed vocabulary used to validate extractions.
func (c *Controller) Vocabulary() domain.Vocabulary {
	return c.vocab
}

// HandleTurn processes the latest user message of the session history.
// The session is updated in place. When an error is returned the session may
// be partially updated and must be discarded by the caller.
//
// domain.ErrIntentMismatch is returned when the utterance belongs to another flow.
// domain.ErrFieldNotFound is returned when the extractor used an unknown field alias.
func (c *Controller) HandleTurn(ctx context.Context, s *domain.Session) ([]domain.DialogAct, error) {
	start := time.Now()
	from := s.Machine.State()
	s.Intention = domain.IntentionCriteriaSearch
	transcript := s.Transcript()

	var (
		acts []domain.DialogAct
		err  error
	)
	switch {
	case s.Machine.IsNotStarted():
		acts, err = c.start(ctx, s, transcript)
	case s.Machine.IsCollecting():
		c.ensureCriteria(s)
		acts, err = c.collect(ctx, s, transcript)
	case s.Machine.IsAwaitingConfirmation():
		c.ensureCriteria(s)
		acts, err = c.confirm(ctx, s, transcript)
	default:
		// A finished search, or one interrupted while querying, starts over.
		s.Machine.Reset()
		acts, err = c.start(ctx, s, transcript)
	}

	c.logger.DebugContext(ctx, "turn handled",
		"session_id", s.ID,
		"from", from,
		"to", s.Machine.State(),
		"acts", len(acts),
		"error", err,
	)
	if c.hooks.OnTurn != nil {
		types := make([]domain.ActType, len(acts))
		for i, a := range acts {
			types[i] = a.Type()
		}
		c.hooks.OnTurn(ctx, &domain.TurnEvent{
			Timestamp: time.Now(),
			SessionID: s.ID,
			From:      from,
			To:        s.Machine.State(),
			Acts:      types,
			Duration:  time.Since(start),
			Err:       err,
		})
	}
	return acts, err
}

func (c *Controller) ensureCriteria(s *domain.Session) {
	if s.Criteria == nil {
		s.Criteria = domain.NewCriteria(c.activeFields...)
	}
}

func (c *Controller) start(ctx context.Context, s *domain.Session, transcript string) ([]domain.DialogAct, error) {
	s.Machine.Start()
	s.Criteria = domain.NewCriteria(c.activeFields...)
	acts := []domain.DialogAct{domain.StartCriteriaSearch()}

	res, err := c.extractor.ExtractInitialCriteria(ctx, transcript, c.vocab)
	if err != nil {
		if stop(err) {
			return nil, err
		}
		c.logExtractionFailure(ctx, s, ModeInitial, err)
		res = domain.NoCriterion{}
	}
	res = c.constrain(res)
	c.reportExtraction(ctx, s, ModeInitial, err != nil || isEmpty(res))

	// Nothing has a prior value yet, so only selections are honored.
	if sel, ok := res.(domain.SelectCriterion); ok {
		act, err := s.Criteria.Apply(sel)
		if err != nil {
			return nil, fmt.Errorf("apply initial criterion: %w", err)
		}
		if act != nil {
			acts = append(acts, *act)
		}
	}
	return c.advance(s, acts), nil
}

func (c *Controller) collect(ctx context.Context, s *domain.Session, transcript string) ([]domain.DialogAct, error) {
	pending, _ := s.Criteria.NextPending()

	res, err := c.extractor.ExtractCriterion(ctx, transcript, pending, c.vocab)
	if err != nil {
		if stop(err) {
			return nil, err
		}
		c.logExtractionFailure(ctx, s, ModeCriterion, err)
		c.reportExtraction(ctx, s, ModeCriterion, true)
		return []domain.DialogAct{domain.ClarifyCriterion(pending)}, nil
	}
	res = c.constrain(res)
	c.reportExtraction(ctx, s, ModeCriterion, isEmpty(res))

	act, err := s.Criteria.Apply(res)
	if err != nil {
		return nil, fmt.Errorf("apply criterion: %w", err)
	}
	if act == nil {
		return []domain.DialogAct{domain.ClarifyCriterion(pending)}, nil
	}
	return c.advance(s, []domain.DialogAct{*act}), nil
}

func (c *Controller) confirm(ctx context.Context, s *domain.Session, transcript string) ([]domain.DialogAct, error) {
	answer, err := c.extractor.ExtractConfirmation(ctx, transcript)
	if err != nil {
		if stop(err) {
			return nil, err
		}
		c.logExtractionFailure(ctx, s, ModeConfirmation, err)
		answer = domain.ConfirmUnknown
	}
	c.reportExtraction(ctx, s, ModeConfirmation, answer == domain.ConfirmUnknown)

	switch answer {
	case domain.ConfirmYes:
		s.Machine.ConfirmYes()
		return c.search(ctx, s)
	case domain.ConfirmNo:
		s.Machine.ConfirmNo()
		return c.change(ctx, s, transcript)
	default:
		return []domain.DialogAct{domain.ClarifyConfirmation(s.Criteria.Printable())}, nil
	}
}

// change handles a rejected confirmation, looking for the correction in the
// same utterance ("no, cambia el área a salud").
func (c *Controller) change(ctx context.Context, s *domain.Session, transcript string) ([]domain.DialogAct, error) {
	pending, _ := s.Criteria.NextPending()

	res, err := c.extractor.ExtractCriterion(ctx, transcript, pending, c.vocab)
	if err != nil {
		if stop(err) {
			return nil, err
		}
		c.logExtractionFailure(ctx, s, ModeCriterion, err)
		return []domain.DialogAct{domain.AskChange()}, nil
	}
	res = c.constrain(res)

	act, err := s.Criteria.Apply(res)
	if err != nil {
		return nil, fmt.Errorf("apply correction: %w", err)
	}
	if act == nil {
		return []domain.DialogAct{domain.AskChange()}, nil
	}
	return c.advance(s, []domain.DialogAct{*act}), nil
}

func (c *Controller) search(ctx context.Context, s *domain.Session) ([]domain.DialogAct, error) {
	filters := s.Criteria.Filters
	summary := s.Criteria.Printable()

	results, err := c.repo.FindByFilters(ctx, filters)
	if err != nil && !errors.Is(err, domain.ErrNoResults) {
		return nil, fmt.Errorf("find scholarships: %w", err)
	}

	var acts []domain.DialogAct
	if len(results) == 0 {
		acts = []domain.DialogAct{domain.RejectSearch(summary)}
	} else {
		acts = []domain.DialogAct{domain.ShowResults(summary, results)}
	}

	c.logger.InfoContext(ctx, "search executed", "session_id", s.ID, "results", len(results))
	if c.hooks.OnSearch != nil {
		c.hooks.OnSearch(ctx, &domain.SearchEvent{
			Timestamp: time.Now(),
			SessionID: s.ID,
			Filters:   filters,
			Results:   len(results),
		})
	}

	// Both outcomes close the flow.
	s.Machine.Finish()
	s.Criteria.Reset()
	s.Intention = ""
	return acts, nil
}

// advance appends the next question, or moves to confirmation when the record is complete.
func (c *Controller) advance(s *domain.Session, acts []domain.DialogAct) []domain.DialogAct {
	if next, ok := s.Criteria.NextPending(); ok {
		return append(acts, domain.AskField(next))
	}
	s.Machine.CollectedAll()
	return append(acts, domain.ConfirmSearch(s.Criteria.Printable()))
}

// constrain turns values outside the vocabulary of their field into NoCriterion.
// Unknown field aliases pass through so Apply reports them.
func (c *Controller) constrain(res domain.ExtractionResult) domain.ExtractionResult {
	var alias, value string
	switch r := res.(type) {
	case domain.SelectCriterion:
		alias, value = r.Field, r.Value
	case domain.ModifyCriterion:
		alias, value = r.Field, r.Value
	case nil:
		return domain.NoCriterion{}
	default:
		return res
	}
	f, err := domain.LookupField(alias)
	if err != nil {
		return res
	}
	if !c.vocab.Contains(f, value) {
		c.logger.Debug("extracted value outside vocabulary", "field", f, "value", value)
		return domain.NoCriterion{}
	}
	return res
}

func (c *Controller) logExtractionFailure(ctx context.Context, s *domain.Session, mode string, err error) {
	level := slog.LevelWarn
	if !errors.Is(err, domain.ErrExtractionFormat) {
		level = slog.LevelError
	}
	c.logger.Log(ctx, level, "extraction failed", "session_id", s.ID, "mode", mode, "error", err)
}

func (c *Controller) reportExtraction(ctx context.Context, s *domain.Session, mode string, failed bool) {
	if c.hooks.OnExtraction == nil {
		return
	}
	c.hooks.OnExtraction(ctx, &domain.ExtractionEvent{
		Timestamp: time.Now(),
		SessionID: s.ID,
		Mode:      mode,
		Failed:    failed,
	})
}

// stop reports whether an extractor error must leave the flow instead of re-prompting.
func stop(err error) bool {
	return errors.Is(err, domain.ErrIntentMismatch) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func isEmpty(res domain.ExtractionResult) bool {
	_, ok := res.(domain.NoCriterion)
	return ok || res == nil
}
