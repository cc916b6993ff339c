package becas

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/aretw0/becas/internal/runtime"
	"github.com/aretw0/becas/internal/textutil"
	"github.com/aretw0/becas/pkg/adapters/memory"
	"github.com/aretw0/becas/pkg/adapters/template"
	"github.com/aretw0/becas/pkg/domain"
	"github.com/aretw0/becas/pkg/ports"
	"github.com/aretw0/becas/pkg/session"
)

// Version is the release of the engine reported by transports.
const Version = "0.3.0"

// RedirectMessage is the reply of the default IntentRouter.
const RedirectMessage = "Solo puedo ayudarte a buscar becas por área, nivel educativo, ubicación y organismo. ¿Quieres que empecemos una búsqueda?"

// Engine is the high-level entry point for the library.
// It wraps the collection runtime and adds input hygiene, rendering,
// intent rerouting and session persistence.
type Engine struct {
	controller   *runtime.Controller
	extractor    ports.SlotExtractor
	repo         ports.ScholarshipRepository
	renderer     ports.Renderer
	router       ports.IntentRouter
	sessions     *session.Manager
	store        ports.SessionStore
	locker       ports.DistributedLocker
	vocab        *domain.Vocabulary
	activeFields []domain.Field
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	Name         string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithRenderer replaces the default template renderer.
func WithRenderer(r ports.Renderer) Option {
	return func(e *Engine) {
		e.renderer = r
	}
}

// WithIntentRouter sets the handler of utterances outside the criteria flow.
func WithIntentRouter(r ports.IntentRouter) Option {
	return func(e *Engine) {
		e.router = r
	}
}

// WithSessionStore sets the session persistence backend (default: in-memory).
func WithSessionStore(s ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker enables distributed locking of sessions.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithVocabulary fixes the closed vocabulary instead of reading it from the repository.
func WithVocabulary(v domain.Vocabulary) Option {
	return func(e *Engine) {
		e.vocab = &v
	}
}

// WithActiveFields restricts searches to a subset of the criteria.
func WithActiveFields(fields ...domain.Field) Option {
	return func(e *Engine) {
		e.activeFields = fields
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithName labels the engine in logs and transport metadata.
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// New initializes an Engine over a catalog and an extractor.
// Unless WithVocabulary is given, the vocabulary is read from the repository.
func New(ctx context.Context, repo ports.ScholarshipRepository, extractor ports.SlotExtractor, opts ...Option) (*Engine, error) {
	if repo == nil || extractor == nil {
		return nil, errors.New("repository and extractor are required")
	}
	eng := &Engine{
		repo:      repo,
		extractor: extractor,
	}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized (so we don't pass nil to runtime, which would overwrite its default)
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("engine", eng.Name)
	}

	if eng.vocab == nil {
		v, err := LoadVocabulary(ctx, repo)
		if err != nil {
			return nil, err
		}
		eng.vocab = &v
	}
	if eng.renderer == nil {
		r, err := template.New(template.DefaultFlow(), template.WithVocabulary(*eng.vocab))
		if err != nil {
			return nil, err
		}
		eng.renderer = r
	}
	if eng.router == nil {
		eng.router = staticRouter{}
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	managerOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.store, managerOpts...)

	eng.controller = runtime.NewController(extractor, repo, *eng.vocab,
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithActiveFields(eng.activeFields...),
	)
	return eng, nil
}

// LoadVocabulary reads the valid values of every field from the repository.
func LoadVocabulary(ctx context.Context, repo ports.ScholarshipRepository) (domain.Vocabulary, error) {
	values := make(map[domain.Field][]string, len(domain.Fields))
	for _, f := range domain.Fields {
		vals, err := repo.Criteria(ctx, f)
		if err != nil && !errors.Is(err, domain.ErrNoResults) {
			return domain.Vocabulary{}, fmt.Errorf("failed to load %s values: %w", f, err)
		}
		values[f] = vals
	}
	return domain.NewVocabulary(values), nil
}

// ErrNilSession is returned by HandleTurn when no session is given.
var ErrNilSession = errors.New("session is required")

// HandleTurn processes one utterance against the given session and returns the
// updated copy with the reply. The input session is never modified and
// nothing is persisted.
//
// A nil session yields ErrNilSession. Input rejected by sanitization
// wraps textutil errors. Field alias
// inconsistencies (domain.ErrFieldNotFound) and repository failures are returned as is.
func (e *Engine) HandleTurn(ctx context.Context, s *domain.Session, utterance string) (*domain.Session, string, error) {
	if s == nil {
		return nil, "", ErrNilSession
	}
	clean, err := textutil.SanitizeInput(utterance)
	if err != nil {
		return nil, "", fmt.Errorf("invalid input: %w", err)
	}

	next := s.Clone()
	next.AddUserMessage(clean)

	acts, err := e.controller.HandleTurn(ctx, next)
	if errors.Is(err, domain.ErrIntentMismatch) {
		return e.reroute(ctx, s, clean)
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "turn failed", "session_id", s.ID, "error", err)
		return nil, "", err
	}

	reply, err := e.renderer.Render(ctx, acts, next)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render reply: %w", err)
	}
	next.AddAssistantMessage(reply)
	return next, reply, nil
}

// reroute hands an utterance the criteria flow rejected to the intent router.
// The search progress of the original session is kept.
func (e *Engine) reroute(ctx context.Context, s *domain.Session, utterance string) (*domain.Session, string, error) {
	next := s.Clone()
	next.AddUserMessage(utterance)
	next.Intention = ""
	if !slices.Contains(next.RejectedIntentions, domain.IntentionCriteriaSearch) {
		next.RejectedIntentions = append(next.RejectedIntentions, domain.IntentionCriteriaSearch)
	}

	e.logger.InfoContext(ctx, "utterance rerouted", "session_id", s.ID, "state", s.Machine.State())
	reply, err := e.router.Route(ctx, next, utterance)
	if err != nil {
		return nil, "", fmt.Errorf("failed to route utterance: %w", err)
	}
	next.AddAssistantMessage(reply)
	return next, reply, nil
}

// Chat runs one turn of a persisted session, creating it when missing.
// Turns of one session are serialized; distinct sessions run in parallel.
func (e *Engine) Chat(ctx context.Context, sessionID, utterance string) (*domain.Session, string, error) {
	var reply string
	s, err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, current *domain.Session) (*domain.Session, error) {
		next, text, err := e.HandleTurn(ctx, current, utterance)
		if err != nil {
			return nil, err
		}
		reply = text
		return next, nil
	})
	if err != nil {
		return nil, "", err
	}
	return s, reply, nil
}

// Session loads a persisted session.
func (e *Engine) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.sessions.Load(ctx, sessionID)
}

// Sessions lists the persisted session IDs.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// DeleteSession forgets a session.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// Repository returns the catalog used for searches and detail lookups.
func (e *Engine) Repository() ports.ScholarshipRepository {
	return e.repo
}

// Vocabulary returns the closed vocabulary the engine validates extractions against.
func (e *Engine) Vocabulary() domain.Vocabulary {
	return *e.vocab
}

type staticRouter struct{}

func (staticRouter) Route(context.Context, *domain.Session, string) (string, error) {
	return RedirectMessage, nil
}
