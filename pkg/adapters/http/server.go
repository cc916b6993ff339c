// Package http exposes the engine over a JSON HTTP API routed with chi.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/becas/internal/textutil"
	"github.com/aretw0/becas/pkg/domain"
	"github.com/aretw0/becas/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Messages returned to clients. Internal details only reach the logs.
const (
	MsgInternalError   = "Lo siento, ha ocurrido un error interno. Inténtalo de nuevo más tarde."
	MsgInvalidRequest  = "No he podido leer la solicitud."
	MsgSessionNotFound = "No encuentro esa conversación."
	MsgNoData          = "No tengo datos de esa beca."
)

// Engine is the conversation surface served over HTTP. *becas.Engine implements it.
type Engine interface {
	Chat(ctx context.Context, sessionID, utterance string) (*domain.Session, string, error)
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
	Sessions(ctx context.Context) ([]string, error)
	DeleteSession(ctx context.Context, sessionID string) error
	Repository() ports.ScholarshipRepository
}

// Watcher is implemented by catalogs that report document changes.
type Watcher interface {
	Watch(ctx context.Context) (<-chan string, error)
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	SessionID string `json:"session_id" validate:"omitempty,max=128,excludesall=/\\"`
	Message   string `json:"message" validate:"required"`
}

// ChatResponse is the answer of POST /chat.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
	State     string `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server implements the HTTP routes.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	version  string
	logger   *slog.Logger
	validate *validator.Validate
	gatherer prometheus.Gatherer
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithGatherer selects the registry served on /metrics. Default prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Routes()
}

// NewServer creates a configured Server.
func NewServer(engine Engine, opts ...Option) *Server {
	server := &Server{
		Engine:   engine,
		version:  "unknown",
		logger:   slog.New(slog.DiscardHandler),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams = NewStreamManager(server.logger)
	return server
}

// Routes registers every endpoint on a chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Post("/chat", s.Chat)
	r.Get("/events", s.SubscribeEvents)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Get("/{id}", s.GetSession)
		r.Delete("/{id}", s.DeleteSession)
	})
	r.Route("/scholarships", func(r chi.Router) {
		r.Get("/", s.ListScholarships)
		r.Get("/{name}/requirements", s.GetRequirements)
		r.Get("/{name}/deadlines", s.GetDeadlines)
	})

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Chat handles the POST /chat request.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var body ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("Chat: Invalid request body", "err", err)
		writeError(w, http.StatusBadRequest, MsgInvalidRequest)
		return
	}
	if err := s.validate.Struct(body); err != nil {
		s.logger.Warn("Chat: Request rejected", "err", err)
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	if body.SessionID == "" {
		body.SessionID = uuid.NewString()
	}

	session, reply, err := s.Engine.Chat(r.Context(), body.SessionID, body.Message)
	if err != nil {
		s.fail(w, "Chat", err, "session_id", body.SessionID)
		return
	}

	resp := ChatResponse{
		SessionID: session.ID,
		Response:  reply,
		State:     string(session.Machine.State()),
	}
	if bytes, err := json.Marshal(resp); err == nil {
		s.Streams.Broadcast(session.ID, string(bytes))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Sessions(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, err := s.Engine.Session(r.Context(), id)
	if err != nil {
		s.fail(w, "GetSession", err, "session_id", id)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Engine.DeleteSession(r.Context(), id); err != nil {
		s.fail(w, "DeleteSession", err, "session_id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListScholarships handles GET /scholarships. Without query parameters it
// lists the catalog names; criteria given as parameters (external field
// names, e.g. ?nivel=doctorado) return the matching scholarships instead.
func (s *Server) ListScholarships(w http.ResponseWriter, r *http.Request) {
	repo := s.Engine.Repository()
	query := r.URL.Query()
	if len(query) == 0 {
		names, err := repo.Names(r.Context())
		if err != nil {
			s.fail(w, "ListScholarships", err)
			return
		}
		if names == nil {
			names = []string{}
		}
		writeJSON(w, http.StatusOK, names)
		return
	}

	criteria := domain.NewCriteria()
	for alias := range query {
		if _, err := criteria.Apply(domain.NewExtractionResult(string(domain.ActionSelect), alias, query.Get(alias))); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Criterio desconocido: %s.", alias))
			return
		}
	}

	results, err := repo.FindByFilters(r.Context(), criteria.Filters)
	if errors.Is(err, domain.ErrNoResults) {
		writeJSON(w, http.StatusOK, []domain.Scholarship{})
		return
	}
	if err != nil {
		s.fail(w, "ListScholarships", err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) GetRequirements(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	reqs, err := s.Engine.Repository().Requirements(r.Context(), name)
	if err != nil {
		s.fail(w, "GetRequirements", err, "name", name)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (s *Server) GetDeadlines(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	deadlines, err := s.Engine.Repository().Deadlines(r.Context(), name)
	if err != nil {
		s.fail(w, "GetDeadlines", err, "name", name)
		return
	}
	writeJSON(w, http.StatusOK, deadlines)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "becas-http",
		"version": strings.TrimSpace(s.version),
	})
}

// SubscribeEvents handles the GET /events request (SSE). With session_id it
// streams every chat response of that session; without it, catalog reloads
// when the repository can report them.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.logger.Error("SubscribeEvents: Streaming not supported")
		writeError(w, http.StatusInternalServerError, MsgInternalError)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	var events <-chan string
	if sessionID == "" {
		watcher, ok := s.Engine.Repository().(Watcher)
		if !ok {
			writeError(w, http.StatusBadRequest, "Indica session_id para seguir una conversación.")
			return
		}
		ch, err := watcher.Watch(r.Context())
		if err != nil {
			s.fail(w, "SubscribeEvents", err)
			return
		}
		events = ch
	} else {
		ch, cancel := s.Streams.Subscribe(sessionID)
		defer cancel()
		events = ch
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// fail maps an engine error to a status code with a natural-language body.
func (s *Server) fail(w http.ResponseWriter, op string, err error, attrs ...any) {
	switch {
	case errors.Is(err, textutil.ErrInputTooLarge),
		errors.Is(err, textutil.ErrInvalidUTF8),
		errors.Is(err, textutil.ErrEmptyInput):
		s.logger.Warn(op+": Input rejected", append(attrs, "err", err)...)
		writeError(w, http.StatusBadRequest, inputMessage(err))
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, MsgSessionNotFound)
	case errors.Is(err, domain.ErrNoResults):
		writeError(w, http.StatusNotFound, MsgNoData)
	default:
		s.logger.Error(op+" failed", append(attrs, "err", err)...)
		writeError(w, http.StatusInternalServerError, MsgInternalError)
	}
}

func inputMessage(err error) string {
	switch {
	case errors.Is(err, textutil.ErrInputTooLarge):
		return "El mensaje es demasiado largo."
	case errors.Is(err, textutil.ErrEmptyInput):
		return "El mensaje está vacío."
	default:
		return "El mensaje contiene caracteres no válidos."
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Message":
			return "El campo message es obligatorio."
		case "SessionID":
			return "El identificador de sesión no es válido."
		}
	}
	return MsgInvalidRequest
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
