// Package mcp exposes the scholarship assistant as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/becas/internal/textutil"
	"github.com/aretw0/becas/pkg/domain"
	"github.com/aretw0/becas/pkg/ports"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// VocabularyURI is the resource listing the valid value of every criterion.
const VocabularyURI = "becas://vocabulary"

// Public failure messages. Details only reach the logs.
const (
	MsgInternalError   = "Lo siento, ha ocurrido un error interno. Inténtalo de nuevo más tarde."
	MsgSessionNotFound = "No encuentro esa conversación."
	MsgNoData          = "No tengo datos de esa beca."
)

// Engine defines what the MCP server needs from the assistant. *becas.Engine implements it.
type Engine interface {
	Chat(ctx context.Context, sessionID, utterance string) (*domain.Session, string, error)
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	Repository() ports.ScholarshipRepository
	Vocabulary() domain.Vocabulary
}

// ChatArgs are the arguments of the chat tool.
type ChatArgs struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResult is the structured answer of the chat tool.
type ChatResult struct {
	SessionID string `json:"session_id" jsonschema_description:"Conversation to pass back on the next turn"`
	Response  string `json:"response" jsonschema_description:"Assistant reply in Spanish"`
	State     string `json:"state" jsonschema_description:"Stage of the criteria search"`
}

// Server wraps the Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, version string, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("becas-mcp", strings.TrimSpace(version)),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when ctx ends.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	chatTool := mcp.NewTool("chat",
		mcp.WithDescription("Send one user message to the scholarship assistant. Omit session_id to start a new conversation."),
		mcp.WithString("session_id", mcp.Description("Conversation ID returned by a previous call (optional)")),
		mcp.WithString("message", mcp.Required(), mcp.Description("User message in Spanish")),
		mcp.WithOutputSchema[ChatResult](),
	)
	s.mcpServer.AddTool(chatTool, mcp.NewStructuredToolHandler(s.handleChat))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the stored state of a conversation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation ID")),
	), s.handleGetSession)

	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Forget a conversation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation ID")),
	), s.handleResetSession)

	listOpts := []mcp.ToolOption{
		mcp.WithDescription("Search the catalog directly. Without criteria, lists every scholarship name."),
	}
	for _, f := range domain.Fields {
		listOpts = append(listOpts, mcp.WithString(f.External(), mcp.Description(f.Label()+" (optional)")))
	}
	s.mcpServer.AddTool(mcp.NewTool("list_scholarships", listOpts...), s.handleListScholarships)

	s.mcpServer.AddTool(mcp.NewTool("get_requirements",
		mcp.WithDescription("List the requirements of a scholarship."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Scholarship name")),
	), s.handleGetRequirements)

	s.mcpServer.AddTool(mcp.NewTool("get_deadlines",
		mcp.WithDescription("List the deadlines of a scholarship."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Scholarship name")),
	), s.handleGetDeadlines)
}

func (s *Server) handleChat(ctx context.Context, request mcp.CallToolRequest, args ChatArgs) (ChatResult, error) {
	if args.SessionID == "" {
		args.SessionID = uuid.NewString()
	}
	session, reply, err := s.engine.Chat(ctx, args.SessionID, args.Message)
	if err != nil {
		return ChatResult{}, errors.New(s.publicMessage("chat", err, "session_id", args.SessionID))
	}
	return ChatResult{
		SessionID: session.ID,
		Response:  reply,
		State:     string(session.Machine.State()),
	}, nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	session, err := s.engine.Session(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(s.publicMessage("get_session", err, "session_id", id)), nil
	}
	return jsonResult(session)
}

func (s *Server) handleResetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.engine.DeleteSession(ctx, id); err != nil {
		return mcp.NewToolResultError(s.publicMessage("reset_session", err, "session_id", id)), nil
	}
	return mcp.NewToolResultText("Conversación reiniciada."), nil
}

func (s *Server) handleListScholarships(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo := s.engine.Repository()

	criteria := domain.NewCriteria()
	for _, f := range domain.Fields {
		value := request.GetString(f.External(), "")
		if value == "" {
			continue
		}
		if _, err := criteria.Apply(domain.SelectCriterion{Field: f.External(), Value: value}); err != nil {
			return mcp.NewToolResultError(s.publicMessage("list_scholarships", err)), nil
		}
	}

	if criteria.IsEmpty() {
		names, err := repo.Names(ctx)
		if err != nil {
			return mcp.NewToolResultError(s.publicMessage("list_scholarships", err)), nil
		}
		if names == nil {
			names = []string{}
		}
		return jsonResult(names)
	}

	results, err := repo.FindByFilters(ctx, criteria.Filters)
	if errors.Is(err, domain.ErrNoResults) {
		return jsonResult([]domain.Scholarship{})
	}
	if err != nil {
		return mcp.NewToolResultError(s.publicMessage("list_scholarships", err)), nil
	}
	return jsonResult(results)
}

func (s *Server) handleGetRequirements(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reqs, err := s.engine.Repository().Requirements(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(s.publicMessage("get_requirements", err, "name", name)), nil
	}
	return jsonResult(reqs)
}

func (s *Server) handleGetDeadlines(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	deadlines, err := s.engine.Repository().Deadlines(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(s.publicMessage("get_deadlines", err, "name", name)), nil
	}
	return jsonResult(deadlines)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(VocabularyURI, "Criteria Vocabulary",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Vocabulary().Table())
		if err != nil {
			return nil, fmt.Errorf("failed to encode vocabulary: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      VocabularyURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

// publicMessage logs err and returns the text safe to show to the client.
func (s *Server) publicMessage(op string, err error, attrs ...any) string {
	switch {
	case errors.Is(err, textutil.ErrInputTooLarge):
		return "El mensaje es demasiado largo."
	case errors.Is(err, textutil.ErrEmptyInput):
		return "El mensaje está vacío."
	case errors.Is(err, textutil.ErrInvalidUTF8):
		return "El mensaje contiene caracteres no válidos."
	case errors.Is(err, domain.ErrSessionNotFound):
		return MsgSessionNotFound
	case errors.Is(err, domain.ErrNoResults):
		return MsgNoData
	case errors.Is(err, domain.ErrFieldNotFound):
		return "Criterio desconocido."
	}
	s.logger.Error("MCP "+op+" failed", append(attrs, "err", err)...)
	return MsgInternalError
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
