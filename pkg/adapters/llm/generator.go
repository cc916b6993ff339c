// Package llm interprets and phrases conversation turns with a language model.
//
// A Generator wraps one provider (OpenAI-compatible or Gemini). The
// Extractor turns its JSON answers into extraction results; the Renderer
// paraphrases template output into a friendlier reply.
package llm

import (
	"context"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Provider constants for Generator selection.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Request is one completion call.
type Request struct {
	System string
	Prompt string

	// SchemaName and Schema request structured JSON output when the provider
	// supports it. A nil Schema asks for plain text.
	SchemaName string
	Schema     any

	Temperature *float64
}

// Generator produces a completion for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}

// Config selects and configures a Generator.
type Config struct {
	Provider    string   `yaml:"provider" validate:"omitempty,oneof=openai gemini"`
	APIKey      string   `yaml:"api_key"`
	BaseURL     string   `yaml:"base_url" validate:"omitempty,url"`
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature" validate:"omitempty,gte=0,lte=2"`
}

// NewGenerator builds the Generator named by cfg.Provider. Empty means OpenAI.
func NewGenerator(ctx context.Context, cfg Config) (Generator, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAI(cfg)
	case ProviderGemini:
		return NewGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// GenerateSchema reflects the JSON schema of T for structured output.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

func Temp(t float64) *float64 {
	return &t
}
