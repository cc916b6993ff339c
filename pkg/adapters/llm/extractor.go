package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/becas/pkg/domain"
	"gopkg.in/yaml.v3"
)

type criterionPayload struct {
	Action string `json:"action" mapstructure:"action"`
	Field  string `json:"field" mapstructure:"field"`
	Value  string `json:"value" mapstructure:"value"`
	Error  string `json:"error,omitempty" mapstructure:"error"`
}

type confirmationPayload struct {
	Confirmation string `json:"confirmation" mapstructure:"confirmation"`
	Error        string `json:"error,omitempty" mapstructure:"error"`
}

// Extractor implements ports.SlotExtractor with a Generator.
type Extractor struct {
	gen     Generator
	prompts Prompts
	logger  *slog.Logger

	criterion    *payloadDecoder[criterionPayload]
	confirmation *payloadDecoder[confirmationPayload]
}

type options struct {
	prompts Prompts
	logger  *slog.Logger
}

// Option configures an Extractor or a Renderer.
type Option func(*options)

func WithPrompts(p Prompts) Option {
	return func(o *options) {
		o.prompts = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{
		prompts: DefaultPrompts(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewExtractor creates an extractor over gen with the default prompts.
func NewExtractor(gen Generator, opts ...Option) *Extractor {
	o := buildOptions(opts)
	return &Extractor{
		gen:          gen,
		prompts:      o.prompts,
		logger:       o.logger.With("component", "llm_extractor", "model", gen.Model()),
		criterion:    newPayloadDecoder[criterionPayload](),
		confirmation: newPayloadDecoder[confirmationPayload](),
	}
}

func (e *Extractor) ExtractInitialCriteria(ctx context.Context, transcript string, vocab domain.Vocabulary) (domain.ExtractionResult, error) {
	p, err := e.extractCriterion(ctx, e.prompts.Initial, transcript, "", vocab)
	if err != nil {
		return nil, err
	}
	// Only selections make sense before anything was collected.
	if p.Action != string(domain.ActionSelect) {
		return domain.NoCriterion{}, nil
	}
	return domain.NewExtractionResult(p.Action, p.Field, p.Value), nil
}

func (e *Extractor) ExtractCriterion(ctx context.Context, transcript string, pending domain.Field, vocab domain.Vocabulary) (domain.ExtractionResult, error) {
	p, err := e.extractCriterion(ctx, e.prompts.Criterion, transcript, pending, vocab)
	if err != nil {
		return nil, err
	}
	return domain.NewExtractionResult(p.Action, p.Field, p.Value), nil
}

func (e *Extractor) ExtractConfirmation(ctx context.Context, transcript string) (domain.Confirmation, error) {
	req, err := e.prompts.Confirmation.build(promptData{Transcript: transcript})
	if err != nil {
		return domain.ConfirmUnknown, err
	}
	req.SchemaName = "confirmation"
	req.Schema = GenerateSchema[confirmationPayload]()

	raw, err := e.gen.Generate(ctx, req)
	if err != nil {
		return domain.ConfirmUnknown, fmt.Errorf("confirmation extraction failed: %w", err)
	}
	p, err := e.confirmation.decode(raw)
	if err != nil {
		return domain.ConfirmUnknown, err
	}
	return domain.ParseConfirmation(p.Confirmation), nil
}

func (e *Extractor) extractCriterion(ctx context.Context, prompt Prompt, transcript string, pending domain.Field, vocab domain.Vocabulary) (criterionPayload, error) {
	table, err := yaml.Marshal(vocab.Table())
	if err != nil {
		return criterionPayload{}, fmt.Errorf("failed to render vocabulary: %w", err)
	}
	data := promptData{Transcript: transcript, Vocabulary: string(table)}
	if pending != "" {
		data.Pending = pending.External()
	}

	req, err := prompt.build(data)
	if err != nil {
		return criterionPayload{}, err
	}
	req.SchemaName = "criterion"
	req.Schema = GenerateSchema[criterionPayload]()

	raw, err := e.gen.Generate(ctx, req)
	if err != nil {
		return criterionPayload{}, fmt.Errorf("criterion extraction failed: %w", err)
	}
	e.logger.DebugContext(ctx, "criterion answer", "pending", data.Pending, "raw", raw)
	return e.criterion.decode(raw)
}
