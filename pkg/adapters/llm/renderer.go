package llm

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aretw0/becas/pkg/domain"
	"github.com/aretw0/becas/pkg/ports"
)

type paraphrasePayload struct {
	Message string `json:"message" mapstructure:"message"`
}

// Renderer paraphrases the output of a base renderer with a Generator.
// Any generation or decoding failure returns the base text unchanged.
type Renderer struct {
	base    ports.Renderer
	gen     Generator
	prompts Prompts
	logger  *slog.Logger
	decoder *payloadDecoder[paraphrasePayload]
}

// NewRenderer wraps base.
func NewRenderer(base ports.Renderer, gen Generator, opts ...Option) *Renderer {
	o := buildOptions(opts)
	return &Renderer{
		base:    base,
		gen:     gen,
		prompts: o.prompts,
		logger:  o.logger.With("component", "llm_renderer", "model", gen.Model()),
		decoder: newPayloadDecoder[paraphrasePayload](),
	}
}

func (r *Renderer) Render(ctx context.Context, acts []domain.DialogAct, session *domain.Session) (string, error) {
	draft, err := r.base.Render(ctx, acts, session)
	if err != nil {
		return "", err
	}
	if draft == "" {
		return draft, nil
	}

	var transcript string
	if session != nil {
		transcript = session.Transcript()
	}
	req, err := r.prompts.Paraphrase.build(promptData{Transcript: transcript, Draft: draft})
	if err != nil {
		r.logger.WarnContext(ctx, "paraphrase prompt failed", "err", err)
		return draft, nil
	}
	req.SchemaName = "paraphrase"
	req.Schema = GenerateSchema[paraphrasePayload]()

	raw, err := r.gen.Generate(ctx, req)
	if err != nil {
		r.logger.WarnContext(ctx, "paraphrase failed, using template text", "err", err)
		return draft, nil
	}
	p, err := r.decoder.decode(raw)
	if err != nil || strings.TrimSpace(p.Message) == "" {
		r.logger.WarnContext(ctx, "paraphrase unreadable, using template text", "err", err)
		return draft, nil
	}
	return strings.TrimSpace(p.Message), nil
}
