// Package template renders dialog acts into Spanish text with text/template.
package template

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/aretw0/becas/pkg/domain"
)

// Renderer implements ports.Renderer over a Flow.
type Renderer struct {
	flow      Flow
	vocab     *domain.Vocabulary
	templates map[domain.ActType]*template.Template
	separator string
}

type Option func(*Renderer)

// WithVocabulary lists the valid values of a field when asking for it.
func WithVocabulary(v domain.Vocabulary) Option {
	return func(r *Renderer) {
		r.vocab = &v
	}
}

// WithSeparator sets the text placed between rendered acts. Default "\n".
func WithSeparator(sep string) Option {
	return func(r *Renderer) {
		r.separator = sep
	}
}

var funcs = template.FuncMap{
	"pretty": domain.Pretty,
	"join": func(items []string) string {
		return strings.Join(items, ", ")
	},
}

// New compiles every template of flow. It fails when an act type has
// no template.
func New(flow Flow, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		flow:      flow,
		templates: make(map[domain.ActType]*template.Template, len(flow.Templates)),
		separator: "\n",
	}
	for _, opt := range opts {
		opt(r)
	}
	for act, text := range flow.Templates {
		tmpl, err := template.New(string(act)).Funcs(funcs).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("invalid template for %s: %w", act, err)
		}
		r.templates[act] = tmpl
	}
	for _, act := range domain.ActTypes() {
		if _, ok := r.templates[act]; !ok {
			return nil, fmt.Errorf("missing template for act %s", act)
		}
	}
	return r, nil
}

// actData is the dot of every act template.
type actData struct {
	Field    string
	Label    string
	Value    string
	Old      string
	Summary  string
	Question string
	Options  []string
	Results  []domain.Scholarship
	Session  *domain.Session
}

func (r *Renderer) Render(ctx context.Context, acts []domain.DialogAct, session *domain.Session) (string, error) {
	parts := make([]string, 0, len(acts))
	for _, act := range acts {
		text, err := r.RenderAct(act, session)
		if err != nil {
			return "", err
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, r.separator), nil
}

// RenderAct renders a single act.
func (r *Renderer) RenderAct(act domain.DialogAct, session *domain.Session) (string, error) {
	tmpl, ok := r.templates[act.Type()]
	if !ok {
		return "", fmt.Errorf("no template for act %q", act.Type())
	}

	data := actData{
		Value:   act.New(),
		Old:     act.Old(),
		Summary: act.Summary(),
		Results: act.Results(),
		Session: session,
	}
	if f := act.Field(); f != "" {
		data.Field = f.External()
		data.Label = f.Label()
		data.Question = r.flow.Questions[f.External()]
		if act.Type() == domain.ActAskField {
			data.Options = r.options(f)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", act.Type(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func (r *Renderer) options(f domain.Field) []string {
	if r.vocab == nil {
		return nil
	}
	values := r.vocab.Values(f)
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, domain.Pretty(v))
	}
	return out
}
