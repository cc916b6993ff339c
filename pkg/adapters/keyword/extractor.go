// Package keyword provides a deterministic SlotExtractor that matches
// utterances against the vocabulary word by word. It needs no model and is
// used for offline mode, demos and tests.
package keyword

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/becas/internal/textutil"
	"github.com/aretw0/becas/pkg/domain"
)

var (
	defaultChangeWords = []string{"cambia", "cambiar", "cambio", "modifica", "modificar", "corrige", "corregir", "mejor", "prefiero"}
	defaultAnyPhrases  = []string{"cualquiera", "cualquier", "da igual", "me da igual", "indiferente", "todas", "todos"}
	defaultYesWords    = []string{"si", "vale", "ok", "claro", "correcto", "adelante", "exacto", "perfecto", "yes", "confirmo"}
	defaultNoWords     = []string{"no", "incorrecto", "nope"}
)

// Extractor implements ports.SlotExtractor with phrase matching over folded words.
type Extractor struct {
	changeWords []string
	anyPhrases  []string
	yesWords    []string
	noWords     []string
	foreign     []string
}

type Option func(*Extractor)

// WithForeignPhrases makes any utterance containing one of phrases an
// intent mismatch, e.g. "requisitos" when another flow answers those.
func WithForeignPhrases(phrases ...string) Option {
	return func(e *Extractor) {
		e.foreign = append(e.foreign, phrases...)
	}
}

// WithChangeWords replaces the words that turn a mention into a modification.
func WithChangeWords(words ...string) Option {
	return func(e *Extractor) {
		e.changeWords = words
	}
}

// New creates a keyword extractor with Spanish defaults.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		changeWords: defaultChangeWords,
		anyPhrases:  defaultAnyPhrases,
		yesWords:    defaultYesWords,
		noWords:     defaultNoWords,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Extractor) ExtractInitialCriteria(ctx context.Context, transcript string, vocab domain.Vocabulary) (domain.ExtractionResult, error) {
	words, err := e.words(transcript)
	if err != nil {
		return nil, err
	}
	for _, f := range vocab.Fields() {
		if v, ok := match(words, vocab, f); ok {
			return domain.SelectCriterion{Field: f.External(), Value: v}, nil
		}
	}
	return domain.NoCriterion{}, nil
}

func (e *Extractor) ExtractCriterion(ctx context.Context, transcript string, pending domain.Field, vocab domain.Vocabulary) (domain.ExtractionResult, error) {
	words, err := e.words(transcript)
	if err != nil {
		return nil, err
	}

	if e.hasAny(words, e.changeWords) {
		for _, f := range vocab.Fields() {
			if v, ok := match(words, vocab, f); ok {
				return domain.ModifyCriterion{Field: f.External(), Value: v}, nil
			}
		}
	}

	if pending != "" {
		if v, ok := match(words, vocab, pending); ok {
			return domain.SelectCriterion{Field: pending.External(), Value: v}, nil
		}
		if e.hasAny(words, e.anyPhrases) {
			return domain.SelectCriterion{Field: pending.External(), Value: domain.AnyValue}, nil
		}
	}

	// A volunteered value for another field is still a selection.
	for _, f := range vocab.Fields() {
		if f == pending {
			continue
		}
		if v, ok := match(words, vocab, f); ok {
			return domain.SelectCriterion{Field: f.External(), Value: v}, nil
		}
	}
	return domain.NoCriterion{}, nil
}

func (e *Extractor) ExtractConfirmation(ctx context.Context, transcript string) (domain.Confirmation, error) {
	words, err := e.words(transcript)
	if err != nil {
		return domain.ConfirmUnknown, err
	}
	switch {
	case e.hasAny(words, e.noWords):
		return domain.ConfirmNo, nil
	case e.hasAny(words, e.yesWords):
		return domain.ConfirmYes, nil
	default:
		return domain.ConfirmUnknown, nil
	}
}

// words folds the latest user utterance of transcript.
func (e *Extractor) words(transcript string) ([]string, error) {
	words := textutil.Words(LastUtterance(transcript))
	for _, p := range e.foreign {
		if textutil.ContainsPhrase(words, p) {
			return nil, fmt.Errorf("%w: matched %q", domain.ErrIntentMismatch, p)
		}
	}
	return words, nil
}

func (e *Extractor) hasAny(words, phrases []string) bool {
	for _, p := range phrases {
		if textutil.ContainsPhrase(words, p) {
			return true
		}
	}
	return false
}

// match finds the value of f mentioned in words, preferring longer values
// so that "ciencias_sociales" wins over "ciencias". AnyValue is not matched
// here; callers decide when the wildcard applies.
func match(words []string, vocab domain.Vocabulary, f domain.Field) (string, bool) {
	values := vocab.Values(f)
	slices.SortStableFunc(values, func(a, b string) int {
		return len(textutil.Words(strings.ReplaceAll(b, "_", " "))) - len(textutil.Words(strings.ReplaceAll(a, "_", " ")))
	})
	for _, v := range values {
		if v == domain.AnyValue {
			continue
		}
		if textutil.ContainsPhrase(words, v) {
			return v, true
		}
	}
	return "", false
}

// LastUtterance returns the last user message of a transcript, from the
// final "Usuario:" prefix up to the next assistant turn or the end, or
// the whole transcript when there is none.
func LastUtterance(transcript string) string {
	const prefix, reply = "Usuario:", "Asistente:"
	lines := strings.Split(transcript, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		rest, ok := strings.CutPrefix(strings.TrimSpace(lines[i]), prefix)
		if !ok {
			continue
		}
		msg := []string{rest}
		for _, l := range lines[i+1:] {
			if strings.HasPrefix(strings.TrimSpace(l), reply) {
				break
			}
			msg = append(msg, l)
		}
		return strings.TrimSpace(strings.Join(msg, "\n"))
	}
	return transcript
}
