package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/becas/pkg/domain"
	"github.com/aretw0/becas/pkg/ports"
)

// Mask replaces every personal datum found in the history.
const Mask = "***"

// DefaultPIIPatterns match e-mail addresses, Spanish DNI/NIE numbers and phone numbers.
var DefaultPIIPatterns = []string{
	`[[:alnum:]._%+-]+@[[:alnum:].-]+\.[[:alpha:]]{2,}`,
	`\b[XYZxyz]?\d{7,8}[A-Za-z]\b`,
	`\+?(?:\d{2,3}[\s-]?)?\d{3}[\s-]?\d{3}[\s-]?\d{3}\b`,
}

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks history text matching the patterns.
// Only the stored copy is masked; the session used by the engine keeps the original text.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PII pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	cloned := session.Clone()
	for i := range cloned.History {
		cloned.History[i].Content = m.mask(cloned.History[i].Content)
	}
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) mask(text string) string {
	for _, p := range m.patterns {
		text = p.ReplaceAllString(text, Mask)
	}
	return text
}
