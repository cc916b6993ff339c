package ports

import (
	"context"

	"github.com/aretw0/becas/pkg/domain"
)

// IntentRouter handles utterances the criteria flow rejected.
// It returns the reply to show to the user.
type IntentRouter interface {
	Route(ctx context.Context, session *domain.Session, utterance string) (string, error)
}
