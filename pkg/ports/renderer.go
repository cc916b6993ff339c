package ports

import (
	"context"

	"github.com/aretw0/becas/pkg/domain"
)

// Renderer turns the acts of one turn into the assistant reply.
type Renderer interface {
	Render(ctx context.Context, acts []domain.DialogAct, session *domain.Session) (string, error)
}
