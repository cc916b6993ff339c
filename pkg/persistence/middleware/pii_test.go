package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/becas/pkg/adapters/memory"
	"github.com/aretw0/becas/pkg/domain"
	"github.com/aretw0/becas/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)
	secure := mw(underlying)
	ctx := context.Background()

	s := domain.NewSession("pii")
	s.AddUserMessage("Soy ana.perez@example.com, DNI 12345678Z")
	s.AddAssistantMessage("¿Para qué nivel educativo?")
	s.AddUserMessage("Llámame al +34 600 123 456 o al 600123456")
	s.AddUserMessage("máster en Madrid")

	require.NoError(t, secure.Save(ctx, "pii", s))
	assert.Equal(t, "Soy ana.perez@example.com, DNI 12345678Z", s.History[0].Content, "engine copy is untouched")

	stored, err := underlying.Load(ctx, "pii")
	require.NoError(t, err)
	assert.Equal(t, "Soy ***, DNI ***", stored.History[0].Content)
	assert.Equal(t, "¿Para qué nivel educativo?", stored.History[1].Content)
	assert.Equal(t, "Llámame al *** o al ***", stored.History[2].Content)
	assert.Equal(t, "máster en Madrid", stored.History[3].Content)
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}
