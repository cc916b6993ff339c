package tui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/becas/internal/textutil"
	"github.com/aretw0/becas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoEngine struct {
	calls []string
	err   map[string]error
}

func (e *echoEngine) Chat(_ context.Context, sessionID, utterance string) (*domain.Session, string, error) {
	if err := e.err[utterance]; err != nil {
		return nil, "", err
	}
	e.calls = append(e.calls, sessionID+":"+utterance)
	return domain.NewSession(sessionID), "eco " + utterance, nil
}

func TestChat_Run(t *testing.T) {
	var out bytes.Buffer
	engine := &echoEngine{err: map[string]error{"largo": textutil.ErrInputTooLarge}}
	chat := NewChat(strings.NewReader("hola\n\nlargo\nmáster\nsalir\nignorado\n"), &out)

	require.NoError(t, chat.Run(context.Background(), engine, "cli"))

	assert.Equal(t, []string{"cli:hola", "cli:máster"}, engine.calls)
	assert.Contains(t, out.String(), "eco hola\n")
	assert.Contains(t, out.String(), "El mensaje es demasiado largo.")
	assert.NotContains(t, out.String(), "ignorado")
}

func TestChat_EOFAndFatalErrors(t *testing.T) {
	var out bytes.Buffer
	engine := &echoEngine{}
	require.NoError(t, NewChat(strings.NewReader("hola"), &out).Run(context.Background(), engine, "s"))
	assert.Equal(t, []string{"s:hola"}, engine.calls)

	boom := errors.New("boom")
	engine = &echoEngine{err: map[string]error{"hola": boom}}
	err := NewChat(strings.NewReader("hola\n"), &out).Run(context.Background(), engine, "s")
	assert.ErrorIs(t, err, boom)
}

func TestChat_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blocking, w := io.Pipe()
	defer w.Close()
	err := NewChat(blocking, &bytes.Buffer{}).Run(ctx, &echoEngine{}, "s")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlain(t *testing.T) {
	out, err := Plain("**hola**\n\n")
	require.NoError(t, err)
	assert.Equal(t, "**hola**\n", out)
}

func TestPrintBanner(t *testing.T) {
	var out bytes.Buffer
	PrintBanner(&out, "1.2.3")
	assert.Contains(t, out.String(), "v1.2.3")
}
