package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aretw0/becas/internal/textutil"
	"github.com/aretw0/becas/pkg/domain"
)

// ExitCommands end an interactive conversation.
var ExitCommands = []string{"salir", "exit", "quit", "q"}

// Chatter runs one persisted turn. *becas.Engine implements it.
type Chatter interface {
	Chat(ctx context.Context, sessionID, utterance string) (*domain.Session, string, error)
}

// Chat is a line-oriented terminal conversation.
type Chat struct {
	In     io.Reader
	Out    io.Writer
	Render RenderFunc
	Prompt string
}

// NewChat creates a chat over the given streams with plain rendering.
func NewChat(in io.Reader, out io.Writer) *Chat {
	return &Chat{In: in, Out: out, Render: Plain, Prompt: "> "}
}

type line struct {
	text string
	err  error
}

// Run reads utterances until EOF, an exit command or the end of ctx.
// Rejected input is reported and the conversation goes on; any other engine error ends it.
func (c *Chat) Run(ctx context.Context, engine Chatter, sessionID string) error {
	lines := make(chan line)
	go c.pump(ctx, lines)

	for {
		fmt.Fprint(c.Out, c.Prompt)
		var in line
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.Out)
			return ctx.Err()
		case in = <-lines:
		}
		if in.err != nil {
			fmt.Fprintln(c.Out)
			if errors.Is(in.err, io.EOF) {
				return nil
			}
			return in.err
		}

		text := strings.TrimSpace(in.text)
		if text == "" {
			continue
		}
		if slices.Contains(ExitCommands, strings.ToLower(text)) {
			return nil
		}

		_, reply, err := engine.Chat(ctx, sessionID, text)
		if err != nil {
			if msg, ok := inputMessage(err); ok {
				fmt.Fprintln(c.Out, msg)
				continue
			}
			return err
		}

		out, err := c.Render(reply)
		if err != nil {
			out, _ = Plain(reply)
		}
		fmt.Fprint(c.Out, out)
	}
}

func (c *Chat) pump(ctx context.Context, lines chan<- line) {
	scanner := bufio.NewScanner(c.In)
	for scanner.Scan() {
		select {
		case lines <- line{text: scanner.Text()}:
		case <-ctx.Done():
			return
		}
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	select {
	case lines <- line{err: err}:
	case <-ctx.Done():
	}
}

func inputMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, textutil.ErrInputTooLarge):
		return "El mensaje es demasiado largo.", true
	case errors.Is(err, textutil.ErrEmptyInput):
		return "El mensaje está vacío.", true
	case errors.Is(err, textutil.ErrInvalidUTF8):
		return "El mensaje contiene caracteres no válidos.", true
	}
	return "", false
}
