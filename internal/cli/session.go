package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/becas"
	"github.com/aretw0/becas/internal/presentation/tui"
	"github.com/aretw0/becas/pkg/domain"
	"github.com/google/uuid"
	"golang.org/x/term"
)

// ChatOptions configures an interactive conversation.
type ChatOptions struct {
	SessionID string
	Fresh     bool
	In        io.Reader
	Out       io.Writer
}

// RunChat holds a terminal conversation with the engine until EOF, an exit command or a signal.
// A named session is resumed from the store unless Fresh is set.
func RunChat(ctx context.Context, app *App, opts ChatOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	interactive := isTerminal(opts.Out)
	chat := tui.NewChat(opts.In, opts.Out)
	if interactive {
		tui.PrintBanner(opts.Out, becas.Version)
		if render, err := tui.NewRenderer(); err == nil {
			chat.Render = render
		}
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if opts.Fresh {
		if err := app.Engine.DeleteSession(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}

	s, err := app.Engine.Session(ctx, sessionID)
	switch {
	case err == nil:
		app.Logger.Info("Session Resumed", "session_id", sessionID, "state", s.Machine.State())
		printSystemMessage(opts.Out, "Retomando la sesión '%s' (%s).", sessionID, s.Machine.State())
	case errors.Is(err, domain.ErrSessionNotFound):
		app.Logger.Info("Session Created", "session_id", sessionID)
		if interactive {
			printSystemMessage(opts.Out, "Sesión '%s'. Escribe 'salir' para terminar.", sessionID)
		}
	default:
		return fmt.Errorf("failed to init session: %w", err)
	}

	err = chat.Run(ctx, app.Engine, sessionID)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
