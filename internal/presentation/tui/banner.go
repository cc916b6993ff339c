package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the application banner with the running version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  _                        ", "#34d399"},
		{" | |__   ___  ___ __ _ ___ ", "#2dd4bf"},
		{" | '_ \\ / _ \\/ __/ _` / __|", "#22d3ee"},
		{" | |_) |  __/ (_| (_| \\__ \\", "#38bdf8"},
		{" |_.__/ \\___|\\___\\__,_|___/", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
