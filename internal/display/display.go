// Package display renders command output. Decoration (tables, bold,
// spinners, markdown help) is only applied when stdout is a terminal
// and plain mode is off; piped output stays line-oriented and stable.
package display

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// Renderer writes command output, decorated or plain.
type Renderer struct {
	out       io.Writer
	decorated bool
}

// New creates a renderer writing to out. Decoration is enabled only
// when out is a terminal and plain is false.
func New(out io.Writer, plain bool) *Renderer {
	return &Renderer{
		out:       out,
		decorated: !plain && isTerminal(out),
	}
}

// Decorated reports whether the renderer draws tables, colors and
// spinners.
func (r *Renderer) Decorated() bool {
	return r.decorated
}

// Println writes one output line.
func (r *Renderer) Println(line string) {
	fmt.Fprintln(r.out, line)
}

// Printf writes formatted output.
func (r *Renderer) Printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// Bold returns s in bold when decorated, unchanged otherwise.
func (r *Renderer) Bold(s string) string {
	if !r.decorated {
		return s
	}
	return text.Bold.Sprint(s)
}

// Markdown renders a markdown document for the terminal. Without
// decoration the raw markdown is returned, which reads fine for the
// help text this is used on.
func (r *Renderer) Markdown(md string) string {
	if !r.decorated {
		return md
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return rendered
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
