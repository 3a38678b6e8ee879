package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// DefaultWidth is used when the sink is not a terminal.
const DefaultWidth = 80

// Console writes renderables to a sink at a fixed width. Colours are kept
// only when enabled; otherwise escape sequences are stripped.
type Console struct {
	out   io.Writer
	width int
	color bool
}

type Option func(*Console)

func WithWidth(width int) Option {
	return func(c *Console) {
		if width > 0 {
			c.width = width
		}
	}
}

func WithColor(on bool) Option { return func(c *Console) { c.color = on } }

// New detects width and colour support from out when it is a terminal.
func New(out io.Writer, opts ...Option) *Console {
	c := &Console{out: out, width: DefaultWidth}
	if f, ok := out.(*os.File); ok {
		fd := f.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			c.color = os.Getenv("NO_COLOR") == ""
			if w, _, err := term.GetSize(int(fd)); err == nil && w > 0 {
				c.width = w
			}
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Console) Width() int { return c.width }

func (c *Console) Color() bool { return c.color }

// Print renders r at the console width. A nil renderable prints nothing.
func (c *Console) Print(r Renderable) error {
	if r == nil {
		return nil
	}
	var b strings.Builder
	for _, l := range r.Lines(c.width) {
		if !c.color {
			l = text.StripEscape(l)
		}
		b.WriteString(l)
		b.WriteByte('\n')
	}
	if _, err := io.WriteString(c.out, b.String()); err != nil {
		return fmt.Errorf("write console: %w", err)
	}
	return nil
}
