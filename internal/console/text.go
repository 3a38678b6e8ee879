package console

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
)

// Text is a block of plain or coloured text, hard-wrapped to the available
// width. Embedded line breaks are kept.
type Text struct {
	value  string
	colors text.Colors
}

func NewText(s string) *Text {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\t", "    ")
	return &Text{value: s}
}

// Styled returns text drawn in the given colours.
func Styled(s string, colors text.Colors) *Text {
	t := NewText(s)
	t.colors = colors
	return t
}

func (t *Text) String() string { return t.value }

func (t *Text) Width(max int) int {
	return min(text.LongestLineLen(t.value), max)
}

func (t *Text) Lines(width int) []string {
	if width <= 0 {
		return nil
	}
	lines := strings.Split(wrap(t.value, width), "\n")
	for i, l := range lines {
		l = text.Pad(l, width, ' ')
		if len(t.colors) > 0 {
			l = text.Escape(l, t.colors.EscapeSeq())
		}
		lines[i] = l
	}
	return lines
}

// wrap hard-wraps only the lines wider than width. Continuation lines keep
// the leading indentation of the line they came from.
func wrap(s string, width int) string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if text.StringWidthWithoutEscSequences(l) <= width {
			out = append(out, l)
			continue
		}
		body := strings.TrimLeft(l, " ")
		indent := l[:len(l)-len(body)]
		if len(indent) >= width/2 {
			indent, body = "", l
		}
		for _, w := range strings.Split(text.WrapText(body, width-len(indent)), "\n") {
			w = indent + w
			if text.StringWidthWithoutEscSequences(w) > width {
				w = text.Trim(w, width)
			}
			out = append(out, w)
		}
	}
	return strings.Join(out, "\n")
}
