package console

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var box = table.StyleBoxRounded

// Panel draws a rounded border around a body with an optional centred title.
// A panel fills the width it is given unless Fit is set, in which case it is
// drawn at its natural width and padded.
type Panel struct {
	Body   Renderable
	Title  string
	Border text.Colors
	Fit    bool
}

func NewPanel(body Renderable, title string, border text.Colors) *Panel {
	return &Panel{Body: body, Title: title, Border: border}
}

func (p *Panel) Width(max int) int {
	w := 4
	if p.Body != nil {
		w += p.Body.Width(max - 4)
	}
	if p.Title != "" {
		if tw := text.StringWidthWithoutEscSequences(p.Title) + 6; tw > w {
			w = tw
		}
	}
	return min(w, max)
}

func (p *Panel) Lines(width int) []string {
	if p.Fit {
		if natural := p.Width(width); natural < width {
			lines := p.draw(natural)
			for i, l := range lines {
				lines[i] = l + blank(width-natural)
			}
			return lines
		}
	}
	return p.draw(width)
}

func (p *Panel) draw(width int) []string {
	inner := max(width-2, 0)
	lines := []string{p.top(inner)}
	if p.Body != nil {
		left := p.paint(box.Left) + " "
		right := " " + p.paint(box.Right)
		for _, l := range p.Body.Lines(max(inner-2, 0)) {
			lines = append(lines, left+l+right)
		}
	}
	bottom := box.BottomLeft + strings.Repeat(box.MiddleHorizontal, inner) + box.BottomRight
	return append(lines, p.paint(bottom))
}

func (p *Panel) top(inner int) string {
	title := ""
	if p.Title != "" {
		title = " " + p.Title + " "
		if text.StringWidthWithoutEscSequences(title) > inner {
			title = text.Trim(title, inner)
		}
	}
	rest := inner - text.StringWidthWithoutEscSequences(title)
	left := rest / 2
	if title == "" {
		left = rest
	}
	return p.paint(box.TopLeft + strings.Repeat(box.MiddleHorizontal, left) + title +
		strings.Repeat(box.MiddleHorizontal, rest-left) + box.TopRight)
}

func (p *Panel) paint(s string) string {
	if len(p.Border) == 0 {
		return s
	}
	return text.Escape(s, p.Border.EscapeSeq())
}
