package console

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const keySuffix = " ="

// Grid is a borderless two-column key/value table: keys right-aligned and
// followed by " =", values left-aligned and wrapped to the remaining width.
type Grid struct {
	keys   []string
	values []string
}

func NewGrid() *Grid { return &Grid{} }

func (g *Grid) Add(key, value string) {
	g.keys = append(g.keys, key)
	g.values = append(g.values, value)
}

func (g *Grid) Len() int { return len(g.keys) }

func gridStyle() table.Style {
	style := table.StyleDefault
	style.Box.MiddleVertical = " "
	style.Box.PaddingLeft = ""
	style.Box.PaddingRight = ""
	style.Options = table.Options{SeparateColumns: true}
	return style
}

func (g *Grid) render(width int) []string {
	if len(g.keys) == 0 {
		return nil
	}
	keyWidth := 0
	for _, k := range g.keys {
		keyWidth = max(keyWidth, text.StringWidthWithoutEscSequences(k+keySuffix))
	}

	tw := table.NewWriter()
	tw.SetStyle(gridStyle())
	configs := []table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignLeft},
	}
	if valueWidth := width - keyWidth - 1; valueWidth > 0 {
		configs[1].WidthMax = valueWidth
		configs[1].WidthMaxEnforcer = wrap
	}
	tw.SetColumnConfigs(configs)
	for i, k := range g.keys {
		tw.AppendRow(table.Row{k + keySuffix, g.values[i]})
	}
	out := tw.Render()
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func (g *Grid) Width(limit int) int {
	w := 0
	for _, l := range g.render(limit) {
		w = max(w, text.StringWidthWithoutEscSequences(l))
	}
	return min(w, limit)
}

func (g *Grid) Lines(width int) []string {
	lines := g.render(width)
	for i, l := range lines {
		if text.StringWidthWithoutEscSequences(l) > width {
			l = text.Trim(l, width)
		}
		lines[i] = text.Pad(l, width, ' ')
	}
	return lines
}
