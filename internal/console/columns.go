package console

import "strings"

// Columns flows its items left to right into as many columns as fit,
// wrapping onto new rows. Each column is as wide as its widest item unless
// Equal is set; Expand spreads the spare width over the columns.
type Columns struct {
	Items []Renderable
	// Gap is the number of blank cells between columns, RowGap the number of
	// blank lines between rows.
	Gap    int
	RowGap int
	Equal  bool
	Expand bool
}

func NewColumns(items []Renderable, gap int) *Columns {
	return &Columns{Items: items, Gap: gap}
}

// Width is greedy: non-empty columns take everything they are offered.
func (c *Columns) Width(max int) int {
	if len(c.Items) == 0 {
		return 0
	}
	return max
}

func (c *Columns) layout(width int) []int {
	n := len(c.Items)
	widths := make([]int, n)
	widest := 0
	for i, item := range c.Items {
		widths[i] = item.Width(width)
		widest = max(widest, widths[i])
	}
	if c.Equal {
		for i := range widths {
			widths[i] = widest
		}
	}
	cols := []int{min(widest, width)}
	for count := n; count > 1; count-- {
		candidate := make([]int, count)
		for i, w := range widths {
			candidate[i%count] = max(candidate[i%count], w)
		}
		total := c.Gap * (count - 1)
		for _, w := range candidate {
			total += w
		}
		if total <= width {
			cols = candidate
			break
		}
	}
	if c.Expand {
		used := c.Gap * (len(cols) - 1)
		for _, w := range cols {
			used += w
		}
		if spare := width - used; spare > 0 {
			for i := range cols {
				cols[i] += spare / len(cols)
				if i < spare%len(cols) {
					cols[i]++
				}
			}
		}
	}
	return cols
}

func (c *Columns) Lines(width int) []string {
	if len(c.Items) == 0 || width <= 0 {
		return nil
	}
	cols := c.layout(width)
	gap := blank(c.Gap)
	var out []string
	for start := 0; start < len(c.Items); start += len(cols) {
		if start > 0 {
			for i := 0; i < c.RowGap; i++ {
				out = append(out, blank(width))
			}
		}
		row := c.Items[start:min(start+len(cols), len(c.Items))]
		cells := make([][]string, len(row))
		height := 0
		for j, item := range row {
			cells[j] = item.Lines(cols[j])
			height = max(height, len(cells[j]))
		}
		for line := 0; line < height; line++ {
			var b strings.Builder
			used := 0
			for j := range row {
				if j > 0 {
					b.WriteString(gap)
					used += c.Gap
				}
				if line < len(cells[j]) {
					b.WriteString(cells[j][line])
				} else {
					b.WriteString(blank(cols[j]))
				}
				used += cols[j]
			}
			b.WriteString(blank(width - used))
			out = append(out, b.String())
		}
	}
	return out
}
