package rich

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/3cpo-dev/gaxx-rich/internal/console"
)

// Scope renders a mapping as an aligned key = value grid inside a panel
// sized to its content.
func (h *Helper) Scope(mapping map[string]any, title string) Renderable {
	grid := console.NewGrid()
	for _, k := range sortedKeys(mapping) {
		grid.Add(k, h.scopeValue(mapping[k]))
	}
	return &console.Panel{Body: grid, Title: title, Border: h.cfg.Theme.Scope, Fit: true}
}

func (h *Helper) scopeValue(v any) string {
	if s, ok := v.(string); ok && h.cfg.LineBreaks {
		return strings.TrimSpace(s)
	}
	return console.Literal(v)
}

// sortedKeys puts dunder keys first, then sorts case-insensitively with the
// raw key breaking ties.
func sortedKeys(m map[string]any) []string {
	fold := cases.Fold()
	keys := make([]string, 0, len(m))
	folded := make(map[string]string, len(m))
	for k := range m {
		keys = append(keys, k)
		folded[k] = fold.String(k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if da, db := strings.HasPrefix(a, "__"), strings.HasPrefix(b, "__"); da != db {
			return da
		}
		if folded[a] != folded[b] {
			return folded[a] < folded[b]
		}
		return a < b
	})
	return keys
}
