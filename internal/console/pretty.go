package console

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
)

// Pretty renders a structured value as a literal: strings quoted, nil as
// null, maps and slices as JSON with sorted keys. The compact form is used
// when it fits, the indented form otherwise.
type Pretty struct {
	value any
}

func NewPretty(v any) *Pretty { return &Pretty{value: normalize(v)} }

// Literal is the single-line form of v.
func Literal(v any) string { return NewPretty(v).compact() }

func (p *Pretty) compact() string {
	if s, ok := p.value.(string); ok {
		return strconv.Quote(s)
	}
	s, err := encodeJSON(p.value, "")
	if err != nil {
		return fmt.Sprintf("%#v", p.value)
	}
	return s
}

func (p *Pretty) format(width int) string {
	s := p.compact()
	if text.StringWidthWithoutEscSequences(s) <= width {
		return s
	}
	if _, ok := p.value.(string); ok {
		return s
	}
	if indented, err := encodeJSON(p.value, "  "); err == nil {
		return indented
	}
	return s
}

// encodeJSON writes v as JSON without escaping <, > and &.
func encodeJSON(v any, indent string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func (p *Pretty) Width(max int) int {
	return NewText(p.format(max)).Width(max)
}

func (p *Pretty) Lines(width int) []string {
	return NewText(p.format(width)).Lines(width)
}

// normalize swaps values json cannot represent usefully for their text form.
func normalize(v any) any {
	switch x := v.(type) {
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	default:
		return v
	}
}
