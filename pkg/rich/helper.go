// Package rich renders task results and inventories as nested terminal
// panels.
package rich

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/3cpo-dev/gaxx-rich/internal/console"
	"github.com/3cpo-dev/gaxx-rich/pkg/api"
)

// DefaultHost titles a result group rendered without its aggregate.
const DefaultHost = "HOST"

// Renderable is a laid-out node ready to print.
type Renderable = console.Renderable

// Helper turns result-tree nodes into renderables. It never writes output.
type Helper struct {
	cfg Config
}

// NewHelper returns a helper that shows every severity unless told otherwise.
func NewHelper(opts ...Option) *Helper {
	return &Helper{cfg: newConfig(zerolog.TraceLevel, opts)}
}

func (h *Helper) Config() Config { return h.cfg }

// Render dispatches on the node kind. A suppressed outcome yields nil
// without error; unknown values yield a notice instead of an error.
func (h *Helper) Render(node any) (Renderable, error) {
	switch n := node.(type) {
	case *api.AggregatedResult:
		if n == nil {
			break
		}
		return h.aggregate(n)
	case *api.MultiResult:
		if n == nil {
			break
		}
		return h.group(n, DefaultHost)
	case api.Outcome:
		r, err := h.outcome(n)
		if err != nil || r == nil {
			return nil, err
		}
		return r, nil
	}
	return h.fallback(node), nil
}

func (h *Helper) outcome(o api.Outcome) (*console.Panel, error) {
	if o.Severity() < h.cfg.Severity {
		return nil, nil
	}
	var body Renderable
	if len(h.cfg.Vars) > 0 {
		fields := make(map[string]any, len(h.cfg.Vars))
		for _, name := range h.cfg.Vars {
			v, err := o.Field(name)
			if err != nil {
				return nil, fmt.Errorf("render %q: %w", o.Name(), err)
			}
			fields[name] = v
		}
		body = h.Scope(fields, "")
	} else {
		body = payload(o.Payload())
	}
	return console.NewPanel(body, o.Name(), h.cfg.Theme.Status(o.Failed())), nil
}

func payload(v any) Renderable {
	switch p := v.(type) {
	case nil:
		return console.NewText("")
	case string:
		return console.NewText(p)
	case Renderable:
		return p
	default:
		return console.NewPretty(p)
	}
}

func (h *Helper) group(m *api.MultiResult, host string) (*console.Panel, error) {
	var items []Renderable
	for _, o := range m.Results() {
		p, err := h.outcome(o)
		if err != nil {
			return nil, err
		}
		if p != nil {
			items = append(items, p)
		}
	}
	title := host + " | " + m.Name()
	return console.NewPanel(h.columns(items), title, h.cfg.Theme.Status(m.Failed())), nil
}

func (h *Helper) aggregate(a *api.AggregatedResult) (*console.Panel, error) {
	var items []Renderable
	for _, host := range a.Hosts() {
		m, _ := a.Get(host)
		p, err := h.group(m, host)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return console.NewPanel(h.columns(items), a.Name(), h.cfg.Theme.Status(a.Failed())), nil
}

func (h *Helper) columns(items []Renderable) *console.Columns {
	return &console.Columns{
		Items:  items,
		Gap:    h.cfg.Padding.Horizontal,
		RowGap: h.cfg.Padding.Vertical,
		Equal:  h.cfg.Equal,
		Expand: h.cfg.Expand,
	}
}

func (h *Helper) fallback(node any) Renderable {
	return console.Styled(fmt.Sprintf("cannot render %v (%T)", node, node), h.cfg.Theme.Notice)
}
