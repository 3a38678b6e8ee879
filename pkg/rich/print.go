package rich

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/3cpo-dev/gaxx-rich/pkg/api"
)

// printMu serialises console writes from concurrent callers.
var printMu sync.Mutex

func entryHelper(opts []Option) *Helper {
	return &Helper{cfg: newConfig(zerolog.InfoLevel, opts)}
}

// Render builds the renderable for node under the print lock without
// writing it.
func Render(node any, opts ...Option) (Renderable, error) {
	printMu.Lock()
	defer printMu.Unlock()
	return entryHelper(opts).Render(node)
}

// PrintResult renders an outcome, a result group or a run aggregate and
// writes it. Nothing is written when the outcome is below the severity
// threshold.
func PrintResult(node any, opts ...Option) error {
	printMu.Lock()
	defer printMu.Unlock()

	h := entryHelper(opts)
	r, err := h.Render(node)
	if err != nil {
		return fmt.Errorf("print result: %w", err)
	}
	return h.cfg.console().Print(r)
}

// PrintFailedHosts writes one group panel per failed host of agg.
func PrintFailedHosts(agg *api.AggregatedResult, opts ...Option) error {
	if agg == nil {
		return errors.New("print failed hosts: nil aggregate")
	}
	printMu.Lock()
	defer printMu.Unlock()

	h := entryHelper(opts)
	out := h.cfg.console()
	failed := agg.FailedHosts()
	for _, host := range failed.Hosts() {
		m, _ := failed.Get(host)
		p, err := h.group(m, host)
		if err != nil {
			return fmt.Errorf("print failed hosts: %w", err)
		}
		if err := out.Print(p); err != nil {
			return err
		}
	}
	return nil
}

// PrintInventory writes one scope panel per host, side by side. With Vars
// set only those attributes are shown; hosts lacking one simply omit it.
func PrintInventory(src api.InventorySource, opts ...Option) error {
	if src == nil || src.Inventory() == nil {
		return errors.New("print inventory: no inventory")
	}
	printMu.Lock()
	defer printMu.Unlock()

	h := entryHelper(opts)
	var panels []Renderable
	for _, host := range src.Inventory().Hosts() {
		vars := host.Vars()
		if len(h.cfg.Vars) > 0 {
			vars = filterVars(vars, h.cfg.Vars)
		}
		panels = append(panels, h.Scope(vars, host.Name))
	}
	return h.cfg.console().Print(h.columns(panels))
}

func filterVars(vars map[string]any, keep []string) map[string]any {
	out := make(map[string]any, len(keep))
	for _, k := range keep {
		if v, ok := vars[k]; ok {
			out[k] = v
		}
	}
	return out
}
