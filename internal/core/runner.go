package core

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/3cpo-dev/gaxx-rich/pkg/api"
)

// DefaultWorkers is the size of the worker pool when none is configured.
const DefaultWorkers = 20

// Task runs against a single host. A returned error becomes a failed result
// carrying the error as its exception.
type Task func(tc *TaskContext) (api.Outcome, error)

// TaskContext is handed to a task while it runs on one host.
type TaskContext struct {
	ctx    context.Context
	Host   *api.Host
	Name   string
	info   api.RunInfo
	runner *Runner
	subs   []api.Outcome
}

func (tc *TaskContext) Context() context.Context { return tc.ctx }

// SubtaskError is returned by TaskContext.Run when the subtask failed.
// Returning it from the parent task fails the parent too.
type SubtaskError struct {
	Name    string
	Outcome api.Outcome
}

func (e *SubtaskError) Error() string { return fmt.Sprintf("subtask %s failed", e.Name) }

func (e *SubtaskError) Unwrap() error { return e.Outcome.Exception() }

// Run executes a subtask on the same host and returns its outcome, with a
// *SubtaskError when it failed. The subtask's outcome, and those of its own
// subtasks, are appended to the host's group after the parent result.
func (tc *TaskContext) Run(name string, task Task) (api.Outcome, error) {
	r := tc.runner
	for _, p := range r.processors {
		p.SubtaskStarted(tc.info, tc.Host)
	}
	child := &TaskContext{ctx: tc.ctx, Host: tc.Host, Name: name, info: tc.info, runner: r}
	out := child.call(task)
	tc.subs = append(tc.subs, out)
	tc.subs = append(tc.subs, child.subs...)
	for _, p := range r.processors {
		p.SubtaskFinished(tc.info, tc.Host, out)
	}
	if out.Failed() {
		return out, &SubtaskError{Name: name, Outcome: out}
	}
	return out, nil
}

func (tc *TaskContext) call(task Task) (out api.Outcome) {
	defer func() {
		if v := recover(); v != nil {
			err := fmt.Errorf("task %s panicked: %v", tc.Name, v)
			out = api.NewResult(tc.Host, tc.Name, err.Error(), api.WithException(err))
		}
	}()
	res, err := task(tc)
	if err != nil {
		return api.NewResult(tc.Host, tc.Name, err.Error(), api.WithException(err))
	}
	if res == nil {
		return api.NewResult(tc.Host, tc.Name, nil)
	}
	return res
}

// Runner executes tasks over an inventory with bounded concurrency.
type Runner struct {
	inv        *api.Inventory
	workers    int
	processors []api.Processor
	metrics    *Metrics
}

type Option func(*Runner)

func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithProcessors registers lifecycle callbacks, called in order.
func WithProcessors(p ...api.Processor) Option {
	return func(r *Runner) { r.processors = append(r.processors, p...) }
}

func NewRunner(inv *api.Inventory, opts ...Option) *Runner {
	if inv == nil {
		inv = api.NewInventory()
	}
	r := &Runner{inv: inv, workers: DefaultWorkers, metrics: NewMetrics()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Inventory makes the runner an api.InventorySource.
func (r *Runner) Inventory() *api.Inventory { return r.inv }

func (r *Runner) Workers() int { return r.workers }

func (r *Runner) Metrics() *Metrics { return r.metrics }

// Filter returns a runner over the hosts matching keep. Workers, processors
// and metrics are shared with r.
func (r *Runner) Filter(keep func(*api.Host) bool) *Runner {
	inv := api.NewInventory()
	for _, h := range r.inv.Hosts() {
		if keep(h) {
			inv.Add(h)
		}
	}
	return &Runner{inv: inv, workers: r.workers, processors: r.processors, metrics: r.metrics}
}

// Run executes task on every host and collects the groups in inventory
// order. Task failures are recorded in the results; the error is only set
// when ctx ends before every host ran.
func (r *Runner) Run(ctx context.Context, name string, task Task) (*api.AggregatedResult, error) {
	start := time.Now()
	hosts := r.inv.Hosts()
	info := api.RunInfo{Name: name, Hosts: len(hosts), Workers: r.workers}
	agg := api.NewAggregatedResult(name)
	agg.SetRunID(ulid.Make().String())

	log.Debug().Str("task", name).Str("run", agg.RunID()).Int("hosts", len(hosts)).Int("workers", r.workers).Msg("run started")
	for _, p := range r.processors {
		p.RunStarted(info)
	}

	groups := make([]*api.MultiResult, len(hosts))
	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, h := range hosts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			groups[i] = r.runHost(ctx, info, h, name, task)
			return nil
		})
	}
	err := g.Wait()

	failed := 0
	for i, h := range hosts {
		if groups[i] == nil {
			continue
		}
		agg.Set(h.Name, groups[i])
		if groups[i].Failed() {
			failed++
		}
	}
	r.metrics.RecordRun(time.Since(start), agg.Len(), failed)
	if err != nil {
		r.metrics.RecordError()
	}

	for _, p := range r.processors {
		p.RunFinished(info, agg)
	}
	log.Debug().Str("task", name).Str("run", agg.RunID()).Int("failed", failed).Dur("took", time.Since(start)).Msg("run finished")
	if err != nil {
		return agg, fmt.Errorf("run %s: %w", name, err)
	}
	return agg, nil
}

func (r *Runner) runHost(ctx context.Context, info api.RunInfo, h *api.Host, name string, task Task) *api.MultiResult {
	for _, p := range r.processors {
		p.HostStarted(info, h)
	}
	tc := &TaskContext{ctx: ctx, Host: h, Name: name, info: info, runner: r}
	group := api.NewMultiResult(name, tc.call(task))
	group.Append(tc.subs...)
	if group.Failed() {
		log.Debug().Str("task", name).Str("host", h.Name).Msg("host failed")
	}
	for _, p := range r.processors {
		p.HostFinished(info, h, group)
	}
	return group
}
