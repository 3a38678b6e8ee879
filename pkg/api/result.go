// Package api holds the types shared between the task runner and the
// renderers: the result tree, the inventory and the processor callbacks.
package api

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Outcome is one task's result for one host.
type Outcome interface {
	Name() string
	Host() *Host
	// Payload is what gets rendered when no attributes are projected.
	Payload() any
	Failed() bool
	Changed() bool
	Severity() zerolog.Level
	Exception() error
	// Field returns a named attribute or a *LookupError.
	Field(name string) (any, error)
}

type options struct {
	diff      string
	changed   bool
	failed    bool
	severity  *zerolog.Level
	exception error
}

// Option customises an outcome at construction time.
type Option func(*options)

func WithDiff(diff string) Option { return func(o *options) { o.diff = diff } }

func WithChanged(changed bool) Option { return func(o *options) { o.changed = changed } }

func WithFailed(failed bool) Option { return func(o *options) { o.failed = failed } }

func WithSeverity(level zerolog.Level) Option {
	return func(o *options) { o.severity = &level }
}

// WithException records the error that produced the outcome and marks it failed.
func WithException(err error) Option {
	return func(o *options) {
		o.exception = err
		if err != nil {
			o.failed = true
		}
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// severityFor picks the explicit severity, else error for failures and info
// for everything else.
func (o options) severityFor(failed bool) zerolog.Level {
	if o.severity != nil {
		return *o.severity
	}
	if failed {
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

// Result is the generic outcome: an arbitrary payload plus an optional diff.
type Result struct {
	host      *Host
	name      string
	payload   any
	diff      string
	changed   bool
	failed    bool
	severity  zerolog.Level
	exception error
}

// NewResult builds an immutable result.
func NewResult(host *Host, name string, payload any, opts ...Option) *Result {
	o := buildOptions(opts)
	return &Result{
		host:      host,
		name:      name,
		payload:   payload,
		diff:      o.diff,
		changed:   o.changed,
		failed:    o.failed,
		severity:  o.severityFor(o.failed),
		exception: o.exception,
	}
}

func (r *Result) Name() string            { return r.name }
func (r *Result) Host() *Host             { return r.host }
func (r *Result) Payload() any            { return r.payload }
func (r *Result) Diff() string            { return r.diff }
func (r *Result) Failed() bool            { return r.failed }
func (r *Result) Changed() bool           { return r.changed }
func (r *Result) Severity() zerolog.Level { return r.severity }
func (r *Result) Exception() error        { return r.exception }

var resultFields = map[string]func(*Result) any{
	"name":           func(r *Result) any { return r.name },
	"host":           func(r *Result) any { return r.host.String() },
	"result":         func(r *Result) any { return r.payload },
	"diff":           func(r *Result) any { return r.diff },
	"changed":        func(r *Result) any { return r.changed },
	"failed":         func(r *Result) any { return r.failed },
	"severity_level": func(r *Result) any { return r.severity.String() },
	"exception":      func(r *Result) any { return r.exception },
}

func (r *Result) Field(name string) (any, error) {
	get, ok := resultFields[name]
	if !ok {
		return nil, &LookupError{Kind: "result", Name: name}
	}
	return get(r), nil
}

// Command describes a finished remote command.
type Command struct {
	Line     string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// CommandResult is the outcome of running a shell command on a host. A
// non-zero exit code or a transport error marks it failed.
type CommandResult struct {
	host      *Host
	name      string
	cmd       Command
	changed   bool
	failed    bool
	severity  zerolog.Level
	exception error
}

func NewCommandResult(host *Host, name string, cmd Command, opts ...Option) *CommandResult {
	o := buildOptions(opts)
	failed := o.failed || cmd.ExitCode != 0
	return &CommandResult{
		host:      host,
		name:      name,
		cmd:       cmd,
		changed:   o.changed,
		failed:    failed,
		severity:  o.severityFor(failed),
		exception: o.exception,
	}
}

func (c *CommandResult) Name() string            { return c.name }
func (c *CommandResult) Host() *Host             { return c.host }
func (c *CommandResult) Command() Command        { return c.cmd }
func (c *CommandResult) Failed() bool            { return c.failed }
func (c *CommandResult) Changed() bool           { return c.changed }
func (c *CommandResult) Severity() zerolog.Level { return c.severity }
func (c *CommandResult) Exception() error        { return c.exception }

// Payload is stdout followed by stderr, trailing newlines trimmed.
func (c *CommandResult) Payload() any {
	stdout := strings.TrimRight(c.cmd.Stdout, "\n")
	stderr := strings.TrimRight(c.cmd.Stderr, "\n")
	switch {
	case stderr == "":
		return stdout
	case stdout == "":
		return stderr
	default:
		return stdout + "\n" + stderr
	}
}

var commandFields = map[string]func(*CommandResult) any{
	"name":           func(c *CommandResult) any { return c.name },
	"host":           func(c *CommandResult) any { return c.host.String() },
	"command":        func(c *CommandResult) any { return c.cmd.Line },
	"result":         func(c *CommandResult) any { return c.Payload() },
	"stdout":         func(c *CommandResult) any { return c.cmd.Stdout },
	"stderr":         func(c *CommandResult) any { return c.cmd.Stderr },
	"exit_code":      func(c *CommandResult) any { return c.cmd.ExitCode },
	"duration":       func(c *CommandResult) any { return c.cmd.Duration.String() },
	"changed":        func(c *CommandResult) any { return c.changed },
	"failed":         func(c *CommandResult) any { return c.failed },
	"severity_level": func(c *CommandResult) any { return c.severity.String() },
	"exception":      func(c *CommandResult) any { return c.exception },
}

func (c *CommandResult) Field(name string) (any, error) {
	get, ok := commandFields[name]
	if !ok {
		return nil, &LookupError{Kind: "command result", Name: name}
	}
	return get(c), nil
}
