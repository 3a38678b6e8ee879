package rich

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/3cpo-dev/gaxx-rich/internal/console"
)

// Padding is the blank space between laid-out panels: Vertical lines between
// rows, Horizontal cells between columns.
type Padding struct {
	Vertical   int
	Horizontal int
}

// Config holds the knobs for one render call. It is built fresh per call and
// never shared.
type Config struct {
	// Severity is the lowest outcome severity still shown.
	Severity zerolog.Level
	// Vars projects these outcome attributes instead of the payload. For the
	// inventory it filters host attributes.
	Vars       []string
	Expand     bool
	Equal      bool
	Padding    Padding
	LineBreaks bool
	// Width overrides the detected console width.
	Width  int
	Theme  console.Theme
	Writer io.Writer

	color *bool
}

// Option mutates a Config.
type Option func(*Config)

func WithSeverity(level zerolog.Level) Option { return func(c *Config) { c.Severity = level } }

func WithVars(names ...string) Option {
	return func(c *Config) { c.Vars = append([]string(nil), names...) }
}

// WithExpand stretches columns over the full width. It turns Equal off.
func WithExpand(on bool) Option { return func(c *Config) { c.Expand = on } }

// WithEqual sizes every column like the widest item. On by default.
func WithEqual(on bool) Option { return func(c *Config) { c.Equal = on } }

func WithPadding(vertical, horizontal int) Option {
	return func(c *Config) { c.Padding = Padding{Vertical: vertical, Horizontal: horizontal} }
}

// WithLineBreaks shows string attributes as raw text in scope panels.
func WithLineBreaks(on bool) Option { return func(c *Config) { c.LineBreaks = on } }

func WithWidth(width int) Option { return func(c *Config) { c.Width = width } }

func WithColor(on bool) Option { return func(c *Config) { c.color = &on } }

func WithTheme(theme console.Theme) Option { return func(c *Config) { c.Theme = theme } }

// WithWriter redirects output away from stdout.
func WithWriter(w io.Writer) Option { return func(c *Config) { c.Writer = w } }

func newConfig(severity zerolog.Level, opts []Option) Config {
	cfg := Config{
		Severity: severity,
		Equal:    true,
		Padding:  Padding{Vertical: 0, Horizontal: 1},
		Theme:    console.DefaultTheme,
		Writer:   os.Stdout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Expand {
		cfg.Equal = false
	}
	return cfg
}

func (c Config) console() *console.Console {
	var opts []console.Option
	if c.Width > 0 {
		opts = append(opts, console.WithWidth(c.Width))
	}
	if c.color != nil {
		opts = append(opts, console.WithColor(*c.color))
	}
	return console.New(c.Writer, opts...)
}
