package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/3cpo-dev/gaxx-rich/internal/core"
	"github.com/3cpo-dev/gaxx-rich/internal/tasks"
)

// Commands annotated with configAnnotation=configOptional run on the
// defaults when the config file cannot be loaded.
const (
	configAnnotation = "config"
	configOptional   = "optional"
)

var (
	version   = "0.3.0"
	commit    = ""
	buildDate = ""
)

// app carries what every subcommand needs; tests swap the filesystem and
// writers.
type app struct {
	fs       afero.Fs
	out      io.Writer
	errOut   io.Writer
	cfg      core.Config
	registry *tasks.Registry
	fail     func() bool
}

func newApp() *app {
	return &app{
		fs:       afero.NewOsFs(),
		out:      os.Stdout,
		errOut:   os.Stderr,
		registry: tasks.Builtin(),
		fail:     tasks.RandomFailure(5),
	}
}

// Create the root command
func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gaxx-rich",
		Short: "gaxx-rich: run tasks over a host inventory and print the results as rich panels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	cmd.PersistentFlags().StringP("log", "l", "info", "Set log level. Available: trace, debug, info, warn, error, fatal")
	cmd.PersistentFlags().String("config", "", "config file")
	cmd.PersistentFlags().String("severity", "", "lowest result severity to print (overrides render.severity)")
	cmd.PersistentFlags().String("color", "", "auto, always or never (overrides render.color)")
	cmd.PersistentFlags().Int("width", 0, "console width, 0 to detect")

	cmd.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		levelStr, _ := c.Flags().GetString("log")
		switch levelStr {
		case "trace":
			zerolog.SetGlobalLevel(zerolog.TraceLevel)
		case "debug":
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		case "info":
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		case "warn":
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		case "error":
			zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		case "fatal":
			zerolog.SetGlobalLevel(zerolog.FatalLevel)
		default:
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}

		cfgPath, _ := c.Flags().GetString("config")
		cfg, err := core.LoadConfig(a.fs, cfgPath)
		if err != nil {
			if c.Annotations[configAnnotation] != configOptional {
				return err
			}
			log.Debug().Err(err).Msg("using default config")
			cfg = core.DefaultConfig()
		}
		if s, _ := c.Flags().GetString("severity"); s != "" {
			cfg.Render.Severity = s
		}
		if s, _ := c.Flags().GetString("color"); s != "" {
			cfg.Render.Color = s
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		a.cfg = cfg
		return nil
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newInitCmd(a))
	cmd.AddCommand(newDemoCmd(a))
	cmd.AddCommand(newRunCmd(a))
	cmd.AddCommand(newPushCmd(a))
	cmd.AddCommand(newInventoryCmd(a))
	return cmd
}

// Create the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{configAnnotation: configOptional},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gaxx-rich %s (%s) %s\n", version, commit, buildDate)
		},
	}
}

// Setup the logger
func setupLogger() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Main entry point
func main() {
	setupLogger()
	root := newRootCmd(newApp())
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	root.SetContext(ctx)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
