package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/3cpo-dev/gaxx-rich/internal/core"
	"github.com/3cpo-dev/gaxx-rich/internal/inventory"
	gssh "github.com/3cpo-dev/gaxx-rich/internal/ssh"
	"github.com/3cpo-dev/gaxx-rich/internal/tasks"
	"github.com/3cpo-dev/gaxx-rich/pkg/api"
	"github.com/3cpo-dev/gaxx-rich/pkg/progress"
	"github.com/3cpo-dev/gaxx-rich/pkg/rich"
)

const demoInventory = `
defaults:
  username: gx
  data:
    site: cmh
groups:
  cmh:
    platform: linux
  bma:
    platform: eos
    data:
      site: bma
hosts:
  host1.cmh:
    hostname: 10.0.1.1
    groups: [cmh]
  host2.cmh:
    hostname: 10.0.1.2
    groups: [cmh]
  spine00.bma:
    hostname: 10.0.2.1
    groups: [bma]
`

// printOptions turns the render config and flags into printer options.
func (a *app) printOptions(cmd *cobra.Command) ([]rich.Option, error) {
	lvl, err := a.cfg.Render.Level()
	if err != nil {
		return nil, err
	}
	opts := []rich.Option{
		rich.WithWriter(a.out),
		rich.WithSeverity(lvl),
		rich.WithExpand(a.cfg.Render.Expand),
		rich.WithEqual(a.cfg.Render.Equal),
		rich.WithLineBreaks(a.cfg.Render.LineBreaks),
	}
	switch a.cfg.Render.Color {
	case "always":
		opts = append(opts, rich.WithColor(true))
	case "never":
		opts = append(opts, rich.WithColor(false))
	}
	if w, _ := cmd.Flags().GetInt("width"); w > 0 {
		opts = append(opts, rich.WithWidth(w))
	}
	if cmd.Flags().Lookup("vars") != nil {
		if vars, _ := cmd.Flags().GetStringSlice("vars"); len(vars) > 0 {
			opts = append(opts, rich.WithVars(vars...))
		}
	}
	return opts, nil
}

func with(opts []rich.Option, extra ...rich.Option) []rich.Option {
	return append(slices.Clip(opts), extra...)
}

func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().String("inventory", "", "inventory file (defaults to inventory.path)")
	cmd.Flags().StringSlice("hosts", nil, "only these hosts")
	cmd.Flags().String("group", "", "only hosts in this group")
	cmd.Flags().Int("workers", 0, "worker pool size (defaults to runner.workers)")
	cmd.Flags().Bool("progress", false, "show live progress bars on stderr")
}

func addPrintFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("vars", nil, "result attributes to show instead of the payload")
	cmd.Flags().Bool("failed-only", false, "print only the hosts that failed")
}

func (a *app) loadInventory(cmd *cobra.Command) (*api.Inventory, error) {
	path, _ := cmd.Flags().GetString("inventory")
	if path == "" {
		path = a.cfg.Inventory.Path
	}
	return inventory.Load(a.fs, path)
}

// newRunner builds a runner over the selected hosts.
func (a *app) newRunner(cmd *cobra.Command, inv *api.Inventory) *core.Runner {
	workers, _ := cmd.Flags().GetInt("workers")
	if workers <= 0 {
		workers = a.cfg.Runner.Workers
	}
	opts := []core.Option{core.WithWorkers(workers)}
	if on, _ := cmd.Flags().GetBool("progress"); on {
		opts = append(opts, core.WithProcessors(progress.New(progress.WithOutput(a.errOut))))
	}
	r := core.NewRunner(inv, opts...)

	hosts, _ := cmd.Flags().GetStringSlice("hosts")
	group, _ := cmd.Flags().GetString("group")
	if len(hosts) == 0 && group == "" {
		return r
	}
	return r.Filter(func(h *api.Host) bool {
		if len(hosts) > 0 && !slices.Contains(hosts, h.Name) {
			return false
		}
		return group == "" || slices.Contains(h.Groups, group)
	})
}

// execute runs task, spinning on a terminal when no progress bar is shown.
func (a *app) execute(cmd *cobra.Command, r *core.Runner, name string, task core.Task) (*api.AggregatedResult, error) {
	if on, _ := cmd.Flags().GetBool("progress"); !on {
		if f, ok := a.errOut.(*os.File); ok {
			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriterFile(f))
			s.Suffix = fmt.Sprintf(" %s on %d hosts", name, r.Inventory().Len())
			s.Start()
			defer s.Stop()
		}
	}
	agg, err := r.Run(cmd.Context(), name, task)
	stats := r.Metrics().Stats()
	log.Debug().Str("task", name).Int64("hosts", stats.Hosts).Int64("failures", stats.Failures).Dur("took", stats.Duration).Msg("task done")
	return agg, err
}

// report prints agg and fails when any host failed.
func (a *app) report(cmd *cobra.Command, agg *api.AggregatedResult) error {
	opts, err := a.printOptions(cmd)
	if err != nil {
		return err
	}
	if failedOnly, _ := cmd.Flags().GetBool("failed-only"); failedOnly {
		err = rich.PrintFailedHosts(agg, opts...)
	} else {
		err = rich.PrintResult(agg, opts...)
	}
	if err != nil {
		return err
	}
	if n := agg.FailedHosts().Len(); n > 0 {
		return fmt.Errorf("%s failed on %d of %d hosts", agg.Name(), n, agg.Len())
	}
	return nil
}

// connector builds SSH settings from the config. A missing key file is
// fine when a password is available.
func (a *app) connector() (tasks.Connector, error) {
	ssh := a.cfg.SSH
	c := tasks.Connector{
		User:     ssh.User,
		Port:     ssh.Port,
		Password: ssh.Password,
		Timeout:  time.Duration(ssh.TimeoutSeconds) * time.Second,
		Retries:  ssh.Retries,
		Local:    a.fs,
	}
	signer, err := gssh.LoadPrivateKeySigner(a.fs, ssh.KeyPath)
	switch {
	case err == nil:
		c.Signer = signer
	case errors.Is(err, fs.ErrNotExist):
		log.Debug().Str("path", ssh.KeyPath).Msg("no ssh key, using password auth")
	default:
		return c, err
	}
	if ssh.TrustOnFirstUse {
		c.KnownHosts, err = gssh.TrustOnFirstUse(ssh.KnownHosts)
	} else {
		c.KnownHosts, err = gssh.LoadKnownHostsCallback(ssh.KnownHosts)
	}
	if err != nil {
		return c, fmt.Errorf("known hosts: %w", err)
	}
	return c, nil
}

// Initialize configuration, SSH key and known_hosts
func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "init",
		Short:       "Create the default config, an SSH key and the known_hosts file. Run this the first time.",
		Annotations: map[string]string{configAnnotation: configOptional},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = filepath.Join(core.DefaultConfigDir(), "config.yaml")
			}
			wrote, err := core.WriteDefault(a.fs, path)
			if err != nil {
				return err
			}
			if wrote {
				fmt.Fprintf(out, "wrote default config to %s\n", path)
			}
			if a.cfg, err = core.LoadConfig(a.fs, path); err != nil {
				return err
			}

			key := a.cfg.SSH.KeyPath
			if ok, _ := afero.Exists(a.fs, key); !ok {
				pub, err := gssh.GenerateEd25519Keypair(a.fs, key)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "generated %s\n%s", key, pub)
			}
			if err := gssh.EnsureKnownHostsFile(a.cfg.SSH.KnownHosts); err != nil {
				return err
			}
			fmt.Fprintf(out, "known hosts at %s\n", a.cfg.SSH.KnownHosts)
			return nil
		},
	}
}

// Run the demo workflow against an in-memory inventory
func newDemoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the demo tasks and print every kind of panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := inventory.Parse([]byte(demoInventory))
			if err != nil {
				return err
			}
			opts, err := a.printOptions(cmd)
			if err != nil {
				return err
			}
			r := a.newRunner(cmd, inv)

			agg, err := a.execute(cmd, r, "hello_world", tasks.HelloWorld)
			if err != nil {
				return err
			}
			if err := rich.PrintResult(agg, with(opts, rich.WithExpand(true))...); err != nil {
				return err
			}

			agg, err = a.execute(cmd, r, "greet_and_count", tasks.GreetAndCount(10, a.fail))
			if err != nil {
				return err
			}
			if err := rich.PrintResult(agg, opts...); err != nil {
				return err
			}
			vars := rich.WithVars("diff", "result", "name", "exception", "severity_level")
			if err := rich.PrintResult(agg, with(opts, vars)...); err != nil {
				return err
			}
			if err := rich.PrintFailedHosts(agg, opts...); err != nil {
				return err
			}
			return rich.PrintInventory(r, opts...)
		},
	}
	cmd.Flags().Int("workers", 0, "worker pool size (defaults to runner.workers)")
	cmd.Flags().Bool("progress", false, "show live progress bars on stderr")
	return cmd
}

// Run a registered task or a shell command on the inventory
func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [-- command args...]",
		Short: "Run a registered task, or a command over SSH, on every host",
		RunE: func(cmd *cobra.Command, args []string) error {
			taskName, _ := cmd.Flags().GetString("task")
			if taskName == "" && len(args) == 0 {
				return fmt.Errorf("need --task or a command; registered tasks: %s", strings.Join(a.registry.Names(), ", "))
			}
			inv, err := a.loadInventory(cmd)
			if err != nil {
				return err
			}

			var task core.Task
			name := taskName
			if taskName != "" {
				if task, err = a.registry.Get(taskName); err != nil {
					return err
				}
			} else {
				conn, err := a.connector()
				if err != nil {
					return err
				}
				task = tasks.Command(conn, args...)
				name = tasks.BuildCommand(args...)
			}

			agg, err := a.execute(cmd, a.newRunner(cmd, inv), name, task)
			if err != nil {
				return err
			}
			return a.report(cmd, agg)
		},
	}
	cmd.Flags().String("task", "", "registered task to run")
	addTargetFlags(cmd)
	addPrintFlags(cmd)
	return cmd
}

// Push a file to every host
func newPushCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push SRC DST",
		Short: "Copy a local file to every host over SFTP, showing a diff of what changed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := a.loadInventory(cmd)
			if err != nil {
				return err
			}
			conn, err := a.connector()
			if err != nil {
				return err
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			mode, _ := cmd.Flags().GetUint32("mode")
			p := core.Push{Src: args[0], Dst: args[1], Mode: os.FileMode(mode), DryRun: dryRun}

			agg, err := a.execute(cmd, a.newRunner(cmd, inv), "push "+p.Dst, tasks.Push(conn.OpenRemote, a.fs, p))
			if err != nil {
				return err
			}
			return a.report(cmd, agg)
		},
	}
	cmd.Flags().Bool("dry-run", false, "only show what would change")
	cmd.Flags().Uint32("mode", 0o644, "file mode for the remote file")
	addTargetFlags(cmd)
	addPrintFlags(cmd)
	return cmd
}

// Show the inventory
func newInventoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Print the inventory as one panel per host",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.printOptions(cmd)
			if err != nil {
				return err
			}
			inv, err := a.loadInventory(cmd)
			if err != nil {
				return err
			}
			if err := rich.PrintInventory(inv, opts...); err != nil {
				return err
			}
			if watch, _ := cmd.Flags().GetBool("watch"); !watch {
				return nil
			}

			path, _ := cmd.Flags().GetString("inventory")
			if path == "" {
				path = a.cfg.Inventory.Path
			}
			w, err := inventory.NewWatcher(a.fs, path)
			if err != nil {
				return err
			}
			return w.Run(cmd.Context(), func(inv *api.Inventory, err error) {
				if err != nil {
					log.Warn().Err(err).Msg("inventory reload failed")
					return
				}
				if err := rich.PrintInventory(inv, opts...); err != nil {
					log.Warn().Err(err).Msg("print inventory")
				}
			})
		},
	}
	cmd.Flags().String("inventory", "", "inventory file (defaults to inventory.path)")
	cmd.Flags().StringSlice("vars", nil, "host attributes to show")
	cmd.Flags().Bool("watch", false, "reprint whenever the inventory file changes")
	return cmd
}
