package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3cpo-dev/gaxx-rich/internal/core"
	"github.com/3cpo-dev/gaxx-rich/internal/tasks"
	"github.com/3cpo-dev/gaxx-rich/pkg/api"
)

const testInventory = `
hosts:
  web1:
    hostname: 10.0.0.1
    groups: [web]
  web2:
    hostname: 10.0.0.2
  files:
    hostname: localhost
    platform: local
groups:
  web:
    data:
      role: frontend
`

type harness struct {
	app    *app
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newHarness(t *testing.T, fsys afero.Fs) *harness {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(core.PasswordEnv, "")
	require.NoError(t, afero.WriteFile(fsys, "/inv.yaml", []byte(testInventory), 0o644))
	h := &harness{out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	h.app = &app{
		fs:       fsys,
		out:      h.out,
		errOut:   h.errOut,
		registry: tasks.Builtin(),
		fail:     func() bool { return false },
	}
	return h
}

func (h *harness) run(args ...string) error {
	h.out.Reset()
	h.errOut.Reset()
	root := newRootCmd(h.app)
	root.SetArgs(append([]string{"--color", "never", "--width", "400"}, args...))
	return root.ExecuteContext(context.Background())
}

func TestVersion(t *testing.T) {
	h := newHarness(t, afero.NewMemMapFs())
	require.NoError(t, h.run("version"))
	assert.Contains(t, h.out.String(), "gaxx-rich "+version)
}

func TestVersionIgnoresBrokenConfig(t *testing.T) {
	fsys := afero.NewMemMapFs()
	h := newHarness(t, fsys)
	require.NoError(t, afero.WriteFile(fsys, "/bad.yaml", []byte("runner: [\n"), 0o644))

	require.NoError(t, h.run("--config", "/bad.yaml", "version"))
	err := h.run("--config", "/bad.yaml", "run", "--inventory", "/inv.yaml", "--task", "hello_world")
	assert.ErrorContains(t, err, "parse config")
}

func TestInvalidSeverity(t *testing.T) {
	h := newHarness(t, afero.NewMemMapFs())
	err := h.run("--severity", "loud", "inventory", "--inventory", "/inv.yaml")
	assert.ErrorContains(t, err, "render severity")
}

func TestInit(t *testing.T) {
	h := newHarness(t, afero.NewOsFs())
	dir := core.DefaultConfigDir()

	require.NoError(t, h.run("init"))
	assert.Contains(t, h.out.String(), "wrote default config")
	assert.Contains(t, h.out.String(), "ssh-ed25519 ")
	for _, name := range []string{"config.yaml", "ssh/id_ed25519", "ssh/id_ed25519.pub", "ssh/known_hosts"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	require.NoError(t, h.run("init"))
	assert.NotContains(t, h.out.String(), "wrote default config")
	assert.NotContains(t, h.out.String(), "generated")
}

func TestDemo(t *testing.T) {
	h := newHarness(t, afero.NewMemMapFs())
	require.NoError(t, h.run("demo"))
	out := h.out.String()

	for _, host := range []string{"host1.cmh", "host2.cmh", "spine00.bma"} {
		assert.Contains(t, out, host+" says hello world!")
		assert.Contains(t, out, host+" counted even times!")
		assert.Contains(t, out, host+" says bye!")
	}
	assert.Contains(t, out, `platform = "eos"`)
	assert.NotContains(t, out, "[0 1 2")
	assert.NotContains(t, out, "random exception")
}

func TestDemoFailures(t *testing.T) {
	h := newHarness(t, afero.NewMemMapFs())
	h.app.fail = func() bool { return true }

	require.NoError(t, h.run("demo", "--severity", "debug"))
	assert.Contains(t, h.out.String(), "random exception")
}

func TestRunTask(t *testing.T) {
	h := newHarness(t, afero.NewMemMapFs())

	require.NoError(t, h.run("run", "--inventory", "/inv.yaml", "--task", "hello_world"))
	assert.Contains(t, h.out.String(), "web1 says hello world!")
	assert.Contains(t, h.out.String(), "web2 says hello world!")

	require.NoError(t, h.run("run", "--inventory", "/inv.yaml", "--task", "hello_world", "--hosts", "web2"))
	assert.NotContains(t, h.out.String(), "web1 says")
	assert.Contains(t, h.out.String(), "web2 says hello world!")

	require.NoError(t, h.run("run", "--inventory", "/inv.yaml", "--task", "hello_world", "--group", "web"))
	assert.Contains(t, h.out.String(), "web1 says hello world!")
	assert.NotContains(t, h.out.String(), "web2 says")
}

func TestRunErrors(t *testing.T) {
	h := newHarness(t, afero.NewMemMapFs())

	err := h.run("run", "--inventory", "/inv.yaml")
	assert.ErrorContains(t, err, "need --task or a command")
	err = h.run("run", "--inventory", "/inv.yaml", "--task", "nope")
	assert.EqualError(t, err, "task not registered: nope")
	err = h.run("run", "--inventory", "/missing.yaml", "--task", "hello_world")
	assert.ErrorContains(t, err, "read inventory")
}

func TestRunFailedOnly(t *testing.T) {
	h := newHarness(t, afero.NewMemMapFs())
	h.app.registry.Register("flaky", func(tc *core.TaskContext) (api.Outcome, error) {
		if tc.Host.Name == "web2" {
			return nil, errors.New("kaput")
		}
		return api.NewResult(tc.Host, tc.Name, "fine"), nil
	})

	err := h.run("run", "--inventory", "/inv.yaml", "--task", "flaky", "--failed-only")
	assert.EqualError(t, err, "flaky failed on 1 of 3 hosts")
	assert.Contains(t, h.out.String(), "web2 | flaky")
	assert.Contains(t, h.out.String(), "kaput")
	assert.NotContains(t, h.out.String(), "fine")
}

func TestPushLocalHost(t *testing.T) {
	fsys := afero.NewMemMapFs()
	h := newHarness(t, fsys)
	require.NoError(t, afero.WriteFile(fsys, "/src/motd", []byte("hello\n"), 0o644))

	require.NoError(t, h.run("push", "/src/motd", "/etc/motd.new", "--inventory", "/inv.yaml", "--hosts", "files", "--dry-run", "--vars", "diff"))
	ok, _ := afero.Exists(fsys, "/etc/motd.new")
	assert.False(t, ok)
	assert.Contains(t, h.out.String(), "+hello")

	require.NoError(t, h.run("push", "/src/motd", "/etc/motd", "--inventory", "/inv.yaml", "--hosts", "files"))
	got, err := afero.ReadFile(fsys, "/etc/motd")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(got))
}

func TestInventory(t *testing.T) {
	h := newHarness(t, afero.NewMemMapFs())

	require.NoError(t, h.run("inventory", "--inventory", "/inv.yaml"))
	out := h.out.String()
	assert.Contains(t, out, `hostname = "10.0.0.1"`)
	assert.Contains(t, out, `platform = "local"`)

	require.NoError(t, h.run("inventory", "--inventory", "/inv.yaml", "--vars", "hostname"))
	assert.Contains(t, h.out.String(), `hostname = "10.0.0.2"`)
	assert.NotContains(t, h.out.String(), "platform")
}
