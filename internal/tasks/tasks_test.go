package tasks

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xssh "golang.org/x/crypto/ssh"

	"github.com/3cpo-dev/gaxx-rich/internal/core"
	"github.com/3cpo-dev/gaxx-rich/pkg/api"
)

func demoRunner() *core.Runner {
	return core.NewRunner(api.NewInventory(
		&api.Host{Name: "host1.cmh", Hostname: "10.0.0.1"},
		&api.Host{Name: "host2.cmh", Hostname: "10.0.0.2"},
	), core.WithWorkers(2))
}

func TestRegistry(t *testing.T) {
	r := Builtin()
	assert.Equal(t, []string{"greet_and_count", "hello_world"}, r.Names())

	_, err := r.Get("hello_world")
	require.NoError(t, err)
	_, err = r.Get("missing")
	assert.EqualError(t, err, "task not registered: missing")

	r.Register("noop", func(*core.TaskContext) (api.Outcome, error) { return nil, nil })
	assert.Contains(t, r.Names(), "noop")
}

func TestHelloWorld(t *testing.T) {
	agg, err := demoRunner().Run(context.Background(), "hello_world", HelloWorld)
	require.NoError(t, err)
	g, _ := agg.Get("host2.cmh")
	assert.Equal(t, "host2.cmh says hello world!", g.Results()[0].Payload())
	assert.False(t, agg.Failed())
}

func TestGreetAndCount(t *testing.T) {
	tests := []struct {
		name   string
		number int
		parity string
	}{
		{"even", 10, "even"},
		{"odd", 3, "odd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, err := demoRunner().Run(context.Background(), "greet_and_count", GreetAndCount(tt.number, nil))
			require.NoError(t, err)
			g, _ := agg.Get("host1.cmh")
			results := g.Results()
			require.Len(t, results, 4)

			assert.Equal(t, "host1.cmh counted "+tt.parity+" times!", results[0].Payload())
			assert.Equal(t, "host1.cmh says hi!", results[1].Payload())
			assert.Equal(t, "Counting beans", results[2].Name())
			assert.Equal(t, zerolog.DebugLevel, results[2].Severity())
			assert.Equal(t, "host1.cmh says bye!", results[3].Payload())
			assert.False(t, g.Failed())
		})
	}
}

func TestGreetAndCountStopsOnFailedCount(t *testing.T) {
	failing := func() bool { return true }
	agg, err := demoRunner().Run(context.Background(), "greet_and_count", GreetAndCount(4, failing))
	require.NoError(t, err)
	g, _ := agg.Get("host1.cmh")
	results := g.Results()
	require.Len(t, results, 3)

	assert.True(t, g.Failed())
	assert.EqualError(t, results[0].Exception(), "subtask Counting beans failed")
	assert.Equal(t, zerolog.ErrorLevel, results[0].Severity())
	assert.Equal(t, "host1.cmh says hi!", results[1].Payload())
	assert.Equal(t, "Counting beans", results[2].Name())
	assert.EqualError(t, results[2].Exception(), "random exception")
	assert.Equal(t, zerolog.ErrorLevel, results[2].Severity())
}

func TestCount(t *testing.T) {
	agg, err := demoRunner().Run(context.Background(), "count", Count(3, nil))
	require.NoError(t, err)
	g, _ := agg.Get("host1.cmh")
	assert.Equal(t, "[0 1 2]", g.Results()[0].Payload())
}

func TestRandomFailure(t *testing.T) {
	always := RandomFailure(1)
	assert.True(t, always())
	f := RandomFailure(5)
	for i := 0; i < 50; i++ {
		_ = f()
	}
}

func TestConnectorClient(t *testing.T) {
	c := Connector{User: "gx", Port: 2200, Password: "default"}
	cli := c.Client(&api.Host{Hostname: "10.0.0.1"})
	assert.Equal(t, "10.0.0.1:2200", cli.Addr)
	assert.Equal(t, "gx", cli.User)
	assert.Equal(t, "default", cli.Password)

	cli = c.Client(&api.Host{Hostname: "::1", Port: 22, Username: "root", Password: "own"})
	assert.Equal(t, "[::1]:22", cli.Addr)
	assert.Equal(t, "root", cli.User)
	assert.Equal(t, "own", cli.Password)

	assert.Equal(t, "h:22", Connector{}.Client(&api.Host{Hostname: "h"}).Addr)
}

type refusingDialer struct{}

func (refusingDialer) DialContext(context.Context, string, string) (net.Conn, error) {
	return nil, errors.New("connection refused")
}

func TestCommandTransportFailure(t *testing.T) {
	c := Connector{Password: "pw", KnownHosts: xssh.InsecureIgnoreHostKey(), Dialer: refusingDialer{}}
	agg, err := demoRunner().Run(context.Background(), "uptime", Command(c, "uptime", "-p"))
	require.NoError(t, err)
	g, _ := agg.Get("host1.cmh")
	res := g.Results()[0].(*api.CommandResult)
	assert.True(t, res.Failed())
	assert.Equal(t, "uptime -p", res.Command().Line)
	assert.ErrorContains(t, res.Exception(), "connection refused")
	assert.Equal(t, zerolog.ErrorLevel, res.Severity())
}

func TestPushTask(t *testing.T) {
	local := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(local, "/motd", []byte("welcome\n"), 0o644))
	remotes := map[string]afero.Fs{}
	open := func(_ context.Context, h *api.Host) (core.RemoteFS, func() error, error) {
		if h.Name == "host2.cmh" {
			return nil, nil, errors.New("unreachable")
		}
		fs := afero.NewMemMapFs()
		remotes[h.Name] = fs
		return core.AferoRemote{Fs: fs}, func() error { return nil }, nil
	}

	agg, err := demoRunner().Run(context.Background(), "push motd", Push(open, local, core.Push{Src: "/motd", Dst: "/etc/motd"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"host2.cmh"}, agg.FailedHosts().Hosts())

	g, _ := agg.Get("host1.cmh")
	assert.True(t, g.Changed())
	got, err := afero.ReadFile(remotes["host1.cmh"], "/etc/motd")
	require.NoError(t, err)
	assert.Equal(t, "welcome\n", string(got))

	g, _ = agg.Get("host2.cmh")
	assert.ErrorContains(t, g.Results()[0].Exception(), "open host2.cmh: unreachable")
}

func TestOpenRemoteLocal(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := Connector{Local: fs}
	remote, release, err := c.OpenRemote(context.Background(), &api.Host{Name: "me", Platform: LocalPlatform})
	require.NoError(t, err)
	require.NoError(t, remote.WriteFile("/tmp/x", []byte("x"), 0o600))
	require.NoError(t, release())
	ok, _ := afero.Exists(fs, "/tmp/x")
	assert.True(t, ok)
}
