package ssh

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xssh "golang.org/x/crypto/ssh"
)

func testClient(addr string, key xssh.PublicKey) *Client {
	return &Client{
		Addr:       addr,
		User:       "gx",
		Password:   "pw",
		KnownHosts: xssh.FixedHostKey(key),
		Timeout:    5 * time.Second,
		Backoff:    time.Millisecond,
	}
}

func TestRunCommand(t *testing.T) {
	addr, key := serveSSH(t, func(cmd string) (string, string, uint32) {
		switch cmd {
		case "uptime":
			return "up 3 days\n", "", 0
		default:
			return "", cmd + ": not found\n", 127
		}
	})
	c := testClient(addr, key)

	out, err := c.RunCommand(context.Background(), "uptime")
	require.NoError(t, err)
	assert.Equal(t, "up 3 days\n", out.Stdout)
	assert.Empty(t, out.Stderr)
	assert.Equal(t, 0, out.ExitCode)

	out, err = c.RunCommand(context.Background(), "frobnicate")
	require.NoError(t, err)
	assert.Equal(t, "frobnicate: not found\n", out.Stderr)
	assert.Equal(t, 127, out.ExitCode)
}

func TestRunCommandAuthFailure(t *testing.T) {
	addr, key := serveSSH(t, func(string) (string, string, uint32) { return "", "", 0 })
	c := testClient(addr, key)
	c.Password = "wrong"
	_, err := c.RunCommand(context.Background(), "true")
	assert.ErrorContains(t, err, "ssh dial")
}

func TestRunCommandHostKeyMismatch(t *testing.T) {
	addr, _ := serveSSH(t, func(string) (string, string, uint32) { return "", "", 0 })
	_, other := serveSSH(t, func(string) (string, string, uint32) { return "", "", 0 })
	_, err := testClient(addr, other).RunCommand(context.Background(), "true")
	assert.Error(t, err)
}

type failingDialer struct{ calls int }

func (d *failingDialer) DialContext(context.Context, string, string) (net.Conn, error) {
	d.calls++
	return nil, errors.New("connection refused")
}

func TestDialRetries(t *testing.T) {
	d := &failingDialer{}
	c := &Client{
		Addr:       "192.0.2.1:22",
		User:       "gx",
		Password:   "pw",
		KnownHosts: xssh.InsecureIgnoreHostKey(),
		Retries:    2,
		Backoff:    time.Millisecond,
		Dialer:     d,
	}
	_, err := Dial(context.Background(), c)
	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, 3, d.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Dial(ctx, c)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMakeConfig(t *testing.T) {
	_, err := (&Client{KnownHosts: xssh.InsecureIgnoreHostKey()}).makeConfig()
	assert.ErrorContains(t, err, "signer or password required")

	_, err = (&Client{Password: "pw"}).makeConfig()
	assert.ErrorContains(t, err, "host key callback required")

	cfg, err := (&Client{User: "gx", Password: "pw", KnownHosts: xssh.InsecureIgnoreHostKey()}).makeConfig()
	require.NoError(t, err)
	assert.Equal(t, "gx", cfg.User)
	assert.Len(t, cfg.Auth, 1)
}

func TestSFTPReadWrite(t *testing.T) {
	addr, key := serveSSH(t, func(string) (string, string, uint32) { return "", "", 0 })
	conn, err := Dial(context.Background(), testClient(addr, key))
	require.NoError(t, err)
	defer conn.Close()

	sf, err := NewSFTP(conn)
	require.NoError(t, err)
	defer sf.Close()

	target := filepath.ToSlash(filepath.Join(t.TempDir(), "etc", "motd"))
	_, err = sf.ReadFile(target)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, sf.WriteFile(target, []byte("hello\n"), 0o640))
	got, err := sf.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(got))

	require.NoError(t, sf.WriteFile(target, []byte("hi"), 0o640))
	got, err = sf.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hi", strings.TrimSpace(string(got)))

	st, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), st.Mode().Perm())
}
