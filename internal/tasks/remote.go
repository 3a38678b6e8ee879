package tasks

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	xssh "golang.org/x/crypto/ssh"

	"github.com/3cpo-dev/gaxx-rich/internal/core"
	gssh "github.com/3cpo-dev/gaxx-rich/internal/ssh"
	"github.com/3cpo-dev/gaxx-rich/pkg/api"
)

// LocalPlatform marks hosts whose files are reached through the local
// filesystem instead of SFTP.
const LocalPlatform = "local"

// Connector turns inventory hosts into SSH clients. Host attributes win over
// the connector's defaults.
type Connector struct {
	User       string
	Port       int
	Password   string
	Signer     xssh.Signer
	KnownHosts xssh.HostKeyCallback
	Timeout    time.Duration
	Retries    int
	Dialer     gssh.Dialer
	// Local serves hosts on LocalPlatform; the OS filesystem when nil.
	Local afero.Fs
}

func (c Connector) Client(h *api.Host) *gssh.Client {
	user, password, port := h.Username, h.Password, h.Port
	if user == "" {
		user = c.User
	}
	if password == "" {
		password = c.Password
	}
	if port == 0 {
		port = c.Port
	}
	if port == 0 {
		port = 22
	}
	return &gssh.Client{
		Addr:       net.JoinHostPort(h.Hostname, strconv.Itoa(port)),
		User:       user,
		Password:   password,
		Signer:     c.Signer,
		KnownHosts: c.KnownHosts,
		Timeout:    c.Timeout,
		Retries:    c.Retries,
		Dialer:     c.Dialer,
	}
}

// OpenRemote returns the filesystem of h and a function releasing it.
func (c Connector) OpenRemote(ctx context.Context, h *api.Host) (core.RemoteFS, func() error, error) {
	if h.Platform == LocalPlatform {
		fsys := c.Local
		if fsys == nil {
			fsys = afero.NewOsFs()
		}
		return core.AferoRemote{Fs: fsys}, func() error { return nil }, nil
	}
	conn, err := gssh.Dial(ctx, c.Client(h))
	if err != nil {
		return nil, nil, err
	}
	sf, err := gssh.NewSFTP(conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return sf, func() error {
		sf.Close()
		return conn.Close()
	}, nil
}

// Command runs a shell command line on every host.
func Command(c Connector, args ...string) core.Task {
	line := BuildCommand(args...)
	return func(tc *core.TaskContext) (api.Outcome, error) {
		out, err := c.Client(tc.Host).RunCommand(tc.Context(), line)
		cmd := api.Command{Line: line, Stdout: out.Stdout, Stderr: out.Stderr, ExitCode: out.ExitCode, Duration: out.Duration}
		if err != nil {
			return api.NewCommandResult(tc.Host, tc.Name, cmd, api.WithException(err)), nil
		}
		return api.NewCommandResult(tc.Host, tc.Name, cmd), nil
	}
}

// BuildCommand joins a command and its arguments into one line.
func BuildCommand(args ...string) string {
	return strings.Join(args, " ")
}

// Opener opens the filesystem of a host; Connector.OpenRemote is one.
type Opener func(ctx context.Context, h *api.Host) (core.RemoteFS, func() error, error)

// Push copies a local file to every host.
func Push(open Opener, local afero.Fs, p core.Push) core.Task {
	return func(tc *core.TaskContext) (api.Outcome, error) {
		remote, release, err := open(tc.Context(), tc.Host)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", tc.Host, err)
		}
		defer release()
		res, err := core.PushFile(local, remote, tc.Host, tc.Name, p)
		if err != nil {
			return nil, err
		}
		return res, nil
	}
}
