package core

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/afero"

	"github.com/3cpo-dev/gaxx-rich/pkg/api"
)

// RemoteFS is the part of a remote filesystem a push needs. ReadFile must
// return an error matching fs.ErrNotExist for missing files.
type RemoteFS interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// AferoRemote serves RemoteFS from an afero filesystem, used for hosts on
// the local connection.
type AferoRemote struct{ Fs afero.Fs }

func (a AferoRemote) ReadFile(name string) ([]byte, error) {
	return afero.ReadFile(a.Fs, name)
}

func (a AferoRemote) WriteFile(name string, data []byte, perm os.FileMode) error {
	if err := a.Fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(a.Fs, name, data, perm)
}

// Push describes one file copy.
type Push struct {
	Src    string
	Dst    string
	Mode   os.FileMode
	DryRun bool
}

// PushFile copies Src from local to Dst on remote when the contents differ.
// The result carries a unified diff, is marked changed when the remote file
// differs, and is verified by reading the file back and comparing checksums.
func PushFile(local afero.Fs, remote RemoteFS, host *api.Host, name string, p Push) (*api.Result, error) {
	want, err := afero.ReadFile(local, p.Src)
	if err != nil {
		return nil, fmt.Errorf("read local file: %w", err)
	}
	have, err := remote.ReadFile(p.Dst)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read remote file: %w", err)
	}

	sum := checksum(want)
	payload := map[string]any{"path": p.Dst, "sha256": sum, "bytes": len(want)}
	if err == nil && bytes.Equal(have, want) {
		return api.NewResult(host, name, payload), nil
	}

	diff, err := unifiedDiff(p.Dst, have, want)
	if err != nil {
		return nil, fmt.Errorf("diff %s: %w", p.Dst, err)
	}
	if p.DryRun {
		return api.NewResult(host, name, payload, api.WithDiff(diff), api.WithChanged(true)), nil
	}

	mode := p.Mode
	if mode == 0 {
		mode = 0o644
	}
	if err := remote.WriteFile(p.Dst, want, mode); err != nil {
		return nil, fmt.Errorf("write remote file: %w", err)
	}
	if err := verifyChecksum(remote, p.Dst, sum); err != nil {
		return nil, err
	}
	return api.NewResult(host, name, payload, api.WithDiff(diff), api.WithChanged(true)), nil
}

func checksum(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

func verifyChecksum(remote RemoteFS, name, want string) error {
	got, err := remote.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read back %s: %w", name, err)
	}
	if sum := checksum(got); sum != want {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", name, want, sum)
	}
	return nil
}

func unifiedDiff(name string, a, b []byte) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(a),
		B:        splitLines(b),
		FromFile: name,
		ToFile:   name,
		Context:  3,
	})
}

func splitLines(b []byte) []string {
	if len(b) == 0 {
		return nil
	}
	return difflib.SplitLines(string(b))
}
