package ssh

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/pkg/sftp"
	xssh "golang.org/x/crypto/ssh"
)

// SFTP reads and writes whole files on a remote host.
type SFTP struct {
	client *sftp.Client
}

// NewSFTP opens an SFTP session over an established connection.
func NewSFTP(conn *xssh.Client) (*SFTP, error) {
	sf, err := sftp.NewClient(conn)
	if err != nil {
		return nil, fmt.Errorf("sftp client: %w", err)
	}
	return &SFTP{client: sf}, nil
}

func (s *SFTP) Close() error { return s.client.Close() }

// ReadFile returns the content of a remote file. Missing files yield an
// error matching os.ErrNotExist.
func (s *SFTP) ReadFile(name string) ([]byte, error) {
	f, err := s.client.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// WriteFile creates or truncates a remote file, creating parent directories.
func (s *SFTP) WriteFile(name string, data []byte, perm os.FileMode) error {
	if err := s.client.MkdirAll(path.Dir(name)); err != nil {
		return fmt.Errorf("mkdir remote: %w", err)
	}
	f, err := s.client.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("create remote: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write remote: %w", err)
	}
	if err := f.Chmod(perm); err != nil {
		f.Close()
		return fmt.Errorf("chmod remote: %w", err)
	}
	return f.Close()
}
