package inventory

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/3cpo-dev/gaxx-rich/pkg/api"
)

// Watcher reloads an inventory file whenever it changes on disk.
type Watcher struct {
	fsys afero.Fs
	path string
	w    *fsnotify.Watcher
}

// NewWatcher starts watching the directory holding path, so editors that
// replace the file by renaming are noticed too.
func NewWatcher(fsys afero.Fs, path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch inventory: %w", err)
	}
	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch inventory: %w", err)
	}
	return &Watcher{fsys: fsys, path: path, w: w}, nil
}

// Run calls fn with the reloaded inventory, or the load error, after every
// change until ctx is done. The watcher is closed on return.
func (w *Watcher) Run(ctx context.Context, fn func(*api.Inventory, error)) error {
	defer w.w.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			log.Debug().Str("path", w.path).Str("op", ev.Op.String()).Msg("inventory changed")
			fn(Load(w.fsys, w.path))
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch inventory: %w", err)
		}
	}
}
