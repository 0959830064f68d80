package indexing

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/logging"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

// Watcher drives workspace/didChangeWatchedFiles-equivalent reindexing for
// files edited outside the editor (a `git checkout`, a code-gen run, a
// second editor window), debounced per §6 Configuration's
// index.watch_debounce_ms so a burst of saves from a formatter doesn't
// trigger one reindex per file.
type Watcher struct {
	fsw     *fsnotify.Watcher
	debounce time.Duration
	coord   *Coordinator
}

// NewWatcher starts watching root (recursively) for create/write/remove
// events. The caller must call Close when done.
func NewWatcher(coord *Coordinator, root string, debounceMs int) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := addRecursive(fsw, root); err != nil {
		fsw.Close()
		return nil, err
	}
	d := time.Duration(debounceMs) * time.Millisecond
	if d <= 0 {
		d = 300 * time.Millisecond
	}
	return &Watcher{fsw: fsw, debounce: d, coord: coord}, nil
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

// Run processes watch events until ctx is cancelled, coalescing rapid
// repeated events per file within the debounce window (§5 "incremental
// reindex... is instead coalesced").
func (w *Watcher) Run(ctx context.Context) {
	pending := map[string]*time.Timer{}
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !isRubySource(ev.Name) {
				continue
			}
			path := ev.Name
			if t, exists := pending[path]; exists {
				t.Stop()
			}
			pending[path] = time.AfterFunc(w.debounce, func() {
				w.handleEvent(ctx, ev)
			})
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Warnf("watch: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	handle := types.FileHandle(w.coord.in.URIs.Intern(ev.Name))
	if ev.Op&fsnotify.Remove != 0 || ev.Op&fsnotify.Rename != 0 {
		w.coord.store.RemoveFile(handle)
		return
	}
	source, err := os.ReadFile(ev.Name)
	if err != nil {
		return // file briefly absent mid-write; next event will retry
	}
	if err := w.coord.ReindexFile(ctx, handle, ev.Name, source); err != nil {
		logging.Warnf("watch: reindex %s: %v", ev.Name, err)
	}
}

// Close stops watching and releases the underlying OS resources.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func isRubySource(path string) bool {
	n := len(path)
	return n > 3 && path[n-3:] == ".rb"
}
