package docstore

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/edudash-hub/edudash-engine/pkg/logger"
)

// ReloadWatcher watches the document file for replacement from outside this
// process (a restored backup copied over the file, a sync tool, an editor)
// and invokes the callback after the writes settle. The store's own atomic
// renames also trigger events; callers are expected to pair this with
// Store.Reload, which is a no-op when the bytes match the in-memory state.
type ReloadWatcher struct {
	path     string
	debounce time.Duration
	onChange func()
	log      *logger.Logger
	watcher  *fsnotify.Watcher
}

// NewReloadWatcher creates a watcher for the given document path.
func NewReloadWatcher(path string, debounce time.Duration, onChange func(), log *logger.Logger) (*ReloadWatcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if log == nil {
		log = logger.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: renames over the file would otherwise detach
	// a direct file watch.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	return &ReloadWatcher{
		path:     path,
		debounce: debounce,
		onChange: onChange,
		log:      log.With(logger.Component("storewatch")),
		watcher:  fsw,
	}, nil
}

// Run processes filesystem events until the context is cancelled.
func (w *ReloadWatcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", logger.Err(err))
		}
	}
}
