package credstore

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hfrankel/cursor-usage-tui/internal/logger"
)

// Watcher reports changes to the state database file. The credential itself
// is never re-derived mid-session; a change only means the host application's
// login state moved and a restart is needed to pick it up.
type Watcher struct {
	watcher       *fsnotify.Watcher
	path          string
	changes       chan struct{}
	stopChan      chan struct{}
	debounceTimer *time.Timer
}

// NewWatcher starts watching the directory containing the state database.
func NewWatcher(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory to catch file replacement, which is how the host
	// application rewrites its store.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, err
	}

	w := &Watcher{
		watcher:  fsw,
		path:     path,
		changes:  make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}

	go w.watchLoop()
	return w, nil
}

// Changes returns a channel that receives a signal after the store file
// changes on disk.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// watchLoop handles file system events with debouncing.
func (w *Watcher) watchLoop() {
	const debounceInterval = 500 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Only care about the store file itself
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) != 0 {
				// Debounce rapid changes
				if w.debounceTimer != nil {
					w.debounceTimer.Stop()
				}
				w.debounceTimer = time.AfterFunc(debounceInterval, w.notify)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("store watcher error", "error", err)

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) notify() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	close(w.stopChan)

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	return w.watcher.Close()
}
