package factstore

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher invalidates the store's cached parse when the file is modified
// outside the store's own write path, so a fetch after a hand edit re-reads
// from disk.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger
	store    *Store
	debounce time.Duration
	timer    *time.Timer
	stopCh   chan struct{}
}

// NewWatcher creates and starts a watcher over the store's file. It watches
// the containing directory, since the file may not exist yet.
func NewWatcher(logger zerolog.Logger, store *Store) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  watcher,
		logger:   logger,
		store:    store,
		debounce: 200 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}

	if err := watcher.Add(filepath.Dir(store.Path())); err != nil {
		watcher.Close()
		return nil, err
	}

	go w.run()

	return w, nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	return w.watcher.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != filepath.Clean(w.store.Path()) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				w.logger.Debug().
					Str("op", event.Op.String()).
					Msg("Fact store changed on disk")

				w.scheduleMarkDirty()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Fact store watcher error")

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) scheduleMarkDirty() {
	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		w.store.MarkDirty()
	})
}
