package models

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// CatalogWatcher reloads a file-backed catalog when the file changes.
// Editors and atomic writers produce bursts of events, so reloads are
// debounced.
type CatalogWatcher struct {
	catalog  *Catalog
	watcher  *fsnotify.Watcher
	debounce time.Duration
	timer    *time.Timer
	timerMu  sync.Mutex
	done     chan struct{}
	stopOnce sync.Once
}

// NewCatalogWatcher creates a watcher for the catalog's backing file.
func NewCatalogWatcher(catalog *Catalog, debounce time.Duration) (*CatalogWatcher, error) {
	if catalog.Path() == "" {
		return nil, fmt.Errorf("catalog has no backing file to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if debounce == 0 {
		debounce = 200 * time.Millisecond
	}

	return &CatalogWatcher{
		catalog:  catalog,
		watcher:  watcher,
		debounce: debounce,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching for catalog changes.
func (w *CatalogWatcher) Start() error {
	// Watch the directory: atomic writes replace the file inode
	dir := filepath.Dir(w.catalog.Path())
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch catalog directory: %w", err)
	}

	go w.eventLoop()

	log.Info().Str("path", w.catalog.Path()).Msg("Catalog watcher started")

	return nil
}

// Stop stops the watcher.
func (w *CatalogWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}

func (w *CatalogWatcher) eventLoop() {
	target := filepath.Clean(w.catalog.Path())

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Catalog watcher error")

		case <-w.done:
			return
		}
	}
}

func (w *CatalogWatcher) scheduleReload() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if err := w.catalog.Reload(); err != nil {
			log.Error().Err(err).Msg("Failed to reload catalog, keeping previous models")
		}
	})
}
