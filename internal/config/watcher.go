package config

import (
	"errors"
	"maps"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// WatcherEvent is sent when the config file changes on disk.
type WatcherEvent struct {
	Config *Config
	Error  error
}

// Watcher watches a config file for changes made by other processes, such as
// a download run from another terminal.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	events  chan WatcherEvent
	done    chan struct{}
	mu      sync.Mutex
	running bool
	last    map[string]string
}

// NewWatcher creates a new Watcher for the given config path.
func NewWatcher(path string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		path:    filepath.Clean(path),
		watcher: fsWatcher,
		events:  make(chan WatcherEvent, 10),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching. The directory is watched rather than the file since
// Save replaces the file by rename.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	if cfg, err := Load(w.path); err == nil {
		w.last = maps.Clone(cfg.ChallengeDirs)
	}

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	go w.processEvents()
	return nil
}

// Stop stops watching the config file.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)
	w.watcher.Close()
}

// Events returns the channel for receiving config change events.
func (w *Watcher) Events() <-chan WatcherEvent {
	return w.events
}

func (w *Watcher) processEvents() {
	defer close(w.events)
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.handleFileChange()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.send(WatcherEvent{Error: err})
		}
	}
}

// handleFileChange loads the config and sends an event if its challenge
// directory mappings changed.
func (w *Watcher) handleFileChange() {
	cfg, err := Load(w.path)
	if err != nil {
		// Partially written files are expected mid-write; the next event retries.
		return
	}
	if maps.Equal(w.last, cfg.ChallengeDirs) {
		return
	}
	w.last = maps.Clone(cfg.ChallengeDirs)
	w.send(WatcherEvent{Config: cfg})
}

func (w *Watcher) send(ev WatcherEvent) {
	select {
	case w.events <- ev:
	case <-w.done:
	}
}
