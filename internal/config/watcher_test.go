package config

import (
	"testing"
	"time"

	"github.com/DarinMao/rctf-client/internal/paths"
)

func TestNewWatcher(t *testing.T) {
	path := paths.ConfigPath(t.TempDir())

	watcher, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	if watcher.path != path {
		t.Errorf("Expected path %s, got %s", path, watcher.path)
	}
}

func TestWatcherDoubleStart(t *testing.T) {
	path := paths.ConfigPath(t.TempDir())
	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	watcher, err := NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()

	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	if err := watcher.Start(); err == nil {
		t.Error("expected error on second Start")
	}
}

func TestWatcherReportsNewChallengeDirs(t *testing.T) {
	path := paths.ConfigPath(t.TempDir())
	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	watcher, err := NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()
	if err := watcher.Start(); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.RecordChallengeDir("web/new", "new-id")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-watcher.Events():
			if ev.Error != nil {
				continue
			}
			if id, ok := ev.Config.ChallengeAt("web/new"); ok && id == "new-id" {
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for config change event")
		}
	}
}

func TestWatcherStopClosesEvents(t *testing.T) {
	path := paths.ConfigPath(t.TempDir())
	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	watcher, err := NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := watcher.Start(); err != nil {
		t.Fatal(err)
	}
	watcher.Stop()
	watcher.Stop()

	select {
	case _, ok := <-watcher.Events():
		if ok {
			// A buffered event may precede the close; drain once more.
			if _, ok := <-watcher.Events(); ok {
				t.Error("expected events channel to be closed")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed after Stop")
	}
}
