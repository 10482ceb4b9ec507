package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/DarinMao/rctf-client/internal/paths"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.URL != "" || cfg.Token != "" {
		t.Errorf("expected empty credentials, got %q %q", cfg.URL, cfg.Token)
	}
	if cfg.SelectedTab != 0 {
		t.Errorf("expected tab 0, got %d", cfg.SelectedTab)
	}
	if cfg.ChallengesShowSolved {
		t.Error("expected ChallengesShowSolved to be false")
	}
	if cfg.Division() != "" {
		t.Errorf("expected all divisions, got %q", cfg.Division())
	}
}

func TestLoadNonExistent(t *testing.T) {
	cfg, err := Load(paths.ConfigPath(t.TempDir()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.URL != "" {
		t.Errorf("expected empty url, got %q", cfg.URL)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := paths.ConfigPath(t.TempDir())
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := paths.ConfigPath(t.TempDir())

	cfg := Default()
	cfg.URL = "https://ctf.example.com"
	cfg.Token = "auth"
	cfg.SelectedTab = 2
	cfg.ChallengesShowSolved = true
	cfg.ChallengesCategories = []string{"pwn", "web"}
	cfg.SetDivision("open")
	cfg.RecordChallengeDir("pwn/baby", "baby-id")

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.URL != cfg.URL || loaded.Token != cfg.Token {
		t.Errorf("credentials mismatch: got %q %q", loaded.URL, loaded.Token)
	}
	if loaded.SelectedTab != 2 {
		t.Errorf("expected tab 2, got %d", loaded.SelectedTab)
	}
	if !loaded.ChallengesShowSolved {
		t.Error("expected ChallengesShowSolved to be true")
	}
	if len(loaded.ChallengesCategories) != 2 || loaded.ChallengesCategories[1] != "web" {
		t.Errorf("unexpected categories %v", loaded.ChallengesCategories)
	}
	if loaded.Division() != "open" {
		t.Errorf("expected division open, got %q", loaded.Division())
	}
	if id, ok := loaded.ChallengeAt("pwn/baby"); !ok || id != "baby-id" {
		t.Errorf("ChallengeAt = %q, %v", id, ok)
	}
}

func TestSaveUsesOriginalKeys(t *testing.T) {
	path := paths.ConfigPath(t.TempDir())
	cfg := Default()
	cfg.URL = "http://localhost"

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"url", "token", "selected_tab", "challenges_showsolved", "challenges_categories", "scoreboard_division"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	if raw["scoreboard_division"] != nil {
		t.Errorf("expected null division, got %v", raw["scoreboard_division"])
	}
}

func TestSaveMergesChallengeDirs(t *testing.T) {
	path := paths.ConfigPath(t.TempDir())

	other := Default()
	other.RecordChallengeDir("web/a", "a")
	other.RecordChallengeDir("web/shared", "from-disk")
	if err := Save(path, other); err != nil {
		t.Fatal(err)
	}

	mine := Default()
	mine.RecordChallengeDir("pwn/b", "b")
	mine.RecordChallengeDir("web/shared", "mine")
	if err := Save(path, mine); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"web/a": "a", "pwn/b": "b", "web/shared": "mine"}
	if len(loaded.ChallengeDirs) != len(want) {
		t.Fatalf("got %v, want %v", loaded.ChallengeDirs, want)
	}
	for k, v := range want {
		if loaded.ChallengeDirs[k] != v {
			t.Errorf("ChallengeDirs[%q] = %q, want %q", k, loaded.ChallengeDirs[k], v)
		}
	}

	leftovers, _ := filepath.Glob(path + ".*.tmp")
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestRecordChallengeDirKeepsExisting(t *testing.T) {
	cfg := Default()
	cfg.RecordChallengeDir("misc/x", "first")
	cfg.RecordChallengeDir("misc/x", "second")
	if id, _ := cfg.ChallengeAt("misc/x"); id != "first" {
		t.Errorf("expected first mapping to win, got %q", id)
	}
}

func TestSetDivisionEmptyMeansAll(t *testing.T) {
	cfg := Default()
	cfg.SetDivision("hs")
	cfg.SetDivision("")
	if cfg.ScoreboardDivision != nil {
		t.Errorf("expected nil division, got %q", *cfg.ScoreboardDivision)
	}
}

func TestExists(t *testing.T) {
	path := paths.ConfigPath(t.TempDir())

	if Exists(path) {
		t.Error("expected Exists to return false for missing config")
	}

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	if !Exists(path) {
		t.Error("expected Exists to return true for existing config")
	}
}

func TestDirOf(t *testing.T) {
	cfg := Default()
	if _, ok := cfg.DirOf("x"); ok {
		t.Error("expected no directory for unknown id")
	}
	cfg.RecordChallengeDir("web/b", "x")
	cfg.RecordChallengeDir("web/a", "x")
	cfg.RecordChallengeDir("pwn/c", "y")
	if dir, ok := cfg.DirOf("x"); !ok || dir != "web/a" {
		t.Errorf("DirOf(x) = %q, %v", dir, ok)
	}
}
