package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"
)

// Config is the persisted per-CTF state kept in .rctf.json.
type Config struct {
	URL   string `json:"url"`
	Token string `json:"token"`

	SelectedTab          int      `json:"selected_tab"`
	ChallengesShowSolved bool     `json:"challenges_showsolved"`
	ChallengesCategories []string `json:"challenges_categories"`
	// ScoreboardDivision is nil for all divisions.
	ScoreboardDivision *string `json:"scoreboard_division"`
	// ChallengeDirs maps a slash-separated directory relative to the CTF
	// root to the id of the challenge downloaded there.
	ChallengeDirs map[string]string `json:"challenge_dirs,omitempty"`
}

// Default returns a Config with zero-value defaults.
func Default() *Config {
	return &Config{ChallengesCategories: []string{}}
}

// Division returns the scoreboard division filter, empty for all divisions.
func (c *Config) Division() string {
	if c.ScoreboardDivision == nil {
		return ""
	}
	return *c.ScoreboardDivision
}

// SetDivision sets the scoreboard division filter; empty means all divisions.
func (c *Config) SetDivision(division string) {
	if division == "" {
		c.ScoreboardDivision = nil
		return
	}
	c.ScoreboardDivision = &division
}

// RecordChallengeDir maps dir to a challenge id. An existing mapping for dir
// is kept.
func (c *Config) RecordChallengeDir(dir, id string) {
	if c.ChallengeDirs == nil {
		c.ChallengeDirs = make(map[string]string)
	}
	if _, ok := c.ChallengeDirs[dir]; !ok {
		c.ChallengeDirs[dir] = id
	}
}

// ChallengeAt returns the id of the challenge downloaded to dir.
func (c *Config) ChallengeAt(dir string) (string, bool) {
	id, ok := c.ChallengeDirs[dir]
	return id, ok
}

// DirOf returns the directory a challenge was downloaded to. When it was
// downloaded more than once the lexically first directory is returned.
func (c *Config) DirOf(id string) (string, bool) {
	found := ""
	for dir, dirID := range c.ChallengeDirs {
		if dirID == id && (found == "" || dir < found) {
			found = dir
		}
	}
	return found, found != ""
}

// MergeChallengeDirs records every mapping in dirs that c doesn't have yet
// and reports how many were added.
func (c *Config) MergeChallengeDirs(dirs map[string]string) int {
	added := 0
	for dir, id := range dirs {
		if _, ok := c.ChallengeDirs[dir]; ok {
			continue
		}
		c.RecordChallengeDir(dir, id)
		added++
	}
	return added
}

// Exists checks if the config file exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load reads the config at path. Returns Default() when the file doesn't
// exist (no error).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.ChallengesCategories == nil {
		cfg.ChallengesCategories = []string{}
	}
	return cfg, nil
}

// LockTimeout bounds how long Save waits for another process holding the
// config lock before writing without it.
const LockTimeout = 500 * time.Millisecond

// Save writes cfg to path atomically. Challenge directory mappings written
// to the file by other processes since cfg was loaded are merged into cfg
// first, so concurrent downloads are not lost.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	fl := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), LockTimeout)
	defer cancel()
	locked, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil && ctx.Err() != context.DeadlineExceeded {
		return fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if locked {
		defer func() { _ = fl.Unlock() }()
	}

	if onDisk, err := Load(path); err == nil {
		cfg.MergeChallengeDirs(onDisk.ChallengeDirs)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp := fmt.Sprintf("%s.%d.%d.tmp", path, os.Getpid(), time.Now().UnixNano())
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return err
	}
	if runtime.GOOS == "windows" {
		_ = os.Remove(path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
