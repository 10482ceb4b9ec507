package paths

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
)

// ConfigFileName is the name of the per-CTF config file. Its directory is the
// CTF root that challenge directories are created under.
const ConfigFileName = ".rctf.json"

// ErrConfigNotFound is returned when no config file exists in the working
// directory or any of its parents.
var ErrConfigNotFound = errors.New("no " + ConfigFileName + " found")

// workingDir returns the process working directory, panicking if it can't be resolved.
var workingDir = func() string {
	wd, err := os.Getwd()
	if err != nil {
		panic("cannot resolve working directory: " + err.Error())
	}
	return wd
}

// SetWorkingDir overrides the working directory used by all path functions.
// Intended for testing. Returns a restore function.
func SetWorkingDir(dir string) func() {
	old := workingDir
	workingDir = func() string { return dir }
	return func() { workingDir = old }
}

// WorkingDir returns the resolved working directory.
func WorkingDir() string {
	return resolve(workingDir())
}

// ConfigPath returns <root>/.rctf.json
func ConfigPath(root string) string {
	return filepath.Join(root, ConfigFileName)
}

// FindConfig searches the working directory and its parents for the config file.
func FindConfig() (string, error) {
	return FindConfigFrom(WorkingDir())
}

// FindConfigFrom searches dir and its parents for the config file.
func FindConfigFrom(dir string) (string, error) {
	dir = resolve(dir)
	for {
		p := ConfigPath(dir)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}
		dir = parent
	}
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// SafeName maps a challenge or file name to a single safe path component.
func SafeName(name string) string {
	name = unsafeChars.ReplaceAllString(name, "_")
	if name == "." || name == ".." {
		return "_"
	}
	return name
}

// ChallengeDir returns <root>/<category>/<name> with both components sanitized.
func ChallengeDir(root, category, name string) string {
	return filepath.Join(root, SafeName(category), SafeName(name))
}

// RelativeDir returns dir relative to root in slash form, the key format of
// challenge_dirs.
func RelativeDir(root, dir string) (string, error) {
	rel, err := filepath.Rel(resolve(root), resolve(dir))
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// resolve makes p absolute and follows symlinks where possible.
func resolve(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}
	return p
}
