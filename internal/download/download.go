// Package download saves challenges into the CTF root as
// <category>/<name>/description.md plus a files/ directory.
package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/DarinMao/rctf-client/internal/api"
	"github.com/DarinMao/rctf-client/internal/config"
	"github.com/DarinMao/rctf-client/internal/paths"
)

// FileOpener opens a challenge file by its URL.
type FileOpener interface {
	OpenFile(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Saver writes challenges under Root and records their directories in Config.
type Saver struct {
	Root   string
	Config *config.Config
	Files  FileOpener
	Logger *log.Logger
}

// Dir creates the challenge directory, records it in the config and returns it.
func (s *Saver) Dir(ch api.Challenge) (string, error) {
	dir := paths.ChallengeDir(s.Root, ch.Category, ch.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	rel, err := paths.RelativeDir(s.Root, dir)
	if err != nil {
		return "", err
	}
	s.Config.RecordChallengeDir(rel, ch.ID)
	return dir, nil
}

// Save writes the challenge description and streams each of its files to
// disk. A failure mid-stream leaves the partial file in place.
func (s *Saver) Save(ctx context.Context, ch api.Challenge) (string, error) {
	dir, err := s.Dir(ch)
	if err != nil {
		return "", fmt.Errorf("failed to create challenge directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "description.md"), []byte(Description(ch)), 0o644); err != nil {
		return dir, err
	}

	if len(ch.Files) == 0 {
		return dir, nil
	}
	filesDir := filepath.Join(dir, "files")
	if err := os.MkdirAll(filesDir, 0o755); err != nil {
		return dir, err
	}
	for _, f := range ch.Files {
		if err := s.saveFile(ctx, f, filesDir); err != nil {
			return dir, fmt.Errorf("failed to download %s: %w", f.Name, err)
		}
	}
	return dir, nil
}

func (s *Saver) saveFile(ctx context.Context, f api.File, dir string) error {
	body, err := s.Files.OpenFile(ctx, f.URL)
	if err != nil {
		return err
	}
	defer body.Close()

	out, err := os.Create(filepath.Join(dir, paths.SafeName(f.Name)))
	if err != nil {
		return err
	}
	defer out.Close()

	n, err := io.Copy(out, body)
	if s.Logger != nil {
		s.Logger.Debug("saved file", "name", f.Name, "bytes", n)
	}
	return err
}

// Description renders description.md for a challenge.
func Description(ch api.Challenge) string {
	return fmt.Sprintf("# %s/%s (ID: %s)\n## Author: %s\n\n%s\n", ch.Category, ch.Name, ch.ID, ch.Author, ch.Description)
}
