package download

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarinMao/rctf-client/internal/api"
	"github.com/DarinMao/rctf-client/internal/config"
)

type fakeFiles struct {
	contents map[string]string
	opened   []string
}

func (f *fakeFiles) OpenFile(_ context.Context, ref string) (io.ReadCloser, error) {
	f.opened = append(f.opened, ref)
	body, ok := f.contents[ref]
	if !ok {
		return nil, errors.New("404 Not Found")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

// failingReader returns some bytes then an error.
type failingReader struct{ sent bool }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.sent {
		return 0, errors.New("connection reset")
	}
	r.sent = true
	return copy(p, "part"), nil
}

type brokenFiles struct{}

func (brokenFiles) OpenFile(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(&failingReader{}), nil
}

func challenge() api.Challenge {
	return api.Challenge{
		ID:          "baby-rop",
		Name:        "baby rop",
		Category:    "pwn",
		Author:      "alice",
		Description: "Smash the stack.",
		Files: []api.File{
			{Name: "chall", URL: "/uploads/chall"},
			{Name: "lib c.so", URL: "https://cdn.example.com/libc.so"},
		},
	}
}

func TestSaveWritesLayout(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	files := &fakeFiles{contents: map[string]string{
		"/uploads/chall":                  "ELF",
		"https://cdn.example.com/libc.so": "LIBC",
	}}
	s := &Saver{Root: root, Config: cfg, Files: files}

	dir, err := s.Save(context.Background(), challenge())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "pwn", "baby_rop"), dir)

	desc, err := os.ReadFile(filepath.Join(dir, "description.md"))
	require.NoError(t, err)
	assert.Equal(t, "# pwn/baby rop (ID: baby-rop)\n## Author: alice\n\nSmash the stack.\n", string(desc))

	got, err := os.ReadFile(filepath.Join(dir, "files", "chall"))
	require.NoError(t, err)
	assert.Equal(t, "ELF", string(got))

	got, err = os.ReadFile(filepath.Join(dir, "files", "lib_c.so"))
	require.NoError(t, err)
	assert.Equal(t, "LIBC", string(got))

	id, ok := cfg.ChallengeAt("pwn/baby_rop")
	assert.True(t, ok)
	assert.Equal(t, "baby-rop", id)
}

func TestSaveWithoutFiles(t *testing.T) {
	root := t.TempDir()
	ch := challenge()
	ch.Files = nil
	s := &Saver{Root: root, Config: config.Default(), Files: &fakeFiles{}}

	dir, err := s.Save(context.Background(), ch)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "description.md"))
	assert.NoDirExists(t, filepath.Join(dir, "files"))
}

func TestSaveKeepsExistingMapping(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.RecordChallengeDir("pwn/baby_rop", "older")
	ch := challenge()
	ch.Files = nil

	_, err := (&Saver{Root: root, Config: cfg, Files: &fakeFiles{}}).Save(context.Background(), ch)
	require.NoError(t, err)

	id, _ := cfg.ChallengeAt("pwn/baby_rop")
	assert.Equal(t, "older", id)
}

func TestSaveMissingFile(t *testing.T) {
	root := t.TempDir()
	s := &Saver{Root: root, Config: config.Default(), Files: &fakeFiles{contents: map[string]string{}}}

	_, err := s.Save(context.Background(), challenge())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chall")
}

func TestSavePartialFileLeftOnFailure(t *testing.T) {
	root := t.TempDir()
	ch := challenge()
	ch.Files = ch.Files[:1]
	s := &Saver{Root: root, Config: config.Default(), Files: brokenFiles{}}

	dir, err := s.Save(context.Background(), ch)
	require.Error(t, err)

	got, readErr := os.ReadFile(filepath.Join(dir, "files", "chall"))
	require.NoError(t, readErr)
	assert.Equal(t, "part", string(got))
}

func TestSaveSanitizesTraversal(t *testing.T) {
	root := t.TempDir()
	ch := api.Challenge{ID: "x", Category: "..", Name: "../../etc"}
	s := &Saver{Root: root, Config: config.Default(), Files: &fakeFiles{}}

	dir, err := s.Save(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "_", ".._.._etc"), dir)
}
