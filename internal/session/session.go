// Package session resolves the CTF root, its config and an authenticated
// API client, and persists the config when the process exits.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"

	"github.com/DarinMao/rctf-client/internal/api"
	"github.com/DarinMao/rctf-client/internal/config"
	"github.com/DarinMao/rctf-client/internal/paths"
)

// ErrChallengeNotFound is returned when a directory has no recorded challenge.
var ErrChallengeNotFound = errors.New("could not find challenge")

// Credentials are what a first run needs to log in.
type Credentials struct {
	URL       string
	TeamToken string
}

// Prompter asks the user for missing credentials. Fields already set in the
// argument should be kept.
type Prompter func(Credentials) (Credentials, error)

// Options configures Open.
type Options struct {
	// ConfigPath skips the search for .rctf.json.
	ConfigPath string
	// Credentials pre-fill the first-run setup.
	Credentials Credentials
	// Prompt is used for credentials not pre-filled. Defaults to an
	// interactive form.
	Prompt     Prompter
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Session is the state shared by every command.
type Session struct {
	Client *api.Client
	Config *config.Config
	// Root is the CTF root directory, where the config file lives.
	Root string
	// Path is the config file path.
	Path string

	logger *log.Logger
}

// Open loads the config found from the working directory, or runs first-time
// setup in the working directory when there is none.
func Open(ctx context.Context, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	var clientOpts []api.Option
	clientOpts = append(clientOpts, api.WithLogger(logger))
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(opts.HTTPClient))
	}

	path := opts.ConfigPath
	if path == "" {
		found, err := paths.FindConfig()
		switch {
		case err == nil:
			path = found
		case errors.Is(err, paths.ErrConfigNotFound):
			path = paths.ConfigPath(paths.WorkingDir())
		default:
			return nil, err
		}
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	s := &Session{Config: cfg, Root: filepath.Dir(path), Path: path, logger: logger}

	if cfg.URL != "" && cfg.Token != "" {
		logger.Debug("using saved credentials", "config", path)
		s.Client, err = api.New(ctx, cfg.URL, cfg.Token, clientOpts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	creds := opts.Credentials
	if creds.URL == "" || creds.TeamToken == "" {
		prompt := opts.Prompt
		if prompt == nil {
			prompt = PromptCredentials
		}
		if creds, err = prompt(creds); err != nil {
			return nil, err
		}
	}

	s.Client, err = api.New(ctx, strings.TrimSpace(creds.URL), "", clientOpts...)
	if err != nil {
		return nil, err
	}
	if err := s.Client.Login(ctx, TeamToken(creds.TeamToken)); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	cfg.URL = s.Client.URL()
	cfg.Token = s.Client.Token()
	logger.Info("logged in", "url", cfg.URL, "root", s.Root)
	return s, nil
}

// Close persists the config.
func (s *Session) Close() error {
	if err := config.Save(s.Path, s.Config); err != nil {
		return fmt.Errorf("failed to save %s: %w", s.Path, err)
	}
	s.logger.Debug("saved config", "path", s.Path)
	return nil
}

// ChallengeForDir returns the id of the challenge downloaded to dir. Only
// the exact directory recorded at download time matches.
func (s *Session) ChallengeForDir(dir string) (string, error) {
	rel, err := paths.RelativeDir(s.Root, dir)
	if err != nil {
		return "", err
	}
	id, ok := s.Config.ChallengeAt(rel)
	if !ok {
		return "", ErrChallengeNotFound
	}
	return id, nil
}

// TeamToken accepts either a bare team token or an rCTF login link
// (https://ctf.example.com/login?token=...) and returns the token.
func TeamToken(input string) string {
	input = strings.TrimSpace(input)
	u, err := url.Parse(input)
	if err != nil || u.Scheme == "" {
		return input
	}
	if token := u.Query().Get("token"); token != "" {
		return token
	}
	return input
}

// PromptCredentials asks for the server URL and login token interactively.
func PromptCredentials(creds Credentials) (Credentials, error) {
	var fields []huh.Field
	if creds.URL == "" {
		fields = append(fields, huh.NewInput().
			Title("rCTF URL").
			Placeholder("https://ctf.example.com").
			Value(&creds.URL).
			Validate(func(s string) error {
				_, err := api.ParseURL(strings.TrimSpace(s))
				return err
			}))
	}
	if creds.TeamToken == "" {
		fields = append(fields, huh.NewInput().
			Title("Login Token").
			Description("Team token or login link").
			EchoMode(huh.EchoModePassword).
			Value(&creds.TeamToken).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("this field is required")
				}
				return nil
			}))
	}
	if len(fields) == 0 {
		return creds, nil
	}
	err := huh.NewForm(huh.NewGroup(fields...)).Run()
	return creds, err
}
