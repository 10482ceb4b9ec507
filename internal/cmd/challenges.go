// Package cmd provides CLI command implementations for rctf.
// This includes list, show, download, submit and scoreboard commands that
// can be run from the command line without launching the full TUI.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/DarinMao/rctf-client/internal/api"
	"github.com/DarinMao/rctf-client/internal/format"
	"github.com/DarinMao/rctf-client/internal/output"
)

// ErrNoChallenges is returned by list when the filters leave nothing to show.
var ErrNoChallenges = errors.New("no challenges")

// ErrChallengeNotFound is returned when an id matches no challenge.
var ErrChallengeNotFound = errors.New("could not find challenge")

// ChallengeLister is the part of the API client listing commands need.
type ChallengeLister interface {
	Challenges(ctx context.Context) ([]api.Challenge, error)
	Profile(ctx context.Context) (api.Profile, error)
}

// ListOptions contains configuration for the challenges list command.
type ListOptions struct {
	Client  ChallengeLister
	Output  *output.Writer
	Solved  bool     // Include solved challenges
	Include []string // Categories to include (default: all)
}

// RunList prints the challenges, highest sort weight first.
func RunList(ctx context.Context, opts ListOptions) error {
	challs, err := opts.Client.Challenges(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch challenges: %w", err)
	}
	api.SortChallenges(challs)

	if len(opts.Include) > 0 {
		challs = slices.DeleteFunc(challs, func(c api.Challenge) bool {
			return !slices.Contains(opts.Include, c.Category)
		})
	}
	if !opts.Solved {
		profile, err := opts.Client.Profile(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch profile: %w", err)
		}
		solved := profile.SolvedIDs()
		challs = slices.DeleteFunc(challs, func(c api.Challenge) bool { return solved[c.ID] })
	}

	if len(challs) == 0 {
		return ErrNoChallenges
	}
	return opts.Output.Write(challs, func() string {
		parts := make([]string, len(challs))
		for i, c := range challs {
			parts[i] = PrettyChallenge(c, opts.Output.Width, opts.Output.Color)
		}
		return strings.Join(parts, "\n")
	})
}

// ShowOptions contains configuration for the challenges show command.
type ShowOptions struct {
	Client ChallengeLister
	Output *output.Writer
	ID     string
}

// RunShow prints one challenge.
func RunShow(ctx context.Context, opts ShowOptions) error {
	challs, err := opts.Client.Challenges(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch challenges: %w", err)
	}
	idx := slices.IndexFunc(challs, func(c api.Challenge) bool { return c.ID == opts.ID })
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrChallengeNotFound, opts.ID)
	}
	c := challs[idx]
	return opts.Output.Write(c, func() string {
		return PrettyChallenge(c, opts.Output.Width, opts.Output.Color)
	})
}

// Submitter is the part of the API client submit needs.
type Submitter interface {
	SubmitFlag(ctx context.Context, id, flag string) error
}

// SubmitOptions contains configuration for the submit commands.
type SubmitOptions struct {
	Client Submitter
	ID     string
	Flag   string
	Out    io.Writer // Default: stdout
}

// RunSubmit submits a flag for a challenge.
func RunSubmit(ctx context.Context, opts SubmitOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if err := opts.Client.SubmitFlag(ctx, opts.ID, opts.Flag); err != nil {
		return err
	}
	fmt.Fprintln(opts.Out, "Flag submitted!")
	return nil
}

// DirResolver maps a downloaded challenge directory back to its id.
type DirResolver interface {
	ChallengeForDir(dir string) (string, error)
}

// SubmitHereOptions contains configuration for submitting from a challenge directory.
type SubmitHereOptions struct {
	Client   Submitter
	Resolver DirResolver
	Dir      string // Default: current directory
	Flag     string
	Out      io.Writer
}

// RunSubmitHere submits a flag for the challenge downloaded to Dir.
func RunSubmitHere(ctx context.Context, opts SubmitHereOptions) error {
	if opts.Dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		opts.Dir = cwd
	}
	id, err := opts.Resolver.ChallengeForDir(opts.Dir)
	if err != nil {
		return err
	}
	return RunSubmit(ctx, SubmitOptions{Client: opts.Client, ID: id, Flag: opts.Flag, Out: opts.Out})
}

// PrettyChallenge renders a challenge as a block of text width columns wide.
func PrettyChallenge(c api.Challenge, width int, color bool) string {
	header := fmt.Sprintf("─ %s/%s (ID: %s) ", c.Category, c.Name, c.ID)
	if pad := width - len([]rune(header)); pad > 0 {
		header += strings.Repeat("─", pad)
	}

	files := "(none)"
	if len(c.Files) > 0 {
		var b strings.Builder
		b.WriteString("Files:")
		for _, f := range c.Files {
			fmt.Fprintf(&b, "\n  - %s (%s)", f.Name, f.URL)
		}
		files = b.String()
	}

	description := c.Description
	if color {
		description = renderMarkdown(description, width)
	}

	return fmt.Sprintf("%s\n(%s / %s)\nAuthor: %s\n\n%s\n\n%s\n",
		header,
		format.Plural(c.Solves, "solve"),
		format.Plural(c.Points, "point"),
		c.Author,
		description,
		files,
	)
}

func renderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}
