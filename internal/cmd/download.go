package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/DarinMao/rctf-client/internal/api"
	"github.com/DarinMao/rctf-client/internal/paths"
)

// ChallengeSaver writes one challenge to disk and returns its directory.
type ChallengeSaver interface {
	Save(ctx context.Context, ch api.Challenge) (string, error)
}

// DownloadOptions contains configuration for the challenges download command.
type DownloadOptions struct {
	Client  ChallengeLister
	Saver   ChallengeSaver
	Root    string    // CTF root, used to print relative paths
	Include []string  // Challenge ids to download (default: all)
	Out     io.Writer // Default: stdout
}

// RunDownload saves the selected challenges under the CTF root.
func RunDownload(ctx context.Context, opts DownloadOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	challs, err := opts.Client.Challenges(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch challenges: %w", err)
	}
	if len(opts.Include) > 0 {
		challs = slices.DeleteFunc(challs, func(c api.Challenge) bool {
			return !slices.Contains(opts.Include, c.ID)
		})
	}
	if len(challs) == 0 {
		return ErrChallengeNotFound
	}

	for i, c := range challs {
		dir, err := opts.Saver.Save(ctx, c)
		if err != nil {
			return fmt.Errorf("failed to save %s/%s: %w", c.Category, c.Name, err)
		}
		if rel, err := paths.RelativeDir(opts.Root, dir); err == nil {
			dir = rel
		}
		fmt.Fprintf(opts.Out, "[%d/%d] %s\n", i+1, len(challs), dir)
	}
	return nil
}
