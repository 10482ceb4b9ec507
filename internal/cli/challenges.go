package cli

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/DarinMao/rctf-client/internal/cmd"
	"github.com/DarinMao/rctf-client/internal/download"
	"github.com/DarinMao/rctf-client/internal/paths"
	"github.com/DarinMao/rctf-client/internal/session"
)

func newChallengesCmd(flags *globalFlags) *cobra.Command {
	c := &cobra.Command{
		Use:     "challenges",
		Aliases: []string{"chall", "challs"},
		Short:   "List, show, download and solve challenges",
	}
	c.AddCommand(newListCmd(flags))
	c.AddCommand(newShowCmd(flags))
	c.AddCommand(newDownloadCmd(flags))
	c.AddCommand(newChallengeSubmitCmd(flags))
	c.AddCommand(newSolvesCmd(flags))
	return c
}

func newListCmd(flags *globalFlags) *cobra.Command {
	var solved bool
	var include []string
	c := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List unsolved challenges, highest sort weight first",
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			out, err := flags.writer(c)
			if err != nil {
				return err
			}
			return flags.withSession(c, false, func(s *session.Session, _ *log.Logger) error {
				return cmd.RunList(c.Context(), cmd.ListOptions{
					Client:  s.Client,
					Output:  out,
					Solved:  solved,
					Include: include,
				})
			})
		},
	}
	c.Flags().BoolVarP(&solved, "solved", "s", false, "Include solved challenges")
	c.Flags().StringSliceVarP(&include, "include", "i", nil, "Only list these categories")
	return c
}

func newShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			out, err := flags.writer(c)
			if err != nil {
				return err
			}
			return flags.withSession(c, false, func(s *session.Session, _ *log.Logger) error {
				return cmd.RunShow(c.Context(), cmd.ShowOptions{Client: s.Client, Output: out, ID: args[0]})
			})
		},
	}
}

func newDownloadCmd(flags *globalFlags) *cobra.Command {
	var include []string
	c := &cobra.Command{
		Use:     "download",
		Aliases: []string{"dl"},
		Short:   "Download challenges into the CTF root",
		Long: "Download each challenge into <category>/<name>/ under the CTF root: a description.md\n" +
			"and its files in files/. The directory is remembered so that `rctf submit` works from it.",
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return flags.withSession(c, false, func(s *session.Session, logger *log.Logger) error {
				return cmd.RunDownload(c.Context(), cmd.DownloadOptions{
					Client: s.Client,
					Saver: &download.Saver{
						Root:   s.Root,
						Config: s.Config,
						Files:  s.Client,
						Logger: logger,
					},
					Root:    s.Root,
					Include: include,
					Out:     c.OutOrStdout(),
				})
			})
		},
	}
	c.Flags().StringSliceVarP(&include, "include", "i", nil, "Only download these challenge ids")
	return c
}

func newChallengeSubmitCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "submit ID FLAG",
		Short: "Submit a flag for a challenge",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			return flags.withSession(c, false, func(s *session.Session, _ *log.Logger) error {
				return cmd.RunSubmit(c.Context(), cmd.SubmitOptions{
					Client: s.Client,
					ID:     args[0],
					Flag:   args[1],
					Out:    c.OutOrStdout(),
				})
			})
		},
	}
}

func newSolvesCmd(flags *globalFlags) *cobra.Command {
	var limit, offset int
	c := &cobra.Command{
		Use:   "solves ID",
		Short: "List the teams that solved a challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			out, err := flags.writer(c)
			if err != nil {
				return err
			}
			return flags.withSession(c, false, func(s *session.Session, _ *log.Logger) error {
				return cmd.RunSolves(c.Context(), cmd.SolvesOptions{
					Client: s.Client,
					Output: out,
					ID:     args[0],
					Limit:  limit,
					Offset: offset,
				})
			})
		},
	}
	c.Flags().IntVarP(&limit, "limit", "n", 0, "Number of solves (default 10)")
	c.Flags().IntVar(&offset, "offset", 0, "Number of solves to skip")
	return c
}

// newSubmitCmd submits for the challenge downloaded to the current directory.
func newSubmitCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "submit FLAG",
		Short: "Submit a flag for the challenge downloaded to the current directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return flags.withSession(c, false, func(s *session.Session, _ *log.Logger) error {
				return cmd.RunSubmitHere(c.Context(), cmd.SubmitHereOptions{
					Client:   s.Client,
					Resolver: s,
					Dir:      paths.WorkingDir(),
					Flag:     args[0],
					Out:      c.OutOrStdout(),
				})
			})
		},
	}
}
