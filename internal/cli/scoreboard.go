package cli

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/DarinMao/rctf-client/internal/cmd"
	"github.com/DarinMao/rctf-client/internal/session"
)

func newScoreboardCmd(flags *globalFlags) *cobra.Command {
	var division string
	var limit, offset int
	c := &cobra.Command{
		Use:     "scoreboard",
		Aliases: []string{"sb"},
		Short:   "Show a page of the scoreboard",
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			out, err := flags.writer(c)
			if err != nil {
				return err
			}
			return flags.withSession(c, false, func(s *session.Session, _ *log.Logger) error {
				return cmd.RunScoreboard(c.Context(), cmd.ScoreboardOptions{
					Client:   s.Client,
					Output:   out,
					Division: division,
					Limit:    limit,
					Offset:   offset,
				})
			})
		},
	}
	c.Flags().StringVarP(&division, "division", "d", "", "Division id (default: all divisions)")
	c.Flags().IntVarP(&limit, "limit", "n", 0, "Number of teams (default 100)")
	c.Flags().IntVar(&offset, "offset", 0, "Number of teams to skip")
	c.AddCommand(newGraphCmd(flags))
	return c
}

func newGraphCmd(flags *globalFlags) *cobra.Command {
	var division string
	var limit int
	c := &cobra.Command{
		Use:   "graph",
		Short: "Show the score history of the top teams",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			out, err := flags.writer(c)
			if err != nil {
				return err
			}
			return flags.withSession(c, false, func(s *session.Session, _ *log.Logger) error {
				return cmd.RunGraph(c.Context(), cmd.GraphOptions{
					Client:   s.Client,
					Output:   out,
					Division: division,
					Limit:    limit,
				})
			})
		},
	}
	c.Flags().StringVarP(&division, "division", "d", "", "Division id (default: all divisions)")
	c.Flags().IntVarP(&limit, "limit", "n", 0, "Number of teams (default 10)")
	return c
}
