package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/DarinMao/rctf-client/internal/download"
	"github.com/DarinMao/rctf-client/internal/session"
	"github.com/DarinMao/rctf-client/internal/tui"
)

func addPageSizeFlag(cmd *cobra.Command, pageSize *int) {
	cmd.Flags().IntVar(pageSize, "page-size", tui.DefaultPageSize, "Scoreboard rows fetched at once")
}

func newTUICmd(flags *globalFlags) *cobra.Command {
	var pageSize int
	cmd := &cobra.Command{
		Use:     "gui",
		Aliases: []string{"tui"},
		Short:   "Start the interactive interface",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, flags, pageSize)
		},
	}
	addPageSizeFlag(cmd, &pageSize)
	return cmd
}

func runTUI(cmd *cobra.Command, flags *globalFlags, pageSize int) error {
	return flags.withSession(cmd, true, func(s *session.Session, logger *log.Logger) error {
		app, err := tui.NewApp(cmd.Context(), tui.Options{
			Client:     s.Client,
			Config:     s.Config,
			ConfigPath: s.Path,
			Saver: &download.Saver{
				Root:   s.Root,
				Config: s.Config,
				Files:  s.Client,
				Logger: logger,
			},
			PageSize: pageSize,
			Logger:   logger,
		})
		if err != nil {
			return err
		}

		p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		_, err = p.Run()
		return err
	})
}
