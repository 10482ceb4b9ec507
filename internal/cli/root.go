// Package cli builds the rctf command tree.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Environment variables read by the CLI.
const (
	EnvURL      = "RCTF_URL"
	EnvToken    = "RCTF_TOKEN"
	EnvLogFile  = "RCTF_LOG_FILE"
	EnvLogLevel = "RCTF_LOG_LEVEL"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	ConfigPath string
	Verbose    bool
	LogFile    string
	Format     string
	Query      string
}

// NewRootCmd creates the root cobra command. Without a subcommand it starts
// the interactive interface.
func NewRootCmd() *cobra.Command {
	var flags globalFlags
	var pageSize int

	cmd := &cobra.Command{
		Use:   "rctf",
		Short: "Client for rCTF capture-the-flag platforms",
		Long: "rctf logs in to an rCTF server and lets you browse challenges, download their files,\n" +
			"submit flags and follow the scoreboard, from the command line or an interactive interface.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, &flags, pageSize)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.ConfigPath, "config", "c", "", "Path to .rctf.json (default: searched from the current directory up)")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&flags.LogFile, "log-file", os.Getenv(EnvLogFile), "Append logs to this file")
	pf.StringVarP(&flags.Format, "format", "f", "pretty", "Output format: pretty, json or yaml")
	pf.StringVar(&flags.Query, "jq", "", "jq expression applied to the output")
	addPageSizeFlag(cmd, &pageSize)

	cmd.AddCommand(newInitCmd(&flags))
	cmd.AddCommand(newTUICmd(&flags))
	cmd.AddCommand(newChallengesCmd(&flags))
	cmd.AddCommand(newScoreboardCmd(&flags))
	cmd.AddCommand(newSubmitCmd(&flags))
	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return run(NewRootCmd(), os.Args[1:], os.Stderr)
}

func run(cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
