package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/DarinMao/rctf-client/internal/logging"
	"github.com/DarinMao/rctf-client/internal/output"
	"github.com/DarinMao/rctf-client/internal/session"
)

// prompt overrides the interactive credential prompt in tests.
var prompt session.Prompter

// logger builds the process logger. Interactive commands own the terminal,
// so they only log to --log-file.
func (f *globalFlags) logger(cmd *cobra.Command, interactive bool) (*log.Logger, func() error, error) {
	opts := logging.Options{
		Verbose: f.Verbose,
		Level:   os.Getenv(EnvLogLevel),
		File:    f.LogFile,
	}
	if !interactive {
		opts.Output = cmd.ErrOrStderr()
	}
	logger, closer, err := logging.New(opts)
	if err != nil {
		return nil, closer, fmt.Errorf("failed to set up logging: %w", err)
	}
	return logger, closer, nil
}

// writer returns the output writer for --format and --jq.
func (f *globalFlags) writer(cmd *cobra.Command) (*output.Writer, error) {
	format, err := output.ParseFormat(f.Format)
	if err != nil {
		return nil, err
	}
	return output.New(cmd.OutOrStdout(), format, f.Query), nil
}

// withSession opens the session, runs fn and persists the config, even when
// fn fails.
func (f *globalFlags) withSession(cmd *cobra.Command, interactive bool, fn func(*session.Session, *log.Logger) error) (err error) {
	logger, closeLog, err := f.logger(cmd, interactive)
	if err != nil {
		return err
	}
	defer closeLog()

	s, err := session.Open(cmd.Context(), session.Options{
		ConfigPath: f.ConfigPath,
		Credentials: session.Credentials{
			URL:       os.Getenv(EnvURL),
			TeamToken: os.Getenv(EnvToken),
		},
		Prompt: prompt,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(s, logger)
}

func newInitCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Log in and create .rctf.json in the current directory",
		Long: "Log in to an rCTF server and save the credentials in .rctf.json. The directory holding\n" +
			"the file becomes the CTF root that challenges are downloaded into.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withSession(cmd, false, func(s *session.Session, _ *log.Logger) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s\nConfig saved to %s\n", s.Client.Config().CTFName, s.Path)
				return nil
			})
		},
	}
}
