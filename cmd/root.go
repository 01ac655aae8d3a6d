package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/outlookctl/internal/config"
	"github.com/teemow/outlookctl/internal/logging"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
}

// errReported is returned by commands whose failure was already written
// to stdout as a result envelope.
var errReported = errors.New("command failed")

// rootOptions is the state shared by all commands.
type rootOptions struct {
	configPath string

	cfg    *config.Config
	logger *slog.Logger

	out    io.Writer
	errOut io.Writer
	now    func() time.Time
}

// newRootCmd builds the command tree writing to out and errOut.
func newRootCmd(out, errOut io.Writer) *cobra.Command {
	o := &rootOptions{out: out, errOut: errOut, now: time.Now}

	rootCmd := &cobra.Command{
		Use:   "outlookctl",
		Short: "Automates a local Outlook mailbox and calendar",
		Long: `outlookctl reads and organizes mail, inspects the calendar and finds
meeting slots through a local Outlook installation.

It can run as:
  - A command line tool printing JSON or text results
  - An MCP (Model Context Protocol) server for AI assistants

On hosts without Outlook the fixture backend serves a YAML mailbox file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.load(cmd)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetVersionTemplate(`{{printf "outlookctl version %s\n" .Version}}`)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&o.configPath, "config", "", "Config file (default: "+config.DefaultPath()+")")
	flags.String("backend", config.DefaultBackend(), "Backend: ole or fixture. Can also use OUTLOOKCTL_BACKEND env var.")
	flags.String("fixture", "", "Mailbox file of the fixture backend. Can also use OUTLOOKCTL_FIXTURE_PATH env var.")
	flags.Bool("writeback", false, "Save fixture changes back to the mailbox file")
	flags.String("output", config.OutputJSON, "Output format: json or text")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-format", logging.FormatText, "Log format: text or json")

	rootCmd.AddCommand(newMailCmds(o)...)
	rootCmd.AddCommand(newCalendarCmds(o)...)
	rootCmd.AddCommand(newServeCmd(o))
	rootCmd.AddCommand(newGenerateDocsCmd(o))

	return rootCmd
}

// load reads the configuration and installs the default logger. Logs go
// to stderr; stdout carries results and the MCP stdio transport.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := logging.New(o.errOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	o.cfg = cfg
	o.logger = logger
	if cfg.File != "" {
		logger.Debug("configuration loaded", slog.String("file", cfg.File))
	}
	return nil
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
