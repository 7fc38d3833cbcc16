// Package cli implements the ephemeraldb command-line interface.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/phrazzld/ephemeraldb/internal/config"
	"github.com/phrazzld/ephemeraldb/internal/platform/logger"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version information (set at build time via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitInvalidArgs  = 2
	ExitNotFound     = 3
	ExitDBError      = 5
)

// skipSetupCommands lists commands that need neither configuration nor a server.
var skipSetupCommands = map[string]bool{
	"help":    true,
	"version": true,
}

// app carries state shared by the commands of one invocation.
type app struct {
	configPath string
	jsonOut    bool
	quiet      bool

	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "ephemeraldb",
		Short: "Create and reclaim throwaway PostgreSQL databases",
		Long: `ephemeraldb provisions uniquely named PostgreSQL databases for tests,
applies goose migrations to them, and drops them again.

Databases created with "ephemeraldb create" stay until "ephemeraldb drop"
removes them. "ephemeraldb sweep" drops ones that were left behind.

Configuration is read from flags, EPHEMERALDB_* environment variables,
and an optional ephemeraldb.yaml in the working directory.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a config file (default ./ephemeraldb.{yaml,toml,json} if present)")
	flags.String("database-url", "", "Administrative connection string (env EPHEMERALDB_DATABASE_URL or DATABASE_URL)")
	flags.Duration("timeout", 0, "Timeout for each server round trip (default 30s)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (default info)")
	flags.String("log-format", "", "Log format: auto, json, or text (default auto)")
	flags.BoolVarP(&a.jsonOut, "json", "j", false, "Output in JSON format")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "Suppress non-essential output")

	rootCmd.SetVersionTemplate(fmt.Sprintf("ephemeraldb %s (%s, %s)\n", Version, shortCommit(), shortDate()))

	rootCmd.AddCommand(
		newCreateCmd(a),
		newDropCmd(a),
		newListCmd(a),
		newSweepCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

// setup loads configuration and the logger once flags are parsed.
func (a *app) setup(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()
	if skipSetupCommands[cmd.Name()] {
		return nil
	}

	cfg, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		return WrapWithCode(ExitInvalidArgs, err, "failed to load configuration")
	}
	a.cfg = cfg

	log, err := logger.Setup(logger.LoggerConfig{
		Level:  cfg.Log.Level,
		Format: resolveLogFormat(cfg.Log.Format, cmd.ErrOrStderr()),
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return WrapWithCode(ExitInvalidArgs, err, "failed to set up logging")
	}
	a.logger = log.With("run_id", uuid.NewString(), "command", cmd.Name())
	return nil
}

// resolveLogFormat turns "auto" into text for terminals and json otherwise.
func resolveLogFormat(format string, w io.Writer) string {
	if format != "auto" {
		return format
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "text"
	}
	return "json"
}

// serverConfigured reports whether a database server was named anywhere.
func (a *app) serverConfigured() bool {
	return a.cfg.Database.URL != "" || a.cfg.Database.Host != ""
}

// shortCommit returns the first 7 characters of the git commit hash
func shortCommit() string {
	if len(GitCommit) >= 7 {
		return GitCommit[:7]
	}
	return GitCommit
}

// shortDate returns just the date portion of BuildDate (YYYY-MM-DD)
func shortDate() string {
	if len(BuildDate) >= 10 {
		return BuildDate[:10]
	}
	return BuildDate
}

// Execute runs the root command with ctx and returns the first error.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// outputLine prints a line unless quiet mode is enabled.
func (a *app) outputLine(format string, args ...interface{}) {
	if !a.quiet {
		fmt.Fprintf(a.out, format+"\n", args...)
	}
}

// outputJSON prints v as indented JSON.
func (a *app) outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(a.out, string(data))
	return nil
}
