package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// CLIFlags holds the global persistent flags.
type CLIFlags struct {
	ConfigPath string
	EnvFile    string
	JSON       bool
	Verbose    bool
	Quiet      bool
}

// CLIContext carries everything a command needs once the root pre-run has
// resolved configuration. Built per root command, so tests get a fresh one.
type CLIContext struct {
	Flags  CLIFlags
	Cfg    *config.Config
	Logger *slog.Logger
	Out    io.Writer
	Err    io.Writer
}

// skipConfigCommands lists commands that run without resolved configuration.
// Matched on CommandPath() so a nested command with the same name does not
// skip by accident.
var skipConfigCommands = map[string]bool{
	"sharepoint-go help":       true,
	"sharepoint-go completion": true,
}

func skipsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if skipConfigCommands[c.CommandPath()] {
			return true
		}
	}

	return false
}

// newRootCmd builds the fully-assembled root command. Running it without a
// subcommand performs the export pipeline.
func newRootCmd() *cobra.Command {
	cc := &CLIContext{Logger: slog.Default(), Out: os.Stdout, Err: os.Stderr}

	var exportOpts exportOptions

	cmd := &cobra.Command{
		Use:   "sharepoint-go",
		Short: "SharePoint document library exporter",
		Long: `Authenticates as a service principal, resolves a SharePoint site and its
document library, exports listings and users as JSON, and downloads one named
file. Run without a subcommand to perform the full export.`,
		Version: version,
		Args:    cobra.NoArgs,
		// Silence Cobra's default error/usage printing; main prints errors.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cc.Out = cmd.OutOrStdout()
			cc.Err = cmd.ErrOrStderr()

			if skipsConfig(cmd) {
				return nil
			}

			return cc.loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, cc, exportOpts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cc.Flags.ConfigPath, "config", "", "config file path")
	pf.StringVar(&cc.Flags.EnvFile, "env-file", "", "dotenv file path (default ./.env)")
	pf.BoolVar(&cc.Flags.JSON, "json", false, "output in JSON format")
	pf.BoolVarP(&cc.Flags.Verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&cc.Flags.Quiet, "quiet", "q", false, "suppress informational output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	addExportFlags(cmd, &exportOpts)

	cmd.AddCommand(newExportCmd(cc))
	cmd.AddCommand(newSiteCmd(cc))
	cmd.AddCommand(newLsCmd(cc))
	cmd.AddCommand(newGetCmd(cc))
	cmd.AddCommand(newStatCmd(cc))
	cmd.AddCommand(newUsersCmd(cc))
	cmd.AddCommand(newVerifyCmd(cc))
	cmd.AddCommand(newTokenCmd(cc))
	cmd.AddCommand(newConfigCmd(cc))

	return cmd
}

// loadConfig resolves the effective configuration and builds the logger.
// Command-local flags that shadow config keys are passed through as CLI
// overrides only when explicitly set.
func (cc *CLIContext) loadConfig(cmd *cobra.Command) error {
	cli := config.CLIOverrides{
		ConfigPath:  cc.Flags.ConfigPath,
		EnvFile:     cc.Flags.EnvFile,
		Folder:      changedString(cmd, "folder"),
		FileFolder:  changedString(cmd, "file-folder"),
		FileName:    changedString(cmd, "file"),
		UsersSource: changedString(cmd, "source"),
		JSONDir:     changedString(cmd, "json-dir"),
		DownloadDir: changedString(cmd, "download-dir"),
	}

	bootstrap := buildLogger(nil, cc.Flags, cc.Err)

	cfg, err := config.Resolve(config.ReadEnvOverrides(bootstrap), cli, bootstrap)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cc.Cfg = cfg
	cc.Logger = buildLogger(cfg, cc.Flags, cc.Err)

	return nil
}

// changedString returns the flag's value if the user set it, else nil.
func changedString(cmd *cobra.Command, name string) *string {
	f := cmd.Flags().Lookup(name)
	if f == nil || !f.Changed {
		return nil
	}

	v := f.Value.String()

	return &v
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. The config file level is the baseline; --verbose and --quiet
// override it. Format "auto" picks text on a terminal and JSON otherwise.
func buildLogger(cfg *config.Config, flags CLIFlags, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	format := "auto"

	if cfg != nil {
		switch cfg.Logging.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}

		format = cfg.Logging.LogFormat
	}

	if flags.Verbose {
		level = slog.LevelDebug
	}

	if flags.Quiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if format == "json" || (format == "auto" && !isTerminal(w)) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
