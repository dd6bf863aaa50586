// Package cli implements the larder command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/larder/internal/logging"
	"github.com/mesh-intelligence/larder/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string
}

// app is the state shared by the commands of one root command.
type app struct {
	flags     rootFlags
	configDir string
	cfg       *viper.Viper
	log       *slog.Logger
	stdout    io.Writer
	stderr    io.Writer
	stdin     io.Reader

	// setDefault installs the logger as the slog default.
	setDefault bool
}

// NewRootCmd creates the top-level "larder" command with global flags and
// all subcommands registered. Command output goes to stdout; logs and
// errors go to stderr.
func NewRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	return newRootCmd(&app{stdin: stdin, stdout: stdout, stderr: stderr})
}

func newRootCmd(a *app) *cobra.Command {
	a.log = slog.New(slog.DiscardHandler)

	root := &cobra.Command{
		Use:   "larder",
		Short: "Exchange item forests between CSV and a local store",
		Long: `larder imports hierarchical item records, their custom fields and their
templates from plain comma-separated text into a local store, and exports
them back with a stable column layout.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir, or $"+paths.EnvConfigDir+")")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	root.AddCommand(newVersionCmd(a))
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newImportCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newImageCmd(a))

	return root
}

// setup resolves the config directory, loads config.yaml and installs the
// logger. It runs before every subcommand.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}
	level := cfg.GetString(cfgKeyLogLevel)
	if a.flags.logLevel != "" {
		level = a.flags.logLevel
	}
	a.configDir = configDir
	a.cfg = cfg
	if a.setDefault {
		a.log = logging.Setup(a.stderr, level, cfg.GetString(cfgKeyLogFormat))
	} else {
		a.log = logging.New(a.stderr, level, cfg.GetString(cfgKeyLogFormat))
	}
	a.log.Debug("config loaded", "config_dir", configDir)
	return nil
}

// Execute runs the root command against the process's standard streams and
// returns the exit code.
func Execute() int {
	root := newRootCmd(&app{
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		setDefault: true,
	})
	return run(root, os.Args[1:], os.Stderr)
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "larder:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// cliError carries an exit code with the error it reports.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

// sysError marks err as a failure of the environment rather than of input.
func sysError(err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: exitSysError, err: err}
}

// userError marks err as caused by the command's arguments or input.
func userError(err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: exitUserError, err: err}
}

// exitCode maps err to a process exit code. Errors not marked otherwise are
// user errors, which covers cobra's own argument and flag errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return exitUserError
}
