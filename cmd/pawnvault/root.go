package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/forest6511/pawnvault/internal/config"
	"github.com/forest6511/pawnvault/internal/logging"
	"github.com/forest6511/pawnvault/pkg/password"
	"github.com/forest6511/pawnvault/pkg/vault"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// skipRecovery marks commands that do not run startup recovery.
const skipRecovery = "skip-recovery"

// Global flags
var (
	rootFlag     string
	configFlag   string
	logLevelFlag string
)

// State initialized by PersistentPreRunE
var (
	cfg      *config.Config
	logger   *slog.Logger
	registry *vault.Registry
)

var rootCmd = &cobra.Command{
	Use:           "pawnvault",
	Short:         "pawnvault keeps secrets in master-key encrypted vault files",
	Long:          `A local vault store: each vault is one encrypted file plus a small metadata file.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	// PersistentPreRunE runs before every subcommand and prepares the registry.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(cmd.ErrOrStderr()); err != nil {
			return err
		}
		if cmd.Annotations[skipRecovery] == "true" {
			return nil
		}
		runStartupRecovery(cmd.ErrOrStderr())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Storage root directory (default: $"+config.EnvRoot+" or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file path (default: $"+config.EnvConfig+" or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
}

// setup loads the configuration and builds the logger and the registry.
func setup(stderr io.Writer) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}

	levelName := cfg.LogLevel
	if logLevelFlag != "" {
		levelName = logLevelFlag
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	logger = logging.New(stderr, level)

	root, err := cfg.ResolveRoot(rootFlag)
	if err != nil {
		return err
	}
	gen, err := password.NewGenerator(cfg.PasswordOptions())
	if err != nil {
		return fmt.Errorf("invalid generator settings: %w", err)
	}

	registry = vault.New(root, vault.WithLogger(logger), vault.WithGenerator(gen))
	logger.Debug("storage root resolved", "root", root, "config", path)
	return nil
}

func configPath() (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if env := os.Getenv(config.EnvConfig); env != "" {
		return env, nil
	}
	path, err := config.DefaultPath()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	return path, nil
}

// runStartupRecovery repairs leftovers of interrupted operations. Failures
// are reported but never block the command.
func runStartupRecovery(stderr io.Writer) {
	report, err := registry.Recover()
	if err != nil {
		logger.Debug("startup recovery failed", "error", err)
		warnf(stderr, "storage recovery incomplete: %s", errorMessage(err))
		return
	}
	if !report.Empty() {
		warnf(stderr, "repaired storage: %d temp file(s) removed, %d orphan metadata removed, %d metadata regenerated",
			len(report.RemovedTempFiles), len(report.RemovedOrphanMetadata), len(report.RegeneratedMetadata))
	}
}

// opError carries an engine failure together with the command that hit it.
// Its text is the stable user-facing message; the cause stays reachable
// through Unwrap for logging.
type opError struct {
	op  string
	err error
}

func (e *opError) Error() string {
	return e.op + ": " + errorMessage(e.err)
}

func (e *opError) Unwrap() error {
	return e.err
}

// failed wraps an engine error returned while running op.
func failed(op string, err error) error {
	if logger != nil {
		logger.Debug("operation failed", "op", op, "error", err)
	}
	return &opError{op: op, err: err}
}
