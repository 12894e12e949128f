package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/tisym"
	"github.com/jward/tisym/internal/config"
)

var (
	flagConfig   string
	flagDialect  string
	flagFormat   string
	flagDB       string
	flagLogLevel string
)

// Set by the root command's PersistentPreRunE.
var (
	cfg    *config.Config
	logger *slog.Logger
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "tisym",
	Short:         "Symbol resolution and safe rename for TI-99 assembly, GPL and Extended BASIC",
	Long:          "tisym resolves labels, symbols, variables and line numbers in xas99, xga99 and xbas99 sources and renames them without changing anything else. Lines and columns are 0-based.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (YAML) merged over the defaults")
	rootCmd.PersistentFlags().StringVar(&flagDialect, "dialect", "", "force a dialect: xas99|xga99|xbas99")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "", "output format: json|text (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default from config, relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (default from config)")

	rootCmd.AddCommand(defsCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(refsCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
}

// setup loads the config, applies flag overrides and builds the logger.
func setup() error {
	c, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagFormat != "" {
		c.Format = flagFormat
	}
	if flagDB != "" {
		c.DB = flagDB
	}
	if flagLogLevel != "" {
		c.LogLevel = flagLogLevel
	}
	if err := validateFormat(c.Format); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	flagFormat = c.Format
	logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: c.Level()}))
	return nil
}

// engineOptions are the tisym options every command shares.
func engineOptions() []tisym.Option {
	opts := []tisym.Option{tisym.WithConfig(cfg), tisym.WithLogger(logger)}
	if flagDialect != "" {
		opts = append(opts, tisym.WithDialect(flagDialect))
	}
	return opts
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the configured database path, relative paths taken
// from the repo root.
func resolveDBPath(repoRoot string) string {
	if filepath.IsAbs(cfg.DB) {
		return cfg.DB
	}
	return filepath.Join(repoRoot, cfg.DB)
}
