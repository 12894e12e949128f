package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/tisym"
)

var flagForce bool

var indexCmd = &cobra.Command{
	Use:   "index [paths...]",
	Short: "Store per-file symbol tables in the database",
	Long:  "Parses and resolves each file, writing definitions, references and resolutions to the SQLite database. Directories are walked honouring .gitignore; unchanged files are skipped.",
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete database and reindex from scratch")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	if len(args) == 0 {
		args = []string{"."}
	}
	targets := make([]string, len(args))
	for i, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("resolving path %q: %w", arg, err)
		}
		targets[i] = abs
	}

	startDir := targets[0]
	if info, err := os.Stat(startDir); err == nil && !info.IsDir() {
		startDir = filepath.Dir(startDir)
	}
	dbPath := resolveDBPath(findRepoRoot(startDir))

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dbDir, err)
	}
	if flagForce {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing database for --force: %w", err)
		}
		fmt.Fprintf(stderr, "Cleared database: %s\n", dbPath)
	}

	engine, err := tisym.New(dbPath, engineOptions()...)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	ctx := context.Background()
	var files []string
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return fmt.Errorf("path not found: %s", target)
		}
		if info.IsDir() {
			if err := engine.IndexDirectory(ctx, target); err != nil {
				return fmt.Errorf("indexing %s: %w", target, err)
			}
			continue
		}
		files = append(files, target)
	}
	if len(files) > 0 {
		if err := engine.IndexFiles(ctx, files); err != nil {
			return fmt.Errorf("indexing: %w", err)
		}
	}

	fmt.Fprintf(stderr, "Indexed %d path(s) in %s\n", len(targets), time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(stderr, "Database: %s\n", dbPath)
	return nil
}
