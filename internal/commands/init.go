package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fintrack-dev/fintrack/internal/config"
	"github.com/fintrack-dev/fintrack/internal/gitops"
	"github.com/fintrack-dev/fintrack/internal/store"
	"github.com/fintrack-dev/fintrack/internal/store/csvstore"
	"github.com/fintrack-dev/fintrack/internal/store/sqlstore"
	"github.com/fintrack-dev/fintrack/internal/transactions"
)

type initOptions struct {
	currency string
	driver   string
	git      bool
}

func newInitCommand() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new fintrack data directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			hash, err := runInit(absDir, opts)
			if err != nil {
				return err
			}
			msg := "Initialized fintrack data at " + absDir
			if hash != "" {
				msg += " (" + hash + ")"
			}
			successColor.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.currency, "currency", "USD", "default currency")
	cmd.Flags().StringVar(&opts.driver, "store", config.DriverCSV, "store driver (csv or sqlite)")
	cmd.Flags().BoolVar(&opts.git, "git", true, "initialize a git repository and commit")

	return cmd
}

func runInit(dir string, opts initOptions) (string, error) {
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return "", fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	dirs := []string{
		"logs",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return "", fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(strings.ToUpper(opts.currency))
	cfg.Store.Driver = opts.driver
	cfg.Git.AutoCommit = opts.git
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}

	if err := csvstore.SaveCategories(dir, transactions.DefaultCategories()); err != nil {
		return "", fmt.Errorf("writing categories: %w", err)
	}

	switch cfg.Store.Driver {
	case config.DriverSQLite:
		st, err := sqlstore.Open(filepath.Join(dir, cfg.Store.Path))
		if err != nil {
			return "", err
		}
		if err := st.Close(); err != nil {
			return "", err
		}
	default:
		if err := csvstore.Save(dir, store.Snapshot{}); err != nil {
			return "", fmt.Errorf("writing data files: %w", err)
		}
	}

	gitignore := ".env\n*.db-journal\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return "", fmt.Errorf("writing .gitignore: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return "", fmt.Errorf("writing .gitkeep: %w", err)
	}

	if !opts.git {
		return "", nil
	}
	if err := gitops.Init(dir); err != nil {
		return "", fmt.Errorf("git init: %w", err)
	}
	hash, err := gitops.CommitAll(dir, "init: Initialize fintrack data", cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		return "", fmt.Errorf("initial commit: %w", err)
	}
	return hash, nil
}
