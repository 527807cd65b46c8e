package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/fintrack-dev/fintrack/internal/closurelog"
	"github.com/fintrack-dev/fintrack/internal/config"
	"github.com/fintrack-dev/fintrack/internal/dps"
	"github.com/fintrack-dev/fintrack/internal/gitops"
	"github.com/fintrack-dev/fintrack/internal/ledger"
	"github.com/fintrack-dev/fintrack/internal/logger"
	"github.com/fintrack-dev/fintrack/internal/store"
	"github.com/fintrack-dev/fintrack/internal/store/csvstore"
	"github.com/fintrack-dev/fintrack/internal/store/sqlstore"
	"github.com/fintrack-dev/fintrack/internal/transactions"
)

type globalOptions struct {
	dataDir    string
	configPath string
}

// app is everything a command needs, opened from one data directory.
type app struct {
	dir        string
	cfg        *config.Config
	log        zerolog.Logger
	store      store.Store
	txns       *transactions.Service
	workflow   *dps.Workflow
	classifier ledger.Classifier
	committer  *gitops.Committer
	closeStore func() error
}

func (o *globalOptions) open() (*app, error) {
	dir, err := filepath.Abs(o.dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	if err := config.LoadEnvFile(filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}
	cfgPath := o.configPath
	if cfgPath == "" {
		cfgPath = filepath.Join(dir, config.FileName)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no %s in %s, run 'fintrack init' first", config.FileName, dir)
		}
		return nil, err
	}
	config.ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	a := &app{
		dir: dir,
		cfg: cfg,
		log: log,
		classifier: ledger.Classifier{
			SavingsCategory:  cfg.Ledger.SavingsCategory,
			DonationCategory: cfg.Ledger.DonationCategory,
		},
		committer:  gitops.NewCommitter(dir, cfg.Git.AutoCommit, cfg.Git.AuthorName, cfg.Git.AuthorEmail, log),
		closeStore: func() error { return nil },
	}

	switch cfg.Store.Driver {
	case config.DriverSQLite:
		path := cfg.Store.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		st, err := sqlstore.Open(path)
		if err != nil {
			return nil, err
		}
		a.store = st
		a.closeStore = st.Close
	default:
		st, err := csvstore.OpenDir(dir)
		if err != nil {
			return nil, err
		}
		a.store = st
	}

	cats, err := csvstore.LoadCategories(dir)
	if err != nil {
		_ = a.closeStore()
		return nil, err
	}
	a.txns = transactions.NewService(a.store, transactions.NewCategorySet(cats), log)
	a.workflow = dps.NewWorkflow(a.store, closurelog.New(dir), log,
		dps.WithCategory(cfg.DPS.Category),
		dps.WithCashWalletName(cfg.DPS.CashWalletName),
	)
	return a, nil
}

func (a *app) Close() error {
	return a.closeStore()
}

// commit records the data directory in git when auto-commit is on. A failed
// commit never fails the command that changed the data.
func (a *app) commit(message string) {
	if _, err := a.committer.Commit(message); err != nil {
		a.log.Warn().Err(err).Str("message", message).Msg("auto-commit failed")
	}
}
