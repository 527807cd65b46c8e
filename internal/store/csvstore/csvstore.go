// Package csvstore persists a store.Memory as CSV files in a data directory.
package csvstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fintrack-dev/fintrack/internal/accounts"
	"github.com/fintrack-dev/fintrack/internal/model"
	"github.com/fintrack-dev/fintrack/internal/store"
	"github.com/fintrack-dev/fintrack/internal/transactions"
)

// File names inside a data directory.
const (
	AccountsFile     = "accounts.csv"
	TransactionsFile = "transactions.csv"
	PurchasesFile    = "purchases.csv"
	CategoriesFile   = "categories.csv"
)

// OpenDir loads the CSV files in dir into a Memory store that rewrites them
// after every mutation. Missing files are treated as empty.
func OpenDir(dir string, opts ...store.Option) (*store.Memory, error) {
	snap, err := Load(dir)
	if err != nil {
		return nil, err
	}
	opts = append([]store.Option{
		store.WithSnapshot(snap),
		store.WithPersist(func(s store.Snapshot) error { return Save(dir, s) }),
	}, opts...)
	return store.NewMemory(opts...), nil
}

// Load reads all data files in dir.
func Load(dir string) (store.Snapshot, error) {
	var snap store.Snapshot
	var err error

	if snap.Accounts, err = readFile(filepath.Join(dir, AccountsFile), accounts.ReadAccounts); err != nil {
		return store.Snapshot{}, err
	}
	if snap.Transactions, err = readFile(filepath.Join(dir, TransactionsFile), transactions.ReadTransactions); err != nil {
		return store.Snapshot{}, err
	}
	if snap.Purchases, err = readFile(filepath.Join(dir, PurchasesFile), transactions.ReadPurchases); err != nil {
		return store.Snapshot{}, err
	}
	return snap, nil
}

// Save writes every data file in dir. Each file is replaced atomically.
func Save(dir string, s store.Snapshot) error {
	if err := writeFile(filepath.Join(dir, AccountsFile), func(w io.Writer) error {
		return accounts.WriteAccounts(w, s.Accounts)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, TransactionsFile), func(w io.Writer) error {
		return transactions.WriteTransactions(w, s.Transactions)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, PurchasesFile), func(w io.Writer) error {
		return transactions.WritePurchases(w, s.Purchases)
	})
}

// LoadCategories reads categories.csv, falling back to the defaults when
// the file does not exist.
func LoadCategories(dir string) ([]model.Category, error) {
	cats, err := readFile(filepath.Join(dir, CategoriesFile), transactions.ReadCategories)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		return transactions.DefaultCategories(), nil
	}
	return cats, nil
}

// SaveCategories writes categories.csv.
func SaveCategories(dir string, cats []model.Category) error {
	return writeFile(filepath.Join(dir, CategoriesFile), func(w io.Writer) error {
		return transactions.WriteCategories(w, cats)
	})
}

func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	rows, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
