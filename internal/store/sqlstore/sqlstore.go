// Package sqlstore implements store.Store on SQLite through gorm.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fintrack-dev/fintrack/internal/id"
	"github.com/fintrack-dev/fintrack/internal/model"
	"github.com/fintrack-dev/fintrack/internal/store"
)

// Store is a SQLite-backed store.Store. CalculatedBalance is computed by the
// database from the transactions table on every fetch.
type Store struct {
	db  *gorm.DB
	ids *id.Generator
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the transaction ID generator.
func WithIDGenerator(g *id.Generator) Option {
	return func(s *Store) { s.ids = g }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (or creates) the SQLite database at path and migrates it.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.AutoMigrate(&accountRow{}, &transactionRow{}, &purchaseRow{}); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	s := &Store{db: db, ids: id.NewGenerator(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type balanceRow struct {
	AccountID string
	Net       int64
}

// FetchAccounts implements store.Store.
func (s *Store) FetchAccounts(ctx context.Context) ([]model.Account, error) {
	db := s.db.WithContext(ctx)

	var rows []accountRow
	if err := db.Order("rowid").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("fetching accounts: %w", err)
	}

	var nets []balanceRow
	err := db.Model(&transactionRow{}).
		Select("account_id, SUM(CASE WHEN type = ? THEN amount_cents ELSE -amount_cents END) AS net", string(model.TransactionIncome)).
		Group("account_id").
		Scan(&nets).Error
	if err != nil {
		return nil, fmt.Errorf("summing balances: %w", err)
	}
	netByAccount := make(map[string]int64, len(nets))
	for _, n := range nets {
		netByAccount[n.AccountID] = n.Net
	}

	accts := make([]model.Account, len(rows))
	for i, r := range rows {
		a := rowToAccount(r)
		a.CalculatedBalance = fromCents(r.InitialBalanceCents + netByAccount[r.ID])
		accts[i] = a
	}
	return accts, nil
}

// FetchTransactions implements store.Store.
func (s *Store) FetchTransactions(ctx context.Context) ([]model.Transaction, error) {
	var rows []transactionRow
	if err := s.db.WithContext(ctx).Order("rowid").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("fetching transactions: %w", err)
	}
	txns := make([]model.Transaction, len(rows))
	for i, r := range rows {
		txns[i] = rowToTransaction(r)
	}
	return txns, nil
}

// FetchPurchases implements store.Store.
func (s *Store) FetchPurchases(ctx context.Context) ([]model.Purchase, error) {
	var rows []purchaseRow
	if err := s.db.WithContext(ctx).Order("rowid").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("fetching purchases: %w", err)
	}
	purchases := make([]model.Purchase, len(rows))
	for i, r := range rows {
		purchases[i] = rowToPurchase(r)
	}
	return purchases, nil
}

// AddAccount implements store.Store.
func (s *Store) AddAccount(ctx context.Context, acct model.Account) (model.Account, error) {
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	if !store.WholeCents(acct.InitialBalance) {
		return model.Account{}, fmt.Errorf("adding account: initial balance %s: %w", acct.InitialBalance, store.ErrSubCent)
	}
	acct.CreatedAt = s.now().UTC()
	row := accountToRow(acct)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Account{}, fmt.Errorf("adding account: %w", err)
	}
	acct.CalculatedBalance = acct.InitialBalance
	return acct, nil
}

// UpdateAccount implements store.Store.
func (s *Store) UpdateAccount(ctx context.Context, accountID string, patch store.AccountPatch) error {
	if patch.InitialBalance != nil && !store.WholeCents(*patch.InitialBalance) {
		return fmt.Errorf("updating account: initial balance %s: %w", *patch.InitialBalance, store.ErrSubCent)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row accountRow
		if err := tx.First(&row, "id = ?", accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("account %s: %w", accountID, store.ErrNotFound)
			}
			return err
		}
		acct := rowToAccount(row)
		patch.Apply(&acct)
		updated := accountToRow(acct)
		// Select("*") writes zero values too, so a cleared DPS config sticks.
		return tx.Model(&accountRow{}).Where("id = ?", accountID).Select("*").Updates(&updated).Error
	})
	if err != nil {
		return fmt.Errorf("updating account: %w", err)
	}
	return nil
}

// DeleteAccount implements store.Store.
func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&accountRow{}, "id = ?", accountID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("account %s: %w", accountID, store.ErrNotFound)
		}
		owned := tx.Model(&transactionRow{}).Select("id").Where("account_id = ?", accountID)
		if err := tx.Where("transaction_id IN (?)", owned).Delete(&purchaseRow{}).Error; err != nil {
			return err
		}
		return tx.Where("account_id = ?", accountID).Delete(&transactionRow{}).Error
	})
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	return nil
}

// AddTransaction implements store.Store.
func (s *Store) AddTransaction(ctx context.Context, txn model.Transaction, purchase *model.Purchase) (store.TransactionRef, error) {
	if !store.WholeCents(txn.Amount) {
		return store.TransactionRef{}, fmt.Errorf("adding transaction: amount %s: %w", txn.Amount, store.ErrSubCent)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&accountRow{}).Where("id = ?", txn.AccountID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("account %s: %w", txn.AccountID, store.ErrNotFound)
		}

		var lookupErr error
		taken := func(tid string) bool {
			var c int64
			if err := tx.Model(&transactionRow{}).Where("transaction_id = ?", tid).Count(&c).Error; err != nil {
				lookupErr = err
				return true
			}
			return c > 0
		}
		if txn.TransactionID == "" {
			tid, err := s.ids.NextUnique(taken)
			if lookupErr != nil {
				return lookupErr
			}
			if err != nil {
				return err
			}
			txn.TransactionID = tid
		} else if taken(txn.TransactionID) {
			if lookupErr != nil {
				return lookupErr
			}
			return fmt.Errorf("%s: %w", txn.TransactionID, store.ErrDuplicateTransactionID)
		}

		txn.ID = uuid.NewString()
		txn.CreatedAt = s.now().UTC()
		if purchase != nil && !txn.HasTag(model.TagPurchase) {
			txn.Tags = append(append([]string(nil), txn.Tags...), model.TagPurchase)
		}
		row := transactionToRow(txn)
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%s: %w", txn.TransactionID, store.ErrDuplicateTransactionID)
			}
			return err
		}

		if purchase != nil {
			p := *purchase
			p.ID = uuid.NewString()
			p.TransactionID = txn.ID
			p.ExcludeFromCalculation = false
			prow := purchaseToRow(p)
			if err := tx.Create(&prow).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return store.TransactionRef{}, fmt.Errorf("adding transaction: %w", err)
	}
	return store.TransactionRef{ID: txn.ID, TransactionID: txn.TransactionID}, nil
}

// AddPurchase implements store.Store.
func (s *Store) AddPurchase(ctx context.Context, p model.Purchase) (model.Purchase, error) {
	p.ID = uuid.NewString()
	p.TransactionID = ""
	p.ExcludeFromCalculation = true
	row := purchaseToRow(p)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Purchase{}, fmt.Errorf("adding purchase: %w", err)
	}
	return p, nil
}

var _ store.Store = (*Store)(nil)
