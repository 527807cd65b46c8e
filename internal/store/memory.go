package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fintrack-dev/fintrack/internal/id"
	"github.com/fintrack-dev/fintrack/internal/ledger"
	"github.com/fintrack-dev/fintrack/internal/model"
)

// Snapshot is the full content of a store.
type Snapshot struct {
	Accounts     []model.Account
	Transactions []model.Transaction
	Purchases    []model.Purchase
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{
		Accounts:     slices.Clone(s.Accounts),
		Transactions: slices.Clone(s.Transactions),
		Purchases:    slices.Clone(s.Purchases),
	}
}

// Memory is an in-memory Store, safe for concurrent use. Each mutation works
// on a copy that only replaces the current state once the persist hook (if
// any) succeeds.
type Memory struct {
	mu      sync.RWMutex
	state   Snapshot
	ids     *id.Generator
	now     func() time.Time
	persist func(Snapshot) error
}

// Option configures a Memory store.
type Option func(*Memory)

// WithSnapshot seeds the store.
func WithSnapshot(s Snapshot) Option {
	return func(m *Memory) { m.state = s.clone() }
}

// WithPersist registers a hook called with the new state after every
// mutation. A hook error aborts the mutation.
func WithPersist(fn func(Snapshot) error) Option {
	return func(m *Memory) { m.persist = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

// WithIDGenerator overrides the transaction ID generator.
func WithIDGenerator(g *id.Generator) Option {
	return func(m *Memory) { m.ids = g }
}

// NewMemory creates an empty Memory store.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{ids: id.NewGenerator(), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns a copy of the current state.
func (m *Memory) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// FetchAccounts implements Store.
func (m *Memory) FetchAccounts(_ context.Context) ([]model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Account, len(m.state.Accounts))
	for i, a := range m.state.Accounts {
		a.CalculatedBalance = ledger.Balance(a.InitialBalance, ledger.ForAccount(a.ID, m.state.Transactions))
		out[i] = a
	}
	return out, nil
}

// FetchTransactions implements Store.
func (m *Memory) FetchTransactions(_ context.Context) ([]model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Transaction, len(m.state.Transactions))
	for i, t := range m.state.Transactions {
		t.Tags = slices.Clone(t.Tags)
		out[i] = t
	}
	return out, nil
}

// FetchPurchases implements Store.
func (m *Memory) FetchPurchases(_ context.Context) ([]model.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.state.Purchases), nil
}

// AddAccount implements Store.
func (m *Memory) AddAccount(ctx context.Context, acct model.Account) (model.Account, error) {
	if err := ctx.Err(); err != nil {
		return model.Account{}, err
	}
	if !WholeCents(acct.InitialBalance) {
		return model.Account{}, fmt.Errorf("adding account: initial balance %s: %w", acct.InitialBalance, ErrSubCent)
	}
	err := m.update(func(s *Snapshot) error {
		if acct.ID == "" {
			acct.ID = uuid.NewString()
		} else if accountIndex(s.Accounts, acct.ID) >= 0 {
			return fmt.Errorf("account %s already exists", acct.ID)
		}
		acct.CreatedAt = m.now().UTC()
		acct.CalculatedBalance = acct.InitialBalance
		s.Accounts = append(s.Accounts, acct)
		return nil
	})
	if err != nil {
		return model.Account{}, fmt.Errorf("adding account: %w", err)
	}
	return acct, nil
}

// UpdateAccount implements Store.
func (m *Memory) UpdateAccount(ctx context.Context, accountID string, patch AccountPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if patch.InitialBalance != nil && !WholeCents(*patch.InitialBalance) {
		return fmt.Errorf("updating account: initial balance %s: %w", *patch.InitialBalance, ErrSubCent)
	}
	err := m.update(func(s *Snapshot) error {
		i := accountIndex(s.Accounts, accountID)
		if i < 0 {
			return fmt.Errorf("account %s: %w", accountID, ErrNotFound)
		}
		patch.Apply(&s.Accounts[i])
		return nil
	})
	if err != nil {
		return fmt.Errorf("updating account: %w", err)
	}
	return nil
}

// DeleteAccount implements Store.
func (m *Memory) DeleteAccount(ctx context.Context, accountID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := m.update(func(s *Snapshot) error {
		i := accountIndex(s.Accounts, accountID)
		if i < 0 {
			return fmt.Errorf("account %s: %w", accountID, ErrNotFound)
		}
		s.Accounts = slices.Delete(s.Accounts, i, i+1)

		removed := make(map[string]bool)
		s.Transactions = slices.DeleteFunc(s.Transactions, func(t model.Transaction) bool {
			if t.AccountID == accountID {
				removed[t.ID] = true
				return true
			}
			return false
		})
		s.Purchases = slices.DeleteFunc(s.Purchases, func(p model.Purchase) bool {
			return p.TransactionID != "" && removed[p.TransactionID]
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	return nil
}

// AddTransaction implements Store.
func (m *Memory) AddTransaction(ctx context.Context, txn model.Transaction, purchase *model.Purchase) (TransactionRef, error) {
	if err := ctx.Err(); err != nil {
		return TransactionRef{}, err
	}
	if !WholeCents(txn.Amount) {
		return TransactionRef{}, fmt.Errorf("adding transaction: amount %s: %w", txn.Amount, ErrSubCent)
	}
	err := m.update(func(s *Snapshot) error {
		if accountIndex(s.Accounts, txn.AccountID) < 0 {
			return fmt.Errorf("account %s: %w", txn.AccountID, ErrNotFound)
		}
		taken := func(tid string) bool {
			return slices.ContainsFunc(s.Transactions, func(t model.Transaction) bool { return t.TransactionID == tid })
		}
		if txn.TransactionID == "" {
			tid, err := m.ids.NextUnique(taken)
			if err != nil {
				return err
			}
			txn.TransactionID = tid
		} else if taken(txn.TransactionID) {
			return fmt.Errorf("%s: %w", txn.TransactionID, ErrDuplicateTransactionID)
		}
		txn.ID = uuid.NewString()
		txn.CreatedAt = m.now().UTC()
		txn.Tags = slices.Clone(txn.Tags)
		if purchase != nil && !txn.HasTag(model.TagPurchase) {
			txn.Tags = append(txn.Tags, model.TagPurchase)
		}
		s.Transactions = append(s.Transactions, txn)

		if purchase != nil {
			p := *purchase
			p.ID = uuid.NewString()
			p.TransactionID = txn.ID
			p.ExcludeFromCalculation = false
			s.Purchases = append(s.Purchases, p)
		}
		return nil
	})
	if err != nil {
		return TransactionRef{}, fmt.Errorf("adding transaction: %w", err)
	}
	return TransactionRef{ID: txn.ID, TransactionID: txn.TransactionID}, nil
}

// AddPurchase implements Store.
func (m *Memory) AddPurchase(ctx context.Context, p model.Purchase) (model.Purchase, error) {
	if err := ctx.Err(); err != nil {
		return model.Purchase{}, err
	}
	err := m.update(func(s *Snapshot) error {
		p.ID = uuid.NewString()
		p.TransactionID = ""
		p.ExcludeFromCalculation = true
		s.Purchases = append(s.Purchases, p)
		return nil
	})
	if err != nil {
		return model.Purchase{}, fmt.Errorf("adding purchase: %w", err)
	}
	return p, nil
}

func (m *Memory) update(fn func(*Snapshot) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.state.clone()
	if err := fn(&next); err != nil {
		return err
	}
	if m.persist != nil {
		if err := m.persist(next); err != nil {
			return fmt.Errorf("persisting: %w", err)
		}
	}
	m.state = next
	return nil
}

func accountIndex(accounts []model.Account, accountID string) int {
	return slices.IndexFunc(accounts, func(a model.Account) bool { return a.ID == accountID })
}

var _ Store = (*Memory)(nil)
