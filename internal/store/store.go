// Package store defines the persistence interface the ledger services and
// workflows depend on, plus an in-memory implementation.
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/fintrack-dev/fintrack/internal/model"
)

var (
	// ErrNotFound is returned when an account or transaction does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateTransactionID is returned when a caller-supplied
	// transaction ID is already taken.
	ErrDuplicateTransactionID = errors.New("duplicate transaction id")
	// ErrSubCent is returned for money with more than 2 decimal places.
	ErrSubCent = errors.New("more than 2 decimal places")
)

// WholeCents reports whether d has at most 2 decimal places.
func WholeCents(d decimal.Decimal) bool {
	return d.Shift(2).IsInteger()
}

// Store is the remote ledger. Fetches always return authoritative state;
// CalculatedBalance on fetched accounts is derived from the transaction log.
type Store interface {
	FetchAccounts(ctx context.Context) ([]model.Account, error)
	FetchTransactions(ctx context.Context) ([]model.Transaction, error)
	FetchPurchases(ctx context.Context) ([]model.Purchase, error)

	// AddAccount assigns ID and CreatedAt and returns the stored record.
	AddAccount(ctx context.Context, acct model.Account) (model.Account, error)
	// UpdateAccount applies patch; nil fields are left unchanged.
	UpdateAccount(ctx context.Context, id string, patch AccountPatch) error
	// DeleteAccount removes the account together with its transactions.
	DeleteAccount(ctx context.Context, id string) error

	// AddTransaction stores txn, generating a TransactionID when empty. A
	// non-nil purchase is stored linked to the new transaction.
	AddTransaction(ctx context.Context, txn model.Transaction, purchase *model.Purchase) (TransactionRef, error)
	// AddPurchase stores a purchase that has no transaction.
	AddPurchase(ctx context.Context, p model.Purchase) (model.Purchase, error)
}

// TransactionRef identifies a stored transaction.
type TransactionRef struct {
	ID            string
	TransactionID string
}

// AccountPatch is a partial account update.
type AccountPatch struct {
	Name           *string
	Type           *model.AccountType
	Currency       *string
	InitialBalance *decimal.Decimal
	IsActive       *bool
	Description    *string
	DPS            *model.DPSConfig // replaces the whole DPS config
}

// ClearDPS returns a patch that unlinks and resets the DPS config.
func ClearDPS() AccountPatch {
	return AccountPatch{DPS: &model.DPSConfig{}}
}

// Apply writes the non-nil fields of p onto a.
func (p AccountPatch) Apply(a *model.Account) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Currency != nil {
		a.Currency = *p.Currency
	}
	if p.InitialBalance != nil {
		a.InitialBalance = *p.InitialBalance
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.DPS != nil {
		a.DPS = *p.DPS
	}
}
