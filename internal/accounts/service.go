package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/fintrack-dev/fintrack/internal/model"
	"github.com/fintrack-dev/fintrack/internal/store"
)

// ErrInvalidDPSLink marks a DPS link that breaks the link rules.
var ErrInvalidDPSLink = errors.New("invalid DPS link")

// Service provides in-memory lookup over a fetched account list.
type Service struct {
	accounts []model.Account
	byID     map[string]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	byID := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return &Service{accounts: accounts, byID: byID}
}

// Load fetches the current accounts from st and returns a Service.
func Load(ctx context.Context, st store.Store) (*Service, error) {
	accts, err := st.FetchAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching accounts: %w", err)
	}
	return NewService(accts), nil
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by ID.
func (s *Service) Get(id string) (model.Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(accountType model.AccountType) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// Active returns the accounts that are not deactivated.
func (s *Service) Active() []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.IsActive {
			result = append(result, a)
		}
	}
	return result
}

// FindCashWallet returns the first cash account in currency.
func (s *Service) FindCashWallet(currency string) (model.Account, bool) {
	for _, a := range s.ByType(model.AccountTypeCash) {
		if IsCashWallet(a, currency) {
			return a, true
		}
	}
	return model.Account{}, false
}

// IsCashWallet reports whether a can receive balances in currency.
func IsCashWallet(a model.Account, currency string) bool {
	return a.Type == model.AccountTypeCash && a.Currency == currency
}

// LinkedDPS returns the DPS sub-account linked from primaryID.
func (s *Service) LinkedDPS(primaryID string) (model.Account, bool) {
	primary, ok := s.byID[primaryID]
	if !ok || !primary.DPS.Linked() {
		return model.Account{}, false
	}
	return s.Get(primary.DPS.SavingsAccountID)
}

// PrimaryOf returns the account whose DPS config links to subID.
func (s *Service) PrimaryOf(subID string) (model.Account, bool) {
	for _, a := range s.accounts {
		if a.DPS.SavingsAccountID == subID {
			return a, true
		}
	}
	return model.Account{}, false
}

// CheckDPSLink validates the link held by primaryID. The linked account
// must exist and carry no DPS config of its own, and the primary must not
// be another account's DPS account. Unlinked accounts pass.
func (s *Service) CheckDPSLink(primaryID string) error {
	a, ok := s.byID[primaryID]
	if !ok || !a.DPS.Linked() {
		return nil
	}
	sub, ok := s.byID[a.DPS.SavingsAccountID]
	if !ok {
		return fmt.Errorf("account %s links missing DPS account %s: %w", a.ID, a.DPS.SavingsAccountID, ErrInvalidDPSLink)
	}
	if sub.DPS != (model.DPSConfig{}) {
		return fmt.Errorf("DPS account %s carries its own DPS config: %w", sub.ID, ErrInvalidDPSLink)
	}
	if owner, ok := s.PrimaryOf(a.ID); ok {
		return fmt.Errorf("account %s is the DPS account of %s: %w", a.ID, owner.ID, ErrInvalidDPSLink)
	}
	return nil
}

// CheckDPSLinks runs CheckDPSLink over every account and returns the
// failures in account order.
func (s *Service) CheckDPSLinks() []error {
	var errs []error
	for _, a := range s.accounts {
		if err := s.CheckDPSLink(a.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
