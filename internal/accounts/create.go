package accounts

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fintrack-dev/fintrack/internal/model"
	"github.com/fintrack-dev/fintrack/internal/store"
)

var validate = validator.New()

// NewAccountParams holds user input for a new account.
type NewAccountParams struct {
	Name           string            `validate:"required,max=100"`
	Type           model.AccountType `validate:"required,oneof=checking savings cash credit investment dps"`
	Currency       string            `validate:"required,len=3,uppercase"`
	InitialBalance decimal.Decimal
	Description    string `validate:"max=500"`
}

// Validate checks the params.
func (p NewAccountParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid account: %w", err)
	}
	if !store.WholeCents(p.InitialBalance) {
		return fmt.Errorf("invalid account: InitialBalance %s: %w", p.InitialBalance, store.ErrSubCent)
	}
	return nil
}

// Create validates params and stores a new active account.
func Create(ctx context.Context, st store.Store, p NewAccountParams) (model.Account, error) {
	if err := p.Validate(); err != nil {
		return model.Account{}, err
	}
	return st.AddAccount(ctx, model.Account{
		Name:           p.Name,
		Type:           p.Type,
		Currency:       p.Currency,
		InitialBalance: p.InitialBalance,
		IsActive:       true,
		Description:    p.Description,
	})
}

// SetActive toggles an account instead of deleting it.
func SetActive(ctx context.Context, st store.Store, id string, active bool) error {
	return st.UpdateAccount(ctx, id, store.AccountPatch{IsActive: &active})
}
