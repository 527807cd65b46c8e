package dps

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack-dev/fintrack/internal/accounts"
	"github.com/fintrack-dev/fintrack/internal/model"
	"github.com/fintrack-dev/fintrack/internal/store"
	"github.com/fintrack-dev/fintrack/internal/transactions"
)

// AttachParams configures a new DPS sub-account.
type AttachParams struct {
	Type        model.DPSType
	AmountType  model.DPSAmountType
	FixedAmount *decimal.Decimal
}

func (p AttachParams) validate() error {
	switch p.Type {
	case model.DPSTypeMonthly, model.DPSTypeFlexible:
	default:
		return fmt.Errorf("unknown DPS type %q", p.Type)
	}
	switch p.AmountType {
	case model.DPSAmountFixed:
		if p.FixedAmount == nil || !p.FixedAmount.IsPositive() {
			return fmt.Errorf("fixed DPS needs a positive amount")
		}
	case model.DPSAmountCustom:
		if p.FixedAmount != nil {
			return fmt.Errorf("custom DPS takes no fixed amount")
		}
	default:
		return fmt.Errorf("unknown DPS amount type %q", p.AmountType)
	}
	return nil
}

// Attach creates a DPS sub-account in the primary's currency and links it.
// The link lives only on the primary; the sub-account has no DPS config.
func (w *Workflow) Attach(ctx context.Context, primaryID string, p AttachParams) (model.Account, error) {
	if err := p.validate(); err != nil {
		return model.Account{}, err
	}
	accts, err := accounts.Load(ctx, w.store)
	if err != nil {
		return model.Account{}, err
	}
	primary, ok := accts.Get(primaryID)
	if !ok {
		return model.Account{}, fmt.Errorf("account %s: %w", primaryID, store.ErrNotFound)
	}
	if primary.DPS.Linked() {
		return model.Account{}, fmt.Errorf("account %s: %w", primaryID, ErrAlreadyLinked)
	}
	if primary.Type == model.AccountTypeDPS {
		return model.Account{}, fmt.Errorf("account %s is itself a DPS account", primaryID)
	}
	if owner, ok := accts.PrimaryOf(primaryID); ok {
		return model.Account{}, fmt.Errorf("account %s is the DPS account of %s: %w", primaryID, owner.ID, accounts.ErrInvalidDPSLink)
	}

	sub, err := w.store.AddAccount(ctx, model.Account{
		Name:        primary.Name + " DPS",
		Type:        model.AccountTypeDPS,
		Currency:    primary.Currency,
		IsActive:    true,
		Description: "Recurring savings for " + primary.Name,
	})
	if err != nil {
		return model.Account{}, fmt.Errorf("creating DPS account: %w", err)
	}

	cfg := model.DPSConfig{
		HasDPS:           true,
		Type:             p.Type,
		AmountType:       p.AmountType,
		FixedAmount:      p.FixedAmount,
		SavingsAccountID: sub.ID,
	}
	if err := w.store.UpdateAccount(ctx, primaryID, store.AccountPatch{DPS: &cfg}); err != nil {
		return sub, fmt.Errorf("linking DPS account %s: %w", sub.ID, err)
	}
	w.log.Info().Str("primary_id", primaryID).Str("sub_id", sub.ID).Str("type", string(p.Type)).Msg("DPS attached")
	return sub, nil
}

// Contribute moves amount from the primary account into its DPS account.
// A zero amount uses the configured fixed amount.
func (w *Workflow) Contribute(ctx context.Context, primaryID string, amount decimal.Decimal, date time.Time) (out, in store.TransactionRef, err error) {
	accts, err := accounts.Load(ctx, w.store)
	if err != nil {
		return out, in, err
	}
	primary, ok := accts.Get(primaryID)
	if !ok {
		return out, in, fmt.Errorf("account %s: %w", primaryID, store.ErrNotFound)
	}
	sub, ok := accts.LinkedDPS(primaryID)
	if !ok {
		return out, in, fmt.Errorf("account %s: %w", primaryID, ErrNotLinked)
	}

	if amount.IsZero() && primary.DPS.FixedAmount != nil {
		amount = *primary.DPS.FixedAmount
	}
	if !amount.IsPositive() {
		return out, in, fmt.Errorf("contribution amount must be positive")
	}

	out, in, err = w.txns.Transfer(ctx, transactions.TransferParams{
		FromID:      primary.ID,
		ToID:        sub.ID,
		Amount:      amount,
		Date:        dateOf(date),
		Category:    w.category,
		Description: "DPS deposit to " + sub.Name,
		Tag:         model.TagDPSTransfer,
	})
	if err != nil {
		return out, in, err
	}
	w.log.Info().
		Str("primary_id", primary.ID).
		Str("sub_id", sub.ID).
		Str("amount", amount.StringFixed(2)).
		Msg("DPS contribution recorded")
	return out, in, nil
}
