package transactions

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fintrack-dev/fintrack/internal/accounts"
	"github.com/fintrack-dev/fintrack/internal/model"
	"github.com/fintrack-dev/fintrack/internal/store"
)

// Service provides business logic for recording transactions.
type Service struct {
	store      store.Store
	categories CategoryChecker
	log        zerolog.Logger
}

// NewService creates a transactions Service. categories may be nil.
func NewService(st store.Store, categories CategoryChecker, log zerolog.Logger) *Service {
	return &Service{
		store:      st,
		categories: categories,
		log:        log.With().Str("component", "transactions").Logger(),
	}
}

// AddParams holds user input for a new transaction.
type AddParams struct {
	AccountID      string
	Type           model.TransactionType
	Amount         decimal.Decimal
	Category       string
	Description    string
	Date           time.Time
	Tags           []string
	DonationAmount *decimal.Decimal
	Purpose        model.Purpose
	Purchase       *model.Purchase // linked purchase, optional
}

// Add validates params against the current accounts and stores the
// transaction. Nothing is written when validation fails.
func (s *Service) Add(ctx context.Context, p AddParams) (store.TransactionRef, error) {
	accts, err := accounts.Load(ctx, s.store)
	if err != nil {
		return store.TransactionRef{}, err
	}

	txn := model.Transaction{
		AccountID:      p.AccountID,
		Type:           p.Type,
		Amount:         p.Amount,
		Category:       p.Category,
		Description:    p.Description,
		Date:           p.Date,
		Tags:           p.Tags,
		DonationAmount: p.DonationAmount,
		Purpose:        p.Purpose,
	}
	if verrs := ValidateTransaction(txn, p.Purchase, accts, s.categories); len(verrs) > 0 {
		return store.TransactionRef{}, ValidationErrors(verrs)
	}

	ref, err := s.store.AddTransaction(ctx, txn, p.Purchase)
	if err != nil {
		return store.TransactionRef{}, fmt.Errorf("storing transaction: %w", err)
	}
	s.log.Debug().
		Str("transaction_id", ref.TransactionID).
		Str("account_id", p.AccountID).
		Str("amount", p.Amount.StringFixed(2)).
		Msg("transaction added")
	return ref, nil
}

// AddExcludedPurchase stores a purchase that has no balance effect.
func (s *Service) AddExcludedPurchase(ctx context.Context, p model.Purchase) (model.Purchase, error) {
	if p.ItemName == "" {
		return model.Purchase{}, ValidationErrors{{Field: "item_name", Description: "is required"}}
	}
	if p.Price.IsNegative() {
		return model.Purchase{}, ValidationErrors{{Field: "price", Description: "must not be negative"}}
	}
	stored, err := s.store.AddPurchase(ctx, p)
	if err != nil {
		return model.Purchase{}, fmt.Errorf("storing purchase: %w", err)
	}
	return stored, nil
}

// TransferParams moves money between two accounts of the same currency.
type TransferParams struct {
	FromID      string
	ToID        string
	Amount      decimal.Decimal
	Date        time.Time
	Category    string
	Description string
	Tag         string // defaults to "transfer"
}

// Transfer records an expense on the source and an income on the
// destination. The two writes are sequential; a failure on the second leaves
// the first in place and is reported with the stored reference.
func (s *Service) Transfer(ctx context.Context, p TransferParams) (out, in store.TransactionRef, err error) {
	accts, err := accounts.Load(ctx, s.store)
	if err != nil {
		return out, in, err
	}
	from, ok := accts.Get(p.FromID)
	if !ok {
		return out, in, fmt.Errorf("source account %s: %w", p.FromID, store.ErrNotFound)
	}
	to, ok := accts.Get(p.ToID)
	if !ok {
		return out, in, fmt.Errorf("destination account %s: %w", p.ToID, store.ErrNotFound)
	}
	if from.Currency != to.Currency {
		return out, in, fmt.Errorf("transfer between %s and %s: currencies differ", from.Currency, to.Currency)
	}
	if p.FromID == p.ToID {
		return out, in, fmt.Errorf("transfer to the same account %s", p.FromID)
	}
	tag := p.Tag
	if tag == "" {
		tag = model.TagTransfer
	}
	category := p.Category
	if category == "" {
		category = "Transfer"
	}

	out, err = s.Add(ctx, AddParams{
		AccountID: from.ID, Type: model.TransactionExpense, Amount: p.Amount, Date: p.Date,
		Category: category, Description: describe(p.Description, "Transfer to "+to.Name), Tags: []string{tag},
	})
	if err != nil {
		return out, in, fmt.Errorf("recording transfer out: %w", err)
	}
	in, err = s.Add(ctx, AddParams{
		AccountID: to.ID, Type: model.TransactionIncome, Amount: p.Amount, Date: p.Date,
		Category: category, Description: describe(p.Description, "Transfer from "+from.Name), Tags: []string{tag},
	})
	if err != nil {
		return out, in, fmt.Errorf("recording transfer in (out leg %s already stored): %w", out.TransactionID, err)
	}
	return out, in, nil
}

func describe(custom, fallback string) string {
	if custom != "" {
		return custom
	}
	return fallback
}
