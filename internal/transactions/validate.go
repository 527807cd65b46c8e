package transactions

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fintrack-dev/fintrack/internal/id"
	"github.com/fintrack-dev/fintrack/internal/model"
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field       string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Description)
}

// ValidationErrors is returned when input is rejected before any write.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// AccountChecker tests whether an account ID exists.
type AccountChecker interface {
	Exists(id string) bool
}

// CategoryChecker tests whether a category name is known.
type CategoryChecker interface {
	Known(name string) bool
}

var hundred = decimal.NewFromInt(100)

func hasAtMostTwoPlaces(d decimal.Decimal) bool {
	return d.Mul(hundred).Equal(d.Mul(hundred).Floor())
}

// ValidateTransaction checks txn and an optional linked purchase. A nil
// categories checker accepts any non-empty category.
func ValidateTransaction(txn model.Transaction, purchase *model.Purchase, accounts AccountChecker, categories CategoryChecker) []ValidationError {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Description: fmt.Sprintf(format, args...)})
	}

	if txn.AccountID == "" {
		add("account_id", "is required")
	} else if !accounts.Exists(txn.AccountID) {
		add("account_id", "unknown account %s", txn.AccountID)
	}

	switch txn.Type {
	case model.TransactionIncome, model.TransactionExpense:
	default:
		add("type", "must be income or expense, got %q", txn.Type)
	}

	if txn.Amount.IsNegative() {
		add("amount", "must not be negative; use the type for direction")
	}
	if !hasAtMostTwoPlaces(txn.Amount) {
		add("amount", "%s has more than 2 decimal places", txn.Amount)
	}

	if txn.Date.IsZero() {
		add("date", "is required")
	}

	if strings.TrimSpace(txn.Category) == "" {
		add("category", "is required")
	} else if categories != nil && !categories.Known(txn.Category) {
		add("category", "unknown category %q", txn.Category)
	}

	if txn.TransactionID != "" && !id.ValidTransactionID(txn.TransactionID) {
		add("transaction_id", "%q is not F followed by 7 digits", txn.TransactionID)
	}

	if d := txn.DonationAmount; d != nil {
		if d.IsNegative() || d.GreaterThan(txn.Amount) {
			add("donation_amount", "must be between 0 and the amount")
		}
	}

	switch txn.Purpose {
	case model.PurposeNone, model.PurposeSavings, model.PurposeDonation:
	default:
		add("purpose", "unknown purpose %q", txn.Purpose)
	}

	if purchase != nil {
		if txn.Type != model.TransactionExpense {
			add("purchase", "can only be linked to an expense")
		}
		if strings.TrimSpace(purchase.ItemName) == "" {
			add("purchase.item_name", "is required")
		}
		if purchase.Price.IsNegative() {
			add("purchase.price", "must not be negative")
		}
	}

	return errs
}
