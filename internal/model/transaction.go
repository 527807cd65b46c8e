package model

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a transaction. Amounts are always
// stored as non-negative magnitudes; the type carries the sign.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Well-known tags marking synthetic or linked transactions.
const (
	TagTransfer    = "transfer"
	TagDPSTransfer = "dps_transfer"
	TagDPSDeletion = "dps_deletion"
	TagPurchase    = "purchase"
)

// Purpose marks income that counts towards the saved or donated totals.
type Purpose string

const (
	PurposeNone     Purpose = ""
	PurposeSavings  Purpose = "savings"
	PurposeDonation Purpose = "donation"
)

// Transaction is one entry in an account's log.
type Transaction struct {
	ID             string // store key
	TransactionID  string // human-facing, "F" + 7 digits
	AccountID      string
	Amount         decimal.Decimal
	Type           TransactionType
	Category       string
	Description    string
	Date           time.Time
	Tags           []string
	DonationAmount *decimal.Decimal
	Purpose        Purpose
	CreatedAt      time.Time
}

// Signed returns the amount with the sign implied by the type: income adds,
// anything else subtracts.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == TransactionIncome {
		return t.Amount
	}
	return t.Amount.Neg()
}

// HasTag reports whether the transaction carries tag.
func (t Transaction) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// BankTransaction represents a parsed bank CSV row.
type BankTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal // negative = expense, positive = income
	Reference   string
	Type        string // bank transaction type (ACH_DEBIT, etc.)
}
