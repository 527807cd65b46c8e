package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is an itemised expense. When ExcludeFromCalculation is set it
// exists without a Transaction and has no balance effect.
type Purchase struct {
	ID                     string
	TransactionID          string // store key of the linked Transaction
	ItemName               string
	Category               string
	Price                  decimal.Decimal
	Date                   time.Time
	Notes                  string
	ExcludeFromCalculation bool
}

// Category is a user-defined transaction category.
type Category struct {
	Name  string
	Type  TransactionType
	Color string
}
