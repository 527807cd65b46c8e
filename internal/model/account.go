package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies user accounts.
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCash       AccountType = "cash"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeDPS        AccountType = "dps"
)

// AccountTypes lists every known account type.
var AccountTypes = []AccountType{
	AccountTypeChecking,
	AccountTypeSavings,
	AccountTypeCash,
	AccountTypeCredit,
	AccountTypeInvestment,
	AccountTypeDPS,
}

// DPSType is the cadence of a recurring savings plan.
type DPSType string

const (
	DPSTypeMonthly  DPSType = "monthly"
	DPSTypeFlexible DPSType = "flexible"
)

// DPSAmountType says whether each deposit is a fixed amount.
type DPSAmountType string

const (
	DPSAmountFixed  DPSAmountType = "fixed"
	DPSAmountCustom DPSAmountType = "custom"
)

// DPSConfig is carried by a primary account that owns a DPS sub-account.
// The sub-account itself never has a non-zero DPSConfig.
type DPSConfig struct {
	HasDPS           bool
	Type             DPSType
	AmountType       DPSAmountType
	FixedAmount      *decimal.Decimal
	SavingsAccountID string // "" = no linked sub-account
}

// Linked reports whether the config points at a DPS sub-account.
func (c DPSConfig) Linked() bool {
	return c.SavingsAccountID != ""
}

// Account is a user account. CalculatedBalance is owned by the store.
type Account struct {
	ID                string
	Name              string
	Type              AccountType
	Currency          string
	InitialBalance    decimal.Decimal
	CalculatedBalance decimal.Decimal
	IsActive          bool
	Description       string
	CreatedAt         time.Time
	DPS               DPSConfig
}
