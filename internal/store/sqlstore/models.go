package sqlstore

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack-dev/fintrack/internal/model"
)

// Money columns hold integer cents.
const centsExp = 2

type accountRow struct {
	ID                  string `gorm:"primaryKey"`
	Name                string `gorm:"not null"`
	Type                string `gorm:"not null"`
	Currency            string `gorm:"type:varchar(3);not null"`
	InitialBalanceCents int64
	IsActive            bool
	Description         string
	CreatedAt           time.Time
	HasDPS              bool
	DPSType             string
	DPSAmountType       string
	DPSFixedCents       *int64
	DPSSavingsAccountID string `gorm:"index"`
}

func (accountRow) TableName() string { return "accounts" }

type transactionRow struct {
	ID            string `gorm:"primaryKey"`
	TransactionID string `gorm:"uniqueIndex;not null"`
	AccountID     string `gorm:"index;not null"`
	AmountCents   int64
	Type          string `gorm:"not null"`
	Category      string
	Description   string
	Date          time.Time
	Tags          string
	DonationCents *int64
	Purpose       string
	CreatedAt     time.Time
}

func (transactionRow) TableName() string { return "transactions" }

type purchaseRow struct {
	ID                     string `gorm:"primaryKey"`
	TransactionID          string `gorm:"index"`
	ItemName               string
	Category               string
	PriceCents             int64
	Date                   time.Time
	Notes                  string
	ExcludeFromCalculation bool
}

func (purchaseRow) TableName() string { return "purchases" }

func toCents(d decimal.Decimal) int64 {
	return d.Shift(centsExp).Round(0).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -centsExp)
}

func optionalCents(d *decimal.Decimal) *int64 {
	if d == nil {
		return nil
	}
	c := toCents(*d)
	return &c
}

func optionalDecimal(c *int64) *decimal.Decimal {
	if c == nil {
		return nil
	}
	d := fromCents(*c)
	return &d
}

func accountToRow(a model.Account) accountRow {
	return accountRow{
		ID:                  a.ID,
		Name:                a.Name,
		Type:                string(a.Type),
		Currency:            a.Currency,
		InitialBalanceCents: toCents(a.InitialBalance),
		IsActive:            a.IsActive,
		Description:         a.Description,
		CreatedAt:           a.CreatedAt,
		HasDPS:              a.DPS.HasDPS,
		DPSType:             string(a.DPS.Type),
		DPSAmountType:       string(a.DPS.AmountType),
		DPSFixedCents:       optionalCents(a.DPS.FixedAmount),
		DPSSavingsAccountID: a.DPS.SavingsAccountID,
	}
}

func rowToAccount(r accountRow) model.Account {
	return model.Account{
		ID:             r.ID,
		Name:           r.Name,
		Type:           model.AccountType(r.Type),
		Currency:       r.Currency,
		InitialBalance: fromCents(r.InitialBalanceCents),
		IsActive:       r.IsActive,
		Description:    r.Description,
		CreatedAt:      r.CreatedAt.UTC(),
		DPS: model.DPSConfig{
			HasDPS:           r.HasDPS,
			Type:             model.DPSType(r.DPSType),
			AmountType:       model.DPSAmountType(r.DPSAmountType),
			FixedAmount:      optionalDecimal(r.DPSFixedCents),
			SavingsAccountID: r.DPSSavingsAccountID,
		},
	}
}

func transactionToRow(t model.Transaction) transactionRow {
	return transactionRow{
		ID:            t.ID,
		TransactionID: t.TransactionID,
		AccountID:     t.AccountID,
		AmountCents:   toCents(t.Amount),
		Type:          string(t.Type),
		Category:      t.Category,
		Description:   t.Description,
		Date:          t.Date,
		Tags:          strings.Join(t.Tags, ";"),
		DonationCents: optionalCents(t.DonationAmount),
		Purpose:       string(t.Purpose),
		CreatedAt:     t.CreatedAt,
	}
}

func rowToTransaction(r transactionRow) model.Transaction {
	var tags []string
	if r.Tags != "" {
		tags = strings.Split(r.Tags, ";")
	}
	return model.Transaction{
		ID:             r.ID,
		TransactionID:  r.TransactionID,
		AccountID:      r.AccountID,
		Amount:         fromCents(r.AmountCents),
		Type:           model.TransactionType(r.Type),
		Category:       r.Category,
		Description:    r.Description,
		Date:           r.Date.UTC(),
		Tags:           tags,
		DonationAmount: optionalDecimal(r.DonationCents),
		Purpose:        model.Purpose(r.Purpose),
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

func purchaseToRow(p model.Purchase) purchaseRow {
	return purchaseRow{
		ID:                     p.ID,
		TransactionID:          p.TransactionID,
		ItemName:               p.ItemName,
		Category:               p.Category,
		PriceCents:             toCents(p.Price),
		Date:                   p.Date,
		Notes:                  p.Notes,
		ExcludeFromCalculation: p.ExcludeFromCalculation,
	}
}

func rowToPurchase(r purchaseRow) model.Purchase {
	return model.Purchase{
		ID:                     r.ID,
		TransactionID:          r.TransactionID,
		ItemName:               r.ItemName,
		Category:               r.Category,
		Price:                  fromCents(r.PriceCents),
		Date:                   r.Date.UTC(),
		Notes:                  r.Notes,
		ExcludeFromCalculation: r.ExcludeFromCalculation,
	}
}
