package transactions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack-dev/fintrack/internal/model"
)

type mockAccounts map[string]bool

func (m mockAccounts) Exists(id string) bool { return m[id] }

func validTxn() model.Transaction {
	return model.Transaction{
		AccountID: "acct-1",
		Type:      model.TransactionExpense,
		Amount:    dec("12.34"),
		Category:  "Groceries",
		Date:      date(2025, 1, 10),
	}
}

func fields(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func TestValidateTransaction_Valid(t *testing.T) {
	errs := ValidateTransaction(validTxn(), nil, mockAccounts{"acct-1": true}, NewCategorySet(DefaultCategories()))
	assert.Empty(t, errs)
}

func TestValidateTransaction_ZeroAmountAllowed(t *testing.T) {
	txn := validTxn()
	txn.Amount = dec("0")
	assert.Empty(t, ValidateTransaction(txn, nil, mockAccounts{"acct-1": true}, nil))
}

func TestValidateTransaction_Rules(t *testing.T) {
	accts := mockAccounts{"acct-1": true}
	bigDonation := dec("50")

	tests := []struct {
		name   string
		mutate func(*model.Transaction)
		field  string
	}{
		{"missing account", func(t *model.Transaction) { t.AccountID = "" }, "account_id"},
		{"unknown account", func(t *model.Transaction) { t.AccountID = "ghost" }, "account_id"},
		{"bad type", func(t *model.Transaction) { t.Type = "transfer" }, "type"},
		{"negative amount", func(t *model.Transaction) { t.Amount = dec("-1") }, "amount"},
		{"three decimals", func(t *model.Transaction) { t.Amount = dec("1.005") }, "amount"},
		{"zero date", func(t *model.Transaction) { t.Date = time.Time{} }, "date"},
		{"empty category", func(t *model.Transaction) { t.Category = " " }, "category"},
		{"bad transaction id", func(t *model.Transaction) { t.TransactionID = "X1234567" }, "transaction_id"},
		{"donation over amount", func(t *model.Transaction) { t.DonationAmount = &bigDonation }, "donation_amount"},
		{"unknown purpose", func(t *model.Transaction) { t.Purpose = "gambling" }, "purpose"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := validTxn()
			tt.mutate(&txn)
			errs := ValidateTransaction(txn, nil, accts, nil)
			require.NotEmpty(t, errs)
			assert.Contains(t, fields(errs), tt.field)
		})
	}
}

func TestValidateTransaction_UnknownCategory(t *testing.T) {
	txn := validTxn()
	txn.Category = "Lottery"
	errs := ValidateTransaction(txn, nil, mockAccounts{"acct-1": true}, NewCategorySet(DefaultCategories()))
	assert.Equal(t, []string{"category"}, fields(errs))
}

func TestValidateTransaction_Purchase(t *testing.T) {
	accts := mockAccounts{"acct-1": true}

	errs := ValidateTransaction(validTxn(), &model.Purchase{ItemName: "Bread", Price: dec("2")}, accts, nil)
	assert.Empty(t, errs)

	income := validTxn()
	income.Type = model.TransactionIncome
	errs = ValidateTransaction(income, &model.Purchase{ItemName: "", Price: dec("-1")}, accts, nil)
	assert.ElementsMatch(t, []string{"purchase", "purchase.item_name", "purchase.price"}, fields(errs))
}

func TestValidationErrors_Error(t *testing.T) {
	err := ValidationErrors{
		{Field: "amount", Description: "must not be negative"},
		{Field: "date", Description: "is required"},
	}
	assert.Equal(t, "validation failed: amount: must not be negative; date: is required", err.Error())
}
