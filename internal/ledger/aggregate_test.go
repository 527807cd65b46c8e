package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack-dev/fintrack/internal/model"
)

func mixedCurrencyFixture() ([]model.Account, []model.Transaction) {
	accounts := []model.Account{
		{ID: "usd-1", Currency: "USD"},
		{ID: "usd-2", Currency: "USD"},
		{ID: "eur-1", Currency: "EUR"},
	}
	mk := func(acct string, typ model.TransactionType, amount, category string) model.Transaction {
		return model.Transaction{AccountID: acct, Type: typ, Amount: dec(amount), Category: category}
	}
	txns := []model.Transaction{
		mk("usd-1", model.TransactionIncome, "1000", "Salary"),
		mk("usd-1", model.TransactionExpense, "200", "Groceries"),
		mk("usd-2", model.TransactionIncome, "150", "Savings"),
		mk("usd-2", model.TransactionIncome, "25", "Donation"),
		mk("eur-1", model.TransactionIncome, "700", "Salary"),
		mk("eur-1", model.TransactionExpense, "80", "Groceries"),
		mk("eur-1", model.TransactionIncome, "40", "Savings"),
		mk("ghost", model.TransactionIncome, "999", "Salary"),
	}
	return accounts, txns
}

func TestAggregates(t *testing.T) {
	accounts, txns := mixedCurrencyFixture()

	usd := Aggregates(accounts, txns, "USD")
	assert.Equal(t, "USD", usd.Currency)
	assert.Equal(t, "1175", usd.TotalIncome.String())
	assert.Equal(t, "200", usd.TotalExpense.String())
	assert.Equal(t, "150", usd.TotalSaved.String())
	assert.Equal(t, "25", usd.TotalDonated.String())
	assert.Equal(t, 4, usd.Count)
	assert.Equal(t, "975", usd.Net().String())

	eur := Aggregates(accounts, txns, "EUR")
	assert.Equal(t, "740", eur.TotalIncome.String())
	assert.Equal(t, "80", eur.TotalExpense.String())
	assert.Equal(t, "40", eur.TotalSaved.String())
	assert.True(t, eur.TotalDonated.IsZero())
	assert.Equal(t, 3, eur.Count)
}

func TestAggregates_CurrencyIsolation(t *testing.T) {
	accounts, txns := mixedCurrencyFixture()
	for _, cur := range Currencies(accounts) {
		subset := FilterRows(txns, TransactionFilter{Currency: cur}.Predicates(accounts)...)

		mixed := Aggregates(accounts, txns, cur)
		isolated := Aggregates(accounts, subset, cur)
		assert.True(t, mixed.TotalIncome.Equal(isolated.TotalIncome), cur)
		assert.True(t, mixed.TotalExpense.Equal(isolated.TotalExpense), cur)
		assert.Equal(t, mixed.Count, isolated.Count, cur)

		sum := Balance(dec("0"), subset)
		assert.True(t, sum.Equal(mixed.Net()), "signed sum of %s subset", cur)
	}
}

func TestAggregates_Empty(t *testing.T) {
	got := Aggregates(nil, nil, "USD")
	assert.True(t, got.TotalIncome.IsZero())
	assert.True(t, got.TotalExpense.IsZero())
	assert.True(t, got.TotalSaved.IsZero())
	assert.True(t, got.TotalDonated.IsZero())
	assert.Zero(t, got.Count)
}

func TestClassifier_PurposeWinsOverCategory(t *testing.T) {
	accounts := []model.Account{{ID: "a", Currency: "USD"}}
	txns := []model.Transaction{
		{AccountID: "a", Type: model.TransactionIncome, Amount: dec("10"), Category: "Gift", Purpose: model.PurposeDonation},
		{AccountID: "a", Type: model.TransactionIncome, Amount: dec("5"), Category: "Savings", Purpose: model.PurposeDonation},
		{AccountID: "a", Type: model.TransactionExpense, Amount: dec("3"), Category: "Savings"},
	}
	got := Aggregates(accounts, txns, "USD")
	assert.Equal(t, "15", got.TotalDonated.String())
	assert.True(t, got.TotalSaved.IsZero(), "expenses never count as saved")
}

func TestClassifier_CustomCategories(t *testing.T) {
	c := Classifier{SavingsCategory: "Sparen"}
	assert.Equal(t, model.PurposeSavings, c.Purpose(model.Transaction{Category: "Sparen"}))
	assert.Equal(t, model.PurposeNone, c.Purpose(model.Transaction{Category: "Savings"}))
	assert.Equal(t, model.PurposeNone, c.Purpose(model.Transaction{}))
}

func TestCurrencies(t *testing.T) {
	accounts := []model.Account{{Currency: "USD"}, {Currency: "EUR"}, {Currency: "USD"}, {}}
	assert.Equal(t, []string{"EUR", "USD"}, Currencies(accounts))
}

func TestByCategory(t *testing.T) {
	accounts, txns := mixedCurrencyFixture()
	got := ByCategory(accounts, txns, "USD", model.TransactionIncome)
	require.Len(t, got, 3)
	assert.Equal(t, "Salary", got[0].Category)
	assert.Equal(t, "1000", got[0].Amount.String())
	assert.Equal(t, "Savings", got[1].Category)
	assert.Equal(t, "Donation", got[2].Category)
	assert.Equal(t, 1, got[2].Count)
}
