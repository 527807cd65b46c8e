package transactions

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack-dev/fintrack/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestTransactionsRoundTrip(t *testing.T) {
	donation := dec("2.50")
	txns := []model.Transaction{
		{
			ID:             "a1",
			TransactionID:  "F0000001",
			AccountID:      "acct-1",
			Date:           date(2025, 3, 1),
			Type:           model.TransactionIncome,
			Amount:         dec("1200.00"),
			Category:       "Salary",
			Description:    "March salary, net",
			Tags:           []string{"payroll", "recurring"},
			DonationAmount: &donation,
			Purpose:        model.PurposeSavings,
			CreatedAt:      time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			ID:            "a2",
			TransactionID: "F0000002",
			AccountID:     "acct-1",
			Date:          date(2025, 3, 2),
			Type:          model.TransactionExpense,
			Amount:        dec("45.10"),
			Category:      "Groceries",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, txns))
	assert.True(t, strings.HasPrefix(buf.String(), Header+"\n"))

	got, err := ReadTransactions(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "F0000001", got[0].TransactionID)
	assert.Equal(t, []string{"payroll", "recurring"}, got[0].Tags)
	require.NotNil(t, got[0].DonationAmount)
	assert.True(t, got[0].DonationAmount.Equal(donation))
	assert.Equal(t, model.PurposeSavings, got[0].Purpose)
	assert.True(t, got[0].CreatedAt.Equal(txns[0].CreatedAt))
	assert.Equal(t, "March salary, net", got[0].Description)

	assert.Nil(t, got[1].Tags)
	assert.Nil(t, got[1].DonationAmount)
	assert.True(t, got[1].CreatedAt.IsZero())
	assert.True(t, got[1].Amount.Equal(dec("45.10")))
}

func TestReadTransactions_Empty(t *testing.T) {
	got, err := ReadTransactions(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadTransactions_BadAmount(t *testing.T) {
	input := Header + "\n" + "a1,F0000001,acct,2025-01-01,income,abc,Salary,,,,,\n"
	_, err := ReadTransactions(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestReadTransactions_WrongFieldCount(t *testing.T) {
	input := Header + "\n" + "a1,F0000001\n"
	_, err := ReadTransactions(strings.NewReader(input))
	require.Error(t, err)
}

func TestPurchasesRoundTrip(t *testing.T) {
	purchases := []model.Purchase{
		{ID: "p1", TransactionID: "a2", ItemName: "Milk", Category: "Groceries", Price: dec("3.20"), Date: date(2025, 3, 2)},
		{ID: "p2", ItemName: "Gift", Category: "Shopping", Price: dec("20.00"), Date: date(2025, 3, 5), Notes: "birthday", ExcludeFromCalculation: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePurchases(&buf, purchases))

	got, err := ReadPurchases(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a2", got[0].TransactionID)
	assert.False(t, got[0].ExcludeFromCalculation)
	assert.True(t, got[1].ExcludeFromCalculation)
	assert.Equal(t, "birthday", got[1].Notes)
	assert.True(t, got[1].Price.Equal(dec("20")))
}

func TestCategoriesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCategories(&buf, DefaultCategories()))

	got, err := ReadCategories(&buf)
	require.NoError(t, err)
	assert.Equal(t, DefaultCategories(), got)

	set := NewCategorySet(got)
	assert.True(t, set.Known("Savings"))
	assert.True(t, set.Known("Donation"))
	assert.False(t, set.Known("Lottery"))
}
