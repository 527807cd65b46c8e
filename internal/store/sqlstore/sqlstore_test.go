package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack-dev/fintrack/internal/id"
	"github.com/fintrack-dev/fintrack/internal/model"
	"github.com/fintrack-dev/fintrack/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(d int) time.Time {
	return time.Date(2025, 5, d, 0, 0, 0, 0, time.UTC)
}

func openTest(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "fintrack.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAccountsAndBalances(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	chk, err := s.AddAccount(ctx, model.Account{Name: "Checking", Type: model.AccountTypeChecking, Currency: "USD", InitialBalance: dec("100.25"), IsActive: true})
	require.NoError(t, err)
	sav, err := s.AddAccount(ctx, model.Account{Name: "Savings", Type: model.AccountTypeSavings, Currency: "USD"})
	require.NoError(t, err)

	_, err = s.AddTransaction(ctx, model.Transaction{AccountID: chk.ID, Type: model.TransactionIncome, Amount: dec("50"), Category: "Salary", Date: day(1)}, nil)
	require.NoError(t, err)
	_, err = s.AddTransaction(ctx, model.Transaction{AccountID: chk.ID, Type: model.TransactionExpense, Amount: dec("20.10"), Category: "Groceries", Date: day(2)}, nil)
	require.NoError(t, err)

	accts, err := s.FetchAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accts, 2)
	assert.Equal(t, chk.ID, accts[0].ID)
	assert.Equal(t, "130.15", accts[0].CalculatedBalance.StringFixed(2))
	assert.Equal(t, sav.ID, accts[1].ID)
	assert.True(t, accts[1].CalculatedBalance.IsZero())
	assert.True(t, accts[0].IsActive)
}

func TestTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	acct, err := s.AddAccount(ctx, model.Account{Name: "A", Type: model.AccountTypeCash, Currency: "EUR"})
	require.NoError(t, err)

	donation := dec("1.50")
	ref, err := s.AddTransaction(ctx, model.Transaction{
		AccountID: acct.ID, Type: model.TransactionIncome, Amount: dec("10.00"), Category: "Donation",
		Date: day(3), Tags: []string{"gift"}, DonationAmount: &donation, Purpose: model.PurposeDonation,
	}, nil)
	require.NoError(t, err)
	assert.True(t, id.ValidTransactionID(ref.TransactionID))

	txns, err := s.FetchTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	got := txns[0]
	assert.Equal(t, ref.ID, got.ID)
	assert.Equal(t, []string{"gift"}, got.Tags)
	require.NotNil(t, got.DonationAmount)
	assert.True(t, got.DonationAmount.Equal(donation))
	assert.Equal(t, model.PurposeDonation, got.Purpose)
	assert.True(t, got.Date.Equal(day(3)))
}

func TestAddTransaction_Errors(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	acct, err := s.AddAccount(ctx, model.Account{Name: "A", Type: model.AccountTypeCash, Currency: "USD"})
	require.NoError(t, err)

	_, err = s.AddTransaction(ctx, model.Transaction{AccountID: "nope", Type: model.TransactionIncome, Amount: dec("1"), Date: day(1)}, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.AddTransaction(ctx, model.Transaction{AccountID: acct.ID, Type: model.TransactionIncome, Amount: dec("1.001"), Date: day(1)}, nil)
	assert.ErrorIs(t, err, store.ErrSubCent)

	_, err = s.AddAccount(ctx, model.Account{Name: "B", Type: model.AccountTypeCash, Currency: "USD", InitialBalance: dec("10.005")})
	assert.ErrorIs(t, err, store.ErrSubCent)

	_, err = s.AddTransaction(ctx, model.Transaction{TransactionID: "F0000007", AccountID: acct.ID, Type: model.TransactionIncome, Amount: dec("1"), Date: day(1)}, nil)
	require.NoError(t, err)
	_, err = s.AddTransaction(ctx, model.Transaction{TransactionID: "F0000007", AccountID: acct.ID, Type: model.TransactionIncome, Amount: dec("1"), Date: day(1)}, nil)
	assert.ErrorIs(t, err, store.ErrDuplicateTransactionID)
}

func TestAddTransaction_RetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	seed := uint64(7)
	first := id.NewSeededGenerator(seed).Next()

	s := openTest(t, WithIDGenerator(id.NewSeededGenerator(seed)))
	acct, err := s.AddAccount(ctx, model.Account{Name: "A", Type: model.AccountTypeCash, Currency: "USD"})
	require.NoError(t, err)

	_, err = s.AddTransaction(ctx, model.Transaction{TransactionID: first, AccountID: acct.ID, Type: model.TransactionIncome, Amount: dec("1"), Date: day(1)}, nil)
	require.NoError(t, err)

	ref, err := s.AddTransaction(ctx, model.Transaction{AccountID: acct.ID, Type: model.TransactionIncome, Amount: dec("1"), Date: day(1)}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first, ref.TransactionID)
}

func TestUpdateAccount_ClearDPS(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	sub, err := s.AddAccount(ctx, model.Account{Name: "A DPS", Type: model.AccountTypeDPS, Currency: "USD"})
	require.NoError(t, err)
	fixed := dec("250")
	primary, err := s.AddAccount(ctx, model.Account{Name: "A", Type: model.AccountTypeChecking, Currency: "USD", DPS: model.DPSConfig{
		HasDPS: true, Type: model.DPSTypeMonthly, AmountType: model.DPSAmountFixed, FixedAmount: &fixed, SavingsAccountID: sub.ID,
	}})
	require.NoError(t, err)

	accts, err := s.FetchAccounts(ctx)
	require.NoError(t, err)
	require.NotNil(t, accts[1].DPS.FixedAmount)
	assert.Equal(t, sub.ID, accts[1].DPS.SavingsAccountID)

	require.NoError(t, s.UpdateAccount(ctx, primary.ID, store.ClearDPS()))

	accts, err = s.FetchAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DPSConfig{}, accts[1].DPS)
	assert.Equal(t, "A", accts[1].Name)

	name := "Renamed"
	require.NoError(t, s.UpdateAccount(ctx, primary.ID, store.AccountPatch{Name: &name}))
	accts, err = s.FetchAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", accts[1].Name)

	assert.ErrorIs(t, s.UpdateAccount(ctx, "ghost", store.AccountPatch{Name: &name}), store.ErrNotFound)
}

func TestDeleteAccount_Cascades(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	keep, err := s.AddAccount(ctx, model.Account{Name: "Keep", Type: model.AccountTypeCash, Currency: "USD"})
	require.NoError(t, err)
	gone, err := s.AddAccount(ctx, model.Account{Name: "Gone", Type: model.AccountTypeCash, Currency: "USD"})
	require.NoError(t, err)

	_, err = s.AddTransaction(ctx, model.Transaction{AccountID: keep.ID, Type: model.TransactionIncome, Amount: dec("1"), Date: day(1)}, nil)
	require.NoError(t, err)
	_, err = s.AddTransaction(ctx, model.Transaction{AccountID: gone.ID, Type: model.TransactionExpense, Amount: dec("3"), Date: day(1)},
		&model.Purchase{ItemName: "Soap", Price: dec("3"), Date: day(1)})
	require.NoError(t, err)
	_, err = s.AddPurchase(ctx, model.Purchase{ItemName: "Loose", Price: dec("2"), Date: day(2)})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAccount(ctx, gone.ID))
	assert.ErrorIs(t, s.DeleteAccount(ctx, gone.ID), store.ErrNotFound)

	txns, err := s.FetchTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, keep.ID, txns[0].AccountID)

	purchases, err := s.FetchPurchases(ctx)
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, "Loose", purchases[0].ItemName)
	assert.True(t, purchases[0].ExcludeFromCalculation)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fintrack.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.AddAccount(ctx, model.Account{Name: "Persisted", Type: model.AccountTypeCash, Currency: "USD", InitialBalance: dec("9.99")})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	accts, err := s.FetchAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accts, 1)
	assert.Equal(t, "9.99", accts[0].CalculatedBalance.StringFixed(2))
}
