package transactions

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack-dev/fintrack/internal/model"
	"github.com/fintrack-dev/fintrack/internal/store"
)

func newTestStore(t *testing.T, accts ...model.Account) *store.Memory {
	t.Helper()
	st := store.NewMemory()
	for _, a := range accts {
		_, err := st.AddAccount(context.Background(), a)
		require.NoError(t, err)
	}
	return st
}

func TestAdd_StoresTransaction(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, model.Account{ID: "chk", Name: "Checking", Currency: "USD", InitialBalance: dec("100")})
	svc := NewService(st, NewCategorySet(DefaultCategories()), zerolog.Nop())

	ref, err := svc.Add(ctx, AddParams{
		AccountID: "chk",
		Type:      model.TransactionExpense,
		Amount:    dec("30.00"),
		Category:  "Groceries",
		Date:      date(2025, 2, 1),
	})
	require.NoError(t, err)
	assert.Regexp(t, `^F\d{7}$`, ref.TransactionID)

	accts, err := st.FetchAccounts(ctx)
	require.NoError(t, err)
	assert.True(t, accts[0].CalculatedBalance.Equal(dec("70")))
}

func TestAdd_ValidationFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, model.Account{ID: "chk", Name: "Checking", Currency: "USD"})
	svc := NewService(st, nil, zerolog.Nop())

	_, err := svc.Add(ctx, AddParams{AccountID: "missing", Type: model.TransactionIncome, Amount: dec("-5"), Category: "Salary", Date: date(2025, 1, 1)})
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)

	txns, err := st.FetchTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestAdd_WithPurchase(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, model.Account{ID: "chk", Name: "Checking", Currency: "USD"})
	svc := NewService(st, nil, zerolog.Nop())

	ref, err := svc.Add(ctx, AddParams{
		AccountID: "chk", Type: model.TransactionExpense, Amount: dec("9.99"), Category: "Shopping", Date: date(2025, 1, 3),
		Purchase: &model.Purchase{ItemName: "Cable", Category: "Shopping", Price: dec("9.99"), Date: date(2025, 1, 3)},
	})
	require.NoError(t, err)

	purchases, err := st.FetchPurchases(ctx)
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, ref.ID, purchases[0].TransactionID)
}

func TestAddExcludedPurchase(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewService(st, nil, zerolog.Nop())

	p, err := svc.AddExcludedPurchase(ctx, model.Purchase{ItemName: "Gift", Price: dec("15"), Date: date(2025, 1, 5)})
	require.NoError(t, err)
	assert.True(t, p.ExcludeFromCalculation)
	assert.Empty(t, p.TransactionID)

	_, err = svc.AddExcludedPurchase(ctx, model.Purchase{Price: dec("1")})
	require.Error(t, err)
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t,
		model.Account{ID: "chk", Name: "Checking", Currency: "USD", InitialBalance: dec("500")},
		model.Account{ID: "sav", Name: "Savings", Currency: "USD"},
	)
	svc := NewService(st, nil, zerolog.Nop())

	out, in, err := svc.Transfer(ctx, TransferParams{FromID: "chk", ToID: "sav", Amount: dec("200"), Date: date(2025, 1, 9)})
	require.NoError(t, err)
	assert.NotEqual(t, out.TransactionID, in.TransactionID)

	accts, err := st.FetchAccounts(ctx)
	require.NoError(t, err)
	assert.True(t, accts[0].CalculatedBalance.Equal(dec("300")))
	assert.True(t, accts[1].CalculatedBalance.Equal(dec("200")))

	txns, err := st.FetchTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	for _, txn := range txns {
		assert.True(t, txn.HasTag(model.TagTransfer))
		assert.Equal(t, "Transfer", txn.Category)
	}
	assert.Equal(t, "Transfer to Savings", txns[0].Description)
	assert.Equal(t, "Transfer from Checking", txns[1].Description)
}

func TestTransfer_Rejections(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t,
		model.Account{ID: "usd", Name: "USD", Currency: "USD"},
		model.Account{ID: "eur", Name: "EUR", Currency: "EUR"},
	)
	svc := NewService(st, nil, zerolog.Nop())

	_, _, err := svc.Transfer(ctx, TransferParams{FromID: "usd", ToID: "eur", Amount: dec("1"), Date: date(2025, 1, 1)})
	assert.ErrorContains(t, err, "currencies differ")

	_, _, err = svc.Transfer(ctx, TransferParams{FromID: "usd", ToID: "nope", Amount: dec("1"), Date: date(2025, 1, 1)})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, _, err = svc.Transfer(ctx, TransferParams{FromID: "usd", ToID: "usd", Amount: dec("1"), Date: date(2025, 1, 1)})
	assert.Error(t, err)
}
