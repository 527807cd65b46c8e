package dps

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack-dev/fintrack/internal/accounts"
	"github.com/fintrack-dev/fintrack/internal/closurelog"
	"github.com/fintrack-dev/fintrack/internal/model"
	"github.com/fintrack-dev/fintrack/internal/store"
)

func TestAttach(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	primary, err := st.AddAccount(ctx, model.Account{Name: "Salary", Type: model.AccountTypeChecking, Currency: "BDT", IsActive: true})
	require.NoError(t, err)
	wf := NewWorkflow(st, closurelog.New(t.TempDir()), zerolog.Nop())

	fixed := dec("2000")
	sub, err := wf.Attach(ctx, primary.ID, AttachParams{Type: model.DPSTypeMonthly, AmountType: model.DPSAmountFixed, FixedAmount: &fixed})
	require.NoError(t, err)
	assert.Equal(t, "Salary DPS", sub.Name)
	assert.Equal(t, model.AccountTypeDPS, sub.Type)
	assert.Equal(t, "BDT", sub.Currency)
	assert.Equal(t, model.DPSConfig{}, sub.DPS)

	accts, err := st.FetchAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accts, 2)
	assert.Equal(t, sub.ID, accts[0].DPS.SavingsAccountID)
	assert.True(t, accts[0].DPS.HasDPS)

	_, err = wf.Attach(ctx, primary.ID, AttachParams{Type: model.DPSTypeFlexible, AmountType: model.DPSAmountCustom})
	assert.ErrorIs(t, err, ErrAlreadyLinked)
}

func TestAttach_Validation(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	primary, err := st.AddAccount(ctx, model.Account{Name: "A", Type: model.AccountTypeChecking, Currency: "USD"})
	require.NoError(t, err)
	wf := NewWorkflow(st, closurelog.New(t.TempDir()), zerolog.Nop())

	neg := dec("-5")
	tests := []struct {
		name string
		p    AttachParams
	}{
		{"bad type", AttachParams{Type: "weekly", AmountType: model.DPSAmountCustom}},
		{"bad amount type", AttachParams{Type: model.DPSTypeMonthly, AmountType: "varies"}},
		{"fixed without amount", AttachParams{Type: model.DPSTypeMonthly, AmountType: model.DPSAmountFixed}},
		{"fixed negative", AttachParams{Type: model.DPSTypeMonthly, AmountType: model.DPSAmountFixed, FixedAmount: &neg}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wf.Attach(ctx, primary.ID, tt.p)
			assert.Error(t, err)
		})
	}

	_, err = wf.Attach(ctx, "ghost", AttachParams{Type: model.DPSTypeFlexible, AmountType: model.DPSAmountCustom})
	assert.ErrorIs(t, err, store.ErrNotFound)

	accts, err := st.FetchAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accts, 1)
}

func TestContribute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "USD", "0")

	out, in, err := f.wf.Contribute(ctx, f.primary.ID, decimal.Zero, testNow)
	require.NoError(t, err)
	assert.NotEmpty(t, out.TransactionID)
	assert.NotEmpty(t, in.TransactionID)

	accts := f.accounts(t)
	assert.True(t, accts[f.primary.ID].CalculatedBalance.Equal(dec("900")), "fixed amount used")
	assert.True(t, accts[f.sub.ID].CalculatedBalance.Equal(dec("100")))

	for _, txn := range append(f.transactionsOn(t, f.primary.ID), f.transactionsOn(t, f.sub.ID)...) {
		assert.True(t, txn.HasTag(model.TagDPSTransfer))
		assert.Equal(t, "DPS", txn.Category)
	}

	_, _, err = f.wf.Contribute(ctx, f.primary.ID, dec("25.50"), testNow)
	require.NoError(t, err)
	assert.True(t, f.accounts(t)[f.sub.ID].CalculatedBalance.Equal(dec("125.50")))
}

func TestContribute_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "USD", "0")

	_, _, err := f.wf.Contribute(ctx, f.sub.ID, dec("1"), testNow)
	assert.ErrorIs(t, err, ErrNotLinked)

	_, _, err = f.wf.Contribute(ctx, f.primary.ID, dec("-1"), testNow)
	assert.Error(t, err)
}

func TestScheduler_RunOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "USD", "0")

	// A flexible DPS is never contributed to automatically.
	other, err := f.store.AddAccount(ctx, model.Account{Name: "Other", Type: model.AccountTypeChecking, Currency: "USD", IsActive: true})
	require.NoError(t, err)
	_, err = f.wf.Attach(ctx, other.ID, AttachParams{Type: model.DPSTypeFlexible, AmountType: model.DPSAmountCustom})
	require.NoError(t, err)

	s, err := NewScheduler(f.wf, "@monthly", zerolog.Nop())
	require.NoError(t, err)

	n, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, f.accounts(t)[f.sub.ID].CalculatedBalance.Equal(dec("100")))
}

func TestScheduler_StartStop(t *testing.T) {
	f := newFixture(t, "USD", "0")
	s, err := NewScheduler(f.wf, "0 9 1 * *", zerolog.Nop())
	require.NoError(t, err)
	s.Start()
	s.Stop()
}

func TestNewScheduler_BadSpec(t *testing.T) {
	f := newFixture(t, "USD", "0")
	_, err := NewScheduler(f.wf, "every tuesday", zerolog.Nop())
	assert.Error(t, err)
}

func TestDue(t *testing.T) {
	fixed := dec("10")
	a := model.Account{IsActive: true, DPS: model.DPSConfig{HasDPS: true, Type: model.DPSTypeMonthly, AmountType: model.DPSAmountFixed, FixedAmount: &fixed, SavingsAccountID: "b"}}
	assert.True(t, Due(a))

	a.IsActive = false
	assert.False(t, Due(a))
}

func TestAttach_RejectsLinkedSubAccount(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	vault, err := st.AddAccount(ctx, model.Account{Name: "Vault", Type: model.AccountTypeSavings, Currency: "USD", IsActive: true})
	require.NoError(t, err)
	_, err = st.AddAccount(ctx, model.Account{
		Name: "Main", Type: model.AccountTypeChecking, Currency: "USD", IsActive: true,
		DPS: model.DPSConfig{HasDPS: true, Type: model.DPSTypeFlexible, AmountType: model.DPSAmountCustom, SavingsAccountID: vault.ID},
	})
	require.NoError(t, err)
	wf := NewWorkflow(st, closurelog.New(t.TempDir()), zerolog.Nop())

	_, err = wf.Attach(ctx, vault.ID, AttachParams{Type: model.DPSTypeFlexible, AmountType: model.DPSAmountCustom})
	assert.ErrorIs(t, err, accounts.ErrInvalidDPSLink)

	accts, err := st.FetchAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accts, 2)
}
