package dps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fintrack-dev/fintrack/internal/accounts"
	"github.com/fintrack-dev/fintrack/internal/closurelog"
	"github.com/fintrack-dev/fintrack/internal/model"
	"github.com/fintrack-dev/fintrack/internal/store"
	"github.com/fintrack-dev/fintrack/internal/transactions"
)

const (
	// DefaultCategory is the category of closure and contribution transactions.
	DefaultCategory = "DPS"
	// DefaultCashWalletName names a cash account created by a closure.
	DefaultCashWalletName = "Cash Wallet"

	closureTagPrefix = "dps_closure:"
)

// Checkpointer persists closure progress.
type Checkpointer interface {
	Record(e closurelog.Entry) error
	Last(closureID string) (closurelog.Entry, bool, error)
	All() ([]closurelog.Entry, error)
}

// Workflow runs DPS closures and contributions against a store.
type Workflow struct {
	store          store.Store
	checkpoints    Checkpointer
	txns           *transactions.Service
	log            zerolog.Logger
	category       string
	cashWalletName string
	now            func() time.Time
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithCategory overrides DefaultCategory.
func WithCategory(name string) Option {
	return func(w *Workflow) {
		if name != "" {
			w.category = name
		}
	}
}

// WithCashWalletName overrides DefaultCashWalletName.
func WithCashWalletName(name string) Option {
	return func(w *Workflow) {
		if name != "" {
			w.cashWalletName = name
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// NewWorkflow creates a Workflow.
func NewWorkflow(st store.Store, checkpoints Checkpointer, log zerolog.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		store:          st,
		checkpoints:    checkpoints,
		log:            log.With().Str("component", "dps").Logger(),
		category:       DefaultCategory,
		cashWalletName: DefaultCashWalletName,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.txns = transactions.NewService(st, nil, w.log)
	return w
}

// Begin snapshots the primary account, its DPS sub-account and the
// sub-account balance, and waits for confirmation.
func (w *Workflow) Begin(ctx context.Context, primaryID string) (*Closure, error) {
	accts, err := accounts.Load(ctx, w.store)
	if err != nil {
		return nil, err
	}
	primary, ok := accts.Get(primaryID)
	if !ok {
		return nil, fmt.Errorf("account %s: %w", primaryID, store.ErrNotFound)
	}
	if !primary.DPS.Linked() {
		return nil, fmt.Errorf("account %s: %w", primaryID, ErrNotLinked)
	}
	sub, ok := accts.Get(primary.DPS.SavingsAccountID)
	if !ok {
		return nil, fmt.Errorf("DPS account %s of %s: %w", primary.DPS.SavingsAccountID, primaryID, store.ErrNotFound)
	}
	if err := accts.CheckDPSLink(primaryID); err != nil {
		return nil, err
	}

	c := &Closure{
		ID:        uuid.NewString(),
		State:     StateConfirmPending,
		PrimaryID: primary.ID,
		SubID:     sub.ID,
		SubName:   sub.Name,
		Amount:    sub.CalculatedBalance,
		Currency:  sub.Currency,
	}
	if err := w.checkpoint(c); err != nil {
		return nil, err
	}
	w.log.Info().
		Str("closure_id", c.ID).
		Str("primary_id", c.PrimaryID).
		Str("sub_id", c.SubID).
		Str("amount", c.Amount.StringFixed(2)).
		Str("currency", c.Currency).
		Msg("DPS closure pending confirmation")
	return c, nil
}

// Cancel abandons a closure that has not been confirmed.
func (w *Workflow) Cancel(_ context.Context, c *Closure) error {
	if c.State != StateConfirmPending {
		return fmt.Errorf("cancel in state %s: %w", c.State, ErrInvalidState)
	}
	c.State = StateCancelled
	if err := w.checkpoint(c); err != nil {
		return err
	}
	w.log.Info().Str("closure_id", c.ID).Msg("DPS closure cancelled")
	return nil
}

// Confirm chooses the destination and runs every remaining step in order.
// Confirmation is the last point at which ctx cancellation stops the
// closure. A zero snapshot records no dps_deletion transaction and leaves
// TransferTxnID empty. On failure the closure is left in StateFailed with
// nothing rolled back, and a *StepError is returned.
func (w *Workflow) Confirm(ctx context.Context, c *Closure, dest Destination) error {
	if c.State != StateConfirmPending {
		return fmt.Errorf("confirm in state %s: %w", c.State, ErrInvalidState)
	}
	if dest != DestinationPrimary && dest != DestinationCashWallet {
		return fmt.Errorf("unknown destination %q", dest)
	}
	c.Destination = dest
	c.State = StateResolvingDestination
	if err := w.checkpoint(c); err != nil {
		return err
	}
	return w.run(ctx, c)
}

// Resume continues a closure from its last checkpoint. A failed closure is
// retried from the step that failed; a finished one is returned unchanged.
func (w *Workflow) Resume(ctx context.Context, closureID string) (*Closure, error) {
	c, err := w.Status(closureID)
	if err != nil {
		return nil, err
	}

	switch {
	case c.State == StateDone:
		return c, nil
	case c.State == StateConfirmPending:
		return c, ErrAwaitingConfirmation
	case c.State == StateCancelled:
		return c, fmt.Errorf("resume cancelled closure: %w", ErrInvalidState)
	case c.State == StateFailed:
		if !isStep(c.FailedStep) {
			return c, fmt.Errorf("resume: failed step %q: %w", c.FailedStep, ErrInvalidState)
		}
		c.State = c.FailedStep
		c.FailedStep = ""
		c.Err = ""
		if err := w.checkpoint(c); err != nil {
			return c, err
		}
	case !isStep(c.State):
		return c, fmt.Errorf("resume in state %s: %w", c.State, ErrInvalidState)
	}

	w.log.Info().Str("closure_id", c.ID).Str("state", string(c.State)).Msg("resuming DPS closure")
	return c, w.run(ctx, c)
}

// Status returns the latest checkpoint of a closure.
func (w *Workflow) Status(closureID string) (*Closure, error) {
	e, ok, err := w.checkpoints.Last(closureID)
	if err != nil {
		return nil, fmt.Errorf("reading closure log: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", closureID, ErrUnknownClosure)
	}
	return closureFromEntry(e), nil
}

// List returns the latest checkpoint of every closure.
func (w *Workflow) List() ([]*Closure, error) {
	entries, err := w.checkpoints.All()
	if err != nil {
		return nil, fmt.Errorf("reading closure log: %w", err)
	}
	out := make([]*Closure, len(entries))
	for i, e := range entries {
		out[i] = closureFromEntry(e)
	}
	return out, nil
}

// run executes the remaining steps. ctx is checked once before the first
// step; after that the closure runs to done or failed and ignores
// cancellation, keeping only ctx values.
func (w *Workflow) run(ctx context.Context, c *Closure) error {
	if err := ctx.Err(); err != nil {
		return w.fail(c, c.State, err)
	}
	ctx = context.WithoutCancel(ctx)
	for c.State != StateDone {
		step := c.State
		if err := w.do(ctx, c, step); err != nil {
			return w.fail(c, step, err)
		}
		c.State = nextState(step)
		if err := w.checkpoint(c); err != nil {
			return &StepError{ClosureID: c.ID, State: step, Err: err}
		}
		w.log.Debug().Str("closure_id", c.ID).Str("completed", string(step)).Msg("DPS closure step done")
	}
	w.log.Info().
		Str("closure_id", c.ID).
		Str("destination_id", c.DestinationID).
		Str("transfer_txn_id", c.TransferTxnID).
		Msg("DPS closure complete")
	return nil
}

func (w *Workflow) do(ctx context.Context, c *Closure, step State) error {
	switch step {
	case StateResolvingDestination:
		return w.resolveDestination(ctx, c)
	case StateTransferring:
		return w.transfer(ctx, c)
	case StateDetaching:
		return w.store.UpdateAccount(ctx, c.PrimaryID, store.ClearDPS())
	case StateDeletingSubaccount:
		err := w.store.DeleteAccount(ctx, c.SubID)
		if errors.Is(err, store.ErrNotFound) {
			w.log.Debug().Str("closure_id", c.ID).Str("sub_id", c.SubID).Msg("DPS account already deleted")
			return nil
		}
		return err
	}
	return fmt.Errorf("no step %s: %w", step, ErrInvalidState)
}

func (w *Workflow) resolveDestination(ctx context.Context, c *Closure) error {
	if c.Destination == DestinationPrimary {
		c.DestinationID = c.PrimaryID
		return nil
	}

	accts, err := accounts.Load(ctx, w.store)
	if err != nil {
		return err
	}
	if wallet, ok := accts.FindCashWallet(c.Currency); ok {
		c.DestinationID = wallet.ID
		return nil
	}

	_, err = w.store.AddAccount(ctx, model.Account{
		Name:           w.cashWalletName,
		Type:           model.AccountTypeCash,
		Currency:       c.Currency,
		InitialBalance: decimal.Zero,
		IsActive:       true,
	})
	if err != nil {
		return fmt.Errorf("creating cash wallet: %w", err)
	}

	// The created record is not trusted; find it again in a fresh fetch.
	accts, err = accounts.Load(ctx, w.store)
	if err != nil {
		return err
	}
	wallet, ok := accts.FindCashWallet(c.Currency)
	if !ok {
		return fmt.Errorf("cash wallet for %s missing after creation: %w", c.Currency, store.ErrNotFound)
	}
	c.DestinationID = wallet.ID
	w.log.Info().Str("closure_id", c.ID).Str("account_id", wallet.ID).Str("currency", c.Currency).Msg("created cash wallet")
	return nil
}

func (w *Workflow) transfer(ctx context.Context, c *Closure) error {
	if c.TransferTxnID != "" || c.Amount.IsZero() {
		return nil
	}

	// A crash between the write and its checkpoint leaves a tagged
	// transaction behind; reuse it instead of recording the move twice.
	txns, err := w.store.FetchTransactions(ctx)
	if err != nil {
		return fmt.Errorf("fetching transactions: %w", err)
	}
	tag := closureTagPrefix + c.ID
	for _, t := range txns {
		if t.HasTag(tag) {
			c.TransferTxnID = t.TransactionID
			return nil
		}
	}

	txnType := model.TransactionIncome
	if c.Amount.IsNegative() {
		txnType = model.TransactionExpense
	}
	ref, err := w.store.AddTransaction(ctx, model.Transaction{
		AccountID:   c.DestinationID,
		Type:        txnType,
		Amount:      c.Amount.Abs(),
		Category:    w.category,
		Description: fmt.Sprintf("Balance transferred from closed DPS account %s", c.SubName),
		Date:        dateOf(w.now()),
		Tags:        []string{model.TagDPSDeletion, tag},
	}, nil)
	if err != nil {
		return err
	}
	c.TransferTxnID = ref.TransactionID
	return nil
}

func (w *Workflow) fail(c *Closure, step State, err error) error {
	c.State = StateFailed
	c.FailedStep = step
	c.Err = err.Error()
	if cpErr := w.checkpoint(c); cpErr != nil {
		w.log.Error().Err(cpErr).Str("closure_id", c.ID).Msg("recording failed closure")
	}
	w.log.Error().Err(err).Str("closure_id", c.ID).Str("step", string(step)).Msg("DPS closure failed")
	return &StepError{ClosureID: c.ID, State: step, Err: err}
}

func (w *Workflow) checkpoint(c *Closure) error {
	c.UpdatedAt = w.now().UTC()
	if err := w.checkpoints.Record(c.entry()); err != nil {
		return fmt.Errorf("recording closure checkpoint: %w", err)
	}
	return nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
