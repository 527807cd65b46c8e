package dps

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack-dev/fintrack/internal/closurelog"
)

// Closure is the persisted progress of one DPS closure. The amount is
// captured when the closure begins and never re-read.
type Closure struct {
	ID            string
	State         State
	FailedStep    State
	PrimaryID     string
	SubID         string
	SubName       string
	Amount        decimal.Decimal
	Currency      string
	Destination   Destination
	DestinationID string
	TransferTxnID string
	Err           string
	UpdatedAt     time.Time
}

// Partial reports whether the closure stopped after mutating something.
func (c *Closure) Partial() bool {
	return c.State == StateFailed && c.FailedStep != StateResolvingDestination
}

// StepError is returned when a closure step fails. Steps that completed
// before it are not undone.
type StepError struct {
	ClosureID string
	State     State
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("dps closure %s failed while %s: %v", e.ClosureID, e.State, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

var (
	// ErrNotLinked is returned when the primary account has no DPS sub-account.
	ErrNotLinked = errors.New("account has no linked DPS account")
	// ErrAlreadyLinked is returned by Attach when a sub-account exists.
	ErrAlreadyLinked = errors.New("account already has a DPS account")
	// ErrInvalidState is returned for a transition the current state forbids.
	ErrInvalidState = errors.New("invalid closure state")
	// ErrUnknownClosure is returned when no checkpoint exists for an ID.
	ErrUnknownClosure = errors.New("unknown closure")
	// ErrAwaitingConfirmation is returned by Resume for a closure that was
	// never confirmed.
	ErrAwaitingConfirmation = errors.New("closure is awaiting confirmation")
)

func (c *Closure) entry() closurelog.Entry {
	return closurelog.Entry{
		Timestamp:     c.UpdatedAt,
		ClosureID:     c.ID,
		State:         string(c.State),
		FailedStep:    string(c.FailedStep),
		PrimaryID:     c.PrimaryID,
		SubID:         c.SubID,
		SubName:       c.SubName,
		Amount:        c.Amount,
		Currency:      c.Currency,
		Destination:   string(c.Destination),
		DestinationID: c.DestinationID,
		TransferTxnID: c.TransferTxnID,
		Error:         c.Err,
	}
}

func closureFromEntry(e closurelog.Entry) *Closure {
	return &Closure{
		ID:            e.ClosureID,
		State:         State(e.State),
		FailedStep:    State(e.FailedStep),
		PrimaryID:     e.PrimaryID,
		SubID:         e.SubID,
		SubName:       e.SubName,
		Amount:        e.Amount,
		Currency:      e.Currency,
		Destination:   Destination(e.Destination),
		DestinationID: e.DestinationID,
		TransferTxnID: e.TransferTxnID,
		Err:           e.Error,
		UpdatedAt:     e.Timestamp,
	}
}
