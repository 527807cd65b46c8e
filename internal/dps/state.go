// Package dps manages recurring-savings (DPS) sub-accounts: attaching them,
// scheduled contributions, and the closure workflow that moves the balance
// out before deleting the sub-account.
package dps

import "fmt"

// State is a closure workflow step.
type State string

const (
	StateIdle                 State = "idle"
	StateConfirmPending       State = "confirm_pending"
	StateResolvingDestination State = "resolving_destination"
	StateTransferring         State = "transferring"
	StateDetaching            State = "detaching"
	StateDeletingSubaccount   State = "deleting_subaccount"
	StateDone                 State = "done"
	StateFailed               State = "failed"
	StateCancelled            State = "cancelled"
)

// steps lists the mutating steps in execution order.
var steps = []State{
	StateResolvingDestination,
	StateTransferring,
	StateDetaching,
	StateDeletingSubaccount,
}

func nextState(s State) State {
	for i, step := range steps {
		if step == s && i+1 < len(steps) {
			return steps[i+1]
		}
	}
	return StateDone
}

func isStep(s State) bool {
	for _, step := range steps {
		if step == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible without Resume.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateCancelled
}

// Destination is where the sub-account balance goes.
type Destination string

const (
	DestinationPrimary    Destination = "primary"
	DestinationCashWallet Destination = "cash_wallet"
)

// ParseDestination accepts "primary", "cash_wallet" and "cash-wallet".
func ParseDestination(s string) (Destination, error) {
	switch s {
	case "primary":
		return DestinationPrimary, nil
	case "cash_wallet", "cash-wallet", "cash":
		return DestinationCashWallet, nil
	}
	return "", fmt.Errorf("unknown destination %q (want primary or cash_wallet)", s)
}
