// Package ledger derives balances, totals and list views from in-memory
// snapshots of accounts and transactions. Nothing here performs I/O or
// mutates its inputs.
package ledger

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/fintrack-dev/fintrack/internal/model"
)

// Chronological returns a copy of txns ordered by Date, then CreatedAt,
// then input order.
func Chronological(txns []model.Transaction) []model.Transaction {
	sorted := slices.Clone(txns)
	slices.SortStableFunc(sorted, func(a, b model.Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return sorted
}

// RunningBalances returns the balance of account after each transaction,
// keyed by Transaction.ID. The caller passes only the account's own
// transactions. The result is independent of the order of txns except for
// entries that tie on both Date and CreatedAt.
func RunningBalances(account model.Account, txns []model.Transaction) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal, len(txns))
	running := account.InitialBalance
	for _, t := range Chronological(txns) {
		running = running.Add(t.Signed())
		balances[t.ID] = running
	}
	return balances
}

// Balance returns initial plus the signed sum of txns.
func Balance(initial decimal.Decimal, txns []model.Transaction) decimal.Decimal {
	total := initial
	for _, t := range txns {
		total = total.Add(t.Signed())
	}
	return total
}

// StatementLine is a transaction annotated with the balance after it.
type StatementLine struct {
	Transaction model.Transaction
	Balance     decimal.Decimal
}

// Statement returns the account's transactions newest first, each carrying
// its running balance. An empty statement has a closing balance equal to the
// account's initial balance.
func Statement(account model.Account, txns []model.Transaction) []StatementLine {
	ordered := Chronological(txns)
	lines := make([]StatementLine, len(ordered))
	running := account.InitialBalance
	for i, t := range ordered {
		running = running.Add(t.Signed())
		lines[len(ordered)-1-i] = StatementLine{Transaction: t, Balance: running}
	}
	return lines
}

// ClosingBalance returns the balance after the newest line, or the account's
// initial balance when there are no lines.
func ClosingBalance(account model.Account, lines []StatementLine) decimal.Decimal {
	if len(lines) == 0 {
		return account.InitialBalance
	}
	return lines[0].Balance
}

// ForAccount returns the transactions belonging to accountID.
func ForAccount(accountID string, txns []model.Transaction) []model.Transaction {
	var out []model.Transaction
	for _, t := range txns {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out
}
