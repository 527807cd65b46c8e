package ledger

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fintrack-dev/fintrack/internal/model"
)

// Totals are currency-scoped sums for the analytics cards.
type Totals struct {
	Currency     string
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	TotalSaved   decimal.Decimal
	TotalDonated decimal.Decimal
	Count        int
}

// Net returns income minus expense.
func (t Totals) Net() decimal.Decimal {
	return t.TotalIncome.Sub(t.TotalExpense)
}

// Classifier decides which income counts as saved or donated. An explicit
// Transaction.Purpose wins; otherwise the category name is matched exactly.
type Classifier struct {
	SavingsCategory  string
	DonationCategory string
}

// DefaultClassifier matches the "Savings" and "Donation" categories.
var DefaultClassifier = Classifier{SavingsCategory: "Savings", DonationCategory: "Donation"}

// Purpose returns the effective purpose of t.
func (c Classifier) Purpose(t model.Transaction) model.Purpose {
	if t.Purpose != model.PurposeNone {
		return t.Purpose
	}
	switch {
	case c.SavingsCategory != "" && t.Category == c.SavingsCategory:
		return model.PurposeSavings
	case c.DonationCategory != "" && t.Category == c.DonationCategory:
		return model.PurposeDonation
	}
	return model.PurposeNone
}

// Aggregates sums txns owned by accounts in currency using DefaultClassifier.
func Aggregates(accounts []model.Account, txns []model.Transaction, currency string) Totals {
	return DefaultClassifier.Aggregates(accounts, txns, currency)
}

// Aggregates sums txns whose owning account is in currency. Transactions of
// unknown accounts are ignored, so currencies never mix.
func (c Classifier) Aggregates(accounts []model.Account, txns []model.Transaction, currency string) Totals {
	currencyOf := currencyIndex(accounts)
	totals := Totals{
		Currency:     currency,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		TotalSaved:   decimal.Zero,
		TotalDonated: decimal.Zero,
	}
	for _, t := range txns {
		cur, ok := currencyOf[t.AccountID]
		if !ok || cur != currency {
			continue
		}
		totals.Count++
		switch t.Type {
		case model.TransactionIncome:
			totals.TotalIncome = totals.TotalIncome.Add(t.Amount)
			switch c.Purpose(t) {
			case model.PurposeSavings:
				totals.TotalSaved = totals.TotalSaved.Add(t.Amount)
			case model.PurposeDonation:
				totals.TotalDonated = totals.TotalDonated.Add(t.Amount)
			}
		case model.TransactionExpense:
			totals.TotalExpense = totals.TotalExpense.Add(t.Amount)
		}
	}
	return totals
}

// Currencies returns the distinct account currencies, sorted.
func Currencies(accounts []model.Account) []string {
	var out []string
	for _, a := range accounts {
		if a.Currency != "" && !slices.Contains(out, a.Currency) {
			out = append(out, a.Currency)
		}
	}
	slices.Sort(out)
	return out
}

// CategoryTotal is the sum of one category within a currency.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
	Count    int
}

// ByCategory sums transactions of typ in currency per category, largest
// first. Ties are ordered by category name.
func ByCategory(accounts []model.Account, txns []model.Transaction, currency string, typ model.TransactionType) []CategoryTotal {
	currencyOf := currencyIndex(accounts)
	index := make(map[string]int)
	var out []CategoryTotal
	for _, t := range txns {
		if t.Type != typ || currencyOf[t.AccountID] != currency {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, CategoryTotal{Category: t.Category, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
		out[i].Count++
	}
	slices.SortFunc(out, func(a, b CategoryTotal) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})
	return out
}

func currencyIndex(accounts []model.Account) map[string]string {
	idx := make(map[string]string, len(accounts))
	for _, a := range accounts {
		idx[a.ID] = a.Currency
	}
	return idx
}
