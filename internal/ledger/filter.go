package ledger

import (
	"strings"
	"time"

	"github.com/fintrack-dev/fintrack/internal/model"
)

// Predicate selects rows.
type Predicate[T any] func(T) bool

// FilterRows returns the rows matching every predicate, in input order.
func FilterRows[T any](rows []T, preds ...Predicate[T]) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if matchAll(r, preds) {
			out = append(out, r)
		}
	}
	return out
}

func matchAll[T any](row T, preds []Predicate[T]) bool {
	for _, p := range preds {
		if p != nil && !p(row) {
			return false
		}
	}
	return true
}

// IsAll reports whether a filter value means "no filter".
func IsAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "all")
}

// TextSearch matches rows where any field contains query, ignoring case.
func TextSearch[T any](query string, fields ...func(T) string) Predicate[T] {
	q := strings.ToLower(strings.TrimSpace(query))
	return func(row T) bool {
		if q == "" {
			return true
		}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f(row)), q) {
				return true
			}
		}
		return false
	}
}

// Equals matches rows whose field equals value exactly.
func Equals[T any](value string, get func(T) string) Predicate[T] {
	return func(row T) bool {
		return IsAll(value) || get(row) == value
	}
}

// DateBetween matches rows whose date is within [from, to]. A zero bound is
// open.
func DateBetween[T any](from, to time.Time, get func(T) time.Time) Predicate[T] {
	return func(row T) bool {
		d := get(row)
		if !from.IsZero() && d.Before(from) {
			return false
		}
		if !to.IsZero() && d.After(to) {
			return false
		}
		return true
	}
}

// HasTag matches rows carrying tag.
func HasTag[T any](tag string, get func(T) []string) Predicate[T] {
	return func(row T) bool {
		if IsAll(tag) {
			return true
		}
		for _, t := range get(row) {
			if t == tag {
				return true
			}
		}
		return false
	}
}

// TransactionFilter is the filter bar of the transaction list.
type TransactionFilter struct {
	Search    string
	AccountID string
	Category  string
	Type      string
	Currency  string
	Tag       string
	From      time.Time
	To        time.Time
}

// Predicates builds the filter. accounts resolves each transaction's
// currency.
func (f TransactionFilter) Predicates(accounts []model.Account) []Predicate[model.Transaction] {
	currencyOf := currencyIndex(accounts)
	return []Predicate[model.Transaction]{
		TextSearch(f.Search,
			func(t model.Transaction) string { return t.Description },
			func(t model.Transaction) string { return t.Category },
			func(t model.Transaction) string { return t.TransactionID },
		),
		Equals(f.AccountID, func(t model.Transaction) string { return t.AccountID }),
		Equals(f.Category, func(t model.Transaction) string { return t.Category }),
		Equals(f.Type, func(t model.Transaction) string { return string(t.Type) }),
		Equals(f.Currency, func(t model.Transaction) string { return currencyOf[t.AccountID] }),
		HasTag(f.Tag, func(t model.Transaction) []string { return t.Tags }),
		DateBetween(f.From, f.To, func(t model.Transaction) time.Time { return t.Date }),
	}
}

// AccountFilter is the filter bar of the account list. Status is "active",
// "inactive" or empty/"all".
type AccountFilter struct {
	Search   string
	Type     string
	Currency string
	Status   string
}

// Predicates builds the filter.
func (f AccountFilter) Predicates() []Predicate[model.Account] {
	return []Predicate[model.Account]{
		TextSearch(f.Search,
			func(a model.Account) string { return a.Name },
			func(a model.Account) string { return a.Description },
		),
		Equals(f.Type, func(a model.Account) string { return string(a.Type) }),
		Equals(f.Currency, func(a model.Account) string { return a.Currency }),
		Equals(f.Status, accountStatus),
	}
}

func accountStatus(a model.Account) string {
	if a.IsActive {
		return "active"
	}
	return "inactive"
}
