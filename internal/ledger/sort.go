package ledger

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack-dev/fintrack/internal/model"
)

// Direction is a sort order.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts "asc", "desc" or "" (ascending).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "", "asc":
		return Ascending, nil
	case "desc":
		return Descending, nil
	}
	return "", fmt.Errorf("invalid sort direction %q", s)
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

type fieldKind int

const (
	kindText fieldKind = iota
	kindNumber
	kindDate
)

// Field extracts a sortable value from a row.
type Field[T any] struct {
	kind   fieldKind
	text   func(T) string
	number func(T) decimal.Decimal
	date   func(T) time.Time
}

// TextField compares case-insensitively.
func TextField[T any](get func(T) string) Field[T] {
	return Field[T]{kind: kindText, text: get}
}

// NumberField compares decimals numerically.
func NumberField[T any](get func(T) decimal.Decimal) Field[T] {
	return Field[T]{kind: kindNumber, number: get}
}

// DateField compares chronologically.
func DateField[T any](get func(T) time.Time) Field[T] {
	return Field[T]{kind: kindDate, date: get}
}

func (f Field[T]) compare(a, b T) int {
	switch f.kind {
	case kindNumber:
		return f.number(a).Cmp(f.number(b))
	case kindDate:
		return f.date(a).Compare(f.date(b))
	default:
		return strings.Compare(strings.ToLower(f.text(a)), strings.ToLower(f.text(b)))
	}
}

// Fields maps sort keys to extractors.
type Fields[T any] map[string]Field[T]

// Keys returns the sort keys, sorted.
func (fs Fields[T]) Keys() []string {
	keys := make([]string, 0, len(fs))
	for k := range fs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SortRows returns a stably sorted copy of rows. Rows that compare equal keep
// their relative input order in both directions. An unknown key returns an
// unsorted copy.
func SortRows[T any](rows []T, key string, dir Direction, fields Fields[T]) []T {
	out := slices.Clone(rows)
	f, ok := fields[key]
	if !ok {
		return out
	}
	slices.SortStableFunc(out, func(a, b T) int {
		c := f.compare(a, b)
		if dir == Descending {
			return -c
		}
		return c
	})
	return out
}

// SortState is the current sort of a list view.
type SortState struct {
	Key       string
	Direction Direction
}

// Toggle returns the state after selecting key: the same key flips the
// direction, a new key starts ascending.
func (s SortState) Toggle(key string) SortState {
	if s.Key == key {
		return SortState{Key: key, Direction: s.Direction.Reverse()}
	}
	return SortState{Key: key, Direction: Ascending}
}

// TransactionFields are the sort keys for transaction lists.
var TransactionFields = Fields[model.Transaction]{
	"date":           DateField(func(t model.Transaction) time.Time { return t.Date }),
	"amount":         NumberField(func(t model.Transaction) decimal.Decimal { return t.Amount }),
	"type":           TextField(func(t model.Transaction) string { return string(t.Type) }),
	"category":       TextField(func(t model.Transaction) string { return t.Category }),
	"description":    TextField(func(t model.Transaction) string { return t.Description }),
	"transaction_id": TextField(func(t model.Transaction) string { return t.TransactionID }),
}

// AccountFields are the sort keys for account lists.
var AccountFields = Fields[model.Account]{
	"name":            TextField(func(a model.Account) string { return a.Name }),
	"type":            TextField(func(a model.Account) string { return string(a.Type) }),
	"currency":        TextField(func(a model.Account) string { return a.Currency }),
	"balance":         NumberField(func(a model.Account) decimal.Decimal { return a.CalculatedBalance }),
	"initial_balance": NumberField(func(a model.Account) decimal.Decimal { return a.InitialBalance }),
	"created_at":      DateField(func(a model.Account) time.Time { return a.CreatedAt }),
}

// PurchaseFields are the sort keys for purchase lists.
var PurchaseFields = Fields[model.Purchase]{
	"item_name": TextField(func(p model.Purchase) string { return p.ItemName }),
	"category":  TextField(func(p model.Purchase) string { return p.Category }),
	"price":     NumberField(func(p model.Purchase) decimal.Decimal { return p.Price }),
	"date":      DateField(func(p model.Purchase) time.Time { return p.Date }),
}

// StatementFields are the sort keys for statement lines.
var StatementFields = Fields[StatementLine]{
	"date":        DateField(func(l StatementLine) time.Time { return l.Transaction.Date }),
	"amount":      NumberField(func(l StatementLine) decimal.Decimal { return l.Transaction.Amount }),
	"balance":     NumberField(func(l StatementLine) decimal.Decimal { return l.Balance }),
	"category":    TextField(func(l StatementLine) string { return l.Transaction.Category }),
	"description": TextField(func(l StatementLine) string { return l.Transaction.Description }),
}
