package transactions

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/fintrack-dev/fintrack/internal/model"
)

// DefaultCategories returns the categories seeded into a new data directory.
func DefaultCategories() []model.Category {
	return []model.Category{
		{Name: "Salary", Type: model.TransactionIncome, Color: "#16a34a"},
		{Name: "Freelance", Type: model.TransactionIncome, Color: "#22c55e"},
		{Name: "Savings", Type: model.TransactionIncome, Color: "#0ea5e9"},
		{Name: "Donation", Type: model.TransactionIncome, Color: "#a855f7"},
		{Name: "DPS", Type: model.TransactionIncome, Color: "#6366f1"},
		{Name: "Transfer", Type: model.TransactionIncome, Color: "#64748b"},
		{Name: "Other Income", Type: model.TransactionIncome, Color: "#84cc16"},
		{Name: "Groceries", Type: model.TransactionExpense, Color: "#f97316"},
		{Name: "Rent", Type: model.TransactionExpense, Color: "#ef4444"},
		{Name: "Utilities", Type: model.TransactionExpense, Color: "#eab308"},
		{Name: "Transport", Type: model.TransactionExpense, Color: "#14b8a6"},
		{Name: "Shopping", Type: model.TransactionExpense, Color: "#ec4899"},
		{Name: "Health", Type: model.TransactionExpense, Color: "#f43f5e"},
		{Name: "Uncategorized", Type: model.TransactionExpense, Color: "#9ca3af"},
	}
}

// CategorySet answers whether a category name is known.
type CategorySet map[string]model.TransactionType

// NewCategorySet indexes categories by name.
func NewCategorySet(categories []model.Category) CategorySet {
	set := make(CategorySet, len(categories))
	for _, c := range categories {
		set[c.Name] = c.Type
	}
	return set
}

// Known reports whether name is a category.
func (s CategorySet) Known(name string) bool {
	_, ok := s[name]
	return ok
}

// ReadCategories reads categories.csv.
func ReadCategories(r io.Reader) ([]model.Category, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading categories CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var categories []model.Category
	for _, rec := range records[1:] {
		categories = append(categories, model.Category{Name: rec[0], Type: model.TransactionType(rec[1]), Color: rec[2]})
	}
	return categories, nil
}

// WriteCategories writes categories.csv.
func WriteCategories(w io.Writer, categories []model.Category) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "type", "color"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, c := range categories {
		if err := cw.Write([]string{c.Name, string(c.Type), c.Color}); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
