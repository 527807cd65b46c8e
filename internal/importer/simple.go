package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack-dev/fintrack/internal/model"
)

// SimpleParser reads a minimal "date,description,amount" CSV with ISO dates
// and signed amounts. An optional fourth column carries a bank reference.
type SimpleParser struct{}

// Format returns the parser name.
func (p *SimpleParser) Format() string { return "simple" }

// Parse reads the CSV, skipping the header row.
func (p *SimpleParser) Parse(r io.Reader) ([]model.BankTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var txns []model.BankTransaction
	for i, rec := range records[1:] {
		if len(rec) < 3 || len(rec) > 4 {
			return nil, fmt.Errorf("row %d: expected 3 or 4 fields, got %d", i+2, len(rec))
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing date %q: %w", i+2, rec[0], err)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount %q: %w", i+2, rec[2], err)
		}
		txn := model.BankTransaction{Date: date, Description: strings.TrimSpace(rec[1]), Amount: amount}
		if len(rec) == 4 {
			txn.Reference = strings.TrimSpace(rec[3])
		}
		txns = append(txns, txn)
	}
	return txns, nil
}
