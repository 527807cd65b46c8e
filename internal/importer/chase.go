package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack-dev/fintrack/internal/model"
)

// ChaseParser parses Chase CSV exports. Columns are located by header
// name, so both the checking layout (Details, Posting Date, Description,
// Amount, Type, Balance, Check or Slip #) and the credit card layout
// (Transaction Date, Post Date, Description, Category, Type, Amount, Memo)
// are accepted.
type ChaseParser struct{}

const chaseDateFormat = "01/02/2006"

// ErrUnknownLayout is returned when a header names none of the known
// export layouts.
var ErrUnknownLayout = errors.New("unrecognized CSV header")

// chaseLayout holds column indexes; -1 marks an absent optional column.
type chaseLayout struct {
	date, desc, amount, typ, check int
}

func chaseLayoutOf(header []string) (chaseLayout, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))] = i
	}
	col := func(names ...string) int {
		for _, n := range names {
			if i, ok := idx[n]; ok {
				return i
			}
		}
		return -1
	}

	l := chaseLayout{
		date:   col("posting date", "transaction date"),
		desc:   col("description"),
		amount: col("amount"),
		typ:    col("type"),
		check:  col("check or slip #"),
	}
	if l.date < 0 || l.desc < 0 || l.amount < 0 {
		return chaseLayout{}, fmt.Errorf("chase: %w %q", ErrUnknownLayout, strings.Join(header, ","))
	}
	return l, nil
}

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV and returns BankTransactions.
func (p *ChaseParser) Parse(r io.Reader) ([]model.BankTransaction, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	layout, err := chaseLayoutOf(records[0])
	if err != nil {
		return nil, err
	}

	var txns []model.BankTransaction
	for i, rec := range records[1:] {
		txn, err := layout.parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func (l chaseLayout) field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (l chaseLayout) parseRow(rec []string) (model.BankTransaction, error) {
	rawDate := l.field(rec, l.date)
	date, err := time.Parse(chaseDateFormat, rawDate)
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing date %q: %w", rawDate, err)
	}

	rawAmount := l.field(rec, l.amount)
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing amount %q: %w", rawAmount, err)
	}

	desc := l.field(rec, l.desc)
	ref := makeChaseRef(date, desc, amount)
	if n := l.field(rec, l.check); n != "" {
		ref = "chase_check_" + n
	}
	return model.BankTransaction{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Reference:   ref,
		Type:        strings.ToUpper(l.field(rec, l.typ)),
	}, nil
}

// makeChaseRef creates a reference like chase_20250103_GITHUBPROS_400.
// Chase exports carry no row ID, so the amount keeps same-day rows apart.
func makeChaseRef(date time.Time, desc string, amount decimal.Decimal) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("chase_%s_%s_%s", date.Format("20060102"), prefix, amount.Abs().Shift(2).StringFixed(0))
}
