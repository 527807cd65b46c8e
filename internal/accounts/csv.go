package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack-dev/fintrack/internal/model"
)

const (
	numFields        = 13
	colID            = 0
	colName          = 1
	colType          = 2
	colCurrency      = 3
	colInitial       = 4
	colActive        = 5
	colDesc          = 6
	colCreatedAt     = 7
	colHasDPS        = 8
	colDPSType       = 9
	colDPSAmountType = 10
	colDPSFixed      = 11
	colDPSSavingsID  = 12
)

var header = []string{
	"id", "name", "type", "currency", "initial_balance", "is_active", "description", "created_at",
	"has_dps", "dps_type", "dps_amount_type", "dps_fixed_amount", "dps_savings_account_id",
}

// ReadAccounts reads accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row. CalculatedBalance is
// derived and never written.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = acct.ID
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	row[colCurrency] = acct.Currency
	row[colInitial] = acct.InitialBalance.String()
	row[colActive] = strconv.FormatBool(acct.IsActive)
	row[colDesc] = acct.Description
	if !acct.CreatedAt.IsZero() {
		row[colCreatedAt] = acct.CreatedAt.Format(time.RFC3339Nano)
	}
	row[colHasDPS] = strconv.FormatBool(acct.DPS.HasDPS)
	row[colDPSType] = string(acct.DPS.Type)
	row[colDPSAmountType] = string(acct.DPS.AmountType)
	if acct.DPS.FixedAmount != nil {
		row[colDPSFixed] = acct.DPS.FixedAmount.String()
	}
	row[colDPSSavingsID] = acct.DPS.SavingsAccountID
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	initial, err := decimal.NewFromString(record[colInitial])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing initial_balance %q: %w", record[colInitial], err)
	}

	active, err := strconv.ParseBool(record[colActive])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing is_active %q: %w", record[colActive], err)
	}

	var createdAt time.Time
	if record[colCreatedAt] != "" {
		createdAt, err = time.Parse(time.RFC3339Nano, record[colCreatedAt])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing created_at %q: %w", record[colCreatedAt], err)
		}
	}

	hasDPS, err := strconv.ParseBool(record[colHasDPS])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing has_dps %q: %w", record[colHasDPS], err)
	}

	var fixed *decimal.Decimal
	if record[colDPSFixed] != "" {
		d, err := decimal.NewFromString(record[colDPSFixed])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing dps_fixed_amount %q: %w", record[colDPSFixed], err)
		}
		fixed = &d
	}

	return model.Account{
		ID:                record[colID],
		Name:              record[colName],
		Type:              model.AccountType(record[colType]),
		Currency:          record[colCurrency],
		InitialBalance:    initial,
		CalculatedBalance: initial,
		IsActive:          active,
		Description:       record[colDesc],
		CreatedAt:         createdAt,
		DPS: model.DPSConfig{
			HasDPS:           hasDPS,
			Type:             model.DPSType(record[colDPSType]),
			AmountType:       model.DPSAmountType(record[colDPSAmountType]),
			FixedAmount:      fixed,
			SavingsAccountID: record[colDPSSavingsID],
		},
	}, nil
}
