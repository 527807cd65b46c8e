package transactions

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack-dev/fintrack/internal/model"
)

// Header is the CSV header for transactions.csv.
const Header = "id,transaction_id,account_id,date,type,amount,category,description,tags,donation_amount,purpose,created_at"

const (
	numFields     = 12
	dateFormat    = "2006-01-02"
	colID         = 0
	colTxnID      = 1
	colAcctID     = 2
	colDate       = 3
	colType       = 4
	colAmount     = 5
	colCategory   = 6
	colDesc       = 7
	colTags       = 8
	colDonation   = 9
	colPurpose    = 10
	colCreatedAt  = 11
	tagsSeparator = ";"
)

// ReadTransactions reads all transactions from a transactions.csv reader.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var txns []model.Transaction
	for i, rec := range records[1:] {
		txn, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// WriteTransactions writes transactions (including header).
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, txn := range txns {
		if err := cw.Write(MarshalTransaction(txn)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(txn model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = txn.ID
	row[colTxnID] = txn.TransactionID
	row[colAcctID] = txn.AccountID
	row[colDate] = txn.Date.Format(dateFormat)
	row[colType] = string(txn.Type)
	row[colAmount] = txn.Amount.StringFixed(2)
	row[colCategory] = txn.Category
	row[colDesc] = txn.Description
	row[colTags] = strings.Join(txn.Tags, tagsSeparator)
	if txn.DonationAmount != nil {
		row[colDonation] = txn.DonationAmount.StringFixed(2)
	}
	row[colPurpose] = string(txn.Purpose)
	if !txn.CreatedAt.IsZero() {
		row[colCreatedAt] = txn.CreatedAt.Format(time.RFC3339Nano)
	}
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	var donation *decimal.Decimal
	if record[colDonation] != "" {
		d, err := decimal.NewFromString(record[colDonation])
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing donation_amount %q: %w", record[colDonation], err)
		}
		donation = &d
	}

	var createdAt time.Time
	if record[colCreatedAt] != "" {
		createdAt, err = time.Parse(time.RFC3339Nano, record[colCreatedAt])
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing created_at %q: %w", record[colCreatedAt], err)
		}
	}

	var tags []string
	if record[colTags] != "" {
		tags = strings.Split(record[colTags], tagsSeparator)
	}

	return model.Transaction{
		ID:             record[colID],
		TransactionID:  record[colTxnID],
		AccountID:      record[colAcctID],
		Date:           date,
		Type:           model.TransactionType(record[colType]),
		Amount:         amount,
		Category:       record[colCategory],
		Description:    record[colDesc],
		Tags:           tags,
		DonationAmount: donation,
		Purpose:        model.Purpose(record[colPurpose]),
		CreatedAt:      createdAt,
	}, nil
}

// PurchaseHeader is the CSV header for purchases.csv.
const PurchaseHeader = "id,transaction_id,item_name,category,price,date,notes,exclude_from_calculation"

const (
	numPurchaseFields = 8
	colPID            = 0
	colPTxnID         = 1
	colPItem          = 2
	colPCategory      = 3
	colPPrice         = 4
	colPDate          = 5
	colPNotes         = 6
	colPExclude       = 7
)

// ReadPurchases reads purchases.csv.
func ReadPurchases(r io.Reader) ([]model.Purchase, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numPurchaseFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading purchases CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var purchases []model.Purchase
	for i, rec := range records[1:] {
		price, err := decimal.NewFromString(rec[colPPrice])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing price %q: %w", i+2, rec[colPPrice], err)
		}
		date, err := time.Parse(dateFormat, rec[colPDate])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing date %q: %w", i+2, rec[colPDate], err)
		}
		exclude, err := strconv.ParseBool(rec[colPExclude])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing exclude_from_calculation %q: %w", i+2, rec[colPExclude], err)
		}
		purchases = append(purchases, model.Purchase{
			ID:                     rec[colPID],
			TransactionID:          rec[colPTxnID],
			ItemName:               rec[colPItem],
			Category:               rec[colPCategory],
			Price:                  price,
			Date:                   date,
			Notes:                  rec[colPNotes],
			ExcludeFromCalculation: exclude,
		})
	}
	return purchases, nil
}

// WritePurchases writes purchases.csv (including header).
func WritePurchases(w io.Writer, purchases []model.Purchase) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(PurchaseHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, p := range purchases {
		row := make([]string, numPurchaseFields)
		row[colPID] = p.ID
		row[colPTxnID] = p.TransactionID
		row[colPItem] = p.ItemName
		row[colPCategory] = p.Category
		row[colPPrice] = p.Price.StringFixed(2)
		row[colPDate] = p.Date.Format(dateFormat)
		row[colPNotes] = p.Notes
		row[colPExclude] = strconv.FormatBool(p.ExcludeFromCalculation)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
