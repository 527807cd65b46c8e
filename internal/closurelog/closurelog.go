// Package closurelog appends DPS closure checkpoints to logs/dps-closures.csv
// so an interrupted closure can be inspected and resumed.
package closurelog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one checkpoint row.
type Entry struct {
	Timestamp     time.Time
	ClosureID     string
	State         string
	FailedStep    string
	PrimaryID     string
	SubID         string
	SubName       string
	Amount        decimal.Decimal
	Currency      string
	Destination   string
	DestinationID string
	TransferTxnID string
	Error         string
}

// Header is the CSV header for dps-closures.csv.
const Header = "timestamp,closure_id,state,failed_step,primary_id,sub_id,sub_name,amount,currency,destination,destination_id,transfer_txn_id,error"

const (
	numFields        = 13
	logDir           = "logs"
	logFile          = "logs/dps-closures.csv"
	colTimestamp     = 0
	colClosureID     = 1
	colState         = 2
	colFailedStep    = 3
	colPrimaryID     = 4
	colSubID         = 5
	colSubName       = 6
	colAmount        = 7
	colCurrency      = 8
	colDestination   = 9
	colDestinationID = 10
	colTransferTxnID = 11
	colError         = 12
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339Nano)
	row[colClosureID] = e.ClosureID
	row[colState] = e.State
	row[colFailedStep] = e.FailedStep
	row[colPrimaryID] = e.PrimaryID
	row[colSubID] = e.SubID
	row[colSubName] = e.SubName
	row[colAmount] = e.Amount.String()
	row[colCurrency] = e.Currency
	row[colDestination] = e.Destination
	row[colDestinationID] = e.DestinationID
	row[colTransferTxnID] = e.TransferTxnID
	row[colError] = e.Error
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339Nano, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	return Entry{
		Timestamp:     ts,
		ClosureID:     record[colClosureID],
		State:         record[colState],
		FailedStep:    record[colFailedStep],
		PrimaryID:     record[colPrimaryID],
		SubID:         record[colSubID],
		SubName:       record[colSubName],
		Amount:        amount,
		Currency:      record[colCurrency],
		Destination:   record[colDestination],
		DestinationID: record[colDestinationID],
		TransferTxnID: record[colTransferTxnID],
		Error:         record[colError],
	}, nil
}

// Append writes entries to <root>/logs/dps-closures.csv, creating the file
// and header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening closure log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Sync()
}

// Read returns all entries from <root>/logs/dps-closures.csv, oldest first.
// A missing file yields no entries.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(root, logFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening closure log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading closure log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Latest returns the most recent entry of every closure, in order of first
// appearance.
func Latest(entries []Entry) []Entry {
	index := make(map[string]int)
	var out []Entry
	for _, e := range entries {
		if i, ok := index[e.ClosureID]; ok {
			out[i] = e
			continue
		}
		index[e.ClosureID] = len(out)
		out = append(out, e)
	}
	return out
}

// Log serializes checkpoint writes to one data directory.
type Log struct {
	mu   sync.Mutex
	root string
}

// New returns a Log rooted at the data directory root.
func New(root string) *Log {
	return &Log{root: root}
}

// Record appends one checkpoint.
func (l *Log) Record(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Append(l.root, []Entry{e})
}

// Last returns the latest checkpoint for closureID.
func (l *Log) Last(closureID string) (Entry, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := Read(l.root)
	if err != nil {
		return Entry{}, false, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].ClosureID == closureID {
			return entries[i], true, nil
		}
	}
	return Entry{}, false, nil
}

// All returns the latest checkpoint of every closure.
func (l *Log) All() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := Read(l.root)
	if err != nil {
		return nil, err
	}
	return Latest(entries), nil
}
