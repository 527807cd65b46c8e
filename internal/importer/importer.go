// Package importer turns bank CSV exports into ledger transactions.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fintrack-dev/fintrack/internal/model"
	"github.com/fintrack-dev/fintrack/internal/store"
	"github.com/fintrack-dev/fintrack/internal/transactions"
)

// Parser converts a bank CSV file into BankTransactions.
type Parser interface {
	Parse(r io.Reader) ([]model.BankTransaction, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a CSV file waiting in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	r.Register(&SimpleParser{})
	return r
}

const (
	importDir    = "import"
	processedDir = "import/processed"
	refTagPrefix = "ref:"
)

// TagImported marks every imported transaction.
const TagImported = "import"

// Scan returns CSV files in <dataDir>/import/.
func Scan(dataDir string) ([]FileInfo, error) {
	dir := filepath.Join(dataDir, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(dataDir, fileName string) error {
	dstDir := filepath.Join(dataDir, processedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	src := filepath.Join(dataDir, importDir, fileName)
	if err := os.Rename(src, filepath.Join(dstDir, fileName)); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}

// Categories chooses the category of converted rows. Transfer applies to
// rows whose bank type is a move between the user's own accounts.
type Categories struct {
	Income   string
	Expense  string
	Transfer string
}

// DefaultCategories are used when the caller has no preference.
var DefaultCategories = Categories{Income: "Other Income", Expense: "Uncategorized", Transfer: "Transfer"}

// bankTagPrefix tags a converted row with its lowercased bank type.
const bankTagPrefix = "bank:"

// transferTypes are bank types that move money between own accounts.
var transferTypes = map[string]bool{
	"ACCT_XFER": true,
	"LOAN_PMT":  true,
	"PAYMENT":   true,
}

// Convert maps signed bank rows to transactions on accountID: negative
// amounts become expenses, the rest income, always with a magnitude.
// Rows with a bank type carry a bank:<type> tag, and transfer types get
// the transfer category and tag.
func Convert(rows []model.BankTransaction, accountID string, cats Categories) []transactions.AddParams {
	out := make([]transactions.AddParams, 0, len(rows))
	for _, row := range rows {
		p := transactions.AddParams{
			AccountID:   accountID,
			Type:        model.TransactionIncome,
			Amount:      row.Amount.Abs().Round(2),
			Category:    cats.Income,
			Description: row.Description,
			Date:        row.Date,
			Tags:        []string{TagImported},
		}
		if row.Amount.IsNegative() {
			p.Type = model.TransactionExpense
			p.Category = cats.Expense
		}
		if row.Type != "" {
			p.Tags = append(p.Tags, bankTagPrefix+strings.ToLower(row.Type))
			if transferTypes[strings.ToUpper(row.Type)] && cats.Transfer != "" {
				p.Category = cats.Transfer
				p.Tags = append(p.Tags, model.TagTransfer)
			}
		}
		if row.Reference != "" {
			p.Tags = append(p.Tags, refTagPrefix+row.Reference)
		}
		out = append(out, p)
	}
	return out
}

// Result summarizes one import.
type Result struct {
	Imported       int
	Skipped        int
	TransactionIDs []string
}

// Importer records parsed bank rows through the transactions service.
type Importer struct {
	store    store.Store
	txns     *transactions.Service
	registry *Registry
	log      zerolog.Logger
}

// New creates an Importer.
func New(st store.Store, txns *transactions.Service, registry *Registry, log zerolog.Logger) *Importer {
	return &Importer{
		store:    st,
		txns:     txns,
		registry: registry,
		log:      log.With().Str("component", "importer").Logger(),
	}
}

// Import parses r with the named format and adds every row to accountID.
// Rows whose bank reference was already imported to that account, or
// appeared earlier in the same file, are skipped.
func (im *Importer) Import(ctx context.Context, r io.Reader, format, accountID string, cats Categories) (Result, error) {
	parser := im.registry.Get(format)
	if parser == nil {
		return Result{}, fmt.Errorf("unknown import format %q", format)
	}
	rows, err := parser.Parse(r)
	if err != nil {
		return Result{}, err
	}

	existing, err := im.store.FetchTransactions(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetching transactions: %w", err)
	}
	seen := make(map[string]bool)
	for _, t := range existing {
		if t.AccountID != accountID {
			continue
		}
		for _, tag := range t.Tags {
			if strings.HasPrefix(tag, refTagPrefix) {
				seen[tag] = true
			}
		}
	}

	var res Result
	for _, p := range Convert(rows, accountID, cats) {
		if ref := refTag(p.Tags); ref != "" && seen[ref] {
			res.Skipped++
			continue
		}
		added, err := im.txns.Add(ctx, p)
		if err != nil {
			return res, fmt.Errorf("importing %q on %s: %w", p.Description, p.Date.Format("2006-01-02"), err)
		}
		if ref := refTag(p.Tags); ref != "" {
			seen[ref] = true
		}
		res.Imported++
		res.TransactionIDs = append(res.TransactionIDs, added.TransactionID)
	}

	im.log.Info().
		Str("format", parser.Format()).
		Str("account_id", accountID).
		Int("imported", res.Imported).
		Int("skipped", res.Skipped).
		Msg("bank file imported")
	return res, nil
}

// ImportPending imports every CSV in <dataDir>/import/ and moves each
// finished file to import/processed/.
func (im *Importer) ImportPending(ctx context.Context, dataDir, format, accountID string, cats Categories) (Result, error) {
	files, err := Scan(dataDir)
	if err != nil {
		return Result{}, err
	}

	var total Result
	for _, fi := range files {
		res, err := im.importFile(ctx, fi.Path, format, accountID, cats)
		total.Imported += res.Imported
		total.Skipped += res.Skipped
		total.TransactionIDs = append(total.TransactionIDs, res.TransactionIDs...)
		if err != nil {
			return total, fmt.Errorf("%s: %w", fi.Name, err)
		}
		if err := MarkProcessed(dataDir, fi.Name); err != nil {
			return total, err
		}
	}
	return total, nil
}

func (im *Importer) importFile(ctx context.Context, path, format, accountID string, cats Categories) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return im.Import(ctx, f, format, accountID, cats)
}

func refTag(tags []string) string {
	for _, t := range tags {
		if strings.HasPrefix(t, refTagPrefix) {
			return t
		}
	}
	return ""
}
