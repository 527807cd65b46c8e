package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fintrack-dev/fintrack/internal/accounts"
	"github.com/fintrack-dev/fintrack/internal/dps"
	"github.com/fintrack-dev/fintrack/internal/ledger"
	"github.com/fintrack-dev/fintrack/internal/model"
	"github.com/fintrack-dev/fintrack/internal/store"
)

const dateLayout = "2006-01-02"

type accountJSON struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Type              string          `json:"type"`
	Currency          string          `json:"currency"`
	InitialBalance    decimal.Decimal `json:"initial_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	IsActive          bool            `json:"is_active"`
	Description       string          `json:"description,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	DPS               *dpsJSON        `json:"dps,omitempty"`
}

type dpsJSON struct {
	Type             string           `json:"dps_type"`
	AmountType       string           `json:"dps_amount_type"`
	FixedAmount      *decimal.Decimal `json:"dps_fixed_amount"`
	SavingsAccountID string           `json:"dps_savings_account_id"`
}

type transactionJSON struct {
	ID             string           `json:"id"`
	TransactionID  string           `json:"transaction_id"`
	AccountID      string           `json:"account_id"`
	Amount         decimal.Decimal  `json:"amount"`
	Type           string           `json:"type"`
	Category       string           `json:"category"`
	Description    string           `json:"description,omitempty"`
	Date           string           `json:"date"`
	Tags           []string         `json:"tags"`
	DonationAmount *decimal.Decimal `json:"donation_amount,omitempty"`
	Purpose        string           `json:"purpose,omitempty"`
	Balance        *decimal.Decimal `json:"balance,omitempty"`
}

type summaryJSON struct {
	Currency     string          `json:"currency"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	TotalSaved   decimal.Decimal `json:"total_saved"`
	TotalDonated decimal.Decimal `json:"total_donated"`
	Net          decimal.Decimal `json:"net"`
	Count        int             `json:"count"`
	Currencies   []string        `json:"currencies"`
}

type closureJSON struct {
	ID            string          `json:"id"`
	State         string          `json:"state"`
	FailedStep    string          `json:"failed_step,omitempty"`
	PrimaryID     string          `json:"primary_id"`
	SubID         string          `json:"sub_id"`
	SubName       string          `json:"sub_name"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Destination   string          `json:"destination,omitempty"`
	DestinationID string          `json:"destination_id,omitempty"`
	TransferTxnID string          `json:"transfer_txn_id,omitempty"`
	Error         string          `json:"error,omitempty"`
	Partial       bool            `json:"partial"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type closeRequest struct {
	Destination string `json:"destination"`
}

func toAccountJSON(a model.Account) accountJSON {
	out := accountJSON{
		ID:                a.ID,
		Name:              a.Name,
		Type:              string(a.Type),
		Currency:          a.Currency,
		InitialBalance:    a.InitialBalance,
		CalculatedBalance: a.CalculatedBalance,
		IsActive:          a.IsActive,
		Description:       a.Description,
		CreatedAt:         a.CreatedAt,
	}
	if a.DPS.HasDPS || a.DPS.Linked() {
		out.DPS = &dpsJSON{
			Type:             string(a.DPS.Type),
			AmountType:       string(a.DPS.AmountType),
			FixedAmount:      a.DPS.FixedAmount,
			SavingsAccountID: a.DPS.SavingsAccountID,
		}
	}
	return out
}

func toTransactionJSON(t model.Transaction) transactionJSON {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return transactionJSON{
		ID:             t.ID,
		TransactionID:  t.TransactionID,
		AccountID:      t.AccountID,
		Amount:         t.Amount,
		Type:           string(t.Type),
		Category:       t.Category,
		Description:    t.Description,
		Date:           t.Date.Format(dateLayout),
		Tags:           tags,
		DonationAmount: t.DonationAmount,
		Purpose:        string(t.Purpose),
	}
}

func toClosureJSON(c *dps.Closure) closureJSON {
	return closureJSON{
		ID:            c.ID,
		State:         string(c.State),
		FailedStep:    string(c.FailedStep),
		PrimaryID:     c.PrimaryID,
		SubID:         c.SubID,
		SubName:       c.SubName,
		Amount:        c.Amount,
		Currency:      c.Currency,
		Destination:   string(c.Destination),
		DestinationID: c.DestinationID,
		TransferTxnID: c.TransferTxnID,
		Error:         c.Err,
		Partial:       c.Partial(),
		UpdatedAt:     c.UpdatedAt,
	}
}

// handleHealth reports liveness.
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListAccounts returns filtered, sorted accounts.
// GET /api/accounts?search=&type=&currency=&status=&sort=&dir=
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dir, err := ledger.ParseDirection(q.Get("dir"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	accts, err := s.store.FetchAccounts(r.Context())
	if err != nil {
		s.internalError(w, "Failed to fetch accounts", err)
		return
	}

	filter := ledger.AccountFilter{
		Search:   q.Get("search"),
		Type:     q.Get("type"),
		Currency: q.Get("currency"),
		Status:   q.Get("status"),
	}
	rows := ledger.FilterRows(accts, filter.Predicates()...)
	rows = ledger.SortRows(rows, q.Get("sort"), dir, ledger.AccountFields)

	out := make([]accountJSON, len(rows))
	for i, a := range rows {
		out[i] = toAccountJSON(a)
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleStatement returns an account's transactions with running balances,
// newest first unless sorted otherwise.
// GET /api/accounts/{id}/statement?sort=&dir=
func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := r.URL.Query()
	dir, err := ledger.ParseDirection(q.Get("dir"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	accts, err := s.store.FetchAccounts(r.Context())
	if err != nil {
		s.internalError(w, "Failed to fetch accounts", err)
		return
	}
	var acct *model.Account
	for i := range accts {
		if accts[i].ID == id {
			acct = &accts[i]
			break
		}
	}
	if acct == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("account %s not found", id))
		return
	}

	txns, err := s.store.FetchTransactions(r.Context())
	if err != nil {
		s.internalError(w, "Failed to fetch transactions", err)
		return
	}

	lines := ledger.Statement(*acct, ledger.ForAccount(id, txns))
	closing := ledger.ClosingBalance(*acct, lines)
	if key := q.Get("sort"); key != "" {
		lines = ledger.SortRows(lines, key, dir, ledger.StatementFields)
	}

	rows := make([]transactionJSON, len(lines))
	for i, l := range lines {
		rows[i] = toTransactionJSON(l.Transaction)
		bal := l.Balance
		rows[i].Balance = &bal
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"account":         toAccountJSON(*acct),
		"closing_balance": closing,
		"lines":           rows,
	})
}

// handleListTransactions returns filtered, sorted transactions.
// GET /api/transactions?search=&account=&category=&type=&currency=&tag=&from=&to=&sort=&dir=
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dir, err := ledger.ParseDirection(q.Get("dir"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	from, err := parseDate(q.Get("from"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	accts, err := s.store.FetchAccounts(r.Context())
	if err != nil {
		s.internalError(w, "Failed to fetch accounts", err)
		return
	}
	txns, err := s.store.FetchTransactions(r.Context())
	if err != nil {
		s.internalError(w, "Failed to fetch transactions", err)
		return
	}

	filter := ledger.TransactionFilter{
		Search:    q.Get("search"),
		AccountID: q.Get("account"),
		Category:  q.Get("category"),
		Type:      q.Get("type"),
		Currency:  q.Get("currency"),
		Tag:       q.Get("tag"),
		From:      from,
		To:        to,
	}
	rows := ledger.FilterRows(txns, filter.Predicates(accts)...)
	rows = ledger.SortRows(rows, q.Get("sort"), dir, ledger.TransactionFields)

	out := make([]transactionJSON, len(rows))
	for i, t := range rows {
		out[i] = toTransactionJSON(t)
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleSummary returns the aggregate cards for one currency.
// GET /api/summary?currency=
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	currency := r.URL.Query().Get("currency")
	if currency == "" {
		currency = s.currency
	}

	accts, err := s.store.FetchAccounts(r.Context())
	if err != nil {
		s.internalError(w, "Failed to fetch accounts", err)
		return
	}
	txns, err := s.store.FetchTransactions(r.Context())
	if err != nil {
		s.internalError(w, "Failed to fetch transactions", err)
		return
	}

	t := s.classifier.Aggregates(accts, txns, currency)
	s.writeJSON(w, http.StatusOK, summaryJSON{
		Currency:     t.Currency,
		TotalIncome:  t.TotalIncome,
		TotalExpense: t.TotalExpense,
		TotalSaved:   t.TotalSaved,
		TotalDonated: t.TotalDonated,
		Net:          t.Net(),
		Count:        t.Count,
		Currencies:   ledger.Currencies(accts),
	})
}

// handleCloseDPS begins and confirms a DPS closure in one request.
// POST /api/accounts/{id}/dps/close {"destination": "primary"|"cash_wallet"}
func (s *Server) handleCloseDPS(w http.ResponseWriter, r *http.Request) {
	var req closeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	dest, err := dps.ParseDestination(req.Destination)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	c, err := s.workflow.Begin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.workflowError(w, nil, err)
		return
	}
	if err := s.workflow.Confirm(r.Context(), c, dest); err != nil {
		s.workflowError(w, c, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toClosureJSON(c))
}

// handleListClosures returns the latest state of every closure.
// GET /api/dps/closures
func (s *Server) handleListClosures(w http.ResponseWriter, _ *http.Request) {
	closures, err := s.workflow.List()
	if err != nil {
		s.internalError(w, "Failed to read closures", err)
		return
	}
	out := make([]closureJSON, len(closures))
	for i, c := range closures {
		out[i] = toClosureJSON(c)
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleClosureStatus returns one closure.
// GET /api/dps/closures/{id}
func (s *Server) handleClosureStatus(w http.ResponseWriter, r *http.Request) {
	c, err := s.workflow.Status(chi.URLParam(r, "id"))
	if err != nil {
		s.workflowError(w, nil, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toClosureJSON(c))
}

// handleResumeClosure retries a failed or interrupted closure.
// POST /api/dps/closures/{id}/resume
func (s *Server) handleResumeClosure(w http.ResponseWriter, r *http.Request) {
	c, err := s.workflow.Resume(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.workflowError(w, c, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toClosureJSON(c))
}

func (s *Server) workflowError(w http.ResponseWriter, c *dps.Closure, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, dps.ErrUnknownClosure):
		var stepErr *dps.StepError
		if !errors.As(err, &stepErr) {
			status = http.StatusNotFound
		}
	case errors.Is(err, dps.ErrNotLinked), errors.Is(err, dps.ErrInvalidState), errors.Is(err, dps.ErrAwaitingConfirmation),
		errors.Is(err, accounts.ErrInvalidDPSLink):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("DPS closure failed")
	}

	body := map[string]any{"error": err.Error()}
	if c != nil {
		body["closure"] = toClosureJSON(c)
	}
	s.writeJSON(w, status, body)
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.log.Error().Err(err).Msg(msg)
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}
