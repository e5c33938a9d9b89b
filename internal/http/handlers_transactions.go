package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Tcordeir0/vpsurge-fin/internal/core"
	"github.com/Tcordeir0/vpsurge-fin/internal/dashboard"
	"github.com/Tcordeir0/vpsurge-fin/internal/notify"
	"github.com/Tcordeir0/vpsurge-fin/internal/store"
)

type transactionJSON struct {
	ID           int64  `json:"id"`
	AmountCents  int64  `json:"amountCents"`
	Amount       string `json:"amount"`
	Kind         string `json:"kind"`
	OccurredAt   string `json:"occurredAt,omitempty"`
	CreatedAt    string `json:"createdAt"`
	Description  string `json:"description"`
	Counterparty string `json:"counterparty"`
	Category     string `json:"category"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	out := transactionJSON{
		ID:           t.ID,
		AmountCents:  t.Amount.Cents,
		Amount:       t.Amount.String(),
		Kind:         string(t.Kind),
		CreatedAt:    t.CreatedAt.UTC().Format(time.RFC3339),
		Description:  t.Description,
		Counterparty: t.Counterparty,
		Category:     t.Category,
	}
	if !t.OccurredAt.IsZero() {
		out.OccurredAt = t.OccurredAt.UTC().Format(time.RFC3339)
	}
	return out
}

type listResponse struct {
	State        string            `json:"state"`
	Transactions []transactionJSON `json:"transactions"`
	Error        string            `json:"error,omitempty"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	snap := s.dash.Snapshot()

	resp := listResponse{
		State:        string(snap.State),
		Transactions: make([]transactionJSON, 0, len(snap.Transactions)),
	}
	for _, t := range snap.Transactions {
		resp.Transactions = append(resp.Transactions, toTransactionJSON(t))
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

type createTransactionRequest struct {
	Amount       string `json:"amount"`
	Kind         string `json:"kind"`
	OccurredAt   string `json:"occurredAt"`
	Description  string `json:"description"`
	Counterparty string `json:"counterparty"`
	Category     string `json:"category"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var occurred time.Time
	if req.OccurredAt != "" {
		occurred, err = parseDate(req.OccurredAt)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	saved, err := s.dash.Create(r.Context(), dashboard.CreateInput{
		AmountCents:  cents,
		Kind:         core.Kind(req.Kind),
		OccurredAt:   occurred,
		Description:  sanitizeInput(req.Description),
		Counterparty: sanitizeInput(req.Counterparty),
		Category:     sanitizeInput(req.Category),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateCharts()
	writeJSON(w, http.StatusCreated, toTransactionJSON(saved))
}

type updateTransactionRequest struct {
	Amount       *string `json:"amount"`
	Kind         *string `json:"kind"`
	OccurredAt   *string `json:"occurredAt"`
	Description  *string `json:"description"`
	Counterparty *string `json:"counterparty"`
	Category     *string `json:"category"`
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	var fields store.UpdateFields

	// An amount change needs the kind to re-derive the stored sign.
	if req.Amount != nil {
		if req.Kind == nil {
			writeError(w, r, badRequestf("kind is required when changing the amount"))
			return
		}
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		kind := core.Kind(*req.Kind)
		amount, err := core.SignedAmount(cents, kind)
		if err != nil {
			writeError(w, r, err)
			return
		}
		fields.Amount = &amount
		fields.Kind = &kind
	} else if req.Kind != nil {
		writeError(w, r, badRequestf("amount is required when changing the kind"))
		return
	}

	if req.OccurredAt != nil {
		occurred, err := parseDate(*req.OccurredAt)
		if err != nil {
			writeError(w, r, err)
			return
		}
		fields.OccurredAt = &occurred
	}
	if req.Description != nil {
		v := sanitizeInput(*req.Description)
		fields.Description = &v
	}
	if req.Counterparty != nil {
		v := sanitizeInput(*req.Counterparty)
		fields.Counterparty = &v
	}
	if req.Category != nil {
		v := sanitizeInput(*req.Category)
		fields.Category = &v
	}

	if err := s.dash.Update(r.Context(), id, fields); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateCharts()
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.dash.Remove(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateCharts()
	writeJSON(w, http.StatusNoContent, nil)
}

type metricsResponse struct {
	State         string `json:"state"`
	TotalBalance  string `json:"totalBalance"`
	TotalIncome   string `json:"totalIncome"`
	TotalExpenses string `json:"totalExpenses"`
	MonthlyChange string `json:"monthlyChange"`

	TotalBalanceCents  int64 `json:"totalBalanceCents"`
	TotalIncomeCents   int64 `json:"totalIncomeCents"`
	TotalExpensesCents int64 `json:"totalExpensesCents"`
	MonthlyChangeCents int64 `json:"monthlyChangeCents"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	snap := s.dash.Snapshot()
	m := snap.Metrics
	writeJSON(w, http.StatusOK, metricsResponse{
		State:              string(snap.State),
		TotalBalance:       m.TotalBalance.String(),
		TotalIncome:        m.TotalIncome.String(),
		TotalExpenses:      m.TotalExpenses.String(),
		MonthlyChange:      m.MonthlyChange.String(),
		TotalBalanceCents:  m.TotalBalance.Cents,
		TotalIncomeCents:   m.TotalIncome.Cents,
		TotalExpensesCents: m.TotalExpenses.Cents,
		MonthlyChangeCents: m.MonthlyChange.Cents,
	})
}

type monthlyPointJSON struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
}

func (s *Server) handleMonthlyChart(w http.ResponseWriter, r *http.Request) {
	months := 6
	if v := r.URL.Query().Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 36 {
			writeError(w, r, badRequestf("months must be between 1 and 36"))
			return
		}
		months = n
	}

	key := "monthly:" + strconv.Itoa(months)
	series, ok := s.monthlyCache.Get(key)
	if !ok {
		series = s.dash.MonthlySeries(months)
		s.monthlyCache.Set(key, series)
	}

	out := make([]monthlyPointJSON, 0, len(series))
	for _, p := range series {
		out = append(out, monthlyPointJSON{
			Year:     p.Year,
			Month:    int(p.Month),
			Income:   p.Income.String(),
			Expenses: p.Expenses.String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type categoryTotalJSON struct {
	Category string `json:"category"`
	Total    string `json:"total"`
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	const key = "categories"
	totals, ok := s.categoryCache.Get(key)
	if !ok {
		totals = s.dash.CategoryBreakdown()
		s.categoryCache.Set(key, totals)
	}

	out := make([]categoryTotalJSON, 0, len(totals))
	for _, c := range totals {
		out = append(out, categoryTotalJSON{Category: c.Category, Total: c.Total.String()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	messages := s.ring.Drain()
	if messages == nil {
		messages = []notify.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, badRequestf("invalid id")
	}
	return id, nil
}

// parseDate accepts a date ("2006-01-02") or full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, badRequestf("invalid date, want YYYY-MM-DD or RFC 3339")
	}
	return t, nil
}
