package http

import (
	"bytes"
	"net/http"

	"fintrack/internal/log"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Set("summary", newSummaryView(s.tracker.Summary())).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.tracker.List(parseCriteria(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Set("transactions", newTransactionViews(txs, s.tracker.Format)).
		Set("count", len(txs)).
		Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := s.tracker.Transaction(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Set("transaction", newTransactionView(tx, s.tracker.Format)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	in, err := parseTransaction(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	outcome, err := s.tracker.AddTransaction(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Set("transaction", newTransactionView(outcome.Transaction, s.tracker.Format)).
		Warning(outcome.Warning).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := parseTransaction(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	outcome, err := s.tracker.UpdateTransaction(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Set("transaction", newTransactionView(outcome.Transaction, s.tracker.Format)).
		Warning(outcome.Warning).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	outcome, err := s.tracker.DeleteTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Set("deleted", outcome.Transaction.ID).
		Warning(outcome.Warning).
		Write(w)
}

func (s *Server) handleGetBudgets(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Set("budgets", budgetsView(s.tracker.Budgets())).Write(w)
}

func (s *Server) handleSetBudgets(w http.ResponseWriter, r *http.Request) {
	entries, err := parseBudgets(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	outcome := s.tracker.SetBudgets(r.Context(), entries)
	NewJSONResponse().
		Set("budgets", budgetsView(s.tracker.Budgets())).
		Warning(outcome.Warning).
		Write(w)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Set("categories", newUtilizationViews(s.tracker.BudgetStatus())).Write(w)
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Set("charts", newChartView(s.tracker.ChartSeries())).Write(w)
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	overview, err := s.tracker.MonthSummary(r.PathValue("month"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Set("month", newMonthView(overview)).Write(w)
}

func (s *Server) handleGetCurrency(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Set("currency", s.tracker.Currency()).Write(w)
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Currency string `json:"currency"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	outcome, err := s.tracker.SetCurrency(r.Context(), req.Currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Set("currency", s.tracker.Currency()).
		Warning(outcome.Warning).
		Write(w)
}

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Set("currencies", currencyViews()).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		Set("in_use", nonNil(s.tracker.Categories())).
		Set("allowed", nonNil(s.tracker.AllowedCategories())).
		Write(w)
}

// handleExport buffers the CSV so a failure can still be reported with a
// proper status.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.tracker.ExportCSV(&buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())

	log.FromContext(r.Context()).InfoContext(r.Context(), "Exported transactions",
		log.FieldOperation, log.OpExport,
		"bytes", buf.Len())
}

// handleImport takes a raw CSV body in the export format. When no row
// could be added the request fails with 422 and the row errors.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if !isCSV(r.Header.Get("Content-Type")) {
		ErrorResponse(http.StatusUnsupportedMediaType, "import expects a text/csv body").Write(w)
		return
	}
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	result := s.tracker.ImportCSV(r.Context(), body)

	status := http.StatusOK
	if len(result.Added) == 0 && len(result.RowErrors) > 0 {
		status = http.StatusUnprocessableEntity
	}
	NewJSONResponse().
		Status(status).
		Set("added", len(result.Added)).
		Set("errors", nonNil(result.RowErrors)).
		Warning(result.Warning).
		Write(w)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
