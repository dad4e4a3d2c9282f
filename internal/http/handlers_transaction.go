package http

import (
	"net/http"

	"contas/internal/core"
)

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// listTransactions returns the month's billed transactions, or the full
// history when no month is requested.
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	var (
		txs []core.Transaction
		err error
	)

	if r.URL.Query().Has("month") {
		month, perr := parseMonthQuery(r)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
			return
		}
		txs, err = s.svc.MonthTransactions(r.Context(), month)
	} else {
		txs, err = s.svc.Transactions(r.Context())
	}
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionPayloads(txs))
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	draft := core.TransactionDraft{
		Description:  req.Description,
		Amount:       req.Amount,
		Type:         core.TransactionType(req.Type),
		Date:         date,
		CategoryID:   req.CategoryID,
		CreditCardID: req.CreditCardID,
	}
	if err := draft.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	installments := req.TotalInstallments
	if installments == 0 {
		installments = 1
	}
	if installments < 1 || installments > 99 {
		writeError(w, http.StatusBadRequest, "total installments must be between 1 and 99")
		return
	}

	txs, err := s.svc.CreateTransaction(r.Context(), draft, installments)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	s.balanceCache.Purge()
	writeJSON(w, http.StatusCreated, toTransactionPayloads(txs))
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := pathSuffix(r, "/api/transactions/")
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := s.svc.DeleteTransaction(r.Context(), id); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	s.balanceCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}
