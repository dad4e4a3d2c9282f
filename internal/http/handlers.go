package http

import (
	"net/http"
	"strings"
	"time"

	"contas/internal/core"
)

// parseMonthQuery reads the month query parameter. The current calendar
// month is the default; a malformed value is the caller's error to report.
func parseMonthQuery(r *http.Request) (core.YearMonth, error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return core.YearMonthOf(time.Now()), nil
	}
	return core.ParseYearMonth(v)
}

// pathSuffix returns the path segment after prefix, or "" when the request
// path does not name one.
func pathSuffix(r *http.Request, prefix string) string {
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	if rest == r.URL.Path || rest == "" || strings.Contains(rest, "/") {
		return ""
	}
	return rest
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	categories, err := s.svc.Categories(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	payload := make([]categoryPayload, len(categories))
	for i, c := range categories {
		payload[i] = toCategoryPayload(c)
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleCategoryByID(w http.ResponseWriter, r *http.Request) {
	id := pathSuffix(r, "/api/categories/")
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var payload categoryPayload
		if err := decodeJSON(w, r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		category := payload.toCore(id)
		if err := category.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := s.svc.SaveCategory(r.Context(), category); err != nil {
			writeServiceError(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCategoryPayload(category))

	case http.MethodDelete:
		if err := s.svc.DeleteCategory(r.Context(), id); err != nil {
			writeServiceError(r.Context(), w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCreditCards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	cards, err := s.svc.CreditCards(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	payload := make([]creditCardPayload, len(cards))
	for i, c := range cards {
		payload[i] = toCreditCardPayload(c)
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleCreditCardByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/credit-cards/")

	// GET /api/credit-cards/{id}/balance reports the card's monthly bill.
	if id, ok := strings.CutSuffix(rest, "/balance"); ok && id != "" && !strings.Contains(id, "/") {
		s.handleCreditCardBalance(w, r, id)
		return
	}

	id := pathSuffix(r, "/api/credit-cards/")
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var payload creditCardPayload
		if err := decodeJSON(w, r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		card := payload.toCore(id)
		if err := card.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := s.svc.SaveCreditCard(r.Context(), card); err != nil {
			writeServiceError(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCreditCardPayload(card))

	case http.MethodDelete:
		if err := s.svc.DeleteCreditCard(r.Context(), id); err != nil {
			writeServiceError(r.Context(), w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCreditCardBalance(w http.ResponseWriter, r *http.Request, cardID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	month, err := parseMonthQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
		return
	}

	total, err := s.svc.CreditCardBalance(r.Context(), cardID, month)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, cardBalancePayload{
		CreditCardID: cardID,
		Month:        month.String(),
		Total:        total,
	})
}
