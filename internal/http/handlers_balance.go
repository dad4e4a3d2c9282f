package http

import (
	"context"
	"net/http"
	"time"

	"contas/internal/core"
)

// balanceTimeout bounds the full-history fold behind the balance endpoints.
const balanceTimeout = 7 * time.Second

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	month, err := parseMonthQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
		return
	}

	key := month.String()
	if balance, ok := s.balanceCache.Get(key); ok {
		writeJSON(w, http.StatusOK, toBalancePayload(balance))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), balanceTimeout)
	defer cancel()

	balance, err := s.svc.MonthlyBalance(ctx, month)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	s.balanceCache.Set(key, balance)
	writeJSON(w, http.StatusOK, toBalancePayload(balance))
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limits, err := s.svc.Limits(r.Context())
		if err != nil {
			writeServiceError(r.Context(), w, err)
			return
		}
		payload := make([]limitPayload, len(limits))
		for i, l := range limits {
			payload[i] = toLimitPayload(l)
		}
		writeJSON(w, http.StatusOK, payload)

	case http.MethodPut:
		var payload limitPayload
		if err := decodeJSON(w, r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		month, err := core.ParseYearMonth(payload.Month)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
			return
		}

		limit := core.CategoryMonthlyLimit{
			CategoryID: payload.CategoryID,
			Month:      month,
			Limit:      payload.Limit,
		}
		if err := limit.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := s.svc.SetCategoryLimit(r.Context(), limit); err != nil {
			writeServiceError(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusOK, toLimitPayload(limit))

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleLimitStatus reports how a category's spending in a month compares
// to its resolved cap: GET /api/limits/{categoryID}?month=YYYY-MM.
func (s *Server) handleLimitStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	categoryID := pathSuffix(r, "/api/limits/")
	if categoryID == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	month, err := parseMonthQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), balanceTimeout)
	defer cancel()

	spent, limit, over, err := s.svc.CategoryOverLimit(ctx, categoryID, month)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, limitStatusPayload{
		CategoryID: categoryID,
		Month:      month.String(),
		Spent:      spent,
		Limit:      limit,
		OverLimit:  over,
	})
}
