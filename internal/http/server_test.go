package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"contas/internal/config"
	"contas/internal/ledger/memory"
	"contas/internal/log"
	"contas/internal/services"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store := memory.New()
	if err := store.Seed(context.Background()); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	svc := services.NewFinanceService(store, nil, 2020)

	cfg := &config.Config{
		Port:             "0",
		BalanceCacheSize: 16,
		BalanceCacheTTL:  time.Minute,
	}
	logger := log.New(log.Config{
		Component: "test",
		Handler:   slog.NewTextHandler(io.Discard, nil),
	})

	srv := NewServer(cfg, svc, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestServer(t).Handler()

	if rec := doRequest(t, h, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec := doRequest(t, h, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doRequest(t, h, http.MethodGet, "/healthz", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	h := newTestServer(t).Handler()

	t.Run("seeded list", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/categories", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		categories := decodeBody[[]categoryPayload](t, rec)
		if len(categories) != 6 {
			t.Fatalf("len(categories) = %d, want 6", len(categories))
		}
	})

	t.Run("upsert then delete", func(t *testing.T) {
		body := map[string]any{"name": "Viagens", "defaultLimit": "1500", "color": "#000000"}
		rec := doRequest(t, h, http.MethodPut, "/api/categories/7", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("put status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}

		saved := decodeBody[categoryPayload](t, rec)
		if saved.ID != "7" || saved.Name != "Viagens" {
			t.Errorf("saved = %+v, want id 7 name Viagens", saved)
		}

		rec = doRequest(t, h, http.MethodGet, "/api/categories", nil)
		if categories := decodeBody[[]categoryPayload](t, rec); len(categories) != 7 {
			t.Errorf("len(categories) = %d, want 7", len(categories))
		}

		if rec := doRequest(t, h, http.MethodDelete, "/api/categories/7", nil); rec.Code != http.StatusNoContent {
			t.Errorf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
		}
	})

	t.Run("invalid category rejected", func(t *testing.T) {
		body := map[string]any{"name": "   ", "defaultLimit": "100"}
		rec := doRequest(t, h, http.MethodPut, "/api/categories/8", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPatch, "/api/categories", nil)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})
}

func TestCreditCardEndpoints(t *testing.T) {
	h := newTestServer(t).Handler()

	t.Run("upsert and list", func(t *testing.T) {
		body := map[string]any{"name": "Nubank", "limit": "5000", "dueDay": 10, "closingDay": 3, "color": "#820ad1"}
		rec := doRequest(t, h, http.MethodPut, "/api/credit-cards/card-1", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("put status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}

		rec = doRequest(t, h, http.MethodGet, "/api/credit-cards", nil)
		cards := decodeBody[[]creditCardPayload](t, rec)
		if len(cards) != 1 || cards[0].ClosingDay != 3 {
			t.Errorf("cards = %+v, want one card with closing day 3", cards)
		}
	})

	t.Run("invalid closing day rejected", func(t *testing.T) {
		body := map[string]any{"name": "Broken", "limit": "100", "dueDay": 10, "closingDay": 31}
		rec := doRequest(t, h, http.MethodPut, "/api/credit-cards/card-2", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if rec := doRequest(t, h, http.MethodDelete, "/api/credit-cards/card-1", nil); rec.Code != http.StatusNoContent {
			t.Errorf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
		}
	})
}

func TestCreateTransaction(t *testing.T) {
	h := newTestServer(t).Handler()

	t.Run("single transaction", func(t *testing.T) {
		body := map[string]any{
			"description": "Salary",
			"amount":      "5000",
			"type":        "income",
			"date":        "2025-01-05",
		}
		rec := doRequest(t, h, http.MethodPost, "/api/transactions", body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}

		txs := decodeBody[[]transactionPayload](t, rec)
		if len(txs) != 1 {
			t.Fatalf("len(txs) = %d, want 1", len(txs))
		}
		if txs[0].EffectiveMonth != "2025-01" {
			t.Errorf("effective month = %q, want 2025-01", txs[0].EffectiveMonth)
		}
	})

	t.Run("card installments billed past closing day", func(t *testing.T) {
		cardBody := map[string]any{"name": "Visa", "limit": "8000", "dueDay": 10, "closingDay": 3, "color": "#123456"}
		if rec := doRequest(t, h, http.MethodPut, "/api/credit-cards/visa", cardBody); rec.Code != http.StatusOK {
			t.Fatalf("create card: status = %d: %s", rec.Code, rec.Body.String())
		}

		body := map[string]any{
			"description":       "Television",
			"amount":            "3000",
			"type":              "expense",
			"date":              "2025-01-10",
			"categoryId":        "4",
			"creditCardId":      "visa",
			"totalInstallments": 2,
		}
		rec := doRequest(t, h, http.MethodPost, "/api/transactions", body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}

		txs := decodeBody[[]transactionPayload](t, rec)
		if len(txs) != 2 {
			t.Fatalf("len(txs) = %d, want 2", len(txs))
		}
		if txs[0].InstallmentGroupID == "" || txs[0].InstallmentGroupID != txs[1].InstallmentGroupID {
			t.Error("installments should share a group id")
		}
		if txs[0].EffectiveMonth != "2025-03" || txs[1].EffectiveMonth != "2025-04" {
			t.Errorf("effective months = %q, %q, want 2025-03, 2025-04",
				txs[0].EffectiveMonth, txs[1].EffectiveMonth)
		}
	})

	t.Run("unknown card", func(t *testing.T) {
		body := map[string]any{
			"description":  "Ghost",
			"amount":       "10",
			"type":         "expense",
			"date":         "2025-01-10",
			"creditCardId": "missing",
		}
		rec := doRequest(t, h, http.MethodPost, "/api/transactions", body)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("malformed date", func(t *testing.T) {
		body := map[string]any{"description": "x", "amount": "10", "type": "expense", "date": "10/01/2025"}
		rec := doRequest(t, h, http.MethodPost, "/api/transactions", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("empty description", func(t *testing.T) {
		body := map[string]any{"description": "", "amount": "10", "type": "expense", "date": "2025-01-10"}
		rec := doRequest(t, h, http.MethodPost, "/api/transactions", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestDeleteTransactionRemovesGroup(t *testing.T) {
	h := newTestServer(t).Handler()

	body := map[string]any{
		"description":       "Sofa",
		"amount":            "900",
		"type":              "expense",
		"date":              "2025-02-01",
		"totalInstallments": 3,
	}
	rec := doRequest(t, h, http.MethodPost, "/api/transactions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[[]transactionPayload](t, rec)

	if rec := doRequest(t, h, http.MethodDelete, "/api/transactions/"+created[1].ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/transactions", nil)
	if remaining := decodeBody[[]transactionPayload](t, rec); len(remaining) != 0 {
		t.Errorf("len(remaining) = %d, want 0 after group delete", len(remaining))
	}
}

func TestTransactionListByMonth(t *testing.T) {
	h := newTestServer(t).Handler()

	for _, body := range []map[string]any{
		{"description": "January rent", "amount": "1200", "type": "expense", "date": "2025-01-05"},
		{"description": "February groceries", "amount": "300", "type": "expense", "date": "2025-02-07"},
	} {
		if rec := doRequest(t, h, http.MethodPost, "/api/transactions", body); rec.Code != http.StatusCreated {
			t.Fatalf("create: status = %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := doRequest(t, h, http.MethodGet, "/api/transactions?month=2025-02", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	txs := decodeBody[[]transactionPayload](t, rec)
	if len(txs) != 1 || txs[0].Description != "February groceries" {
		t.Errorf("txs = %+v, want only the February transaction", txs)
	}

	if rec := doRequest(t, h, http.MethodGet, "/api/transactions?month=banana", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed month: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestBalanceEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()

	post := func(body map[string]any) {
		t.Helper()
		if rec := doRequest(t, h, http.MethodPost, "/api/transactions", body); rec.Code != http.StatusCreated {
			t.Fatalf("create: status = %d: %s", rec.Code, rec.Body.String())
		}
	}

	post(map[string]any{"description": "Salary", "amount": "1000", "type": "income", "date": "2025-01-05"})

	rec := doRequest(t, h, http.MethodGet, "/api/balance?month=2025-02", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	balance := decodeBody[balancePayload](t, rec)
	if !balance.PreviousBalance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("previous balance = %s, want 1000", balance.PreviousBalance)
	}

	// A write must refresh the cached month.
	post(map[string]any{"description": "Rent", "amount": "400", "type": "expense", "date": "2025-01-10", "categoryId": "3"})

	rec = doRequest(t, h, http.MethodGet, "/api/balance?month=2025-02", nil)
	balance = decodeBody[balancePayload](t, rec)
	if !balance.PreviousBalance.Equal(decimal.NewFromInt(600)) {
		t.Errorf("previous balance after write = %s, want 600", balance.PreviousBalance)
	}

	if rec := doRequest(t, h, http.MethodGet, "/api/balance?month=2025-13", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed month: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestLimitEndpoints(t *testing.T) {
	h := newTestServer(t).Handler()

	// Category 4 (Lazer) defaults to 300; spend 250 in May.
	body := map[string]any{"description": "Concert", "amount": "250", "type": "expense", "date": "2025-05-10", "categoryId": "4"}
	if rec := doRequest(t, h, http.MethodPost, "/api/transactions", body); rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d: %s", rec.Code, rec.Body.String())
	}

	t.Run("under default limit", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/limits/4?month=2025-05", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		status := decodeBody[limitStatusPayload](t, rec)
		if status.OverLimit {
			t.Errorf("overLimit = true, want false (spent %s of %s)", status.Spent, status.Limit)
		}
		if !status.Limit.Equal(decimal.NewFromInt(300)) {
			t.Errorf("limit = %s, want default 300", status.Limit)
		}
	})

	t.Run("override flips the verdict", func(t *testing.T) {
		override := map[string]any{"categoryId": "4", "month": "2025-05", "limit": "200"}
		if rec := doRequest(t, h, http.MethodPut, "/api/limits", override); rec.Code != http.StatusOK {
			t.Fatalf("put override: status = %d: %s", rec.Code, rec.Body.String())
		}

		rec := doRequest(t, h, http.MethodGet, "/api/limits/4?month=2025-05", nil)
		status := decodeBody[limitStatusPayload](t, rec)
		if !status.OverLimit {
			t.Errorf("overLimit = false, want true (spent %s of %s)", status.Spent, status.Limit)
		}
	})

	t.Run("override listed", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/limits", nil)
		limits := decodeBody[[]limitPayload](t, rec)
		if len(limits) != 1 || limits[0].Month != "2025-05" {
			t.Errorf("limits = %+v, want single 2025-05 override", limits)
		}
	})

	t.Run("malformed month", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/limits/4?month=nope", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestCreditCardBalanceEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()

	cardBody := map[string]any{"name": "Visa", "limit": "8000", "dueDay": 10, "closingDay": 3, "color": "#123456"}
	if rec := doRequest(t, h, http.MethodPut, "/api/credit-cards/visa", cardBody); rec.Code != http.StatusOK {
		t.Fatalf("create card: status = %d: %s", rec.Code, rec.Body.String())
	}

	// Day 2 is before the closing day, so the purchase bills in February.
	body := map[string]any{"description": "Dinner", "amount": "120", "type": "expense", "date": "2025-01-02", "creditCardId": "visa"}
	if rec := doRequest(t, h, http.MethodPost, "/api/transactions", body); rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d: %s", rec.Code, rec.Body.String())
	}

	rec := doRequest(t, h, http.MethodGet, "/api/credit-cards/visa/balance?month=2025-02", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	balance := decodeBody[cardBalancePayload](t, rec)
	if !balance.Total.Equal(decimal.NewFromInt(120)) {
		t.Errorf("total = %s, want 120", balance.Total)
	}
}
