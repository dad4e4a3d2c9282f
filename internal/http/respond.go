package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"contas/internal/ledger"
	"contas/internal/log"
)

// maxBodyBytes caps request bodies; no legitimate payload comes close.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps service layer failures to HTTP statuses. Anything
// that is not a missing entity is reported as a 500 and logged with its
// cause; clients get a generic message.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, ledger.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	log.FromContext(ctx).Error("Request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
