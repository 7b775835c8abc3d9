package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/blackwell-systems/stashctl/internal/errs"
)

// --- Response helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(data)
}

// respondRaw writes an already encoded JSON document.
func respondRaw(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps err to a status through its error code.
func respondErr(w http.ResponseWriter, err error) {
	respondJSON(w, statusOf(err), map[string]string{
		"error": err.Error(),
		"code":  string(errs.CodeOf(err)),
	})
}

func statusOf(err error) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	switch errs.CodeOf(err) {
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodeInvalidInput, errs.CodeFormat:
		return http.StatusBadRequest
	case errs.CodeRateLimited:
		return http.StatusTooManyRequests
	case errs.CodeFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.Invalid("decode request", err.Error())
	}
	return nil
}
