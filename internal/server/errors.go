package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"job-dashboard/pkg/job"
)

// HTTPErrorResponse is the error envelope of every non-2xx answer.
type HTTPErrorResponse struct {
	Error HTTPError `json:"error"`
}

type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, HTTPErrorResponse{Error: HTTPError{Code: code, Message: message}})
}

// writeStoreError maps store errors onto the envelope. It reports whether err was unexpected.
func writeStoreError(w http.ResponseWriter, err error) bool {
	var verr *job.ValidationError
	switch {
	case errors.Is(err, job.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, job.ErrNotPending):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return true
	}
	return false
}
