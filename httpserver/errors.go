package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/preetidudam/EDI-Project/errclass"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Kind    errclass.Kind `json:"kind"`
	Message string        `json:"message"`
}

// StatusFor maps an error kind to an HTTP status code.
func StatusFor(kind errclass.Kind) int {
	switch kind {
	case errclass.KindInvalidInput, errclass.KindEmptyNameRejectedByLedger:
		return http.StatusBadRequest
	case errclass.KindUserRejected:
		return http.StatusUnauthorized
	case errclass.KindNotFound:
		return http.StatusNotFound
	case errclass.KindDuplicateDevice, errclass.KindOperationInProgress:
		return http.StatusConflict
	case errclass.KindNotConnected, errclass.KindNoAccountsAvailable:
		return http.StatusPreconditionFailed
	case errclass.KindNoProviderAvailable, errclass.KindConfigurationError,
		errclass.KindTransientFailure, errclass.KindReconnectFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	classified := errclass.ClassifyError(err)
	status := StatusFor(classified.Kind)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "kind", classified.Kind.String(), "err", err)
	} else {
		h.log.Debug("Request rejected", "kind", classified.Kind.String(), "err", err)
	}

	if werr := writeJSON(w, status, ErrorResponse{Kind: classified.Kind, Message: classified.Message}); werr != nil {
		h.log.Error("Failed to encode error response", "err", werr)
	}
}
