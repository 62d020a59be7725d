package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"catchcert/pkg/domerr"
	"catchcert/pkg/platform/sentinel"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError translates domain errors onto HTTP statuses. Coded errors carry
// their own mapping; sentinel errors from stores get translated here so
// handlers never inspect infrastructure failures directly.
func writeError(w http.ResponseWriter, err error) {
	var de *domerr.Error
	if errors.As(err, &de) {
		writeJSON(w, domerr.ToHTTPStatus(de.Code), errorResponse{Error: de.Message})
		return
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, sentinel.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "conflict"})
	case errors.Is(err, sentinel.ErrInvalidState):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid state"})
	case errors.Is(err, sentinel.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "unavailable"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
