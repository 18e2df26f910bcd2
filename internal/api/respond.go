package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/star/exotransit/internal/transit"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeParamError reports a rejected input as 400, naming the field when
// the error carries one.
func writeParamError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	var pe *transit.ParameterError
	if errors.As(err, &pe) {
		resp.Field = pe.Field
	}
	writeJSON(w, http.StatusBadRequest, resp)
}
