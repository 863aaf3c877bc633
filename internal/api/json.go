package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error  string            `json:"error" validate:"required"`
	Fields validation.Errors `json:"fields,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

func fieldsBody(msg string, fields validation.Errors) errResponse {
	return errResponse{Error: msg, Fields: fields}
}
