package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// envelope is the body of every /exec response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response outside the /exec envelope.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, envelope{Success: false, Error: message})
}

// ok writes a successful envelope. Like the spreadsheet host, /exec answers
// 200 for application failures too; only the envelope tells them apart.
func ok(w http.ResponseWriter, data any) {
	jsonResponse(w, http.StatusOK, envelope{Success: true, Data: data})
}

// fail writes an unsuccessful envelope.
func fail(w http.ResponseWriter, message string) {
	jsonResponse(w, http.StatusOK, envelope{Success: false, Error: message})
}
