package httpapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// envelope is the structured response shape every endpoint returns, per
// spec.md §7: "every HTTP endpoint returns a structured
// {status: ok|error, data?, error?, timestamp} envelope".
type envelope struct {
	Status    string `json:"status"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func writeOK(w http.ResponseWriter, data any) {
	writeEnvelope(w, http.StatusOK, envelope{Status: "ok", Data: data, Timestamp: time.Now().Unix()})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeEnvelope(w, status, envelope{Status: "error", Error: msg, Timestamp: time.Now().Unix()})
}

func writeEnvelope(w http.ResponseWriter, status int, e envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(e)
}
