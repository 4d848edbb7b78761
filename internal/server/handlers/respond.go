package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

var log = slog.Default()

// SetLogger installs the logger used for handler-level errors.
func SetLogger(l *slog.Logger) {
	if l != nil {
		log = l
	}
}

// respondWithJSON writes payload as a JSON response.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError writes a JSON error response, logging server-side
// failures.
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	if err != nil && code >= 500 {
		log.Error("http error", slog.Int("code", code), slog.String("message", message), slog.Any("err", err))
	}

	respondWithJSON(w, code, map[string]string{"error": message})
}
