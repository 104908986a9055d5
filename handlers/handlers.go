// Package handlers provides HTTP request handlers for the clinical API
// endpoints. It includes authentication, patient context, the decision chat
// stream, and the Jan Aushadhi catalog lookups, with response formatting and
// input validation on every route.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/medperplexity/clinical-api/logging"
)

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]interface{}{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}
