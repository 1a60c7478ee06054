// Package api provides the HTTP API handlers for signalhand.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/signalhand/internal/controller"
	"github.com/ayusman/signalhand/internal/timing"
)

// Controller is the part of the control loop the API drives.
type Controller interface {
	Snapshot() controller.Snapshot
	SetDuration(ch timing.Channel, value int) (int, error)
	SetEnabled(enabled bool) error
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
