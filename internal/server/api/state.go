package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/signalhand/internal/controller"
)

// StateHandler serves GET /api/state.
type StateHandler struct {
	ctrl Controller
}

// NewStateHandler creates a new StateHandler.
func NewStateHandler(ctrl Controller) *StateHandler {
	return &StateHandler{ctrl: ctrl}
}

func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// EnabledHandler serves GET and PUT /api/gestures/enabled.
type EnabledHandler struct {
	ctrl Controller
}

// NewEnabledHandler creates a new EnabledHandler.
func NewEnabledHandler(ctrl Controller) *EnabledHandler {
	return &EnabledHandler{ctrl: ctrl}
}

type enabledBody struct {
	Enabled *bool `json:"enabled"`
}

type enabledResponse struct {
	Enabled bool `json:"enabled"`
}

func (h *EnabledHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, enabledResponse{Enabled: h.ctrl.Snapshot().Enabled})

	case http.MethodPut:
		var body enabledBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		if err := h.ctrl.SetEnabled(*body.Enabled); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, controller.ErrStopped) {
				status = http.StatusServiceUnavailable
			}
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, enabledResponse{Enabled: *body.Enabled})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
