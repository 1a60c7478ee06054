package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/signalhand/internal/controller"
	"github.com/ayusman/signalhand/internal/timing"
)

// TimingHandler bridges the dashboard sliders to the control loop.
type TimingHandler struct {
	ctrl Controller
}

// NewTimingHandler creates a new TimingHandler.
func NewTimingHandler(ctrl Controller) *TimingHandler {
	return &TimingHandler{ctrl: ctrl}
}

type setDurationRequest struct {
	Value *int `json:"value"`
}

type durationResponse struct {
	Channel string `json:"channel"`
	Value   int    `json:"value"`
}

// ServeHTTP routes /api/timing and /api/timing/{channel}.
func (h *TimingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/timing")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, h.ctrl.Snapshot().Timing)
		return
	}

	ch, err := timing.ParseChannel(path)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, durationResponse{
			Channel: string(ch),
			Value:   h.ctrl.Snapshot().Timing.Get(ch),
		})
	case http.MethodPut:
		h.set(w, r, ch)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// set handles PUT /api/timing/{channel}. Out-of-range values are clamped,
// and the response carries the value actually stored.
func (h *TimingHandler) set(w http.ResponseWriter, r *http.Request, ch timing.Channel) {
	var req setDurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}

	stored, err := h.ctrl.SetDuration(ch, *req.Value)
	if err != nil {
		if errors.Is(err, controller.ErrStopped) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, durationResponse{Channel: string(ch), Value: stored})
}
