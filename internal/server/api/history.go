package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ayusman/signalhand/internal/protocol"
	"github.com/ayusman/signalhand/internal/store"
)

// Query limits for history endpoints.
const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

// HistoryHandler serves recorded events and status reports.
type HistoryHandler struct {
	store *store.Store
}

// NewHistoryHandler creates a new HistoryHandler with the given store.
func NewHistoryHandler(s *store.Store) *HistoryHandler {
	return &HistoryHandler{store: s}
}

type eventResponse struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Label     string   `json:"label,omitempty"`
	Channel   string   `json:"channel,omitempty"`
	Value     int      `json:"value,omitempty"`
	Source    string   `json:"source,omitempty"`
	Commands  []string `json:"commands"`
	CreatedAt string   `json:"created_at"`
}

type listEventsResponse struct {
	Events []eventResponse `json:"events"`
}

type statusResponse struct {
	ID        int64                `json:"id"`
	Line      string               `json:"line"`
	Device    protocol.DeviceState `json:"device"`
	CreatedAt string               `json:"created_at"`
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Events handles GET /api/events?limit=n, newest first.
func (h *HistoryHandler) Events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.store.Events().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	response := listEventsResponse{Events: make([]eventResponse, 0, len(events))}
	for _, e := range events {
		commands := e.Commands
		if commands == nil {
			commands = []string{}
		}
		response.Events = append(response.Events, eventResponse{
			ID:        e.ID,
			Kind:      string(e.Kind),
			Label:     e.Label,
			Channel:   e.Channel,
			Value:     e.Value,
			Source:    e.Source,
			Commands:  commands,
			CreatedAt: e.CreatedAt.Format(timeLayout),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// LatestStatus handles GET /api/status/latest.
func (h *HistoryHandler) LatestStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rep, err := h.store.Status().Latest()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No status reported yet")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load status")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		ID:        rep.ID,
		Line:      rep.Line,
		Device:    rep.Device,
		CreatedAt: rep.CreatedAt.Format(timeLayout),
	})
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	if n > MaxLimit {
		n = MaxLimit
	}
	return n, nil
}
