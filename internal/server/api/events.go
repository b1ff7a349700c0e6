package api

import (
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// MaxEventLimit caps the limit query parameter.
const MaxEventLimit = 500

// EventHandler serves the gesture event log.
type EventHandler struct {
	store *store.Store
	log   logrus.FieldLogger
}

// NewEventHandler creates a new EventHandler with the given store.
func NewEventHandler(s *store.Store, log logrus.FieldLogger) *EventHandler {
	return &EventHandler{store: s, log: log}
}

type listEventsResponse struct {
	Events []store.Event `json:"events"`
}

// ServeHTTP handles GET /api/events?limit=N&gesture=label.
func (h *EventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxEventLimit)
	}

	label := gesture.Label(query.Get("gesture"))
	if label != "" && !label.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown gesture "+string(label))
		return
	}

	events, err := h.store.Events().Recent(limit, label)
	if err != nil {
		h.log.WithError(err).Error("Failed to list events")
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, listEventsResponse{Events: events})
}
