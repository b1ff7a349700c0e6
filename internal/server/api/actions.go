package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// PluginChecker reports whether a plugin offers an action. The handler
// accepts any plugin name when it is nil.
type PluginChecker interface {
	Supports(pluginName, action string) error
}

// ActionHandler handles HTTP requests for action resources.
type ActionHandler struct {
	store   *store.Store
	plugins PluginChecker
	log     logrus.FieldLogger
}

// NewActionHandler creates a new ActionHandler with the given store.
func NewActionHandler(s *store.Store, plugins PluginChecker, log logrus.FieldLogger) *ActionHandler {
	return &ActionHandler{store: s, plugins: plugins, log: log}
}

// ServeHTTP routes /api/actions and /api/actions/{id}.
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/actions")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createActionRequest struct {
	Gesture    gesture.Label   `json:"gesture"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type updateActionRequest struct {
	Gesture    gesture.Label   `json:"gesture"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type actionResponse struct {
	ID         string          `json:"id"`
	Gesture    gesture.Label   `json:"gesture"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  string          `json:"created_at"`
}

type listActionsResponse struct {
	Actions []actionResponse `json:"actions"`
}

func toActionResponse(a *store.Action) actionResponse {
	config := a.Config
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}
	return actionResponse{
		ID:         a.ID,
		Gesture:    a.Gesture,
		PluginName: a.PluginName,
		ActionName: a.ActionName,
		Config:     config,
		Enabled:    a.Enabled,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
}

func (h *ActionHandler) list(w http.ResponseWriter, r *http.Request) {
	actions, err := h.store.Actions().List()
	if err != nil {
		h.log.WithError(err).Error("Failed to list actions")
		writeError(w, http.StatusInternalServerError, "Failed to list actions")
		return
	}

	response := listActionsResponse{
		Actions: make([]actionResponse, 0, len(actions)),
	}
	for _, a := range actions {
		response.Actions = append(response.Actions, toActionResponse(a))
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *ActionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	action, err := h.store.Actions().GetByID(id)
	if err != nil {
		h.storeError(w, err, "Failed to get action")
		return
	}

	writeJSON(w, http.StatusOK, toActionResponse(action))
}

func (h *ActionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Gesture == "" {
		writeError(w, http.StatusBadRequest, "gesture is required")
		return
	}
	if !req.Gesture.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown gesture "+string(req.Gesture))
		return
	}
	if req.PluginName == "" {
		writeError(w, http.StatusBadRequest, "plugin_name is required")
		return
	}
	if req.ActionName == "" {
		writeError(w, http.StatusBadRequest, "action_name is required")
		return
	}
	if !h.checkPlugin(w, req.PluginName, req.ActionName) {
		return
	}

	existing, err := h.store.Actions().GetByGesture(req.Gesture)
	if err != nil {
		h.storeError(w, err, "Failed to check existing action")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Action already bound to this gesture")
		return
	}

	config := req.Config
	if config == nil {
		config = json.RawMessage("{}")
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	action := &store.Action{
		Gesture:    req.Gesture,
		PluginName: req.PluginName,
		ActionName: req.ActionName,
		Config:     config,
		Enabled:    enabled,
	}
	if err := h.store.Actions().Create(action); err != nil {
		h.storeError(w, err, "Failed to create action")
		return
	}

	writeJSON(w, http.StatusCreated, toActionResponse(action))
}

func (h *ActionHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	action, err := h.store.Actions().GetByID(id)
	if err != nil {
		h.storeError(w, err, "Failed to get action")
		return
	}

	var req updateActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Gesture != "" && req.Gesture != action.Gesture {
		if !req.Gesture.Valid() {
			writeError(w, http.StatusBadRequest, "Unknown gesture "+string(req.Gesture))
			return
		}
		existing, err := h.store.Actions().GetByGesture(req.Gesture)
		if err != nil {
			h.storeError(w, err, "Failed to check existing action")
			return
		}
		if existing != nil {
			writeError(w, http.StatusConflict, "Action already bound to this gesture")
			return
		}
		action.Gesture = req.Gesture
	}
	if req.PluginName != "" {
		action.PluginName = req.PluginName
	}
	if req.ActionName != "" {
		action.ActionName = req.ActionName
	}
	if req.PluginName != "" || req.ActionName != "" {
		if !h.checkPlugin(w, action.PluginName, action.ActionName) {
			return
		}
	}
	if req.Config != nil {
		action.Config = req.Config
	}
	if req.Enabled != nil {
		action.Enabled = *req.Enabled
	}

	if err := h.store.Actions().Update(action); err != nil {
		h.storeError(w, err, "Failed to update action")
		return
	}

	writeJSON(w, http.StatusOK, toActionResponse(action))
}

func (h *ActionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Actions().Delete(id); err != nil {
		h.storeError(w, err, "Failed to delete action")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ActionHandler) checkPlugin(w http.ResponseWriter, pluginName, action string) bool {
	if h.plugins == nil {
		return true
	}
	if err := h.plugins.Supports(pluginName, action); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *ActionHandler) storeError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Action not found")
		return
	}
	h.log.WithError(err).Error(message)
	writeError(w, http.StatusInternalServerError, message)
}
