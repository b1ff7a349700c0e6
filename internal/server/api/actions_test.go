package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

func newActionHandler(t *testing.T) (*ActionHandler, *store.Store) {
	t.Helper()
	s := setupTestStore(t)
	log, _ := test.NewNullLogger()
	return NewActionHandler(s, fakePlugins{}, log), s
}

func TestActionHandler_CreateAndGet(t *testing.T) {
	h, _ := newActionHandler(t)

	rec := do(h, http.MethodPost, "/api/actions", map[string]interface{}{
		"gesture":     "love",
		"plugin_name": "keyboard",
		"action_name": "type-message",
		"config":      map[string]string{"suffix": " "},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created actionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, gesture.LabelLove, created.Gesture)
	assert.True(t, created.Enabled)
	assert.JSONEq(t, `{"suffix":" "}`, string(created.Config))

	rec = do(h, http.MethodGet, "/api/actions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got actionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Gesture, got.Gesture)
	assert.Equal(t, "type-message", got.ActionName)
	assert.JSONEq(t, string(created.Config), string(got.Config))
}

func TestActionHandler_CreateValidation(t *testing.T) {
	h, _ := newActionHandler(t)

	tests := []struct {
		name string
		body interface{}
		code int
		want string
	}{
		{name: "invalid json", body: "{not json", code: http.StatusBadRequest, want: "Invalid JSON"},
		{name: "missing gesture", body: map[string]string{"plugin_name": "keyboard", "action_name": "keystroke"}, code: http.StatusBadRequest, want: "gesture is required"},
		{name: "unknown gesture", body: map[string]string{"gesture": "wave", "plugin_name": "keyboard", "action_name": "keystroke"}, code: http.StatusBadRequest, want: "Unknown gesture wave"},
		{name: "unknown is not bindable", body: map[string]string{"gesture": "unknown", "plugin_name": "keyboard", "action_name": "keystroke"}, code: http.StatusBadRequest, want: "Unknown gesture"},
		{name: "missing plugin", body: map[string]string{"gesture": "open", "action_name": "keystroke"}, code: http.StatusBadRequest, want: "plugin_name is required"},
		{name: "missing action", body: map[string]string{"gesture": "open", "plugin_name": "keyboard"}, code: http.StatusBadRequest, want: "action_name is required"},
		{name: "unknown plugin", body: map[string]string{"gesture": "open", "plugin_name": "lights", "action_name": "on"}, code: http.StatusBadRequest, want: "plugin not found"},
		{name: "unsupported action", body: map[string]string{"gesture": "open", "plugin_name": "keyboard", "action_name": "volume-up"}, code: http.StatusBadRequest, want: "action not supported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/api/actions", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestActionHandler_OneActionPerGesture(t *testing.T) {
	h, _ := newActionHandler(t)

	body := map[string]string{"gesture": "pinch", "plugin_name": "keyboard", "action_name": "keystroke"}
	require.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/api/actions", body).Code)

	rec := do(h, http.MethodPost, "/api/actions", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestActionHandler_List(t *testing.T) {
	h, s := newActionHandler(t)

	rec := do(h, http.MethodGet, "/api/actions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"actions":[]}`, rec.Body.String())

	for _, l := range []gesture.Label{gesture.LabelOpen, gesture.LabelYou} {
		require.NoError(t, s.Actions().Create(&store.Action{Gesture: l, PluginName: "keyboard", ActionName: "keystroke", Enabled: true}))
	}

	rec = do(h, http.MethodGet, "/api/actions", nil)
	var list listActionsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list.Actions, 2)
}

func TestActionHandler_Update(t *testing.T) {
	h, s := newActionHandler(t)

	a := &store.Action{Gesture: gesture.LabelOpen, PluginName: "keyboard", ActionName: "keystroke", Enabled: true}
	require.NoError(t, s.Actions().Create(a))
	require.NoError(t, s.Actions().Create(&store.Action{Gesture: gesture.LabelClosed, PluginName: "keyboard", ActionName: "keystroke", Enabled: true}))

	rec := do(h, http.MethodPut, "/api/actions/"+a.ID, map[string]interface{}{
		"gesture":     "point",
		"action_name": "type-message",
		"enabled":     false,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got, err := s.Actions().GetByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, gesture.LabelPoint, got.Gesture)
	assert.Equal(t, "type-message", got.ActionName)
	assert.False(t, got.Enabled)

	t.Run("rebinding to a taken gesture conflicts", func(t *testing.T) {
		rec := do(h, http.MethodPut, "/api/actions/"+a.ID, map[string]string{"gesture": "closed"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unsupported action", func(t *testing.T) {
		rec := do(h, http.MethodPut, "/api/actions/"+a.ID, map[string]string{"action_name": "wave"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		rec := do(h, http.MethodPut, "/api/actions/missing", map[string]string{"action_name": "keystroke"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestActionHandler_Delete(t *testing.T) {
	h, s := newActionHandler(t)

	a := &store.Action{Gesture: gesture.LabelYou, PluginName: "keyboard", ActionName: "keystroke", Enabled: true}
	require.NoError(t, s.Actions().Create(a))

	assert.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, "/api/actions/"+a.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodDelete, "/api/actions/"+a.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/api/actions/"+a.ID, nil).Code)
}

func TestActionHandler_MethodNotAllowed(t *testing.T) {
	h, _ := newActionHandler(t)

	assert.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodPatch, "/api/actions", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodPost, "/api/actions/some-id", nil).Code)
}

func TestActionHandler_NoPluginChecker(t *testing.T) {
	s := setupTestStore(t)
	log, _ := test.NewNullLogger()
	h := NewActionHandler(s, nil, log)

	rec := do(h, http.MethodPost, "/api/actions", map[string]string{
		"gesture": "open", "plugin_name": "anything", "action_name": "whatever",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}
