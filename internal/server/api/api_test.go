package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// fakePlugins knows the keyboard plugin and its two actions.
type fakePlugins struct{}

func (fakePlugins) Supports(name, action string) error {
	if name != "keyboard" {
		return fmt.Errorf("plugin not found: %s", name)
	}
	if action != "keystroke" && action != "type-message" {
		return fmt.Errorf("action not supported: %s/%s", name, action)
	}
	return nil
}

func do(h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		json.NewEncoder(&buf).Encode(b)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, &buf))
	return rec
}

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
