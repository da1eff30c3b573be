package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eectl/internal/config"
)

func TestRun_NoCommand(t *testing.T) {
	err := Run(nil, &bytes.Buffer{}, strings.NewReader(""))
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRun_ConfigSetAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")

	out := &bytes.Buffer{}
	err := Run([]string{"-config", path, "config", "set", "account", "a@example.com"},
		out, strings.NewReader(""))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var written map[string]string
	require.NoError(t, json.Unmarshal(data, &written))
	assert.Equal(t, "a@example.com", written["account"])
	assert.Equal(t, config.DefaultServiceURL, written["url"])

	out.Reset()
	require.NoError(t, Run([]string{"-config", path, "config", "show"}, out, strings.NewReader("")))
	assert.Contains(t, out.String(), "account: a@example.com")
	assert.Contains(t, out.String(), config.DefaultServiceURL)
}

func TestRun_ConfigSetConfirmsOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, Run([]string{"-config", path, "config", "set", "account", "old@example.com"},
		&bytes.Buffer{}, strings.NewReader("")))

	// Declined overwrite leaves the old value in place.
	out := &bytes.Buffer{}
	require.NoError(t, Run([]string{"-config", path, "config", "set", "account", "new@example.com"},
		out, strings.NewReader("n\n")))
	assert.Contains(t, out.String(), "Overwrite?")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "old@example.com", cfg.Account)

	// Accepted overwrite persists the new value.
	require.NoError(t, Run([]string{"-config", path, "config", "set", "account", "new@example.com"},
		&bytes.Buffer{}, strings.NewReader("y\n")))
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", cfg.Account)
}

func TestRun_ConfigUnset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, Run([]string{"-config", path, "config", "set", "refresh_token", "tok"},
		&bytes.Buffer{}, strings.NewReader("")))
	require.NoError(t, Run([]string{"-config", path, "config", "unset", "refresh_token"},
		&bytes.Buffer{}, strings.NewReader("")))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.RefreshToken)
}

func TestRun_TaskWaitEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/sessions":
			json.NewEncoder(w).Encode(map[string]string{"token": "sess"})
		case "/v1/tasks/status":
			json.NewEncoder(w).Encode(map[string]any{
				"statuses": []map[string]string{{"id": "t1", "state": "COMPLETED"}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, Run([]string{"-config", path, "config", "set", "url", server.URL},
		&bytes.Buffer{}, strings.NewReader("y\n")))

	out := &bytes.Buffer{}
	err := Run([]string{"-config", path, "task", "wait", "-timeout", "30", "t1"},
		out, strings.NewReader(""))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Task t1 ended at state: COMPLETED")
}

func TestRun_TaskWaitRequiresIDs(t *testing.T) {
	err := Run([]string{"task", "wait"}, &bytes.Buffer{}, strings.NewReader(""))
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Message, "at least one task id")
}
