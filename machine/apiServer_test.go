package machine

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApiHandler(t *testing.T) {
	c := DefaultConf()
	c.App.Domain = "cdn.example.com"
	m, err := New(c)
	require.NoError(t, err)
	pm := NewPrometheusMetrics("")
	m.Metrics = pm
	m.setState(StateDetecting)

	ts := httptest.NewServer(m.ApiHandler(pm.Registry))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sr StateReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sr))
	assert.Equal(t, "Detecting", sr.State)
	assert.False(t, sr.ChildRunning)

	resp2, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp2.Body.Close()
	bs, err := io.ReadAll(resp2.Body)
	require.NoError(t, err)
	assert.Contains(t, string(bs), "xray_launcher_state 1")
}

func TestApiHandlerAuth(t *testing.T) {
	c := DefaultConf()
	c.ApiServer.AdminPass = "secret"
	c.ApiServer.PathPrefix = "/x/"
	m, err := New(c)
	require.NoError(t, err)

	ts := httptest.NewServer(m.ApiHandler(nil))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/x/state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/x/state", nil)
	req.SetBasicAuth("admin", "secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTryRunApiServer(t *testing.T) {
	c := DefaultConf()
	c.ApiServer.Addr = "127.0.0.1:0"
	m, err := New(c)
	require.NoError(t, err)

	srv, err := m.TryRunApiServer(nil)
	require.NoError(t, err)
	require.NoError(t, srv.Close())
}
