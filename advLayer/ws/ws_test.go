package ws_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/e1732a364fed/xray_launcher/advLayer/ws"
	gobwas "github.com/gobwas/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func portOf(t *testing.T, ts *httptest.Server) int {
	_, p, err := net.SplitHostPort(ts.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(p)
	require.NoError(t, err)
	return port
}

func TestProbe(t *testing.T) {
	var gotHost atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1a2b3c4d" {
			http.NotFound(w, r)
			return
		}
		gotHost.Store(r.Host)
		conn, _, _, err := gobwas.UpgradeHTTP(r, w)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer ts.Close()

	p := ws.NewProbe(portOf(t, ts), "cdn.example.com", "/1a2b3c4d")
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, "cdn.example.com", gotHost.Load())
}

func TestProbeWrongPath(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	}))
	defer ts.Close()

	p := ws.NewProbe(portOf(t, ts), "cdn.example.com", "/wrong")
	p.Policy.Attempts = 2
	p.Policy.Backoff = nil

	require.Error(t, p.Run(context.Background()))
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}
