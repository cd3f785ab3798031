package netLayer_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/e1732a364fed/xray_launcher/netLayer"
	"github.com/e1732a364fed/xray_launcher/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaLabel(t *testing.T) {
	assert.Equal(t, "US-Cloudflare,_Inc.", netLayer.MetaInfo{Country: "US", AsOrganization: "Cloudflare, Inc."}.Label())
	assert.Equal(t, "XX-Some_Org", netLayer.MetaInfo{Country: "XX", AsOrganization: "Some Org"}.Label())
	assert.Equal(t, "UK-Org", netLayer.MetaInfo{Country: "UK", AsOrganization: "Org"}.Label())
	assert.Equal(t, "T1-Org", netLayer.MetaInfo{Country: "T1", AsOrganization: "Org"}.Label())
	assert.Equal(t, "DE-Org", netLayer.MetaInfo{Country: "Germany", AsOrganization: "Org"}.Label())
}

func TestMetaFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"hostname":"speed.cloudflare.com","country":"DE","asOrganization":"Hetzner Online GmbH","colo":"FRA"}`)
	}))
	defer ts.Close()

	mc := netLayer.NewMetaClient(ts.URL, utils.RetryPolicy{Attempts: 3})
	assert.Equal(t, "DE-Hetzner_Online_GmbH", mc.Fetch(context.Background()))
}

func TestMetaFetchFallsBackToUnknown(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if atomic.LoadInt32(&hits)%2 == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{not json`)
	}))
	defer ts.Close()

	var attempts int
	mc := netLayer.NewMetaClient(ts.URL, utils.RetryPolicy{Attempts: 3})
	mc.OnAttempt = func() { attempts++ }

	require.Equal(t, netLayer.UnknownISP, mc.Fetch(context.Background()))
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
	assert.Equal(t, 3, attempts)
}

func TestMetaFetchUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	mc := netLayer.NewMetaClient(url, utils.RetryPolicy{Attempts: 2})
	assert.Equal(t, netLayer.UnknownISP, mc.Fetch(context.Background()))
}
