package configAdapter_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/e1732a364fed/xray_launcher/configAdapter"
	"github.com/e1732a364fed/xray_launcher/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToVlessShareURL(t *testing.T) {
	s := configAdapter.ToVlessShareURL(configAdapter.ShareConf{
		UUID:   utils.ExampleUUID,
		Domain: "cdn.example.com",
		Path:   "/1a2b3c4d",
		Tag:    "Panel-US-Cloudflare,_Inc.",
	})

	assert.Equal(t, "vless://"+utils.ExampleUUID+"@cdn.example.com:443?encryption=none&security=tls&type=ws&host=cdn.example.com&path=%2F1a2b3c4d&sni=cdn.example.com#Panel-US-Cloudflare%2C_Inc.", s)
}

func TestVlessShareURLRoundTrip(t *testing.T) {
	cases := []configAdapter.ShareConf{
		{UUID: utils.ExampleUUID, Domain: "cdn.example.com", Path: "/abcd", Tag: "Panel-Unknown"},
		{UUID: utils.ExampleUUID, Domain: "xn--fiqs8s.example", Path: "/a b&c=d?e#f", Tag: "My Node #1 / 中文 100%"},
		{UUID: utils.ExampleUUID, Domain: "a.b", Path: "/+plus+", Tag: "a+b"},
	}

	for _, c := range cases {
		s := configAdapter.ToVlessShareURL(c)

		assert.NotContains(t, s, " ")
		assert.Equal(t, 1, strings.Count(s, "#"))

		got, err := configAdapter.FromVlessShareURL(s)
		require.NoError(t, err)
		assert.Equal(t, c, got)

		u, err := url.Parse(s)
		require.NoError(t, err)
		assert.Equal(t, c.Domain, u.Query().Get("sni"))
		assert.Equal(t, "443", u.Port())
	}
}
