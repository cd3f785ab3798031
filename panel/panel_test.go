package panel_test

import (
	"testing"

	"github.com/e1732a364fed/xray_launcher/panel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	env, err := panel.Detect(panel.MapLookup(map[string]string{
		"SERVER_IP":     "10.0.0.5",
		"SERVER_PORT":   "25565",
		"SERVER_MEMORY": "64",
	}))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", env.ServerIP)
	assert.Equal(t, 25565, env.ServerPort)
	assert.Equal(t, "64", env.Memory)
}

func TestDetectMissing(t *testing.T) {
	cases := []map[string]string{
		{},
		{"SERVER_IP": "10.0.0.5"},
		{"SERVER_PORT": "25565"},
		{"SERVER_IP": "", "SERVER_PORT": "25565"},
	}
	for _, c := range cases {
		_, err := panel.Detect(panel.MapLookup(c))
		require.ErrorIs(t, err, panel.ErrNotDetected, "%v", c)
	}
}

func TestDetectBadPort(t *testing.T) {
	for _, p := range []string{"abc", "0", "-1", "70000"} {
		_, err := panel.Detect(panel.MapLookup(map[string]string{
			"SERVER_IP":   "10.0.0.5",
			"SERVER_PORT": p,
		}))
		require.ErrorIs(t, err, panel.ErrBadPort, p)
	}
}

func TestDetectPortWithSpaces(t *testing.T) {
	for _, p := range []string{"25565 ", " 25565", "25565\n"} {
		env, err := panel.Detect(panel.MapLookup(map[string]string{
			"SERVER_IP":   "10.0.0.5",
			"SERVER_PORT": p,
		}))
		require.NoError(t, err, "%q", p)
		assert.Equal(t, 25565, env.ServerPort)
	}
}
