package machine

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	pm := NewPrometheusMetrics("")

	pm.StateChanged(StateRunning)
	pm.DownloadAttempt()
	pm.DownloadAttempt()
	pm.MetaAttempt()
	pm.ChildExited(1)
	pm.ChildExited(-1)
	pm.ChildExited(1)
	pm.CleanupFailure()

	count, err := testutil.GatherAndCount(pm.Registry)
	require.NoError(t, err)
	assert.Equal(t, 6, count) // one series per metric, two for child exits

	expected := `
# HELP xray_download_attempts_total Total number of release download attempts
# TYPE xray_download_attempts_total counter
xray_download_attempts_total 2
# HELP xray_child_exits_total Exits of the xray child process by exit code
# TYPE xray_child_exits_total counter
xray_child_exits_total{code="-1"} 1
xray_child_exits_total{code="1"} 2
# HELP xray_launcher_state Current launcher state, see machine.State
# TYPE xray_launcher_state gauge
xray_launcher_state 6
`
	require.NoError(t, testutil.GatherAndCompare(pm.Registry, strings.NewReader(expected),
		"xray_download_attempts_total", "xray_child_exits_total", "xray_launcher_state"))
}

func TestNoopMetrics(t *testing.T) {
	m := NewNoopMetrics()
	assert.NotPanics(t, func() {
		m.StateChanged(StateIdle)
		m.DownloadAttempt()
		m.MetaAttempt()
		m.ChildExited(0)
		m.CleanupFailure()
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Running", StateRunning.String())
	assert.Equal(t, "Terminated", StateTerminated.String())
	assert.Equal(t, "Unknown", State(42).String())
}
